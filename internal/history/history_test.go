package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runegard/runegard/internal/listener"
)

func openStore(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), limit)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func message(i int) listener.Message {
	return listener.Message{
		ID:         fmt.Sprintf("id-%d", i),
		ReceivedAt: time.Unix(1700000000+int64(i), 0),
		Remote:     "127.0.0.1:5000",
		Body:       fmt.Sprintf("message %d", i),
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openStore(t, 10)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Record(message(i)))
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "message 3", got[0].Body)
	assert.Equal(t, "message 2", got[1].Body)
	assert.Equal(t, "id-3", got[0].ID)
	assert.Equal(t, "127.0.0.1:5000", got[0].Remote)
	assert.True(t, got[0].ReceivedAt.Equal(time.Unix(1700000003, 0)))
}

func TestStore_PrunesToLimit(t *testing.T) {
	s := openStore(t, 3)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		require.NoError(t, s.Record(message(i)))
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"message 7", "message 6", "message 5"},
		[]string{got[0].Body, got[1].Body, got[2].Body})
}

func TestStore_EmptyAndUnicodeBodies(t *testing.T) {
	s := openStore(t, 5)

	require.NoError(t, s.Record(listener.Message{ID: "a", ReceivedAt: time.Now(), Body: ""}))
	require.NoError(t, s.Record(listener.Message{ID: "b", ReceivedAt: time.Now(), Body: "déploiement terminé ✓"}))

	got, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "déploiement terminé ✓", got[0].Body)
	assert.Equal(t, "", got[1].Body)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path, 5)
	require.NoError(t, err)
	require.NoError(t, s.Record(message(1)))
	require.NoError(t, s.Close())

	s, err = Open(path, 5)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Clear(t *testing.T) {
	s := openStore(t, 5)
	ctx := context.Background()
	require.NoError(t, s.Record(message(1)))

	require.NoError(t, s.Clear(ctx))

	got, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	s := openStore(t, 5)
	require.NoError(t, s.Record(message(1)))
	assert.Error(t, s.Record(message(1)))
}

func TestOpen_InvalidLimit(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "history.db"), 0)
	assert.Error(t, err)
}

func TestStore_ImplementsRecorder(t *testing.T) {
	var _ listener.Recorder = openStore(t, 1)
}
