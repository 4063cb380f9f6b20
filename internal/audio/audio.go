// ABOUTME: Chime playback through miniaudio (malgo) with per-player device and volume.
// ABOUTME: Decodes MP3/WAV/FLAC/OGG with beep and AIFF with go-audio into 16-bit PCM.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/aiff"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// ErrUnsupportedFormat is returned for files whose extension has no decoder.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DeviceInfo describes a playback device.
type DeviceInfo struct {
	Name      string
	IsDefault bool
	id        malgo.DeviceID
}

// pcm is decoded interleaved 16-bit audio
type pcm struct {
	samples    []int16
	channels   int
	sampleRate int
}

func (p *pcm) duration() time.Duration {
	if p.channels == 0 || p.sampleRate == 0 {
		return 0
	}
	frames := len(p.samples) / p.channels
	return time.Duration(frames) * time.Second / time.Duration(p.sampleRate)
}

// Player plays sound files on one output device. Play calls are serialized.
type Player struct {
	ctx        *malgo.AllocatedContext
	deviceName string
	deviceID   *malgo.DeviceID
	volume     float64

	mu     sync.Mutex
	closed bool
}

func initContext() (*malgo.AllocatedContext, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	return ctx, nil
}

func freeContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}

// ListDevices returns the playback devices known to the audio backend.
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := initContext()
	if err != nil {
		return nil, err
	}
	defer freeContext(ctx)

	return playbackDevices(ctx)
}

func playbackDevices(ctx *malgo.AllocatedContext) ([]DeviceInfo, error) {
	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate playback devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, DeviceInfo{
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
			id:        info.ID,
		})
	}
	return devices, nil
}

// NewPlayer creates a player for deviceName (empty selects the system
// default) at volume 0.0-1.0.
func NewPlayer(deviceName string, volume float64) (*Player, error) {
	ctx, err := initContext()
	if err != nil {
		return nil, err
	}

	p := &Player{
		ctx:        ctx,
		deviceName: deviceName,
		volume:     clampVolume(volume),
	}

	if deviceName != "" {
		devices, err := playbackDevices(ctx)
		if err != nil {
			freeContext(ctx)
			return nil, err
		}
		for _, d := range devices {
			if d.Name == deviceName {
				id := d.id
				p.deviceID = &id
				break
			}
		}
		if p.deviceID == nil {
			freeContext(ctx)
			return nil, fmt.Errorf("audio device %q not found", deviceName)
		}
	}

	return p, nil
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Play decodes path and blocks until it has been played.
func (p *Player) Play(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.ctx == nil {
		return errors.New("audio player is closed")
	}

	data, err := decodeFile(path)
	if err != nil {
		return err
	}
	if len(data.samples) == 0 {
		return nil
	}
	applyVolume(data.samples, p.volume)

	return p.playPCM(data)
}

func (p *Player) playPCM(data *pcm) error {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = uint32(data.channels)
	cfg.SampleRate = uint32(data.sampleRate)
	if p.deviceID != nil {
		cfg.Playback.DeviceID = p.deviceID.Pointer()
	}

	raw := samplesToBytes(data.samples)
	done := make(chan struct{})
	var (
		offset   int
		doneOnce sync.Once
	)

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			n := copy(out, raw[offset:])
			offset += n
			for i := n; i < len(out); i++ {
				out[i] = 0
			}
			if offset >= len(raw) {
				doneOnce.Do(func() { close(done) })
			}
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, cfg, callbacks)
	if err != nil {
		return fmt.Errorf("failed to open playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	// Bound the wait in case the backend stops pulling frames.
	select {
	case <-done:
		// let the last period reach the speaker
		time.Sleep(100 * time.Millisecond)
	case <-time.After(data.duration() + 2*time.Second):
		return errors.New("playback timed out")
	}
	return nil
}

// Close releases the audio context. Safe to call more than once.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.ctx != nil {
		freeContext(p.ctx)
		p.ctx = nil
	}
	return nil
}

// decodeFile picks a decoder by file extension
func decodeFile(path string) (*pcm, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".wav", ".flac", ".ogg", ".oga":
	case ".aiff", ".aif":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer f.Close()

	switch ext {
	case ".aiff", ".aif":
		return decodeAIFF(f)
	default:
		return decodeBeep(ext, f)
	}
}

func decodeBeep(ext string, f *os.File) (*pcm, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(io.NopCloser(f))
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		streamer, format, err = vorbis.Decode(io.NopCloser(f))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", ext, err)
	}
	defer streamer.Close()

	return streamToPCM(streamer, format), nil
}

// streamToPCM drains a beep streamer into interleaved stereo 16-bit samples
func streamToPCM(s beep.Streamer, format beep.Format) *pcm {
	out := &pcm{channels: 2, sampleRate: int(format.SampleRate)}
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			out.samples = append(out.samples, floatToInt16(frame[0]), floatToInt16(frame[1]))
		}
		if !ok {
			return out
		}
	}
}

func floatToInt16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}

func decodeAIFF(r io.ReadSeeker) (*pcm, error) {
	d := aiff.NewDecoder(r)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode AIFF: %w", err)
	}
	if buf.Format == nil {
		return nil, errors.New("AIFF file has no format")
	}

	return &pcm{
		samples:    intBufferToSamples(buf, int(d.BitDepth)),
		channels:   buf.Format.NumChannels,
		sampleRate: buf.Format.SampleRate,
	}, nil
}

// intBufferToSamples converts samples of the given bit depth to 16-bit
func intBufferToSamples(buf *goaudio.IntBuffer, bitDepth int) []int16 {
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		switch bitDepth {
		case 8:
			samples[i] = int16(v << 8)
		case 24:
			samples[i] = int16(v >> 8)
		case 32:
			samples[i] = int16(v >> 16)
		default:
			samples[i] = int16(v)
		}
	}
	return samples
}

func applyVolume(samples []int16, volume float64) {
	if volume >= 1 {
		return
	}
	for i, s := range samples {
		samples[i] = int16(float64(s) * volume)
	}
}

// samplesToBytes encodes samples as little-endian 16-bit PCM
func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
