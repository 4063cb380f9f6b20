package tray

import "sync/atomic"

// mainLoop runs functions posted from other goroutines on the goroutine
// that called serve.
type mainLoop struct {
	calls  chan func()
	active atomic.Bool
}

func newMainLoop() *mainLoop {
	return &mainLoop{calls: make(chan func())}
}

// uiThread carries the tray loop to the main thread where the platform needs it.
var uiThread = newMainLoop()

// serve runs body on a new goroutine and executes posted calls on the
// current one until body returns.
func (l *mainLoop) serve(body func()) {
	done := make(chan struct{})
	l.active.Store(true)
	defer l.active.Store(false)

	go func() {
		defer close(done)
		body()
	}()

	for {
		select {
		case fn := <-l.calls:
			fn()
		case <-done:
			return
		}
	}
}

// do runs fn on the serving goroutine and waits for it. Without a serving
// goroutine fn runs inline. If quit closes before fn is picked up, fn is
// skipped.
func (l *mainLoop) do(fn func(), quit <-chan struct{}) {
	if !l.active.Load() {
		fn()
		return
	}

	finished := make(chan struct{})
	select {
	case l.calls <- func() {
		defer close(finished)
		fn()
	}:
	case <-quit:
		return
	}
	<-finished
}
