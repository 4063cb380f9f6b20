// ABOUTME: Panic containment for goroutines that run collaborator code.
// ABOUTME: A panic is logged with its stack instead of taking the process down.
package errorhandler

import (
	"fmt"
	"runtime/debug"

	"github.com/runegard/runegard/internal/logging"
)

// SafeGo runs fn on a new goroutine, recovering and logging any panic.
func SafeGo(fn func()) {
	go func() {
		defer HandlePanic("goroutine")
		fn()
	}()
}

// SafeCall runs fn on the current goroutine and converts a panic into an error.
func SafeCall(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("[%s] panic recovered: %v\n%s", name, r, debug.Stack())
			err = fmt.Errorf("%s panicked: %v", name, r)
		}
	}()
	return fn()
}

// HandlePanic must be deferred; it logs and swallows a panic.
func HandlePanic(name string) {
	if r := recover(); r != nil {
		logging.Error("[%s] panic recovered: %v\n%s", name, r, debug.Stack())
	}
}
