// -----------------------------------------------------------------------
// Safe Goroutine - panic-protected background work
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
)

// SafeRun executes fn and converts a panic into a logged error instead of crashing the process.
// Used for background jobs (the scratch janitor, the HTTP listener) where one bad run must not
// take the process down silently.
// Returns true when fn completed without panicking.
func SafeRun(logger arbor.ILogger, name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			stackTrace := GetStackTrace()
			if logger != nil {
				logger.Error().
					Str("task", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stackTrace).
					Msg("Recovered from panic in background task")
				return
			}
			fmt.Fprintf(os.Stderr, "PANIC in %s: %v\n%s\n", name, r, stackTrace)
		}
	}()

	fn()
	return true
}

// SafeGo runs fn in a goroutine with SafeRun protection
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	go SafeRun(logger, name, fn)
}
