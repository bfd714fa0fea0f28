package util

import (
	"fmt"
	"runtime/debug"

	"github.com/starkstake/starkstake/internal/logging"
)

// SafeGoWithName runs fn in a named goroutine, logging any panic with its stack
// instead of crashing the process.
func SafeGoWithName(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("goroutine panic recovered",
					"goroutine", name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}

// Recover converts a panic inside fn into an error.
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("panic recovered",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("unexpected panic: %v", r)
		}
	}()
	return fn()
}
