// Package panics provides goroutine-safe panic recovery for the worker
// pool and event loop, in the style of the teacher's util/panics package.
package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/theQRL/qrl-core-go/logs"
)

// HandlePanic recovers a panic, logs it along with the captured goroutine
// stack trace, and then exits the process. It is meant to be deferred at
// the top of every spawned goroutine.
func HandlePanic(log logs.Logger, goroutineStackTrace []byte) {
	err := recover()
	if err == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		log.Criticalf("Fatal error: %+v", err)
		if goroutineStackTrace != nil {
			log.Criticalf("Goroutine stack trace: %s", goroutineStackTrace)
		}
		log.Criticalf("Stack trace: %s", debug.Stack())
		close(done)
	}()

	const timeout = 5 * time.Second
	select {
	case <-time.After(timeout):
		fmt.Fprintln(os.Stderr, "Couldn't handle a fatal error. Exiting...")
	case <-done:
	}
	log.Criticalf("Exiting")
	os.Exit(1)
}

// GoroutineWrapperFunc returns a function that spawns f in a new goroutine
// guarded by HandlePanic, capturing the caller's stack trace so a panic
// deep in f still reports where it was spawned from.
func GoroutineWrapperFunc(log logs.Logger) func(func()) {
	return func(f func()) {
		stackTrace := debug.Stack()
		go func() {
			defer HandlePanic(log, stackTrace)
			f()
		}()
	}
}

// Exit writes reason to log, waits for the write to flush, and exits.
func Exit(log logs.Logger, reason string) {
	done := make(chan struct{})
	go func() {
		log.Criticalf("Exiting: %s", reason)
		close(done)
	}()

	const timeout = 5 * time.Second
	select {
	case <-time.After(timeout):
		fmt.Fprintln(os.Stderr, "Couldn't exit gracefully.")
	case <-done:
	}
	os.Exit(1)
}
