// Package dispatch fans one event out to a list of handlers and reports the
// outcome of every handler, in handler order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/ruco/logging"
)

// ErrHandlerPanic wraps the value recovered from a panicking handler.
var ErrHandlerPanic = errors.New("handler panicked")

// PanicError carries the value recovered from a panicking handler.
// It matches ErrHandlerPanic with errors.Is.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrHandlerPanic, e.Value)
}

func (e *PanicError) Unwrap() error {
	return ErrHandlerPanic
}

// Handler receives one event.
type Handler[E any] func(event E) error

// Dispatch calls every handler with event, in order. The result has one
// entry per handler: nil on success, otherwise the returned error or a
// *PanicError. A failing handler never stops the others.
func Dispatch[E any](handlers []Handler[E], event E) []error {
	errs := make([]error, len(handlers))
	for i, h := range handlers {
		errs[i] = call(h, event)
	}
	return errs
}

// Concurrent is Dispatch with handlers running on up to limit goroutines
// (no limit when limit <= 0). Handlers not yet started when ctx is done
// report ctx.Err().
func Concurrent[E any](ctx context.Context, limit int, handlers []Handler[E], event E) []error {
	errs := make([]error, len(handlers))
	g := &errgroup.Group{}
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, h := range handlers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = call(h, event)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // outcomes are reported per handler
	return errs
}

// Failed counts the non-nil outcomes.
func Failed(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}

func call[E any](h Handler[E], event E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
			logging.Dbg(string(debug.Stack()))
			logging.Dbg("unhandled panic in event dispatch:", err)
		}
	}()

	if h == nil {
		return nil
	}
	if err = h(event); err != nil {
		logging.Dbg("handler failed in event dispatch:", err)
	}
	return err
}
