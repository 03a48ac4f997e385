// Package timing holds the timeout-bounded polling loop and duration
// formatting used by ruco tooling.
package timing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"
)

// ErrNegativeInterval is returned by Spin when interval < 0.
var ErrNegativeInterval = errors.New("interval must be >= 0")

// Poller runs polling loops against a clock.
type Poller struct {
	clock clockz.Clock
}

// NewPoller creates a poller using the real clock.
func NewPoller() *Poller {
	return &Poller{clock: clockz.RealClock}
}

// WithClock returns a poller using the specified clock.
// Enables clock injection for deterministic testing.
func (*Poller) WithClock(clock clockz.Clock) *Poller {
	return &Poller{clock: clock}
}

var defaultPoller = NewPoller()

// Spin polls test with the real clock. See Poller.Spin.
func Spin(ctx context.Context, timeout, interval time.Duration, test func() bool) (bool, error) {
	return defaultPoller.Spin(ctx, timeout, interval, test)
}

// Spin calls test every interval until it returns true or timeout elapses.
//
// A positive timeout bounds the loop; the time spent inside test counts
// against it. A zero timeout calls test exactly once. A negative timeout
// polls until test succeeds or ctx is done. A nil test never succeeds.
// Spin reports whether test succeeded.
func (p *Poller) Spin(ctx context.Context, timeout, interval time.Duration, test func() bool) (bool, error) {
	if interval < 0 {
		return false, fmt.Errorf("%w: got %s", ErrNegativeInterval, interval)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 && interval > 0 {
		interval = min(timeout, interval)
	}

	remaining := timeout
	if timeout <= 0 {
		remaining = 1
	}

	for remaining > 0 {
		start := p.clock.Now()
		if test != nil && test() {
			return true, nil
		}
		if timeout == 0 {
			return false, nil
		}

		testTime := p.clock.Since(start)
		sleepTime := max(interval-testTime, 0)

		if timeout < 0 {
			if err := p.sleep(ctx, sleepTime); err != nil {
				return false, err
			}
			continue
		}

		remaining -= testTime
		if remaining > 0 {
			start = p.clock.Now()
			if err := p.sleep(ctx, min(sleepTime, remaining)); err != nil {
				return false, err
			}
			remaining -= p.clock.Since(start)
		}
	}
	return false, nil
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-p.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FormatSeconds renders whole seconds as hours, minutes and seconds,
// e.g. 3725 -> "1h2m5s".
func FormatSeconds(seconds int) string {
	h, r := seconds/3600, seconds%3600
	m, s := r/60, r%60
	return fmt.Sprintf("%dh%dm%ds", h, m, s)
}
