package integration

import (
	"errors"
	"io"
	"runtime"
	"testing"
	"time"

	"github.com/zoobzio/ruco"
	"github.com/zoobzio/ruco/logging"
)

func explode() {
	defer ruco.Func()()
	panic(errors.New("explode"))
}

func guarded() (err error) {
	defer ruco.Func()()
	defer func() {
		if r := recover(); r != nil {
			err = r.(error)
		}
	}()
	explode()
	return nil
}

// TestPanicUnwindingKeepsPairs verifies EXIT lines are written while a panic
// unwinds through traced frames, at the depth of their CALL.
func TestPanicUnwindingKeepsPairs(t *testing.T) {
	m := Trace(t)

	if err := guarded(); err == nil || err.Error() != "explode" {
		t.Fatalf("Expected recovered panic, got %v", err)
	}

	lines := m.GetAll()
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d\n%s", len(lines), Tree(lines))
	}
	if lines[2].Kind != "EXIT" || lines[2].Name != pkg+"explode" {
		t.Errorf("Expected EXIT of explode during unwinding, got %+v", lines[2])
	}
	AssertBalanced(t, lines)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

// TestBrokenSinkIsInvisible verifies sink failures never reach traced code.
func TestBrokenSinkIsInvisible(t *testing.T) {
	logging.SetError(io.Discard)
	t.Cleanup(func() { logging.SetError(nil) })

	ruco.Enable(ruco.WithWriter(brokenWriter{}), ruco.WithFilter(false))
	t.Cleanup(ruco.Close)

	before := ruco.ReadStats()
	if got := branch(1); got != 4 {
		t.Fatalf("Expected traced result 4, got %d", got)
	}
	after := ruco.ReadStats()

	if after.Dropped-before.Dropped != 6 {
		t.Errorf("Expected 6 dropped events, got %d", after.Dropped-before.Dropped)
	}
	if after.Emitted != before.Emitted {
		t.Error("Expected nothing emitted through a broken sink")
	}
}

// TestNoGoroutineLeakAfterClose verifies Close stops observer workers.
func TestNoGoroutineLeakAfterClose(t *testing.T) {
	runtime.GC()
	baseline := runtime.NumGoroutine()

	for i := 0; i < 5; i++ {
		m := NewMockCollector(t, "leak", 16)
		ruco.Enable(ruco.WithWriter(m), ruco.WithFilter(false))
		if err := ruco.EnableWorkerPool(4, 16); err != nil {
			t.Fatalf("Failed to enable worker pool: %v", err)
		}
		ruco.OnEventAsync(func(ruco.TraceEvent) error { return nil })
		branch(i)
		ruco.Close()
		m.Close()
	}

	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > baseline && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := runtime.NumGoroutine(); n > baseline {
		t.Errorf("Expected goroutines to return to %d, got %d", baseline, n)
	}
}

// TestDisabledTracerAllocatesNothing verifies the disabled path is free.
func TestDisabledTracerAllocatesNothing(t *testing.T) {
	ruco.Disable()

	allocs := testing.AllocsPerRun(100, func() {
		leaf(1)
	})
	if allocs != 0 {
		t.Errorf("Expected no allocations while disabled, got %.1f", allocs)
	}
}
