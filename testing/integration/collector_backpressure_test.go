package integration

import (
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/ruco"
)

// TestAsyncCollectorUnderLoad verifies an async collector as the sink
// accounts for every line as buffered or dropped.
func TestAsyncCollectorUnderLoad(t *testing.T) {
	collector := ruco.NewCollector("async-load", 16)
	defer collector.Close()

	ruco.Enable(ruco.WithWriter(collector), ruco.WithFilter(false))
	t.Cleanup(ruco.Close)

	before := ruco.ReadStats().Emitted

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				leaf(i)
			}
		}()
	}
	wg.Wait()
	ruco.Disable()

	emitted := int64(ruco.ReadStats().Emitted - before)
	if emitted != 8*100*2 {
		t.Fatalf("Expected %d emitted lines, got %d", 8*100*2, emitted)
	}

	// Let the collector goroutine drain its queue.
	deadline := time.Now().Add(time.Second)
	for int64(collector.Count())+collector.DroppedCount() < emitted && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if got := int64(collector.Count()) + collector.DroppedCount(); got != emitted {
		t.Errorf("Expected buffered + dropped = %d, got %d", emitted, got)
	}
}

// TestSlowObserverDoesNotBlockWithWorkerPool verifies a full async queue
// drops observer calls instead of stalling traced code.
func TestSlowObserverDoesNotBlockWithWorkerPool(t *testing.T) {
	m := Trace(t)

	if err := ruco.EnableWorkerPool(1, 4); err != nil {
		t.Fatalf("Failed to enable worker pool: %v", err)
	}
	release := make(chan struct{})
	ruco.OnEventAsync(func(ruco.TraceEvent) error {
		<-release
		return nil
	})
	defer close(release)

	before := ruco.ReadStats().AsyncDropped
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			leaf(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Traced code blocked on a slow observer")
	}

	if ruco.ReadStats().AsyncDropped == before {
		t.Error("Expected async drops with a saturated queue")
	}
	m.AssertLineCount(100)
}
