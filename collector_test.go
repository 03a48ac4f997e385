package ruco

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"
)

var _ io.Writer = (*Collector)(nil)

func TestNewCollector(t *testing.T) {
	collector := NewCollector("test-collector", 100)
	defer collector.Close()

	if collector.Name() != "test-collector" {
		t.Errorf("Expected name test-collector, got %s", collector.Name())
	}

	if collector.Count() != 0 {
		t.Errorf("Expected 0 lines initially, got %d", collector.Count())
	}

	if collector.DroppedCount() != 0 {
		t.Errorf("Expected 0 dropped lines initially, got %d", collector.DroppedCount())
	}
}

func TestCollectorBasicCollection(t *testing.T) {
	collector := NewCollector("test", 10)
	collector.SetSyncMode(true) // Enable sync for deterministic testing.
	defer collector.Close()

	n, err := collector.Write([]byte("main . CALL main.f\n"))
	if err != nil || n != 19 {
		t.Fatalf("Expected full write, got n=%d err=%v", n, err)
	}

	if collector.Count() != 1 {
		t.Errorf("Expected 1 line, got %d", collector.Count())
	}

	lines := collector.Export()
	if len(lines) != 1 || lines[0] != "main . CALL main.f\n" {
		t.Errorf("Unexpected export %q", lines)
	}

	// After export, collector should be empty.
	if collector.Count() != 0 {
		t.Errorf("Expected 0 lines after export, got %d", collector.Count())
	}
	if collector.Export() != nil {
		t.Error("Expected nil export from empty collector")
	}
}

func TestCollectorWriteCopiesInput(t *testing.T) {
	collector := NewCollector("test", 10)
	collector.SetSyncMode(true)
	defer collector.Close()

	buf := []byte("first")
	_, _ = collector.Write(buf) //nolint:errcheck // Write never fails
	copy(buf, "XXXXX")

	if got := collector.Export()[0]; got != "first" {
		t.Errorf("Expected collector to keep its own copy, got %q", got)
	}
}

func TestCollectorAsyncCollection(t *testing.T) {
	collector := NewCollector("test", 100)
	defer collector.Close()

	for i := 0; i < 10; i++ {
		collector.Collect(fmt.Sprintf("line-%d", i))
	}

	deadline := time.Now().Add(time.Second)
	for collector.Count() < 10 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	lines := collector.Export()
	if len(lines) != 10 {
		t.Fatalf("Expected 10 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if line != fmt.Sprintf("line-%d", i) {
			t.Errorf("Expected line-%d at %d, got %s", i, i, line)
		}
	}
}

func TestCollectorBackpressure(t *testing.T) {
	// Small buffer to trigger backpressure quickly.
	collector := NewCollector("test", 2)
	defer collector.Close()

	for i := 0; i < 1000; i++ {
		collector.Collect("line")
	}

	time.Sleep(50 * time.Millisecond)

	if collector.DroppedCount() == 0 {
		t.Error("Expected some lines to be dropped due to backpressure")
	}
	if total := int64(collector.Count()) + collector.DroppedCount(); total != 1000 {
		t.Errorf("Expected buffered + dropped = 1000, got %d", total)
	}
}

func TestCollectorClosedDrops(t *testing.T) {
	collector := NewCollector("test", 10)
	collector.SetSyncMode(true)
	collector.Close()
	collector.Close() // Safe to call twice.

	collector.Collect("late")

	if collector.Count() != 0 {
		t.Error("Expected closed collector to buffer nothing")
	}
	if collector.DroppedCount() != 1 {
		t.Errorf("Expected 1 dropped line, got %d", collector.DroppedCount())
	}
}

func TestCollectorCloseDrainsQueue(t *testing.T) {
	collector := NewCollector("test", 100)
	for i := 0; i < 50; i++ {
		collector.Collect("queued")
	}
	collector.Close()

	if got := int64(collector.Count()) + collector.DroppedCount(); got != 50 {
		t.Errorf("Expected every queued line accounted for, got %d", got)
	}
}

func TestCollectorReset(t *testing.T) {
	collector := NewCollector("test", 1)
	collector.SetSyncMode(true)
	defer collector.Close()

	collector.Collect("a")
	collector.Reset()

	if collector.Count() != 0 || collector.DroppedCount() != 0 {
		t.Error("Expected reset to clear lines and drop counter")
	}
}

func TestCollectorConcurrentWrites(t *testing.T) {
	collector := NewCollector("test", 10)
	collector.SetSyncMode(true)
	defer collector.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = collector.Write([]byte("x")) //nolint:errcheck // Write never fails
			}
		}()
	}
	wg.Wait()

	if collector.Count() != 1000 {
		t.Errorf("Expected 1000 lines, got %d", collector.Count())
	}
}

func TestCollectorShrinksOversizedBuffer(t *testing.T) {
	collector := NewCollector("test", 1)
	collector.SetSyncMode(true)
	defer collector.Close()

	for i := 0; i < 1024; i++ {
		collector.Collect("x")
	}
	collector.Export()
	collector.Collect("y")
	collector.Export()

	collector.mu.Lock()
	capacity := cap(collector.lines)
	collector.mu.Unlock()
	if capacity > 1024 {
		t.Errorf("Expected buffer capacity to stay bounded, got %d", capacity)
	}
}
