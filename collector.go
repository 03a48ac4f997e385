package ruco

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector buffers emitted trace lines for later export. It implements
// io.Writer so it can be installed with WithWriter.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field alignment optimized for readability over memory efficiency
type Collector struct {
	lines        []string
	linesCh      chan string
	stopCh       chan struct{}
	done         chan struct{}
	droppedCount atomic.Int64
	name         string
	mu           sync.Mutex
	closed       atomic.Bool
	syncMode     atomic.Bool // Bypass channel for synchronous collection.
}

// NewCollector creates a new collector with the specified name and buffer size.
func NewCollector(name string, bufferSize int) *Collector {
	c := &Collector{
		name:    name,
		lines:   make([]string, 0, 8),
		linesCh: make(chan string, bufferSize),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.start()
	return c
}

// Name returns the collector name.
func (c *Collector) Name() string {
	return c.name
}

// start runs the collector's main loop, receiving lines from the channel.
func (c *Collector) start() {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			// Drain remaining lines before shutdown.
			for {
				select {
				case line := <-c.linesCh:
					c.buffer(line)
				default:
					return
				}
			}
		case line := <-c.linesCh:
			c.buffer(line)
		}
	}
}

// Close shuts down the collector, draining queued lines.
// Safe to call multiple times.
func (c *Collector) Close() {
	if c.closed.Swap(true) {
		return
	}
	close(c.stopCh)
	select {
	case <-c.done:
	case <-time.After(100 * time.Millisecond):
	}
}

// Write collects p as one line. It never blocks: when the queue is full or
// the collector is closed the line is dropped and counted.
func (c *Collector) Write(p []byte) (int, error) {
	c.Collect(string(p))
	return len(p), nil
}

// Collect buffers one line with backpressure protection.
// In sync mode lines are buffered directly for deterministic testing.
func (c *Collector) Collect(line string) {
	if c.closed.Load() {
		c.droppedCount.Add(1)
		return
	}

	if c.syncMode.Load() {
		c.buffer(line)
		return
	}

	select {
	case c.linesCh <- line:
	default:
		// Channel full - drop line to prevent blocking the traced goroutine.
		c.droppedCount.Add(1)
	}
}

func (c *Collector) buffer(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

// Export returns all buffered lines and clears the internal buffer.
// The returned slice is safe to modify without affecting the collector.
func (c *Collector) Export() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		return nil
	}

	result := make([]string, len(c.lines))
	copy(result, c.lines)

	// Only shrink if buffer is very oversized to avoid allocation churn.
	if cap(c.lines) > 256 && len(c.lines) < cap(c.lines)/8 {
		c.lines = make([]string, 0, cap(c.lines)/4)
	} else {
		c.lines = c.lines[:0]
	}

	return result
}

// Count returns the current number of buffered lines.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// DroppedCount returns the total number of lines dropped due to backpressure.
func (c *Collector) DroppedCount() int64 {
	return c.droppedCount.Load()
}

// SetSyncMode enables synchronous collection for testing.
// When enabled, lines are buffered directly without using the channel.
func (c *Collector) SetSyncMode(sync bool) {
	c.syncMode.Store(sync)
}

// Reset clears all buffered lines and resets the drop counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = c.lines[:0]
	c.droppedCount.Store(0)
}
