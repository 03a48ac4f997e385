package integration

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/ruco"
	"github.com/zoobzio/ruco/timing"
)

// Line is one parsed trace line.
type Line struct {
	Thread string
	Indent string
	Kind   string
	Name   string
}

// Depth is the indent length in markers.
func (l Line) Depth() int {
	return len(l.Indent)
}

// ParseLine splits a raw trace line into its fields.
func ParseLine(raw string) (Line, bool) {
	parts := strings.SplitN(strings.TrimSuffix(raw, "\n"), " ", 4)
	if len(parts) != 4 {
		return Line{}, false
	}
	return Line{Thread: parts[0], Indent: parts[1], Kind: parts[2], Name: parts[3]}, true
}

// MockCollector wraps a real collector with test utilities.
// Provides synchronous collection and verification helpers.
//
//nolint:govet // Field alignment optimized for test helper readability
type MockCollector struct {
	exported []Line
	*ruco.Collector
	t  *testing.T
	mu sync.Mutex
}

// NewMockCollector creates a synchronous collector for testing.
func NewMockCollector(t *testing.T, name string, bufferSize int) *MockCollector {
	collector := ruco.NewCollector(name, bufferSize)
	collector.SetSyncMode(true) // Enable synchronous collection for testing.
	return &MockCollector{
		Collector: collector,
		t:         t,
		exported:  make([]Line, 0),
	}
}

// Trace enables the tracer into a new MockCollector for the duration of
// the test. This package lives under the tracer's namespace, so the filter
// is off by default here.
func Trace(t *testing.T, opts ...ruco.Option) *MockCollector {
	t.Helper()
	m := NewMockCollector(t, t.Name(), 4096)
	base := []ruco.Option{ruco.WithWriter(m), ruco.WithFilter(false)}
	ruco.Enable(append(base, opts...)...)
	t.Cleanup(func() {
		ruco.Close()
		m.Close()
	})
	return m
}

// Export returns parsed lines and clears the buffer.
func (m *MockCollector) Export() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw := m.Collector.Export()
	lines := make([]Line, 0, len(raw))
	for _, r := range raw {
		l, ok := ParseLine(r)
		if !ok {
			m.t.Errorf("Malformed trace line %q", r)
			continue
		}
		lines = append(lines, l)
	}
	m.exported = append(m.exported, lines...)
	return lines
}

// GetAll returns all exported lines without clearing.
func (m *MockCollector) GetAll() []Line {
	m.Export()

	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]Line, len(m.exported))
	copy(all, m.exported)
	return all
}

// WaitForLines waits until at least expected lines were collected.
func (m *MockCollector) WaitForLines(expected int, timeout time.Duration) []Line {
	var lines []Line
	ok, err := timing.Spin(context.Background(), timeout, 10*time.Millisecond, func() bool {
		lines = append(lines, m.Export()...)
		return len(lines) >= expected
	})
	if err != nil || !ok {
		m.t.Errorf("Timeout waiting for lines: expected %d, got %d", expected, len(lines))
	}
	return lines
}

// AssertLineCount verifies exact line count.
func (m *MockCollector) AssertLineCount(expected int) {
	lines := m.Export()
	if len(lines) != expected {
		m.t.Errorf("Expected %d lines, got %d", expected, len(lines))
	}
}

// ByThread groups lines per goroutine, preserving order.
func ByThread(lines []Line) map[string][]Line {
	out := make(map[string][]Line)
	for _, l := range lines {
		out[l.Thread] = append(out[l.Thread], l)
	}
	return out
}

// AssertBalanced checks that on every thread each EXIT closes the most
// recent open CALL of the same name at the same depth.
func AssertBalanced(t *testing.T, lines []Line) {
	t.Helper()
	for thread, seq := range ByThread(lines) {
		var open []Line
		for _, l := range seq {
			switch l.Kind {
			case "CALL":
				open = append(open, l)
			case "EXIT":
				if len(open) == 0 {
					t.Errorf("%s: EXIT %s without CALL", thread, l.Name)
					continue
				}
				top := open[len(open)-1]
				open = open[:len(open)-1]
				if top.Name != l.Name || top.Depth() != l.Depth() {
					t.Errorf("%s: EXIT %s@%d does not close CALL %s@%d", thread, l.Name, l.Depth(), top.Name, top.Depth())
				}
			default:
				t.Errorf("%s: unknown kind %q", thread, l.Kind)
			}
		}
		if len(open) != 0 {
			t.Errorf("%s: %d calls never exited", thread, len(open))
		}
	}
}

// Tree renders lines as an indented call tree for failure messages.
func Tree(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		if l.Kind != "CALL" {
			continue
		}
		sb.WriteString(strings.Repeat("  ", l.Depth()))
		sb.WriteString(l.Name)
		sb.WriteByte('\n')
	}
	return sb.String()
}
