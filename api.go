// Package ruco provides a process-wide call/return tracer.
//
// Instrumented functions report their invocation and return to a single
// global hook, which resolves the package, receiver type and qualified name
// of the frame, filters it, and writes one line per event:
//
//	goroutine-7 ....... CALL github.com/acme/app.Server.Serve
//
// Basic Usage:
//
//	ruco.Enable()
//	defer ruco.Disable()
//
//	func handle() {
//		defer ruco.Func()()
//		...
//	}
//
//	func (s *Server) Serve() {
//		defer ruco.Method(s)()
//		...
//	}
//
// Instrumentation:
//
// Go has no interpreter-level profile hook, so events come from cooperative
// instrumentation: the deferred Func or Method call at the top of each traced
// function. While tracing is disabled those calls cost one atomic load and
// return a shared no-op. Code without the deferred call is never traced.
//
// Depth:
//
// Depth is the live stack length of the traced frame at event time, not a
// counter kept by the tracer, so it cannot drift. Exits are still reported
// while a panic unwinds through a traced function, at the same depth as the
// matching call.
//
// Thread Safety:
//
// Enable, Disable, Func and Method are safe for concurrent use. Each event is
// handled on the goroutine that produced it; only the line write is
// serialized. An event in flight across Disable is dropped.
//
// Failures:
//
// Nothing inside the tracer may alter the traced program. Any failure while
// inspecting, filtering, formatting or writing drops that one event and is
// counted in Stats.
package ruco

import (
	"io"
)

// HookConfig is the configuration of one installed hook.
// It is immutable from Enable until the next Enable or Disable.
//
//nolint:govet // Field order follows the option order
type HookConfig struct {
	// Writer receives trace lines. Nil means logging.ErrWriter at write time.
	Writer io.Writer
	// Namespace is the tracer identity used by the filter.
	Namespace string
	// IndentMarker is repeated once per frame of depth.
	IndentMarker string

	Enabled       bool
	FilterActive  bool
	IndentEnabled bool
	IgnoreSelf    bool
}

// DefaultConfig returns the configuration Enable starts from.
func DefaultConfig() HookConfig {
	return HookConfig{
		Namespace:     Namespace,
		IndentMarker:  DefaultIndentMarker,
		Enabled:       true,
		FilterActive:  true,
		IndentEnabled: true,
		IgnoreSelf:    true,
	}
}

// Option adjusts the configuration passed to Enable.
type Option func(*HookConfig)

// WithFilter toggles the filter policy.
func WithFilter(active bool) Option {
	return func(c *HookConfig) { c.FilterActive = active }
}

// WithIndent toggles depth indentation.
func WithIndent(enabled bool) Option {
	return func(c *HookConfig) { c.IndentEnabled = enabled }
}

// WithIgnoreSelf toggles the reentrancy guard.
func WithIgnoreSelf(ignore bool) Option {
	return func(c *HookConfig) { c.IgnoreSelf = ignore }
}

// WithWriter sets the sink for trace lines.
func WithWriter(w io.Writer) Option {
	return func(c *HookConfig) { c.Writer = w }
}

// WithNamespace overrides the identity the filter treats as the tracer's own.
func WithNamespace(ns string) Option {
	return func(c *HookConfig) { c.Namespace = ns }
}

// WithIndentMarker sets the indent marker.
func WithIndentMarker(marker string) Option {
	return func(c *HookConfig) { c.IndentMarker = marker }
}

// Enable installs a new hook built from DefaultConfig and opts, replacing any
// hook already installed.
func Enable(opts ...Option) {
	defer Func()()

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	install(cfg)
}

// EnableConfig installs a hook from cfg. A config with Enabled false removes
// the active hook.
func EnableConfig(cfg HookConfig) {
	defer Func()()

	install(cfg)
}

// Disable removes the active hook. Safe to call when none is installed.
func Disable() {
	defer Func()()

	active.Store(nil)
}

// IsEnabled reports whether a hook is installed.
func IsEnabled() bool {
	return active.Load() != nil
}

// Config returns the active hook's configuration and whether one is installed.
func Config() (HookConfig, bool) {
	h := active.Load()
	if h == nil {
		return HookConfig{}, false
	}
	return h.cfg, true
}

// Func records a Call for the calling function and returns the function that
// records its Exit. Use it as the first statement of a traced function:
//
//	defer ruco.Func()()
//
//go:noinline
func Func() func() {
	h := active.Load()
	if h == nil {
		return noop
	}
	return h.enter(nil)
}

// Method is Func for methods. recv supplies the owning type name by
// reflection; receivers whose type has no name produce an empty type field.
//
//	defer ruco.Method(s)()
//
//go:noinline
func Method(recv any) func() {
	h := active.Load()
	if h == nil {
		return noop
	}
	return h.enter(recv)
}

// Stats counts tracer outcomes since process start.
type Stats struct {
	// Emitted lines written to the sink.
	Emitted uint64
	// Filtered events rejected by the filter policy.
	Filtered uint64
	// Dropped events lost to a failure inside the tracer.
	Dropped uint64
	// HandlerErrors observer calls that returned an error or panicked.
	HandlerErrors uint64
	// AsyncDropped async observer calls rejected by a full worker queue.
	AsyncDropped uint64
}

// ReadStats returns the current counters.
func ReadStats() Stats {
	return Stats{
		Emitted:       counters.emitted.Load(),
		Filtered:      counters.filtered.Load(),
		Dropped:       counters.dropped.Load(),
		HandlerErrors: counters.handlerErrors.Load(),
		AsyncDropped:  counters.asyncDropped.Load(),
	}
}

// Close disables tracing, removes every observer and waits until the worker
// pool has run every queued async observer call. Async observers started
// without a worker pool are not waited for.
func Close() {
	Disable()
	observers.reset()
}
