package ruco

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/ruco/logging"
)

// hook is one installed tracer. Its config never changes after install.
type hook struct {
	cfg HookConfig
}

// active is the process-wide hook, nil while tracing is disabled.
var active atomic.Pointer[hook]

// sinkMu serializes line writes across goroutines and across hook swaps.
var sinkMu sync.Mutex

var counters struct {
	emitted       atomic.Uint64
	filtered      atomic.Uint64
	dropped       atomic.Uint64
	handlerErrors atomic.Uint64
	asyncDropped  atomic.Uint64
}

// installerRoutines are the symbols of the functions that install and remove
// hooks. They are instrumented like any other code and skipped with
// IgnoreSelf.
var installerRoutines map[string]struct{}

func init() {
	installerRoutines = map[string]struct{}{
		funcName(Enable):       {},
		funcName(EnableConfig): {},
		funcName(Disable):      {},
	}
}

func noop() {}

func install(cfg HookConfig) {
	if !cfg.Enabled {
		active.Store(nil)
		return
	}
	if cfg.Namespace == "" {
		cfg.Namespace = Namespace
	}
	if cfg.IndentMarker == "" {
		cfg.IndentMarker = DefaultIndentMarker
	}
	active.Store(&hook{cfg: cfg})
}

// enter records a Call for the caller of Func or Method and returns the
// matching exit recorder.
//
//go:noinline
func (h *hook) enter(recv any) (exit func()) {
	exit = noop
	defer h.recoverEvent()

	// 0 is enter, 1 is Func or Method, 2 is the traced function.
	pcs := callers(2)
	defer pcPool.Put(pcs)

	view := walkStack(pcs, "")
	if !view.found || view.target.Function == "" {
		counters.dropped.Add(1)
		return noop
	}

	call := Frame{
		Receiver: recv,
		Function: view.target.Function,
		File:     view.target.File,
		Line:     view.target.Line,
		Depth:    view.depth,
	}
	h.handle(Call, call, view.self)

	return func() { h.leave(call) }
}

// leave records the Exit matching call. Events are dropped once h is no
// longer the active hook, so nothing is written after Disable.
func (h *hook) leave(call Frame) {
	defer h.recoverEvent()

	if active.Load() != h {
		return
	}

	pcs := callers(0)
	defer pcPool.Put(pcs)

	// The traced frame is still live while its deferred calls run, including
	// during panic unwinding, so depth is measured from it.
	view := walkStack(pcs, call.Function)
	exit := call
	if view.found {
		exit.Depth = view.depth
		exit.Line = view.target.Line
	}
	h.handle(Exit, exit, view.self)
}

func (h *hook) handle(kind Kind, frame Frame, self bool) {
	defer h.recoverEvent()

	if kind != Call && kind != Exit {
		return
	}
	if h.cfg.IgnoreSelf && (self || isInstaller(frame.Function)) {
		return
	}

	module := ModuleOf(frame)
	if !AdmitsIn(module, h.cfg.FilterActive, h.cfg.Namespace) {
		counters.filtered.Add(1)
		return
	}

	ev := TraceEvent{
		Kind:   kind,
		Thread: threadName(),
		Depth:  frame.Depth,
		Module: module,
		Type:   OwningTypeOf(frame),
		Name:   QualifiedNameOf(frame),
	}

	if err := h.write(Format(ev, h.cfg.IndentEnabled, h.cfg.IndentMarker)); err != nil {
		counters.dropped.Add(1)
		logging.Dbg("ruco: dropped trace event:", err)
		return
	}
	counters.emitted.Add(1)

	runObservers(observers, ev)
}

func (h *hook) write(line string) error {
	w := h.cfg.Writer
	if w == nil {
		w = logging.Locked(logging.ErrWriter())
	}

	sinkMu.Lock()
	defer sinkMu.Unlock()
	_, err := io.WriteString(w, line)
	return err
}

// recoverEvent turns any failure inside the pipeline into a dropped event.
func (h *hook) recoverEvent() {
	r := recover()
	if r == nil {
		return
	}
	counters.dropped.Add(1)
	quietly(func() { logging.Dbg("ruco: dropped trace event:", r) })
}

func quietly(fn func()) {
	defer func() {
		_ = recover() //nolint:errcheck // diagnostics are best effort
	}()
	fn()
}

func isInstaller(fn string) bool {
	_, ok := installerRoutines[fn]
	return ok
}
