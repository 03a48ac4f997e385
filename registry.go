package ruco

import (
	"errors"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/ruco/dispatch"
)

type handlerEntry struct {
	handler EventHandler
	id      uint64
	async   bool
}

// registry holds the observers of admitted events.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field order optimized for functionality over memory
type registry struct {
	handlers  []handlerEntry
	panicHook func(handlerID uint64, r any)
	workers   *workerPool
	lock      sync.RWMutex
	nextID    atomic.Uint64
}

var observers = &registry{}

// observerRoutine is the symbol of runObservers. Any stack running it, or a
// closure it created, is delivering events to observers.
var observerRoutine string

func init() {
	observerRoutine = funcName(runObservers)
}

func funcName(fn any) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return ""
	}
	return f.Name()
}

// OnEvent registers a synchronous observer of admitted events. It runs on
// the goroutine that produced the event, after the line is written.
func OnEvent(handler EventHandler) uint64 {
	return observers.register(handler, false)
}

// OnEventAsync registers an observer run off the producing goroutine, on the
// worker pool when one is enabled.
func OnEventAsync(handler EventHandler) uint64 {
	return observers.register(handler, true)
}

// RemoveHandler removes an observer by ID.
func RemoveHandler(id uint64) {
	observers.remove(id)
}

// SetPanicHook sets a function to be called with the recovered value when an
// observer panics.
func SetPanicHook(hook func(handlerID uint64, r any)) {
	observers.lock.Lock()
	defer observers.lock.Unlock()
	observers.panicHook = hook
}

// EnableWorkerPool creates a bounded worker pool for async observers.
func EnableWorkerPool(workers, queueSize int) error {
	if workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if queueSize <= 0 {
		return errors.New("queueSize must be > 0")
	}

	observers.lock.Lock()
	defer observers.lock.Unlock()
	if observers.workers != nil {
		return errors.New("worker pool already enabled")
	}

	pool := &workerPool{
		tasks: make(chan func(), queueSize),
		stop:  make(chan struct{}),
	}
	pool.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.run()
	}
	observers.workers = pool
	return nil
}

func (r *registry) register(handler EventHandler, async bool) uint64 {
	if handler == nil {
		return 0
	}

	id := r.nextID.Add(1)

	r.lock.Lock()
	defer r.lock.Unlock()

	r.handlers = append(r.handlers, handlerEntry{
		id:      id,
		handler: handler,
		async:   async,
	})

	return id
}

func (r *registry) remove(id uint64) {
	r.lock.Lock()
	defer r.lock.Unlock()

	// Preserve order
	for i, h := range r.handlers {
		if h.id == id {
			copy(r.handlers[i:], r.handlers[i+1:])
			r.handlers = r.handlers[:len(r.handlers)-1]
			return
		}
	}
}

// reset drops every observer and waits for in-flight async observers.
func (r *registry) reset() {
	r.lock.Lock()
	r.handlers = nil
	r.panicHook = nil
	workers := r.workers
	r.workers = nil
	r.lock.Unlock()

	if workers != nil {
		workers.shutdown()
	}
}

// runObservers delivers ev to every observer. Failures are counted and
// panics forwarded to the panic hook; nothing propagates to the caller.
func runObservers(r *registry, ev TraceEvent) {
	r.lock.RLock()
	if len(r.handlers) == 0 {
		r.lock.RUnlock()
		return
	}
	handlers := make([]handlerEntry, len(r.handlers))
	copy(handlers, r.handlers)
	workers := r.workers
	panicHook := r.panicHook
	r.lock.RUnlock()

	var (
		syncHandlers []dispatch.Handler[TraceEvent]
		syncIDs      []uint64
	)
	for _, h := range handlers {
		if !h.async {
			syncHandlers = append(syncHandlers, dispatch.Handler[TraceEvent](h.handler))
			syncIDs = append(syncIDs, h.id)
			continue
		}

		entry := h
		task := func() {
			errs := dispatch.Dispatch([]dispatch.Handler[TraceEvent]{dispatch.Handler[TraceEvent](entry.handler)}, ev)
			report(panicHook, entry.id, errs[0])
		}
		if workers != nil {
			workers.submit(task)
		} else {
			go task()
		}
	}

	for i, err := range dispatch.Dispatch(syncHandlers, ev) {
		report(panicHook, syncIDs[i], err)
	}
}

func report(panicHook func(uint64, any), id uint64, err error) {
	if err == nil {
		return
	}
	counters.handlerErrors.Add(1)
	var pe *dispatch.PanicError
	if panicHook == nil || !errors.As(err, &pe) {
		return
	}
	defer func() {
		_ = recover() //nolint:errcheck // a panicking hook must not escape
	}()
	panicHook(id, pe.Value)
}

// workerPool manages a fixed number of workers for async observers.
//
//nolint:govet // Field order optimized for functionality over memory
type workerPool struct {
	tasks chan func()
	stop  chan struct{}
	wg    sync.WaitGroup
}

func (w *workerPool) run() {
	defer w.wg.Done()
	for {
		select {
		case task := <-w.tasks:
			task()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

// drain runs the tasks still queued when the pool stops.
func (w *workerPool) drain() {
	for {
		select {
		case task := <-w.tasks:
			task()
		default:
			return
		}
	}
}

func (w *workerPool) submit(task func()) {
	select {
	case w.tasks <- task:
	default:
		counters.asyncDropped.Add(1)
	}
}

func (w *workerPool) shutdown() {
	close(w.stop)
	w.wg.Wait()
}
