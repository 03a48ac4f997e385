package ruco

import (
	"runtime"
)

// defaultStackSize covers most call stacks in a single runtime.Callers pass.
const defaultStackSize = 64

// PCPool manages a pool of program-counter buffers to amortize allocation
// of stack walks on the event path.
type PCPool struct {
	bufs chan []uintptr
	size int
}

// NewPCPool creates a pool holding up to capacity buffers of at least size
// entries each.
func NewPCPool(capacity, size int) *PCPool {
	if size <= 0 {
		size = defaultStackSize
	}
	return &PCPool{
		bufs: make(chan []uintptr, capacity),
		size: size,
	}
}

// Get retrieves a buffer from the pool or allocates one if the pool is empty.
func (p *PCPool) Get() []uintptr {
	select {
	case buf := <-p.bufs:
		return buf
	default:
		// Pool empty, allocate directly (fallback for burst load).
		return make([]uintptr, p.size)
	}
}

// Put returns buf to the pool. Undersized buffers and buffers offered to a
// full pool are discarded.
func (p *PCPool) Put(buf []uintptr) {
	if cap(buf) < p.size {
		return
	}
	select {
	case p.bufs <- buf[:cap(buf)]:
	default:
	}
}

// Len returns the number of idle buffers.
func (p *PCPool) Len() int {
	return len(p.bufs)
}

var pcPool = NewPCPool(runtime.NumCPU()*4, defaultStackSize)
