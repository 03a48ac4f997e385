package ruco

import (
	"bytes"
	"runtime"
	"strconv"
	"strings"
)

// callers captures the live stack. skip 0 is the caller of callers.
// The returned slice comes from pcPool and must be handed back with Put.
//
//go:noinline
func callers(skip int) []uintptr {
	buf := pcPool.Get()
	for {
		n := runtime.Callers(skip+2, buf)
		if n < len(buf) {
			return buf[:n]
		}
		pcPool.Put(buf)
		buf = make([]uintptr, len(buf)*2)
	}
}

// stackView is what one walk over the live stack learned.
type stackView struct {
	target runtime.Frame
	depth  int
	found  bool
	self   bool
}

// walkStack scans pcs from the innermost frame outwards.
//
// With want empty the innermost frame is the target; otherwise the target is
// the innermost frame running want. depth counts the target and every frame
// below it. self reports whether any frame belongs to observer dispatch.
func walkStack(pcs []uintptr, want string) stackView {
	var v stackView
	if len(pcs) == 0 {
		return v
	}

	frames := runtime.CallersFrames(pcs)
	for {
		fr, more := frames.Next()
		if !v.found && (want == "" || fr.Function == want) {
			v.target = fr
			v.found = true
		}
		if v.found {
			v.depth++
		}
		if isObserverRoutine(fr.Function) {
			v.self = true
		}
		if !more {
			break
		}
	}
	return v
}

func isObserverRoutine(fn string) bool {
	return fn == observerRoutine || strings.HasPrefix(fn, observerRoutine+".")
}

// threadName names the calling goroutine: "main" for goroutine 1,
// "goroutine-<id>" otherwise.
func threadName() string {
	id := goroutineID()
	switch id {
	case 0:
		return unknownName
	case 1:
		return "main"
	default:
		return "goroutine-" + strconv.FormatUint(id, 10)
	}
}

// goroutineID parses the id out of the "goroutine 17 [running]:" header
// runtime.Stack writes first.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
