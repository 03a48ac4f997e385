package ruco

// Kind classifies a trace event.
type Kind uint8

// Event kinds. Only Call and Exit are ever emitted.
const (
	Call Kind = iota + 1
	Exit
)

// String returns the output token for k: CALL, EXIT, or "" for anything else.
func (k Kind) String() string {
	switch k {
	case Call:
		return "CALL"
	case Exit:
		return "EXIT"
	default:
		return ""
	}
}

// Frame is the runtime record of one in-progress traced invocation.
// Frames are observed, never retained past the event that produced them.
type Frame struct {
	// Receiver is the explicit receiver passed to Method, nil otherwise.
	Receiver any
	// Function is the runtime symbol, e.g. "github.com/a/b.(*T).M".
	Function string
	File     string
	Line     int
	// Depth is the number of frames from this one down to the goroutine root.
	Depth int
}

// TraceEvent is one classified call or return, ready for formatting.
type TraceEvent struct {
	Thread string
	Module string
	Type   string
	Name   string
	Depth  int
	Kind   Kind
}

// EventHandler observes admitted trace events.
type EventHandler func(event TraceEvent) error
