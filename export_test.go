package ruco

// TracedInternal is an instrumented function living inside the tracer's own
// namespace.
func TracedInternal() int {
	defer Func()()
	return 42
}
