package benchmarks

import (
	"io"
	"testing"
	"time"

	"github.com/zoobzio/ruco"
)

//go:noinline
func plain(n int) int {
	return n * 2
}

func traced(n int) int {
	defer ruco.Func()()
	return n * 2
}

type receiver struct{}

func (r *receiver) traced(n int) int {
	defer ruco.Method(r)()
	return n * 2
}

// BenchmarkBaseline measures an uninstrumented call.
func BenchmarkBaseline(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		plain(i)
	}
}

// BenchmarkDisabled measures instrumentation cost with no hook installed.
// This is the price every traced function pays in production.
func BenchmarkDisabled(b *testing.B) {
	ruco.Disable()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		traced(i)
	}
}

// BenchmarkEnabledDiscard measures the full event pipeline into io.Discard.
func BenchmarkEnabledDiscard(b *testing.B) {
	ruco.Enable(ruco.WithWriter(io.Discard), ruco.WithFilter(false))
	defer ruco.Disable()

	b.ReportAllocs()
	b.ResetTimer()
	start := time.Now()
	for i := 0; i < b.N; i++ {
		traced(i)
	}
	elapsed := time.Since(start)
	b.ReportMetric(float64(2*b.N)/elapsed.Seconds(), "events/sec")
}

// BenchmarkEnabledFiltered measures events rejected by the filter, the cost
// paid by tracer-internal code.
func BenchmarkEnabledFiltered(b *testing.B) {
	ruco.Enable(ruco.WithWriter(io.Discard))
	defer ruco.Disable()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		traced(i)
	}
}

// BenchmarkEnabledMethod measures receiver type resolution.
func BenchmarkEnabledMethod(b *testing.B) {
	ruco.Enable(ruco.WithWriter(io.Discard), ruco.WithFilter(false))
	defer ruco.Disable()

	r := &receiver{}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.traced(i)
	}
}

// BenchmarkEnabledCollector measures the pipeline into an async collector.
func BenchmarkEnabledCollector(b *testing.B) {
	collector := ruco.NewCollector("bench", 10000)
	defer collector.Close()
	ruco.Enable(ruco.WithWriter(collector), ruco.WithFilter(false))
	defer ruco.Disable()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		traced(i)
		if i%1000 == 0 {
			collector.Export()
		}
	}
}
