package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/zoobzio/ruco"
	"github.com/zoobzio/ruco/attrs"
	"github.com/zoobzio/ruco/dispatch"
	"github.com/zoobzio/ruco/jsonx"
	"github.com/zoobzio/ruco/logging"
	"github.com/zoobzio/ruco/metrics"
	"github.com/zoobzio/ruco/timing"
)

// asyncDrainTimeout bounds the wait for async observers after the workload.
const asyncDrainTimeout = 2 * time.Second

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Trace a small concurrent order workload",
		Long: `Runs an instrumented order-processing workload on several goroutines
with the tracer enabled, then prints a summary of what was traced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := loadDemoConfig(path)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().String("config", "", "YAML file with demo settings")
	cmd.Flags().Bool("filter", true, "hide events from the tracer's own packages")
	cmd.Flags().Bool("indent", true, "indent lines by stack depth")
	cmd.Flags().Bool("ignore-self", true, "skip events raised by the tracer itself")
	cmd.Flags().String("indent-marker", ruco.DefaultIndentMarker, "string repeated once per depth level")
	cmd.Flags().Int("workers", 2, "goroutines processing orders (0 for one per order)")
	cmd.Flags().Int("orders", 3, "number of orders to process")
	cmd.Flags().Bool("json", false, "print the summary as JSON")
	cmd.Flags().Bool("metrics", false, "print tracer counters in Prometheus form")
	return cmd
}

func runDemo(ctx context.Context, out io.Writer, cfg demoConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logging.SetLevel(cfg.Debug)
	defer logging.SetLevel(logging.DefaultLevel)
	log := logging.New(logging.SlogLevel(cfg.Debug))

	var reg *prometheus.Registry
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		if _, err := metrics.Register(reg, "ruco"); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	defer ruco.Close()

	byKind := map[ruco.Kind]*atomic.Int64{ruco.Call: {}, ruco.Exit: {}}
	threads := &threadSet{}
	ruco.OnEvent(func(ev ruco.TraceEvent) error {
		byKind[ev.Kind].Add(1)
		threads.add(ev.Thread)
		return nil
	})

	var observed atomic.Int64
	if cfg.Workers > 0 {
		if err := ruco.EnableWorkerPool(cfg.Workers, 1024); err != nil {
			return fmt.Errorf("failed to start observer workers: %w", err)
		}
	}
	ruco.OnEventAsync(func(ruco.TraceEvent) error {
		observed.Add(1)
		return nil
	})

	before := ruco.ReadStats()
	log.Info("demo started", slog.Int("orders", cfg.Orders), slog.Int("workers", cfg.Workers))
	started := time.Now()

	ruco.EnableConfig(cfg.hookConfig(out))
	revenue, errs := runWorkload(ctx, cfg.Workers, makeOrders(cfg.Orders))
	ruco.Disable()

	elapsed := time.Since(started)
	emitted := int64(ruco.ReadStats().Emitted - before.Emitted)

	drained, err := timing.Spin(ctx, asyncDrainTimeout, time.Millisecond, func() bool {
		return observed.Load() >= emitted-int64(ruco.ReadStats().AsyncDropped-before.AsyncDropped)
	})
	if err != nil {
		return err
	}
	if !drained {
		log.Warn("async observers did not drain", slog.Int64("observed", observed.Load()))
	}

	for i, err := range errs {
		if err != nil {
			log.Error("order failed", slog.Int("order", i+1), slog.Any("error", err))
		}
	}

	stats := ruco.ReadStats()
	summary := attrs.New(
		attrs.P("orders", cfg.Orders),
		attrs.P("failed", dispatch.Failed(errs)),
		attrs.P("revenue", revenue),
		attrs.P("calls", byKind[ruco.Call].Load()),
		attrs.P("exits", byKind[ruco.Exit].Load()),
		attrs.P("goroutines", threads.list()),
		attrs.P("emitted", stats.Emitted-before.Emitted),
		attrs.P("filtered", stats.Filtered-before.Filtered),
		attrs.P("dropped", stats.Dropped-before.Dropped),
		attrs.P("observed_async", observed.Load()),
		attrs.P("elapsed", timing.FormatSeconds(int(elapsed.Seconds()))),
	)
	log.Debug("demo finished", slog.Duration("elapsed", elapsed))

	if err := printSummary(out, summary, cfg.JSON); err != nil {
		return err
	}
	if reg != nil {
		return printMetrics(out, reg)
	}
	return nil
}

func printSummary(out io.Writer, summary *attrs.Attrs, asJSON bool) error {
	if asJSON {
		s, err := jsonx.Dumps(summary)
		if err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		_, err = fmt.Fprintln(out, s)
		return err
	}

	fmt.Fprintln(out, "---")
	for _, p := range summary.Pairs() {
		if _, err := fmt.Fprintf(out, "%-15s %v\n", p.Name, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func printMetrics(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			if _, err := fmt.Fprintf(out, "%s %g\n", f.GetName(), m.GetCounter().GetValue()); err != nil {
				return err
			}
		}
	}
	return nil
}

// threadSet records the distinct goroutines that produced events.
type threadSet struct {
	seen sync.Map
}

func (s *threadSet) add(name string) {
	s.seen.Store(name, struct{}{})
}

func (s *threadSet) list() []string {
	var names []string
	s.seen.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}
