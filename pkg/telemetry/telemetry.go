// Package telemetry exposes the sampling loop's own health as Prometheus
// metrics.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeTimeout     = "timeout"
)

// Package-level collectors. They are registered via Register and are safe to
// update when unregistered.
var (
	regOK atomic.Bool

	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itop",
			Subsystem: "sampler",
			Name:      "cycles_total",
			Help:      "Sampling cycles by outcome.",
		}, []string{"outcome"},
	)
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "itop",
			Subsystem: "sampler",
			Name:      "cycle_duration_seconds",
			Help:      "Time from sample request to published frame.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	processes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "itop",
			Subsystem: "sampler",
			Name:      "processes",
			Help:      "Processes in the last published list.",
		},
	)
	migrations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "itop",
			Subsystem: "selection",
			Name:      "migrations_total",
			Help:      "Times the highlight moved because its process disappeared.",
		},
	)
	degenerate = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "itop",
			Subsystem: "sampler",
			Name:      "degenerate_intervals_total",
			Help:      "Per-process samples whose clock did not advance.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	for _, c := range []prometheus.Collector{cyclesTotal, cycleDuration, processes, migrations, degenerate} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// ObserveCycle records one finished cycle.
func ObserveCycle(outcome string, d time.Duration) {
	cyclesTotal.WithLabelValues(outcome).Inc()
	cycleDuration.Observe(d.Seconds())
}

// SetProcesses records the size of the published list.
func SetProcesses(n int) { processes.Set(float64(n)) }

// IncMigrations counts a selection migration.
func IncMigrations() { migrations.Inc() }

// AddDegenerate counts per-process degenerate intervals.
func AddDegenerate(n int) {
	if n > 0 {
		degenerate.Add(float64(n))
	}
}

// Serve exposes the default registry on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
