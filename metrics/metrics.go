// Package metrics exposes Prometheus counters for question cycles and
// connections, and an optional /metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdb_cycles_total",
			Help: "Total number of question cycles by outcome.",
		},
		[]string{"outcome"},
	)

	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatdb_stage_duration_seconds",
			Help:    "Time spent in each question cycle stage.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	connectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdb_connects_total",
			Help: "Total number of connection attempts by driver and result.",
		},
		[]string{"driver", "result"},
	)
)

func init() {
	prometheus.MustRegister(cyclesTotal, stageDurationSeconds, connectsTotal)
}

// ObserveCycle counts one finished cycle. outcome is "ok" or an error kind.
func ObserveCycle(outcome string) {
	cyclesTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a cycle stayed in stage.
func ObserveStage(stage string, d time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveConnect counts one connection attempt.
func ObserveConnect(driver string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	connectsTotal.WithLabelValues(driver, result).Inc()
}

// Handler returns the scrape handler for the default registry.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Serve listens on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
