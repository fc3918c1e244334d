package campaign

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports campaign counters for scraping, using the producer side
// of github.com/prometheus/client_golang (a private registry served through
// promhttp).
type Metrics struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	resets   *prometheus.CounterVec
	newCov   prometheus.Counter
	srv      *http.Server
}

// NewMetrics builds a fresh metric set labelled by variant and device.
func NewMetrics(variant, device string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"variant": variant, "device": device}

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "teezz",
		Name:        "iteration_outcomes_total",
		Help:        "Campaign iterations by outcome classification.",
		ConstLabels: labels,
	}, []string{"outcome"})

	resets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "teezz",
		Name:        "device_resets_total",
		Help:        "Device-reset state machine transitions by severity.",
		ConstLabels: labels,
	}, []string{"severity"})

	newCov := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "teezz",
		Name:        "new_coverage_total",
		Help:        "Candidates that produced a previously unseen coverage tuple.",
		ConstLabels: labels,
	})

	registry.MustRegister(outcomes, resets, newCov)
	return &Metrics{registry: registry, outcomes: outcomes, resets: resets, newCov: newCov}
}

// Observe folds one iteration's outcome into the exported counters.
func (m *Metrics) Observe(outcome string, newCoverage bool) {
	m.outcomes.WithLabelValues(outcome).Inc()
	if newCoverage {
		m.newCov.Inc()
	}
}

// ObserveReset folds one device-reset transition into the exported
// counters. severity is one of "soft", "hard", "factory".
func (m *Metrics) ObserveReset(severity string) {
	m.resets.WithLabelValues(severity).Inc()
}

// Serve starts an HTTP server exposing /metrics on addr until ctx is
// cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.srv = &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- m.srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("campaign: shut down metrics server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("campaign: metrics server: %w", err)
		}
		return nil
	}
}
