// Package observability — metrics.go
//
// Prometheus metrics for the substratectl maintenance process.
//
// Endpoint: GET /metrics on 127.0.0.1:9191 (configurable).
// Format: Prometheus text exposition format (OpenMetrics compatible).
// Bind: loopback only — no external exposure.
//
// Metric naming convention: substrate_<subsystem>_<name>_<unit>
//
// All metrics are registered on a dedicated prometheus.Registry (not the
// default global registry) to avoid collisions with other instrumented
// libraries in the same process.
//
// Cardinality control:
//   - Slot labels use the partition label string (9 values max).
//   - Agent/task/person identifiers are NOT used as labels (unbounded
//     cardinality) — per-entity counts are aggregated before recording.

package observability

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric descriptors for the substrate.
type Metrics struct {
	registry *prometheus.Registry

	// ─── Store ────────────────────────────────────────────────────────────────

	// OperationsTotal counts store operations (insert, get, remove, scan).
	// Labels: slot (partition label), op (insert, get, remove, scan)
	OperationsTotal *prometheus.CounterVec

	// WriteLatency records BoltDB write transaction latency.
	WriteLatency prometheus.Histogram

	// PartitionEntries is the current entry count per partition.
	// Labels: slot (partition label)
	PartitionEntries *prometheus.GaugeVec

	// ─── Vault ────────────────────────────────────────────────────────────────

	// VaultUnlocked is 1 if the Secret Vault holds a master key, else 0.
	VaultUnlocked prometheus.Gauge

	// VaultOperationsTotal counts encrypt/decrypt operations.
	// Labels: op (encrypt, decrypt), result (ok, locked, failed)
	VaultOperationsTotal *prometheus.CounterVec

	// ─── Governor ─────────────────────────────────────────────────────────────

	// GovernorEvaluationsTotal counts governance evaluation passes.
	GovernorEvaluationsTotal prometheus.Counter

	// GovernorTasksEvaluated is the number of tasks evaluated in the most
	// recent governance pass.
	GovernorTasksEvaluated prometheus.Gauge

	// ─── Pruning ──────────────────────────────────────────────────────────────

	// PruneEntriesRemovedTotal counts entries removed by the pruning helper.
	// Labels: slot (partition label)
	PruneEntriesRemovedTotal *prometheus.CounterVec

	// PruneBudgetTokensRemaining is the current pruning token bucket level.
	PruneBudgetTokensRemaining prometheus.Gauge

	// ─── Process ──────────────────────────────────────────────────────────────

	// UptimeSeconds is the number of seconds since the process started.
	UptimeSeconds prometheus.Gauge

	// startTime records when the process started (for uptime calculation).
	startTime time.Time
}

// NewMetrics creates and registers all substrate Prometheus metrics.
// Returns a *Metrics with all descriptors initialised.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "substrate",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total store operations, by partition slot and operation kind.",
		}, []string{"slot", "op"}),

		WriteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "substrate",
			Subsystem: "store",
			Name:      "write_latency_seconds",
			Help:      "BoltDB write transaction latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),

		PartitionEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "substrate",
			Subsystem: "store",
			Name:      "partition_entries",
			Help:      "Current number of entries in each partition.",
		}, []string{"slot"}),

		VaultUnlocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "substrate",
			Subsystem: "vault",
			Name:      "unlocked",
			Help:      "1 if the Secret Vault holds a master key, else 0.",
		}),

		VaultOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "substrate",
			Subsystem: "vault",
			Name:      "operations_total",
			Help:      "Total vault encrypt/decrypt operations, by operation and result.",
		}, []string{"op", "result"}),

		GovernorEvaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substrate",
			Subsystem: "governor",
			Name:      "evaluations_total",
			Help:      "Total governance evaluation passes completed.",
		}),

		GovernorTasksEvaluated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "substrate",
			Subsystem: "governor",
			Name:      "tasks_evaluated",
			Help:      "Number of tasks evaluated in the most recent governance pass.",
		}),

		PruneEntriesRemovedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "substrate",
			Subsystem: "prune",
			Name:      "entries_removed_total",
			Help:      "Total entries removed by the pruning helper, by partition slot.",
		}, []string{"slot"}),

		PruneBudgetTokensRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "substrate",
			Subsystem: "prune",
			Name:      "budget_tokens_remaining",
			Help:      "Current pruning token bucket level.",
		}),

		UptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "substrate",
			Subsystem: "process",
			Name:      "uptime_seconds",
			Help:      "Number of seconds since the process started.",
		}),
	}

	reg.MustRegister(
		m.OperationsTotal,
		m.WriteLatency,
		m.PartitionEntries,
		m.VaultUnlocked,
		m.VaultOperationsTotal,
		m.GovernorEvaluationsTotal,
		m.GovernorTasksEvaluated,
		m.PruneEntriesRemovedTotal,
		m.PruneBudgetTokensRemaining,
		m.UptimeSeconds,
		// Standard Go runtime metrics.
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// ServeMetrics starts the Prometheus HTTP metrics server on the given address.
// Blocks until ctx is cancelled or the server fails.
// The server binds to addr (e.g., "127.0.0.1:9191") and serves GET /metrics.
// Returns an error only if the server fails to start or encounters a fatal error.
func (m *Metrics) ServeMetrics(ctx context.Context, addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("metrics server: invalid address %q: %w", addr, err)
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return fmt.Errorf("metrics server: address %q is not a loopback address", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go m.updateUptime(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server on %s: %w", addr, err)
	}
	return nil
}

// updateUptime periodically updates the UptimeSeconds gauge.
func (m *Metrics) updateUptime(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.UptimeSeconds.Set(time.Since(m.startTime).Seconds())
		case <-ctx.Done():
			return
		}
	}
}
