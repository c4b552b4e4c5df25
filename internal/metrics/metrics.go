// Package metrics exposes Prometheus instrumentation for the simulation
// core: scheduler phase timings, rollback/desync counters, and script
// error counts.
//
// Grounded on the teacher's internal/api/observability.go: the same
// promauto histogram/counter/gauge declarations and bounded-cardinality
// label discipline ("no per-player labels to prevent DoS" becomes "no
// per-entity labels"), minus the pprof/HTTP debug server, since cmd/replay
// never opens a socket (SPEC_FULL.md §8).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// phaseDuration's "phase" label is bounded to the fixed 14-phase pipeline
// from spec.md §4.9, never a per-entity or per-package value.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "battlecore_tick_duration_seconds",
		Help:    "Time spent in one full simulation tick",
		Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.02},
	})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "battlecore_phase_duration_seconds",
		Help:    "Time spent in one scheduler phase",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01},
	}, []string{"phase"}) // bounded: the 14 named phases in internal/sim

	rollbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battlecore_rollback_total",
		Help: "Total rollback resimulations performed",
	})

	desyncTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battlecore_desync_total",
		Help: "Total snapshot hash mismatches detected",
	})

	scriptErrorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "battlecore_script_error_total",
		Help: "Total script errors caught at the VM call boundary",
	}, []string{"namespace"}) // bounded: builtin/local/server/remote

	activeEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "battlecore_active_entities",
		Help: "Current number of live entities in the arena",
	})

	activeScriptVMs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "battlecore_active_script_vms",
		Help: "Current number of loaded Lua VMs",
	})

	snapshotBufferDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "battlecore_snapshot_buffer_depth",
		Help: "Current number of retained snapshots in the rollback ring",
	})
)

// RecordTick records one full tick's wall-clock duration.
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// RecordPhase records one scheduler phase's wall-clock duration. phase
// must be one of the fixed phase names (bounded cardinality).
func RecordPhase(phase string, d time.Duration) {
	phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordRollback increments the rollback counter.
func RecordRollback() {
	rollbackTotal.Inc()
}

// RecordDesync increments the desync counter.
func RecordDesync() {
	desyncTotal.Inc()
}

// RecordScriptError increments the script error counter for namespace,
// one of "builtin", "local", "server", or "remote".
func RecordScriptError(namespace string) {
	scriptErrorTotal.WithLabelValues(namespace).Inc()
}

// UpdateActiveEntities sets the live entity gauge.
func UpdateActiveEntities(count int) {
	activeEntities.Set(float64(count))
}

// UpdateActiveScriptVMs sets the loaded-VM gauge.
func UpdateActiveScriptVMs(count int) {
	activeScriptVMs.Set(float64(count))
}

// UpdateSnapshotBufferDepth sets the retained-snapshot gauge.
func UpdateSnapshotBufferDepth(count int) {
	snapshotBufferDepth.Set(float64(count))
}
