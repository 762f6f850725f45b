// Package metrics exposes Prometheus collectors for the registry host.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"quantumgrid/internal/domain"
)

var (
	// OperationsTotal counts registry operations by operation name and
	// outcome label.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quantumgrid",
		Name:      "operations_total",
		Help:      "Registry operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// GlobalEfficiencyScore mirrors the singleton global efficiency score.
	GlobalEfficiencyScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "quantumgrid",
		Name:      "global_efficiency_score",
		Help:      "Current global efficiency score.",
	})

	// OptimizationCycles mirrors the optimization cycle counter.
	OptimizationCycles = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "quantumgrid",
		Name:      "optimization_cycles",
		Help:      "Number of executed optimization cycles.",
	})

	// BlockHeight mirrors the host's logical block clock.
	BlockHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "quantumgrid",
		Name:      "block_height",
		Help:      "Current logical block height.",
	})

	// RegistryEntries tracks the number of entries per registry.
	RegistryEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quantumgrid",
		Name:      "registry_entries",
		Help:      "Number of entries per registry.",
	}, []string{"registry"})
)

// Outcome maps an operation error to its counter label
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, domain.ErrMetricNotFound):
		return "metric_not_found"
	case errors.Is(err, domain.ErrInvalidThreshold):
		return "invalid_threshold"
	case errors.Is(err, domain.ErrValueTooLong):
		return "value_too_long"
	default:
		return "error"
	}
}
