package core

import "quantumgrid/internal/domain"

// Snapshot is a deep copy of the full registry state, used for persistence
// and restore. All entity fields are value types, so copying the maps copies
// the state.
type Snapshot struct {
	Infrastructure map[string]domain.InfrastructureRecord `json:"infrastructure"`
	Metrics        map[string]domain.PerformanceMetric    `json:"metrics"`
	Rules          map[string]domain.OptimizationRule     `json:"rules"`
	Allocations    map[string]domain.ResourceAllocation   `json:"allocations"`
	Global         domain.GlobalOptimizationState         `json:"global"`
}

// Snapshot returns a deep copy of the engine state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Infrastructure: make(map[string]domain.InfrastructureRecord, len(e.infrastructure)),
		Metrics:        make(map[string]domain.PerformanceMetric, len(e.metrics)),
		Rules:          make(map[string]domain.OptimizationRule, len(e.rules)),
		Allocations:    make(map[string]domain.ResourceAllocation, len(e.allocations)),
		Global:         e.global,
	}
	for id, rec := range e.infrastructure {
		snap.Infrastructure[id] = rec
	}
	for id, m := range e.metrics {
		snap.Metrics[id] = m
	}
	for id, rule := range e.rules {
		snap.Rules[id] = rule
	}
	for id, alloc := range e.allocations {
		snap.Allocations[id] = alloc
	}
	return snap
}

// Restore replaces the engine state with the given snapshot. Intended for
// startup restoration only; nil maps in the snapshot leave empty registries.
func (e *Engine) Restore(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.infrastructure = make(map[string]domain.InfrastructureRecord, len(snap.Infrastructure))
	e.metrics = make(map[string]domain.PerformanceMetric, len(snap.Metrics))
	e.rules = make(map[string]domain.OptimizationRule, len(snap.Rules))
	e.allocations = make(map[string]domain.ResourceAllocation, len(snap.Allocations))
	for id, rec := range snap.Infrastructure {
		e.infrastructure[id] = rec
	}
	for id, m := range snap.Metrics {
		e.metrics[id] = m
	}
	for id, rule := range snap.Rules {
		e.rules[id] = rule
	}
	for id, alloc := range snap.Allocations {
		e.allocations[id] = alloc
	}
	e.global = snap.Global
}

// Counts returns the number of entries per registry, for logging and gauges
func (e *Engine) Counts() (infrastructure, metrics, rules, allocations int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.infrastructure), len(e.metrics), len(e.rules), len(e.allocations)
}
