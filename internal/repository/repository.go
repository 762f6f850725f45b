package repository

import (
	"context"

	"quantumgrid/internal/core"
	"quantumgrid/internal/domain"
)

// State is the full persisted registry state plus the logical block height
type State struct {
	Snapshot core.Snapshot
	Height   uint64
}

// Repository defines data access for the registry host
type Repository interface {
	// LoadState restores the complete registry state. A fresh database
	// yields empty registries, the initial global state, and height 0.
	LoadState(ctx context.Context) (*State, error)

	// Per-entity upserts, called after each committed mutation
	SaveInfrastructure(ctx context.Context, rec domain.InfrastructureRecord) error
	SaveMetric(ctx context.Context, m domain.PerformanceMetric) error
	SaveRule(ctx context.Context, rule domain.OptimizationRule) error
	SaveAllocation(ctx context.Context, alloc domain.ResourceAllocation) error

	// SaveGlobalState persists the singleton optimization state and the
	// current block height together.
	SaveGlobalState(ctx context.Context, state domain.GlobalOptimizationState, height uint64) error

	// Observation log
	AppendObservation(ctx context.Context, obs domain.Observation) error
	ListObservations(ctx context.Context, limit int) ([]domain.Observation, error)

	// Close releases resources
	Close() error
}
