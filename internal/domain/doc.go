// Package domain defines the entity types for the QuantumGrid registry core.
//
// Entities are keyed by bounded-length string identifiers and carry unsigned
// integer measurements. All lifecycle and mutation rules live in the core
// engine; domain types are plain data with small helper methods.
//
// # Entities
//
// InfrastructureRecord tracks a physical/infrastructure asset through its
// verification lifecycle (pending → verified).
//
// PerformanceMetric stores a measured value together with its target and
// threshold band.
//
// OptimizationRule stores a declarative trigger/action pair for an external
// rule-execution engine. The core stores rules, it never evaluates them.
//
// ResourceAllocation stores a capacity-constrained allocation with a fixed
// two-tier efficiency score.
//
// GlobalOptimizationState is the process-wide efficiency score and cycle
// counter mutated only by the optimization cycle engine.
package domain
