package domain

import "time"

// ObservationKind identifies what a registry observation records
type ObservationKind string

const (
	ObservationRegistered    ObservationKind = "infrastructure_registered"
	ObservationVerified      ObservationKind = "infrastructure_verified"
	ObservationMetricCreated ObservationKind = "metric_registered"
	ObservationMetricUpdated ObservationKind = "metric_updated"
	ObservationRuleCreated   ObservationKind = "rule_created"
	ObservationAllocated     ObservationKind = "allocation_created"
	ObservationCycleExecuted ObservationKind = "cycle_executed"
)

// Observation is an immutable audit record appended for every committed
// mutation. The log is append-only; nothing updates or deletes entries.
type Observation struct {
	ID       string          `json:"id"`
	Kind     ObservationKind `json:"kind"`
	EntityID string          `json:"entity_id,omitempty"`
	Actor    Principal       `json:"actor"`
	// Height is the logical clock value at which the mutation committed.
	Height     uint64    `json:"height"`
	Summary    string    `json:"summary"`
	RecordedAt time.Time `json:"recorded_at"`
}
