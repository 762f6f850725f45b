package domain

// Fixed two-tier efficiency scoring policy for allocations. These are policy
// constants, not derived from optimization logic.
const (
	EfficiencyQuantum  uint64 = 95
	EfficiencyStandard uint64 = 80
)

// ResourceAllocation stores a capacity-constrained resource allocation.
// AllocatedAmount <= MaxCapacity is enforced at creation.
type ResourceAllocation struct {
	ID              string `json:"id"`
	ResourceType    string `json:"resource_type"`
	AllocatedAmount uint64 `json:"allocated_amount"`
	MaxCapacity     uint64 `json:"max_capacity"`
	// EfficiencyScore is derived at creation: EfficiencyQuantum when
	// QuantumOptimized, EfficiencyStandard otherwise.
	EfficiencyScore  uint64 `json:"efficiency_score"`
	QuantumOptimized bool   `json:"quantum_optimized"`
}

// AllocationEfficiency returns the fixed efficiency score for the given tier
func AllocationEfficiency(quantumOptimized bool) uint64 {
	if quantumOptimized {
		return EfficiencyQuantum
	}
	return EfficiencyStandard
}
