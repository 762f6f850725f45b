package domain

// Optimization cycle policy constants.
const (
	InitialEfficiencyScore uint64 = 75
	CycleEfficiencyStep    uint64 = 2
)

// GlobalOptimizationState is the singleton optimization state, mutated only
// through the cycle engine's executeCycle.
type GlobalOptimizationState struct {
	GlobalEfficiencyScore uint64 `json:"global_efficiency_score"`
	OptimizationCycles    uint64 `json:"optimization_cycles"`
}

// NewGlobalOptimizationState returns the initial global state
func NewGlobalOptimizationState() GlobalOptimizationState {
	return GlobalOptimizationState{
		GlobalEfficiencyScore: InitialEfficiencyScore,
		OptimizationCycles:    0,
	}
}
