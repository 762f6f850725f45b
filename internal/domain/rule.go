package domain

// OptimizationRule stores a declarative trigger/action rule. TriggerCondition
// and OptimizationAction are opaque bounded strings consumed by an external
// evaluator; this core stores them without parsing or validation.
type OptimizationRule struct {
	ID                 string `json:"id"`
	RuleName           string `json:"rule_name"`
	TriggerCondition   string `json:"trigger_condition"`
	OptimizationAction string `json:"optimization_action"`
	// Priority is an ordering hint for external evaluators.
	Priority        uint64 `json:"priority"`
	QuantumEnhanced bool   `json:"quantum_enhanced"`
	// ExecutionCount is 0 at creation and never mutated by this core;
	// increment is reserved for the external rule-execution engine.
	ExecutionCount uint64 `json:"execution_count"`
}
