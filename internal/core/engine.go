package core

import (
	"fmt"
	"sort"
	"sync"

	"quantumgrid/internal/domain"
)

// Clock supplies the logical block height. The host guarantees it is
// monotonically non-decreasing and fixed for the duration of an operation.
type Clock interface {
	Height() uint64
}

// Engine is the deterministic registry and optimization engine. All state is
// guarded by one exclusive lock; the execution model is single-writer and
// has no finer grained concurrency.
type Engine struct {
	mu    sync.Mutex
	owner domain.Principal
	clock Clock

	infrastructure map[string]domain.InfrastructureRecord
	metrics        map[string]domain.PerformanceMetric
	rules          map[string]domain.OptimizationRule
	allocations    map[string]domain.ResourceAllocation
	global         domain.GlobalOptimizationState
}

// New creates an engine with empty registries and initial global state.
// The owner principal is immutable for the engine's lifetime.
func New(owner domain.Principal, clock Clock) *Engine {
	return &Engine{
		owner:          owner,
		clock:          clock,
		infrastructure: make(map[string]domain.InfrastructureRecord),
		metrics:        make(map[string]domain.PerformanceMetric),
		rules:          make(map[string]domain.OptimizationRule),
		allocations:    make(map[string]domain.ResourceAllocation),
		global:         domain.NewGlobalOptimizationState(),
	}
}

// Owner returns the principal authorized to perform mutating operations
func (e *Engine) Owner() domain.Principal {
	return e.owner
}

// authorize is the authorization guard: every mutating operation calls this
// before touching any registry.
func (e *Engine) authorize(caller domain.Principal) error {
	if caller != e.owner {
		return domain.ErrUnauthorized
	}
	return nil
}

func boundedString(field, value string, max int) error {
	if len(value) > max {
		return fmt.Errorf("%s: %w (max %d bytes, got %d)", field, domain.ErrValueTooLong, max, len(value))
	}
	return nil
}

// RegisterInfrastructure creates an infrastructure record with status pending
// and performance score 0. Registering an existing id overwrites the record;
// the returned replaced flag makes the overwrite explicit to the caller.
func (e *Engine) RegisterInfrastructure(caller domain.Principal, id, infraType string, quantumCompatible bool) (domain.InfrastructureRecord, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return domain.InfrastructureRecord{}, false, err
	}
	if err := boundedString("id", id, domain.MaxIDLen); err != nil {
		return domain.InfrastructureRecord{}, false, err
	}
	if err := boundedString("infrastructure_type", infraType, domain.MaxNameLen); err != nil {
		return domain.InfrastructureRecord{}, false, err
	}

	_, replaced := e.infrastructure[id]
	rec := domain.InfrastructureRecord{
		ID:                 id,
		Owner:              caller,
		InfrastructureType: infraType,
		Status:             domain.StatusPending,
		VerificationHeight: e.clock.Height(),
		QuantumCompatible:  quantumCompatible,
		PerformanceScore:   0,
	}
	e.infrastructure[id] = rec
	return rec, replaced, nil
}

// VerifyInfrastructure transitions a pending record to verified, stamping the
// current height and the given performance score. Any score is accepted,
// including 0. A record can be verified at most once.
func (e *Engine) VerifyInfrastructure(caller domain.Principal, id string, performanceScore uint64) (domain.InfrastructureRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return domain.InfrastructureRecord{}, err
	}

	rec, ok := e.infrastructure[id]
	if !ok {
		return domain.InfrastructureRecord{}, fmt.Errorf("infrastructure %q: %w", id, domain.ErrNotFound)
	}
	if rec.Status != domain.StatusPending {
		return domain.InfrastructureRecord{}, fmt.Errorf("infrastructure %q: %w", id, domain.ErrAlreadyVerified)
	}

	rec.Status = domain.StatusVerified
	rec.VerificationHeight = e.clock.Height()
	rec.PerformanceScore = performanceScore
	e.infrastructure[id] = rec
	return rec, nil
}

// Infrastructure returns the record for id. Absence is a legitimate read
// result, not an error.
func (e *Engine) Infrastructure(id string) (domain.InfrastructureRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.infrastructure[id]
	return rec, ok
}

// IsVerified returns true iff the record exists and has been verified
func (e *Engine) IsVerified(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.infrastructure[id]
	return ok && rec.Status == domain.StatusVerified
}

// Infrastructures returns all records ordered by id
func (e *Engine) Infrastructures() []domain.InfrastructureRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.InfrastructureRecord, 0, len(e.infrastructure))
	for _, rec := range e.infrastructure {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RegisterMetric creates a performance metric with current value 0 and the
// current height as last measured. ThresholdMin must be strictly below
// ThresholdMax. Re-registration under an existing id overwrites.
func (e *Engine) RegisterMetric(caller domain.Principal, id, name string, target, thresholdMin, thresholdMax uint64, optType domain.OptimizationType) (domain.PerformanceMetric, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return domain.PerformanceMetric{}, false, err
	}
	if err := boundedString("id", id, domain.MaxIDLen); err != nil {
		return domain.PerformanceMetric{}, false, err
	}
	if err := boundedString("metric_name", name, domain.MaxNameLen); err != nil {
		return domain.PerformanceMetric{}, false, err
	}
	if thresholdMin >= thresholdMax {
		return domain.PerformanceMetric{}, false, fmt.Errorf("metric %q: min %d >= max %d: %w", id, thresholdMin, thresholdMax, domain.ErrInvalidThreshold)
	}

	_, replaced := e.metrics[id]
	m := domain.PerformanceMetric{
		ID:               id,
		MetricName:       name,
		CurrentValue:     0,
		TargetValue:      target,
		ThresholdMin:     thresholdMin,
		ThresholdMax:     thresholdMax,
		OptimizationType: optType,
		LastMeasured:     e.clock.Height(),
	}
	e.metrics[id] = m
	return m, replaced, nil
}

// UpdateMetric sets the metric's current value and stamps the current height.
// The threshold band is not re-checked; out-of-band values are legal and
// detected only by IsMetricOptimal.
func (e *Engine) UpdateMetric(caller domain.Principal, id string, value uint64) (domain.PerformanceMetric, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return domain.PerformanceMetric{}, err
	}

	m, ok := e.metrics[id]
	if !ok {
		return domain.PerformanceMetric{}, fmt.Errorf("metric %q: %w", id, domain.ErrMetricNotFound)
	}

	m.CurrentValue = value
	m.LastMeasured = e.clock.Height()
	e.metrics[id] = m
	return m, nil
}

// Metric returns the metric for id; absence is not an error
func (e *Engine) Metric(id string) (domain.PerformanceMetric, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.metrics[id]
	return m, ok
}

// IsMetricOptimal returns true iff the metric exists and its current value
// lies inside the threshold band, inclusive on both bounds
func (e *Engine) IsMetricOptimal(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.metrics[id]
	return ok && m.InBand()
}

// Metrics returns all metrics ordered by id
func (e *Engine) Metrics() []domain.PerformanceMetric {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.PerformanceMetric, 0, len(e.metrics))
	for _, m := range e.metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreateRule stores an optimization rule with execution count 0. Trigger and
// action are opaque; their content is not validated.
func (e *Engine) CreateRule(caller domain.Principal, id, name, trigger, action string, priority uint64, quantumEnhanced bool) (domain.OptimizationRule, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return domain.OptimizationRule{}, false, err
	}
	if err := boundedString("id", id, domain.MaxIDLen); err != nil {
		return domain.OptimizationRule{}, false, err
	}
	if err := boundedString("rule_name", name, domain.MaxNameLen); err != nil {
		return domain.OptimizationRule{}, false, err
	}
	if err := boundedString("trigger_condition", trigger, domain.MaxDetailLen); err != nil {
		return domain.OptimizationRule{}, false, err
	}
	if err := boundedString("optimization_action", action, domain.MaxDetailLen); err != nil {
		return domain.OptimizationRule{}, false, err
	}

	_, replaced := e.rules[id]
	rule := domain.OptimizationRule{
		ID:                 id,
		RuleName:           name,
		TriggerCondition:   trigger,
		OptimizationAction: action,
		Priority:           priority,
		QuantumEnhanced:    quantumEnhanced,
		ExecutionCount:     0,
	}
	e.rules[id] = rule
	return rule, replaced, nil
}

// Rule returns the rule for id; absence is not an error
func (e *Engine) Rule(id string) (domain.OptimizationRule, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rule, ok := e.rules[id]
	return rule, ok
}

// Rules returns all rules ordered by id
func (e *Engine) Rules() []domain.OptimizationRule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.OptimizationRule, 0, len(e.rules))
	for _, rule := range e.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Allocate stores a resource allocation. AllocatedAmount must not exceed
// MaxCapacity; the efficiency score is the fixed two-tier policy value.
func (e *Engine) Allocate(caller domain.Principal, id, resourceType string, amount, maxCapacity uint64, quantumOptimized bool) (domain.ResourceAllocation, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return domain.ResourceAllocation{}, false, err
	}
	if err := boundedString("id", id, domain.MaxIDLen); err != nil {
		return domain.ResourceAllocation{}, false, err
	}
	if err := boundedString("resource_type", resourceType, domain.MaxNameLen); err != nil {
		return domain.ResourceAllocation{}, false, err
	}
	if amount > maxCapacity {
		return domain.ResourceAllocation{}, false, fmt.Errorf("allocation %q: amount %d > capacity %d: %w", id, amount, maxCapacity, domain.ErrInvalidThreshold)
	}

	_, replaced := e.allocations[id]
	alloc := domain.ResourceAllocation{
		ID:               id,
		ResourceType:     resourceType,
		AllocatedAmount:  amount,
		MaxCapacity:      maxCapacity,
		EfficiencyScore:  domain.AllocationEfficiency(quantumOptimized),
		QuantumOptimized: quantumOptimized,
	}
	e.allocations[id] = alloc
	return alloc, replaced, nil
}

// Allocation returns the allocation for id; absence is not an error
func (e *Engine) Allocation(id string) (domain.ResourceAllocation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	alloc, ok := e.allocations[id]
	return alloc, ok
}

// Allocations returns all allocations ordered by id
func (e *Engine) Allocations() []domain.ResourceAllocation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.ResourceAllocation, 0, len(e.allocations))
	for _, alloc := range e.allocations {
		out = append(out, alloc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ExecuteCycle atomically increments the cycle counter by 1 and the global
// efficiency score by the fixed step, returning the new cycle count. The
// increment is unconditional: no ceiling, no decay, no relation to metric
// values.
func (e *Engine) ExecuteCycle(caller domain.Principal) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return 0, err
	}

	e.global.OptimizationCycles++
	e.global.GlobalEfficiencyScore += domain.CycleEfficiencyStep
	return e.global.OptimizationCycles, nil
}

// Stats returns the current global optimization state
func (e *Engine) Stats() domain.GlobalOptimizationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.global
}
