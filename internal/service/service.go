package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quantumgrid/internal/core"
	"quantumgrid/internal/domain"
	"quantumgrid/internal/metrics"
	"quantumgrid/internal/repository"
)

// RegistryService coordinates the registry core with persistence, the audit
// log, the event bus, and observability
type RegistryService struct {
	// mu serializes mutating operations so that clock advance, core
	// mutation, and persistence commit as one ordered unit.
	mu sync.Mutex

	engine *core.Engine
	repo   repository.Repository
	bus    *EventBus
	clock  *BlockClock
	log    *logrus.Logger
}

// NewRegistryService creates the host service around an engine
func NewRegistryService(engine *core.Engine, repo repository.Repository, bus *EventBus, clock *BlockClock, log *logrus.Logger) *RegistryService {
	svc := &RegistryService{
		engine: engine,
		repo:   repo,
		bus:    bus,
		clock:  clock,
		log:    log,
	}
	svc.syncGauges()
	return svc
}

// Owner returns the principal authorized to mutate the registries
func (s *RegistryService) Owner() domain.Principal {
	return s.engine.Owner()
}

// Height returns the current logical block height
func (s *RegistryService) Height() uint64 {
	return s.clock.Height()
}

// RegisterInfrastructure registers an infrastructure asset. The returned
// replaced flag is true when an existing record was overwritten.
func (s *RegistryService) RegisterInfrastructure(ctx context.Context, caller domain.Principal, id, infraType string, quantumCompatible bool) (domain.InfrastructureRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock.Advance()
	rec, replaced, err := s.engine.RegisterInfrastructure(caller, id, infraType, quantumCompatible)
	metrics.OperationsTotal.WithLabelValues("register_infrastructure", metrics.Outcome(err)).Inc()
	if err != nil {
		return domain.InfrastructureRecord{}, false, err
	}

	if replaced {
		s.log.WithFields(logrus.Fields{"id": id, "type": infraType}).
			Warn("re-registration overwrote existing infrastructure record")
	}

	summary := fmt.Sprintf("registered infrastructure %q (%s)", id, infraType)
	if err := s.commit(ctx, caller, domain.ObservationRegistered, id, summary, func(ctx context.Context) error {
		return s.repo.SaveInfrastructure(ctx, rec)
	}); err != nil {
		return domain.InfrastructureRecord{}, false, err
	}

	s.bus.Publish(Event{Type: EventInfrastructureRegistered, Height: rec.VerificationHeight, Payload: rec})
	return rec, replaced, nil
}

// VerifyInfrastructure transitions a pending record to verified
func (s *RegistryService) VerifyInfrastructure(ctx context.Context, caller domain.Principal, id string, performanceScore uint64) (domain.InfrastructureRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock.Advance()
	rec, err := s.engine.VerifyInfrastructure(caller, id, performanceScore)
	metrics.OperationsTotal.WithLabelValues("verify_infrastructure", metrics.Outcome(err)).Inc()
	if err != nil {
		return domain.InfrastructureRecord{}, err
	}

	summary := fmt.Sprintf("verified infrastructure %q with score %d", id, performanceScore)
	if err := s.commit(ctx, caller, domain.ObservationVerified, id, summary, func(ctx context.Context) error {
		return s.repo.SaveInfrastructure(ctx, rec)
	}); err != nil {
		return domain.InfrastructureRecord{}, err
	}

	s.bus.Publish(Event{Type: EventInfrastructureVerified, Height: rec.VerificationHeight, Payload: rec})
	return rec, nil
}

// Infrastructure returns the record for id; absence is not an error
func (s *RegistryService) Infrastructure(id string) (domain.InfrastructureRecord, bool) {
	return s.engine.Infrastructure(id)
}

// IsVerified reports whether the record exists and has been verified
func (s *RegistryService) IsVerified(id string) bool {
	return s.engine.IsVerified(id)
}

// Infrastructures returns all infrastructure records ordered by id
func (s *RegistryService) Infrastructures() []domain.InfrastructureRecord {
	return s.engine.Infrastructures()
}

// RegisterMetric registers a performance metric
func (s *RegistryService) RegisterMetric(ctx context.Context, caller domain.Principal, id, name string, target, thresholdMin, thresholdMax uint64, optType domain.OptimizationType) (domain.PerformanceMetric, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock.Advance()
	m, replaced, err := s.engine.RegisterMetric(caller, id, name, target, thresholdMin, thresholdMax, optType)
	metrics.OperationsTotal.WithLabelValues("register_metric", metrics.Outcome(err)).Inc()
	if err != nil {
		return domain.PerformanceMetric{}, false, err
	}

	if replaced {
		s.log.WithField("id", id).Warn("re-registration overwrote existing metric")
	}

	summary := fmt.Sprintf("registered metric %q (%s)", id, optType)
	if err := s.commit(ctx, caller, domain.ObservationMetricCreated, id, summary, func(ctx context.Context) error {
		return s.repo.SaveMetric(ctx, m)
	}); err != nil {
		return domain.PerformanceMetric{}, false, err
	}

	s.bus.Publish(Event{Type: EventMetricRegistered, Height: m.LastMeasured, Payload: m})
	return m, replaced, nil
}

// UpdateMetric records a new measured value for an existing metric
func (s *RegistryService) UpdateMetric(ctx context.Context, caller domain.Principal, id string, value uint64) (domain.PerformanceMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock.Advance()
	m, err := s.engine.UpdateMetric(caller, id, value)
	metrics.OperationsTotal.WithLabelValues("update_metric", metrics.Outcome(err)).Inc()
	if err != nil {
		return domain.PerformanceMetric{}, err
	}

	summary := fmt.Sprintf("updated metric %q to %d", id, value)
	if err := s.commit(ctx, caller, domain.ObservationMetricUpdated, id, summary, func(ctx context.Context) error {
		return s.repo.SaveMetric(ctx, m)
	}); err != nil {
		return domain.PerformanceMetric{}, err
	}

	s.bus.Publish(Event{Type: EventMetricUpdated, Height: m.LastMeasured, Payload: m})
	return m, nil
}

// Metric returns the metric for id; absence is not an error
func (s *RegistryService) Metric(id string) (domain.PerformanceMetric, bool) {
	return s.engine.Metric(id)
}

// IsMetricOptimal reports whether the metric exists and sits inside its
// threshold band
func (s *RegistryService) IsMetricOptimal(id string) bool {
	return s.engine.IsMetricOptimal(id)
}

// Metrics returns all metrics ordered by id
func (s *RegistryService) Metrics() []domain.PerformanceMetric {
	return s.engine.Metrics()
}

// CreateRule stores an optimization rule for external evaluation
func (s *RegistryService) CreateRule(ctx context.Context, caller domain.Principal, id, name, trigger, action string, priority uint64, quantumEnhanced bool) (domain.OptimizationRule, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	height := s.clock.Advance()
	rule, replaced, err := s.engine.CreateRule(caller, id, name, trigger, action, priority, quantumEnhanced)
	metrics.OperationsTotal.WithLabelValues("create_rule", metrics.Outcome(err)).Inc()
	if err != nil {
		return domain.OptimizationRule{}, false, err
	}

	if replaced {
		s.log.WithField("id", id).Warn("rule creation overwrote existing rule")
	}

	summary := fmt.Sprintf("created rule %q with priority %d", id, priority)
	if err := s.commit(ctx, caller, domain.ObservationRuleCreated, id, summary, func(ctx context.Context) error {
		return s.repo.SaveRule(ctx, rule)
	}); err != nil {
		return domain.OptimizationRule{}, false, err
	}

	s.bus.Publish(Event{Type: EventRuleCreated, Height: height, Payload: rule})
	return rule, replaced, nil
}

// Rule returns the rule for id; absence is not an error
func (s *RegistryService) Rule(id string) (domain.OptimizationRule, bool) {
	return s.engine.Rule(id)
}

// Rules returns all rules ordered by id
func (s *RegistryService) Rules() []domain.OptimizationRule {
	return s.engine.Rules()
}

// Allocate stores a capacity-constrained resource allocation
func (s *RegistryService) Allocate(ctx context.Context, caller domain.Principal, id, resourceType string, amount, maxCapacity uint64, quantumOptimized bool) (domain.ResourceAllocation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	height := s.clock.Advance()
	alloc, replaced, err := s.engine.Allocate(caller, id, resourceType, amount, maxCapacity, quantumOptimized)
	metrics.OperationsTotal.WithLabelValues("allocate", metrics.Outcome(err)).Inc()
	if err != nil {
		return domain.ResourceAllocation{}, false, err
	}

	if replaced {
		s.log.WithField("id", id).Warn("allocation overwrote existing allocation")
	}

	summary := fmt.Sprintf("allocated %d/%d %s", amount, maxCapacity, resourceType)
	if err := s.commit(ctx, caller, domain.ObservationAllocated, id, summary, func(ctx context.Context) error {
		return s.repo.SaveAllocation(ctx, alloc)
	}); err != nil {
		return domain.ResourceAllocation{}, false, err
	}

	s.bus.Publish(Event{Type: EventAllocationCreated, Height: height, Payload: alloc})
	return alloc, replaced, nil
}

// Allocation returns the allocation for id; absence is not an error
func (s *RegistryService) Allocation(id string) (domain.ResourceAllocation, bool) {
	return s.engine.Allocation(id)
}

// Allocations returns all allocations ordered by id
func (s *RegistryService) Allocations() []domain.ResourceAllocation {
	return s.engine.Allocations()
}

// ExecuteCycle runs one optimization cycle and returns the new cycle count
func (s *RegistryService) ExecuteCycle(ctx context.Context, caller domain.Principal) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	height := s.clock.Advance()
	count, err := s.engine.ExecuteCycle(caller)
	metrics.OperationsTotal.WithLabelValues("execute_cycle", metrics.Outcome(err)).Inc()
	if err != nil {
		return 0, err
	}

	stats := s.engine.Stats()
	summary := fmt.Sprintf("executed optimization cycle %d (efficiency %d)", count, stats.GlobalEfficiencyScore)
	if err := s.commit(ctx, caller, domain.ObservationCycleExecuted, "", summary, nil); err != nil {
		return 0, err
	}

	s.bus.Publish(Event{Type: EventCycleExecuted, Height: height, Payload: stats})
	return count, nil
}

// Stats returns the current global optimization state
func (s *RegistryService) Stats() domain.GlobalOptimizationState {
	return s.engine.Stats()
}

// Observations returns the most recent audit records, newest first
func (s *RegistryService) Observations(ctx context.Context, limit int) ([]domain.Observation, error) {
	return s.repo.ListObservations(ctx, limit)
}

// Export returns a deep copy of the full registry state
func (s *RegistryService) Export() core.Snapshot {
	return s.engine.Snapshot()
}

// commit persists a committed mutation: the entity write (if any), the global
// state with the new block height, and the observation record. Persistence
// errors are returned to the caller; the in-memory state stays authoritative
// until the next successful write.
func (s *RegistryService) commit(ctx context.Context, actor domain.Principal, kind domain.ObservationKind, entityID, summary string, save func(context.Context) error) error {
	if save != nil {
		if err := save(ctx); err != nil {
			s.log.WithError(err).Error("failed to persist registry entity")
			return fmt.Errorf("persist entity: %w", err)
		}
	}

	if err := s.repo.SaveGlobalState(ctx, s.engine.Stats(), s.clock.Height()); err != nil {
		s.log.WithError(err).Error("failed to persist global state")
		return fmt.Errorf("persist global state: %w", err)
	}

	obs := domain.Observation{
		ID:         uuid.NewString(),
		Kind:       kind,
		EntityID:   entityID,
		Actor:      actor,
		Height:     s.clock.Height(),
		Summary:    summary,
		RecordedAt: time.Now().UTC(),
	}
	if err := s.repo.AppendObservation(ctx, obs); err != nil {
		// The mutation is already durable; losing one audit record is not
		// a reason to fail the operation.
		s.log.WithError(err).Warn("failed to append observation")
	}

	s.syncGauges()
	return nil
}

// syncGauges refreshes the Prometheus gauges from the engine state
func (s *RegistryService) syncGauges() {
	stats := s.engine.Stats()
	metrics.GlobalEfficiencyScore.Set(float64(stats.GlobalEfficiencyScore))
	metrics.OptimizationCycles.Set(float64(stats.OptimizationCycles))
	metrics.BlockHeight.Set(float64(s.clock.Height()))

	infra, metricCount, rules, allocations := s.engine.Counts()
	metrics.RegistryEntries.WithLabelValues("infrastructure").Set(float64(infra))
	metrics.RegistryEntries.WithLabelValues("metrics").Set(float64(metricCount))
	metrics.RegistryEntries.WithLabelValues("rules").Set(float64(rules))
	metrics.RegistryEntries.WithLabelValues("allocations").Set(float64(allocations))
}
