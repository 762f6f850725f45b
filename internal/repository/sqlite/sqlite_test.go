package sqlite

import (
	"context"
	"reflect"
	"testing"
	"time"

	"quantumgrid/internal/domain"
)

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

func TestLoadState_FreshDatabase(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	state, err := repo.LoadState(ctx)
	assertNoError(t, err)

	assertEqual(t, 0, len(state.Snapshot.Infrastructure))
	assertEqual(t, 0, len(state.Snapshot.Metrics))
	assertEqual(t, 0, len(state.Snapshot.Rules))
	assertEqual(t, 0, len(state.Snapshot.Allocations))
	assertEqual(t, domain.NewGlobalOptimizationState(), state.Snapshot.Global)
	assertEqual(t, uint64(0), state.Height)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := domain.InfrastructureRecord{
		ID:                 "s1",
		Owner:              "deployer",
		InfrastructureType: "datacenter",
		Status:             domain.StatusVerified,
		VerificationHeight: 42,
		QuantumCompatible:  true,
		PerformanceScore:   85,
	}
	assertNoError(t, repo.SaveInfrastructure(ctx, rec))

	metric := domain.PerformanceMetric{
		ID:               "m1",
		MetricName:       "east-west latency",
		CurrentValue:     15,
		TargetValue:      12,
		ThresholdMin:     10,
		ThresholdMax:     20,
		OptimizationType: domain.OptimizeLatency,
		LastMeasured:     42,
	}
	assertNoError(t, repo.SaveMetric(ctx, metric))

	rule := domain.OptimizationRule{
		ID:                 "r1",
		RuleName:           "scale-up",
		TriggerCondition:   "latency > threshold-max",
		OptimizationAction: "increase-bandwidth",
		Priority:           5,
		QuantumEnhanced:    true,
	}
	assertNoError(t, repo.SaveRule(ctx, rule))

	alloc := domain.ResourceAllocation{
		ID:               "a1",
		ResourceType:     "compute",
		AllocatedAmount:  50,
		MaxCapacity:      100,
		EfficiencyScore:  95,
		QuantumOptimized: true,
	}
	assertNoError(t, repo.SaveAllocation(ctx, alloc))

	global := domain.GlobalOptimizationState{GlobalEfficiencyScore: 81, OptimizationCycles: 3}
	assertNoError(t, repo.SaveGlobalState(ctx, global, 42))

	state, err := repo.LoadState(ctx)
	assertNoError(t, err)

	assertEqual(t, rec, state.Snapshot.Infrastructure["s1"])
	assertEqual(t, metric, state.Snapshot.Metrics["m1"])
	assertEqual(t, rule, state.Snapshot.Rules["r1"])
	assertEqual(t, alloc, state.Snapshot.Allocations["a1"])
	assertEqual(t, global, state.Snapshot.Global)
	assertEqual(t, uint64(42), state.Height)
}

func TestSaveInfrastructure_Upsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := domain.InfrastructureRecord{ID: "s1", Status: domain.StatusPending}
	assertNoError(t, repo.SaveInfrastructure(ctx, rec))

	rec.Status = domain.StatusVerified
	rec.PerformanceScore = 90
	assertNoError(t, repo.SaveInfrastructure(ctx, rec))

	state, err := repo.LoadState(ctx)
	assertNoError(t, err)
	assertEqual(t, 1, len(state.Snapshot.Infrastructure))
	assertEqual(t, domain.StatusVerified, state.Snapshot.Infrastructure["s1"].Status)
	assertEqual(t, uint64(90), state.Snapshot.Infrastructure["s1"].PerformanceScore)
}

func TestObservations_AppendAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"obs-1", "obs-2", "obs-3"} {
		obs := domain.Observation{
			ID:         id,
			Kind:       domain.ObservationRegistered,
			EntityID:   "s1",
			Actor:      "deployer",
			Height:     uint64(i + 1),
			Summary:    "registered s1",
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		}
		assertNoError(t, repo.AppendObservation(ctx, obs))
	}

	// Newest first.
	list, err := repo.ListObservations(ctx, 2)
	assertNoError(t, err)
	assertEqual(t, 2, len(list))
	assertEqual(t, "obs-3", list[0].ID)
	assertEqual(t, "obs-2", list[1].ID)

	// Zero limit falls back to the default cap.
	all, err := repo.ListObservations(ctx, 0)
	assertNoError(t, err)
	assertEqual(t, 3, len(all))
}

func TestSaveGlobalState_Overwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveGlobalState(ctx, domain.GlobalOptimizationState{GlobalEfficiencyScore: 77, OptimizationCycles: 1}, 10))
	assertNoError(t, repo.SaveGlobalState(ctx, domain.GlobalOptimizationState{GlobalEfficiencyScore: 79, OptimizationCycles: 2}, 11))

	state, err := repo.LoadState(ctx)
	assertNoError(t, err)
	assertEqual(t, uint64(79), state.Snapshot.Global.GlobalEfficiencyScore)
	assertEqual(t, uint64(2), state.Snapshot.Global.OptimizationCycles)
	assertEqual(t, uint64(11), state.Height)
}
