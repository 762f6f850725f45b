package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantumgrid/internal/domain"
)

const testOwner = domain.Principal("deployer")

// stubClock is a host-controlled logical clock for tests
type stubClock struct {
	height uint64
}

func (c *stubClock) Height() uint64 { return c.height }

func newTestEngine() (*Engine, *stubClock) {
	clock := &stubClock{height: 100}
	return New(testOwner, clock), clock
}

func TestRegisterInfrastructure_CreatesPendingRecord(t *testing.T) {
	eng, clock := newTestEngine()

	rec, replaced, err := eng.RegisterInfrastructure(testOwner, "s1", "env", true)
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, domain.StatusPending, rec.Status)
	assert.Equal(t, uint64(0), rec.PerformanceScore)
	assert.Equal(t, clock.height, rec.VerificationHeight)
	assert.Equal(t, testOwner, rec.Owner)
	assert.True(t, rec.QuantumCompatible)

	got, ok := eng.Infrastructure("s1")
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestRegisterInfrastructure_OverwriteIsExplicit(t *testing.T) {
	eng, _ := newTestEngine()

	_, replaced, err := eng.RegisterInfrastructure(testOwner, "s1", "env", false)
	require.NoError(t, err)
	assert.False(t, replaced)

	// Re-registration silently overwrites, but the replaced flag reports it.
	_, err = eng.VerifyInfrastructure(testOwner, "s1", 50)
	require.NoError(t, err)

	rec, replaced, err := eng.RegisterInfrastructure(testOwner, "s1", "datacenter", true)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "datacenter", rec.InfrastructureType)
	assert.Equal(t, domain.StatusPending, rec.Status)
	assert.Equal(t, uint64(0), rec.PerformanceScore)
}

func TestVerifyInfrastructure_Lifecycle(t *testing.T) {
	eng, clock := newTestEngine()

	_, _, err := eng.RegisterInfrastructure(testOwner, "s1", "env", true)
	require.NoError(t, err)

	clock.height = 120
	rec, err := eng.VerifyInfrastructure(testOwner, "s1", 85)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, rec.Status)
	assert.Equal(t, uint64(85), rec.PerformanceScore)
	assert.Equal(t, uint64(120), rec.VerificationHeight)
	assert.True(t, eng.IsVerified("s1"))

	// A record verified once cannot be re-verified.
	_, err = eng.VerifyInfrastructure(testOwner, "s1", 90)
	assert.ErrorIs(t, err, domain.ErrAlreadyVerified)

	got, _ := eng.Infrastructure("s1")
	assert.Equal(t, uint64(85), got.PerformanceScore)
}

func TestVerifyInfrastructure_AbsentFailsNotFound(t *testing.T) {
	eng, _ := newTestEngine()

	for _, score := range []uint64{0, 1, 100, ^uint64(0)} {
		_, err := eng.VerifyInfrastructure(testOwner, "ghost", score)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestVerifyInfrastructure_ZeroScoreAccepted(t *testing.T) {
	eng, _ := newTestEngine()

	_, _, err := eng.RegisterInfrastructure(testOwner, "s1", "env", false)
	require.NoError(t, err)

	rec, err := eng.VerifyInfrastructure(testOwner, "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, rec.Status)
	assert.Equal(t, uint64(0), rec.PerformanceScore)
}

func TestIsVerified_AbsentIsFalse(t *testing.T) {
	eng, _ := newTestEngine()
	assert.False(t, eng.IsVerified("nope"))
}

func TestRegisterMetric_ThresholdValidation(t *testing.T) {
	eng, _ := newTestEngine()

	tests := []struct {
		name    string
		min     uint64
		max     uint64
		wantErr bool
	}{
		{"min below max", 10, 20, false},
		{"adjacent", 10, 11, false},
		{"equal", 10, 10, true},
		{"inverted", 20, 10, true},
		{"both zero", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := eng.RegisterMetric(testOwner, "m-"+tt.name, "latency", 15, tt.min, tt.max, domain.OptimizeLatency)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidThreshold)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterMetric_InitialState(t *testing.T) {
	eng, clock := newTestEngine()
	clock.height = 42

	m, replaced, err := eng.RegisterMetric(testOwner, "m1", "throughput", 500, 100, 900, domain.OptimizeBandwidth)
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, uint64(0), m.CurrentValue)
	assert.Equal(t, uint64(42), m.LastMeasured)
	assert.Equal(t, domain.OptimizeBandwidth, m.OptimizationType)
}

func TestUpdateMetric_NoThresholdRecheck(t *testing.T) {
	eng, clock := newTestEngine()

	_, _, err := eng.RegisterMetric(testOwner, "m1", "latency", 15, 10, 20, domain.OptimizeLatency)
	require.NoError(t, err)

	// Values outside the band are legal on update.
	clock.height = 200
	m, err := eng.UpdateMetric(testOwner, "m1", 10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), m.CurrentValue)
	assert.Equal(t, uint64(200), m.LastMeasured)
	assert.False(t, eng.IsMetricOptimal("m1"))
}

func TestUpdateMetric_AbsentFailsMetricNotFound(t *testing.T) {
	eng, _ := newTestEngine()
	_, err := eng.UpdateMetric(testOwner, "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrMetricNotFound)
}

func TestIsMetricOptimal_InclusiveBounds(t *testing.T) {
	eng, _ := newTestEngine()

	_, _, err := eng.RegisterMetric(testOwner, "m1", "latency", 15, 10, 20, domain.OptimizeLatency)
	require.NoError(t, err)

	tests := []struct {
		value   uint64
		optimal bool
	}{
		{9, false},  // one below the lower bound
		{10, true},  // lower bound is inclusive
		{15, true},  // inside the band
		{20, true},  // upper bound is inclusive
		{21, false}, // one above the upper bound
	}

	for _, tt := range tests {
		_, err := eng.UpdateMetric(testOwner, "m1", tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.optimal, eng.IsMetricOptimal("m1"), "value %d", tt.value)
	}
}

func TestIsMetricOptimal_AbsentIsFalse(t *testing.T) {
	eng, _ := newTestEngine()
	assert.False(t, eng.IsMetricOptimal("nope"))
}

func TestCreateRule_OpaqueContentStored(t *testing.T) {
	eng, _ := newTestEngine()

	// Trigger and action are not parsed; any content is stored verbatim.
	rule, replaced, err := eng.CreateRule(testOwner, "r1", "scale-up", "latency > threshold-max", "increase-bandwidth 10%", 5, true)
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, "latency > threshold-max", rule.TriggerCondition)
	assert.Equal(t, "increase-bandwidth 10%", rule.OptimizationAction)
	assert.Equal(t, uint64(0), rule.ExecutionCount)

	got, ok := eng.Rule("r1")
	require.True(t, ok)
	assert.Equal(t, rule, got)
}

func TestAllocate_CapacityConstraint(t *testing.T) {
	eng, _ := newTestEngine()

	_, _, err := eng.Allocate(testOwner, "a1", "bandwidth", 101, 100, false)
	assert.ErrorIs(t, err, domain.ErrInvalidThreshold)

	// amount == capacity is legal.
	alloc, _, err := eng.Allocate(testOwner, "a1", "bandwidth", 100, 100, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), alloc.AllocatedAmount)
}

func TestAllocate_TwoTierEfficiencyScore(t *testing.T) {
	eng, _ := newTestEngine()

	// Efficiency is a fixed two-tier policy, independent of amount/capacity.
	tests := []struct {
		id        string
		amount    uint64
		capacity  uint64
		quantum   bool
		wantScore uint64
	}{
		{"a1", 0, 100, true, 95},
		{"a2", 100, 100, true, 95},
		{"a3", 0, 100, false, 80},
		{"a4", 99, 1_000_000, false, 80},
	}

	for _, tt := range tests {
		alloc, _, err := eng.Allocate(testOwner, tt.id, "compute", tt.amount, tt.capacity, tt.quantum)
		require.NoError(t, err)
		assert.Equal(t, tt.wantScore, alloc.EfficiencyScore, "allocation %s", tt.id)
	}
}

func TestExecuteCycle_FixedStepCounter(t *testing.T) {
	eng, _ := newTestEngine()

	stats := eng.Stats()
	assert.Equal(t, domain.InitialEfficiencyScore, stats.GlobalEfficiencyScore)
	assert.Equal(t, uint64(0), stats.OptimizationCycles)

	const n = 10
	for i := uint64(1); i <= n; i++ {
		count, err := eng.ExecuteCycle(testOwner)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	stats = eng.Stats()
	assert.Equal(t, uint64(n), stats.OptimizationCycles)
	assert.Equal(t, domain.InitialEfficiencyScore+domain.CycleEfficiencyStep*n, stats.GlobalEfficiencyScore)
}

func TestUnauthorized_NoPartialSideEffects(t *testing.T) {
	eng, _ := newTestEngine()
	intruder := domain.Principal("intruder")

	// Seed some state first.
	_, _, err := eng.RegisterInfrastructure(testOwner, "s1", "env", true)
	require.NoError(t, err)
	_, _, err = eng.RegisterMetric(testOwner, "m1", "latency", 15, 10, 20, domain.OptimizeLatency)
	require.NoError(t, err)

	before := eng.Snapshot()

	_, _, err = eng.RegisterInfrastructure(intruder, "s2", "env", false)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = eng.VerifyInfrastructure(intruder, "s1", 85)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, _, err = eng.RegisterMetric(intruder, "m2", "energy", 5, 1, 10, domain.OptimizeEnergy)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = eng.UpdateMetric(intruder, "m1", 15)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, _, err = eng.CreateRule(intruder, "r1", "n", "t", "a", 1, false)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, _, err = eng.Allocate(intruder, "a1", "compute", 1, 10, false)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = eng.ExecuteCycle(intruder)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Denied calls leave the registry state identical.
	assert.Equal(t, before, eng.Snapshot())
}

func TestUnauthorized_CheckedBeforeOtherPreconditions(t *testing.T) {
	eng, _ := newTestEngine()

	// Absent id + non-owner caller: the guard fires first.
	_, err := eng.VerifyInfrastructure("intruder", "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Invalid threshold + non-owner caller: still the guard.
	_, _, err = eng.RegisterMetric("intruder", "m", "n", 1, 9, 3, domain.OptimizeLatency)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestBoundedStrings_Rejected(t *testing.T) {
	eng, _ := newTestEngine()

	longID := strings.Repeat("x", domain.MaxIDLen+1)
	_, _, err := eng.RegisterInfrastructure(testOwner, longID, "env", false)
	assert.ErrorIs(t, err, domain.ErrValueTooLong)

	longAction := strings.Repeat("a", domain.MaxDetailLen+1)
	_, _, err = eng.CreateRule(testOwner, "r1", "n", "t", longAction, 1, false)
	assert.ErrorIs(t, err, domain.ErrValueTooLong)

	before := eng.Snapshot()
	assert.Empty(t, before.Infrastructure)
	assert.Empty(t, before.Rules)
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	eng, clock := newTestEngine()

	_, _, err := eng.RegisterInfrastructure(testOwner, "s1", "env", true)
	require.NoError(t, err)
	_, err = eng.VerifyInfrastructure(testOwner, "s1", 85)
	require.NoError(t, err)
	_, _, err = eng.RegisterMetric(testOwner, "m1", "latency", 15, 10, 20, domain.OptimizeLatency)
	require.NoError(t, err)
	_, _, err = eng.CreateRule(testOwner, "r1", "n", "t", "a", 1, true)
	require.NoError(t, err)
	_, _, err = eng.Allocate(testOwner, "a1", "compute", 5, 10, true)
	require.NoError(t, err)
	_, err = eng.ExecuteCycle(testOwner)
	require.NoError(t, err)

	snap := eng.Snapshot()

	restored := New(testOwner, clock)
	restored.Restore(snap)
	assert.Equal(t, snap, restored.Snapshot())
	assert.True(t, restored.IsVerified("s1"))
	assert.Equal(t, uint64(1), restored.Stats().OptimizationCycles)
}

func TestListOrdering(t *testing.T) {
	eng, _ := newTestEngine()

	for _, id := range []string{"c", "a", "b"} {
		_, _, err := eng.RegisterInfrastructure(testOwner, id, "env", false)
		require.NoError(t, err)
	}

	recs := eng.Infrastructures()
	require.Len(t, recs, 3)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)
	assert.Equal(t, "c", recs[2].ID)
}
