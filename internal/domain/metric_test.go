package domain

import "testing"

func TestParseOptimizationType(t *testing.T) {
	tests := []struct {
		input string
		want  OptimizationType
		ok    bool
	}{
		{"bandwidth", OptimizeBandwidth, true},
		{"latency", OptimizeLatency, true},
		{"energy", OptimizeEnergy, true},
		{"quantum_coherence", OptimizeQuantumCoherence, true},
		{"", "", false},
		{"Latency", "", false},
		{"throughput", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseOptimizationType(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseOptimizationType(%q) = (%q, %v), want (%q, %v)",
				tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMetricInBand(t *testing.T) {
	m := PerformanceMetric{ThresholdMin: 10, ThresholdMax: 20}

	tests := []struct {
		value uint64
		want  bool
	}{
		{9, false},
		{10, true},
		{20, true},
		{21, false},
	}

	for _, tt := range tests {
		m.CurrentValue = tt.value
		if got := m.InBand(); got != tt.want {
			t.Errorf("InBand() with value %d = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestAllocationEfficiency(t *testing.T) {
	if got := AllocationEfficiency(true); got != EfficiencyQuantum {
		t.Errorf("AllocationEfficiency(true) = %d, want %d", got, EfficiencyQuantum)
	}
	if got := AllocationEfficiency(false); got != EfficiencyStandard {
		t.Errorf("AllocationEfficiency(false) = %d, want %d", got, EfficiencyStandard)
	}
}

func TestNewGlobalOptimizationState(t *testing.T) {
	state := NewGlobalOptimizationState()
	if state.GlobalEfficiencyScore != 75 {
		t.Errorf("initial efficiency score = %d, want 75", state.GlobalEfficiencyScore)
	}
	if state.OptimizationCycles != 0 {
		t.Errorf("initial cycle count = %d, want 0", state.OptimizationCycles)
	}
}

func TestRecordIsVerified(t *testing.T) {
	rec := InfrastructureRecord{Status: StatusPending}
	if rec.IsVerified() {
		t.Error("pending record reported verified")
	}
	rec.Status = StatusVerified
	if !rec.IsVerified() {
		t.Error("verified record not reported verified")
	}
}
