package domain

// OptimizationType classifies what a performance metric optimizes for
type OptimizationType string

const (
	OptimizeBandwidth        OptimizationType = "bandwidth"
	OptimizeLatency          OptimizationType = "latency"
	OptimizeEnergy           OptimizationType = "energy"
	OptimizeQuantumCoherence OptimizationType = "quantum_coherence"
)

// ParseOptimizationType returns the matching type and whether the input names
// a known optimization type
func ParseOptimizationType(s string) (OptimizationType, bool) {
	switch OptimizationType(s) {
	case OptimizeBandwidth, OptimizeLatency, OptimizeEnergy, OptimizeQuantumCoherence:
		return OptimizationType(s), true
	}
	return "", false
}

// PerformanceMetric stores a measured value with its target and threshold band.
// ThresholdMin < ThresholdMax strictly, enforced at registration only; the
// current value may legally drift outside the band.
type PerformanceMetric struct {
	ID               string           `json:"id"`
	MetricName       string           `json:"metric_name"`
	CurrentValue     uint64           `json:"current_value"`
	TargetValue      uint64           `json:"target_value"`
	ThresholdMin     uint64           `json:"threshold_min"`
	ThresholdMax     uint64           `json:"threshold_max"`
	OptimizationType OptimizationType `json:"optimization_type"`
	// LastMeasured is the logical clock value of the last registration or
	// update.
	LastMeasured uint64 `json:"last_measured"`
}

// InBand returns true if the current value sits inside the threshold band,
// inclusive on both bounds
func (m *PerformanceMetric) InBand() bool {
	return m.CurrentValue >= m.ThresholdMin && m.CurrentValue <= m.ThresholdMax
}
