// Package loader applies YAML seed files to the registry and exports
// registry state back to YAML.
package loader

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"quantumgrid/internal/core"
	"quantumgrid/internal/domain"
	"quantumgrid/internal/service"
)

// SeedYAML represents the seed file structure
type SeedYAML struct {
	Version        int                  `yaml:"version"`
	Infrastructure []InfrastructureYAML `yaml:"infrastructure,omitempty"`
	Metrics        []MetricYAML         `yaml:"metrics,omitempty"`
	Rules          []RuleYAML           `yaml:"rules,omitempty"`
	Allocations    []AllocationYAML     `yaml:"allocations,omitempty"`
}

// InfrastructureYAML represents one infrastructure entry in the seed
type InfrastructureYAML struct {
	ID                string `yaml:"id"`
	Type              string `yaml:"type"`
	QuantumCompatible bool   `yaml:"quantum_compatible,omitempty"`

	// Verify optionally verifies the record right after registration.
	Verify           bool   `yaml:"verify,omitempty"`
	PerformanceScore uint64 `yaml:"performance_score,omitempty"`
}

// MetricYAML represents one metric entry in the seed
type MetricYAML struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	TargetValue      uint64 `yaml:"target_value"`
	ThresholdMin     uint64 `yaml:"threshold_min"`
	ThresholdMax     uint64 `yaml:"threshold_max"`
	OptimizationType string `yaml:"optimization_type"`
}

// RuleYAML represents one rule entry in the seed
type RuleYAML struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	TriggerCondition string `yaml:"trigger_condition"`
	Action           string `yaml:"action"`
	Priority         uint64 `yaml:"priority"`
	QuantumEnhanced  bool   `yaml:"quantum_enhanced,omitempty"`
}

// AllocationYAML represents one allocation entry in the seed
type AllocationYAML struct {
	ID               string `yaml:"id"`
	ResourceType     string `yaml:"resource_type"`
	Amount           uint64 `yaml:"amount"`
	MaxCapacity      uint64 `yaml:"max_capacity"`
	QuantumOptimized bool   `yaml:"quantum_optimized,omitempty"`
}

// LoadSeed reads and parses a seed file
func LoadSeed(path string) (*SeedYAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses a seed from YAML bytes
func ParseSeed(data []byte) (*SeedYAML, error) {
	var seed SeedYAML
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	return &seed, nil
}

// Apply runs all seed entries through the service as the owner principal.
// Each entry is a normal registry operation: it advances the clock, persists,
// and is recorded in the observation log. Returns the number of applied
// entries.
func Apply(ctx context.Context, svc *service.RegistryService, seed *SeedYAML) (int, error) {
	owner := svc.Owner()
	applied := 0

	for _, entry := range seed.Infrastructure {
		if _, _, err := svc.RegisterInfrastructure(ctx, owner, entry.ID, entry.Type, entry.QuantumCompatible); err != nil {
			return applied, fmt.Errorf("seed infrastructure %q: %w", entry.ID, err)
		}
		applied++

		if entry.Verify {
			if _, err := svc.VerifyInfrastructure(ctx, owner, entry.ID, entry.PerformanceScore); err != nil {
				return applied, fmt.Errorf("seed verify %q: %w", entry.ID, err)
			}
			applied++
		}
	}

	for _, entry := range seed.Metrics {
		optType, ok := domain.ParseOptimizationType(entry.OptimizationType)
		if !ok {
			return applied, fmt.Errorf("seed metric %q: unknown optimization type %q", entry.ID, entry.OptimizationType)
		}
		if _, _, err := svc.RegisterMetric(ctx, owner, entry.ID, entry.Name, entry.TargetValue, entry.ThresholdMin, entry.ThresholdMax, optType); err != nil {
			return applied, fmt.Errorf("seed metric %q: %w", entry.ID, err)
		}
		applied++
	}

	for _, entry := range seed.Rules {
		if _, _, err := svc.CreateRule(ctx, owner, entry.ID, entry.Name, entry.TriggerCondition, entry.Action, entry.Priority, entry.QuantumEnhanced); err != nil {
			return applied, fmt.Errorf("seed rule %q: %w", entry.ID, err)
		}
		applied++
	}

	for _, entry := range seed.Allocations {
		if _, _, err := svc.Allocate(ctx, owner, entry.ID, entry.ResourceType, entry.Amount, entry.MaxCapacity, entry.QuantumOptimized); err != nil {
			return applied, fmt.Errorf("seed allocation %q: %w", entry.ID, err)
		}
		applied++
	}

	return applied, nil
}

// ExportYAML renders a registry snapshot as a seed-compatible YAML document
func ExportYAML(snap core.Snapshot) ([]byte, error) {
	seed := SeedYAML{Version: 1}

	for _, rec := range sortedValues(snap.Infrastructure) {
		entry := InfrastructureYAML{
			ID:                rec.ID,
			Type:              rec.InfrastructureType,
			QuantumCompatible: rec.QuantumCompatible,
		}
		if rec.IsVerified() {
			entry.Verify = true
			entry.PerformanceScore = rec.PerformanceScore
		}
		seed.Infrastructure = append(seed.Infrastructure, entry)
	}

	for _, m := range sortedValues(snap.Metrics) {
		seed.Metrics = append(seed.Metrics, MetricYAML{
			ID:               m.ID,
			Name:             m.MetricName,
			TargetValue:      m.TargetValue,
			ThresholdMin:     m.ThresholdMin,
			ThresholdMax:     m.ThresholdMax,
			OptimizationType: string(m.OptimizationType),
		})
	}

	for _, rule := range sortedValues(snap.Rules) {
		seed.Rules = append(seed.Rules, RuleYAML{
			ID:               rule.ID,
			Name:             rule.RuleName,
			TriggerCondition: rule.TriggerCondition,
			Action:           rule.OptimizationAction,
			Priority:         rule.Priority,
			QuantumEnhanced:  rule.QuantumEnhanced,
		})
	}

	for _, alloc := range sortedValues(snap.Allocations) {
		seed.Allocations = append(seed.Allocations, AllocationYAML{
			ID:               alloc.ID,
			ResourceType:     alloc.ResourceType,
			Amount:           alloc.AllocatedAmount,
			MaxCapacity:      alloc.MaxCapacity,
			QuantumOptimized: alloc.QuantumOptimized,
		})
	}

	return yaml.Marshal(&seed)
}

// sortedValues returns map values ordered by key for stable export output
func sortedValues[V any](m map[string]V) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
