package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"quantumgrid/internal/domain"
	"quantumgrid/internal/loader"
	"quantumgrid/internal/service"
)

// CallerHeader carries the principal performing a mutating request
const CallerHeader = "X-Registry-Caller"

// RegistryHandler handles registry API requests
type RegistryHandler struct {
	svc *service.RegistryService
	log *logrus.Logger
}

// NewRegistryHandler creates a new registry handler
func NewRegistryHandler(svc *service.RegistryService, log *logrus.Logger) *RegistryHandler {
	return &RegistryHandler{svc: svc, log: log}
}

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func callerFrom(r *http.Request) domain.Principal {
	return domain.Principal(r.Header.Get(CallerHeader))
}

// RegisterInfrastructureRequest is the body for infrastructure registration
type RegisterInfrastructureRequest struct {
	ID                 string `json:"id"`
	InfrastructureType string `json:"infrastructure_type"`
	QuantumCompatible  bool   `json:"quantum_compatible"`
}

// RegisterInfrastructureResponse echoes the stored record plus the overwrite flag
type RegisterInfrastructureResponse struct {
	Record   domain.InfrastructureRecord `json:"record"`
	Replaced bool                        `json:"replaced"`
}

// RegisterInfrastructure registers an infrastructure asset
func (h *RegistryHandler) RegisterInfrastructure(w http.ResponseWriter, r *http.Request) {
	var req RegisterInfrastructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		h.writeError(w, "Invalid request", "id is required", http.StatusBadRequest)
		return
	}

	rec, replaced, err := h.svc.RegisterInfrastructure(r.Context(), callerFrom(r), req.ID, req.InfrastructureType, req.QuantumCompatible)
	if err != nil {
		h.writeDomainError(w, "Failed to register infrastructure", err)
		return
	}

	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	h.writeJSON(w, RegisterInfrastructureResponse{Record: rec, Replaced: replaced}, status)
}

// VerifyInfrastructureRequest is the body for infrastructure verification
type VerifyInfrastructureRequest struct {
	PerformanceScore uint64 `json:"performance_score"`
}

// VerifyInfrastructure transitions a pending record to verified
func (h *RegistryHandler) VerifyInfrastructure(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req VerifyInfrastructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.svc.VerifyInfrastructure(r.Context(), callerFrom(r), id, req.PerformanceScore)
	if err != nil {
		h.writeDomainError(w, "Failed to verify infrastructure", err)
		return
	}

	h.writeJSON(w, rec, http.StatusOK)
}

// GetInfrastructure returns a single infrastructure record
func (h *RegistryHandler) GetInfrastructure(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, ok := h.svc.Infrastructure(id)
	if !ok {
		h.writeError(w, "Not found", "no infrastructure with id "+id, http.StatusNotFound)
		return
	}

	h.writeJSON(w, rec, http.StatusOK)
}

// ListInfrastructure returns all infrastructure records
func (h *RegistryHandler) ListInfrastructure(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Infrastructures(), http.StatusOK)
}

// GetInfrastructureVerified reports the verification flag for a record.
// Absent records report false rather than 404; the flag is a query, not a
// lookup.
func (h *RegistryHandler) GetInfrastructureVerified(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.writeJSON(w, map[string]bool{"verified": h.svc.IsVerified(id)}, http.StatusOK)
}

// RegisterMetricRequest is the body for metric registration
type RegisterMetricRequest struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	TargetValue      uint64 `json:"target_value"`
	ThresholdMin     uint64 `json:"threshold_min"`
	ThresholdMax     uint64 `json:"threshold_max"`
	OptimizationType string `json:"optimization_type"`
}

// RegisterMetricResponse echoes the stored metric plus the overwrite flag
type RegisterMetricResponse struct {
	Metric   domain.PerformanceMetric `json:"metric"`
	Replaced bool                     `json:"replaced"`
}

// RegisterMetric registers a performance metric
func (h *RegistryHandler) RegisterMetric(w http.ResponseWriter, r *http.Request) {
	var req RegisterMetricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		h.writeError(w, "Invalid request", "id is required", http.StatusBadRequest)
		return
	}

	optType, ok := domain.ParseOptimizationType(req.OptimizationType)
	if !ok {
		h.writeError(w, "Invalid request", "unknown optimization_type "+strconv.Quote(req.OptimizationType), http.StatusBadRequest)
		return
	}

	m, replaced, err := h.svc.RegisterMetric(r.Context(), callerFrom(r), req.ID, req.Name, req.TargetValue, req.ThresholdMin, req.ThresholdMax, optType)
	if err != nil {
		h.writeDomainError(w, "Failed to register metric", err)
		return
	}

	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	h.writeJSON(w, RegisterMetricResponse{Metric: m, Replaced: replaced}, status)
}

// UpdateMetricRequest is the body for a metric value update
type UpdateMetricRequest struct {
	Value uint64 `json:"value"`
}

// UpdateMetric records a new measured value for an existing metric
func (h *RegistryHandler) UpdateMetric(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateMetricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.svc.UpdateMetric(r.Context(), callerFrom(r), id, req.Value)
	if err != nil {
		h.writeDomainError(w, "Failed to update metric", err)
		return
	}

	h.writeJSON(w, m, http.StatusOK)
}

// GetMetric returns a single metric
func (h *RegistryHandler) GetMetric(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	m, ok := h.svc.Metric(id)
	if !ok {
		h.writeError(w, "Not found", "no metric with id "+id, http.StatusNotFound)
		return
	}

	h.writeJSON(w, m, http.StatusOK)
}

// ListMetrics returns all metrics
func (h *RegistryHandler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Metrics(), http.StatusOK)
}

// GetMetricOptimal reports whether a metric sits inside its threshold band.
// Absent metrics report false.
func (h *RegistryHandler) GetMetricOptimal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.writeJSON(w, map[string]bool{"optimal": h.svc.IsMetricOptimal(id)}, http.StatusOK)
}

// CreateRuleRequest is the body for rule creation
type CreateRuleRequest struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	TriggerCondition   string `json:"trigger_condition"`
	OptimizationAction string `json:"optimization_action"`
	Priority           uint64 `json:"priority"`
	QuantumEnhanced    bool   `json:"quantum_enhanced"`
}

// CreateRuleResponse echoes the stored rule plus the overwrite flag
type CreateRuleResponse struct {
	Rule     domain.OptimizationRule `json:"rule"`
	Replaced bool                    `json:"replaced"`
}

// CreateRule stores an optimization rule
func (h *RegistryHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		h.writeError(w, "Invalid request", "id is required", http.StatusBadRequest)
		return
	}

	rule, replaced, err := h.svc.CreateRule(r.Context(), callerFrom(r), req.ID, req.Name, req.TriggerCondition, req.OptimizationAction, req.Priority, req.QuantumEnhanced)
	if err != nil {
		h.writeDomainError(w, "Failed to create rule", err)
		return
	}

	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	h.writeJSON(w, CreateRuleResponse{Rule: rule, Replaced: replaced}, status)
}

// GetRule returns a single rule
func (h *RegistryHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rule, ok := h.svc.Rule(id)
	if !ok {
		h.writeError(w, "Not found", "no rule with id "+id, http.StatusNotFound)
		return
	}

	h.writeJSON(w, rule, http.StatusOK)
}

// ListRules returns all rules
func (h *RegistryHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Rules(), http.StatusOK)
}

// AllocateRequest is the body for resource allocation
type AllocateRequest struct {
	ID               string `json:"id"`
	ResourceType     string `json:"resource_type"`
	AllocatedAmount  uint64 `json:"allocated_amount"`
	MaxCapacity      uint64 `json:"max_capacity"`
	QuantumOptimized bool   `json:"quantum_optimized"`
}

// AllocateResponse echoes the stored allocation plus the overwrite flag
type AllocateResponse struct {
	Allocation domain.ResourceAllocation `json:"allocation"`
	Replaced   bool                      `json:"replaced"`
}

// Allocate stores a capacity-constrained resource allocation
func (h *RegistryHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		h.writeError(w, "Invalid request", "id is required", http.StatusBadRequest)
		return
	}
	alloc, replaced, err := h.svc.Allocate(r.Context(), callerFrom(r), req.ID, req.ResourceType, req.AllocatedAmount, req.MaxCapacity, req.QuantumOptimized)
	if err != nil {
		h.writeDomainError(w, "Failed to create allocation", err)
		return
	}

	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	h.writeJSON(w, AllocateResponse{Allocation: alloc, Replaced: replaced}, status)
}

// GetAllocation returns a single allocation
func (h *RegistryHandler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	alloc, ok := h.svc.Allocation(id)
	if !ok {
		h.writeError(w, "Not found", "no allocation with id "+id, http.StatusNotFound)
		return
	}

	h.writeJSON(w, alloc, http.StatusOK)
}

// ListAllocations returns all allocations
func (h *RegistryHandler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Allocations(), http.StatusOK)
}

// ExecuteCycleResponse reports the state after a cycle
type ExecuteCycleResponse struct {
	OptimizationCycles uint64 `json:"optimization_cycles"`
	GlobalEfficiency   uint64 `json:"global_efficiency_score"`
}

// ExecuteCycle runs one optimization cycle
func (h *RegistryHandler) ExecuteCycle(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.ExecuteCycle(r.Context(), callerFrom(r))
	if err != nil {
		h.writeDomainError(w, "Failed to execute cycle", err)
		return
	}

	stats := h.svc.Stats()
	h.writeJSON(w, ExecuteCycleResponse{
		OptimizationCycles: count,
		GlobalEfficiency:   stats.GlobalEfficiencyScore,
	}, http.StatusOK)
}

// StatsResponse is the global state plus the host block height
type StatsResponse struct {
	domain.GlobalOptimizationState
	BlockHeight uint64 `json:"block_height"`
}

// GetStats returns the global optimization state
func (h *RegistryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, StatsResponse{
		GlobalOptimizationState: h.svc.Stats(),
		BlockHeight:             h.svc.Height(),
	}, http.StatusOK)
}

// ListObservations returns the most recent audit records
func (h *RegistryHandler) ListObservations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, "Invalid request", "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	obs, err := h.svc.Observations(r.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("failed to list observations")
		h.writeError(w, "Failed to list observations", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, obs, http.StatusOK)
}

// ExportJSON returns a full snapshot of the registry state
func (h *RegistryHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Export(), http.StatusOK)
}

// ExportYAML returns the registry state as a seed-compatible YAML document
func (h *RegistryHandler) ExportYAML(w http.ResponseWriter, r *http.Request) {
	data, err := loader.ExportYAML(h.svc.Export())
	if err != nil {
		h.log.WithError(err).Error("failed to export YAML")
		h.writeError(w, "Failed to export YAML", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.WithError(err).Error("failed to write YAML export")
	}
}

// Health reports liveness
func (h *RegistryHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]interface{}{
		"status": "ok",
		"height": h.svc.Height(),
	}, http.StatusOK)
}

// writeDomainError maps sentinel errors to HTTP status codes
func (h *RegistryHandler) writeDomainError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrMetricNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyVerified):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidThreshold):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValueTooLong):
		status = http.StatusBadRequest
	default:
		h.log.WithError(err).Error(msg)
	}
	h.writeError(w, msg, err.Error(), status)
}

func (h *RegistryHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.WithError(err).Error("failed to encode JSON response")
	}
}

func (h *RegistryHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.log.WithError(err).Error("failed to encode error response")
	}
}
