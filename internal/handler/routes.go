package handler

import "net/http"

// RegisterRoutes attaches all registry API routes to the mux
func (h *RegistryHandler) RegisterRoutes(mux *http.ServeMux) {
	// Infrastructure registry
	mux.HandleFunc("POST /api/infrastructure", h.RegisterInfrastructure)
	mux.HandleFunc("GET /api/infrastructure", h.ListInfrastructure)
	mux.HandleFunc("GET /api/infrastructure/{id}", h.GetInfrastructure)
	mux.HandleFunc("POST /api/infrastructure/{id}/verify", h.VerifyInfrastructure)
	mux.HandleFunc("GET /api/infrastructure/{id}/verified", h.GetInfrastructureVerified)

	// Metric registry
	mux.HandleFunc("POST /api/metrics", h.RegisterMetric)
	mux.HandleFunc("GET /api/metrics", h.ListMetrics)
	mux.HandleFunc("GET /api/metrics/{id}", h.GetMetric)
	mux.HandleFunc("PUT /api/metrics/{id}", h.UpdateMetric)
	mux.HandleFunc("GET /api/metrics/{id}/optimal", h.GetMetricOptimal)

	// Rule registry
	mux.HandleFunc("POST /api/rules", h.CreateRule)
	mux.HandleFunc("GET /api/rules", h.ListRules)
	mux.HandleFunc("GET /api/rules/{id}", h.GetRule)

	// Allocation registry
	mux.HandleFunc("POST /api/allocations", h.Allocate)
	mux.HandleFunc("GET /api/allocations", h.ListAllocations)
	mux.HandleFunc("GET /api/allocations/{id}", h.GetAllocation)

	// Optimization cycle and global state
	mux.HandleFunc("POST /api/cycle", h.ExecuteCycle)
	mux.HandleFunc("GET /api/stats", h.GetStats)

	// Audit and export
	mux.HandleFunc("GET /api/observations", h.ListObservations)
	mux.HandleFunc("GET /api/export/json", h.ExportJSON)
	mux.HandleFunc("GET /api/export/yaml", h.ExportYAML)

	mux.HandleFunc("GET /api/health", h.Health)
}
