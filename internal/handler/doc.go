// Package handler implements HTTP request handlers for the QuantumGrid API.
//
// This package provides the HTTP layer over the registry service, handling
// requests for infrastructure lifecycle, performance metrics, optimization
// rules, resource allocations, optimization cycles, and state export.
//
// # Caller Identity
//
// Mutating endpoints read the caller principal from the X-Registry-Caller
// header. The service rejects callers other than the configured owner; the
// handler maps that rejection to 403. A missing header is passed through as
// the empty principal and rejected the same way.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure. Domain errors
// map to stable status codes: unauthorized 403, not found 404, already
// verified 409, invalid threshold 422, oversized field 400.
//
// # Server-Sent Events
//
// The /events endpoint (wired in cmd/server) streams registry events via SSE.
package handler
