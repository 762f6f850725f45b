// Package service implements the host layer around the registry core.
//
// The core engine assumes a single authoritative execution context that
// commits one operation at a time against a fixed logical clock. This package
// is that context: RegistryService serializes mutating operations, advances
// the block clock by one per committed mutation, persists the change through
// the repository, appends an observation to the audit log, publishes a typed
// event on the EventBus, and keeps the Prometheus gauges current.
//
// Read operations go straight to the in-memory engine and never fail;
// absence is a valid result.
package service
