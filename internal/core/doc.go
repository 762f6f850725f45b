// Package core implements the deterministic registry and optimization engine.
//
// The engine owns four registries (infrastructure, metrics, rules,
// allocations) and the singleton global optimization state, guarded by a
// single exclusive lock. Every mutating operation passes the authorization
// guard first; a denied or failed operation leaves all registries unchanged.
//
// The logical clock is supplied by the host through the Clock interface and
// is read, never set, by the engine. Registries communicate only through the
// caller: no cross-registry invariants are enforced.
package core
