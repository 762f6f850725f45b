// Package repository defines the persistence interface for the registry host.
//
// The core engine is in-memory and deterministic; serialization is the host
// environment's responsibility. This package is that host responsibility: it
// persists registry entries, the global optimization state, the logical block
// height, and the append-only observation log, and restores them at startup.
//
// The sqlite subpackage provides the implementation (modernc.org/sqlite, WAL
// mode). Each entity table carries a few indexed key columns plus a JSON data
// column holding the full record; the JSON column is the source of truth for
// non-key fields. Persistence is correctness-only; no format optimization.
package repository
