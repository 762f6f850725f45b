package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"quantumgrid/internal/core"
	"quantumgrid/internal/domain"
	"quantumgrid/internal/repository"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an ephemeral database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// The host serializes writes; a single connection avoids SQLITE_BUSY
	// and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS infrastructure (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		data JSON NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS metrics (
		id TEXT PRIMARY KEY,
		optimization_type TEXT NOT NULL,
		data JSON NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS rules (
		id TEXT PRIMARY KEY,
		priority INTEGER NOT NULL DEFAULT 0,
		data JSON NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		resource_type TEXT NOT NULL,
		data JSON NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS global_state (
		key TEXT PRIMARY KEY,
		value JSON NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS observations (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		entity_id TEXT,
		actor TEXT NOT NULL,
		height INTEGER NOT NULL,
		summary TEXT NOT NULL,
		recorded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_infrastructure_status ON infrastructure(status);
	CREATE INDEX IF NOT EXISTS idx_observations_recorded ON observations(recorded_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

const (
	stateKeyOptimization = "optimization"
	stateKeyHeight       = "block_height"
)

// LoadState restores the complete registry state from the database
func (r *Repository) LoadState(ctx context.Context) (*repository.State, error) {
	state := &repository.State{
		Snapshot: core.Snapshot{
			Infrastructure: make(map[string]domain.InfrastructureRecord),
			Metrics:        make(map[string]domain.PerformanceMetric),
			Rules:          make(map[string]domain.OptimizationRule),
			Allocations:    make(map[string]domain.ResourceAllocation),
			Global:         domain.NewGlobalOptimizationState(),
		},
	}

	if err := loadTable(ctx, r.db, "infrastructure", func(id string, data []byte) error {
		var rec domain.InfrastructureRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		rec.ID = id
		state.Snapshot.Infrastructure[id] = rec
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadTable(ctx, r.db, "metrics", func(id string, data []byte) error {
		var m domain.PerformanceMetric
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		m.ID = id
		state.Snapshot.Metrics[id] = m
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadTable(ctx, r.db, "rules", func(id string, data []byte) error {
		var rule domain.OptimizationRule
		if err := json.Unmarshal(data, &rule); err != nil {
			return err
		}
		rule.ID = id
		state.Snapshot.Rules[id] = rule
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadTable(ctx, r.db, "allocations", func(id string, data []byte) error {
		var alloc domain.ResourceAllocation
		if err := json.Unmarshal(data, &alloc); err != nil {
			return err
		}
		alloc.ID = id
		state.Snapshot.Allocations[id] = alloc
		return nil
	}); err != nil {
		return nil, err
	}

	global, ok, err := r.loadStateValue(ctx, stateKeyOptimization)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := json.Unmarshal(global, &state.Snapshot.Global); err != nil {
			return nil, fmt.Errorf("unmarshal global state: %w", err)
		}
	}

	height, ok, err := r.loadStateValue(ctx, stateKeyHeight)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := json.Unmarshal(height, &state.Height); err != nil {
			return nil, fmt.Errorf("unmarshal block height: %w", err)
		}
	}

	return state, nil
}

func (r *Repository) loadStateValue(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM global_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query global_state %q: %w", key, err)
	}
	return value, true, nil
}

// SaveInfrastructure upserts an infrastructure record
func (r *Repository) SaveInfrastructure(ctx context.Context, rec domain.InfrastructureRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal infrastructure %q: %w", rec.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO infrastructure (id, status, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, rec.ID, string(rec.Status), data)
	if err != nil {
		return fmt.Errorf("save infrastructure %q: %w", rec.ID, err)
	}
	return nil
}

// SaveMetric upserts a performance metric
func (r *Repository) SaveMetric(ctx context.Context, m domain.PerformanceMetric) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metric %q: %w", m.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO metrics (id, optimization_type, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			optimization_type = excluded.optimization_type,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, m.ID, string(m.OptimizationType), data)
	if err != nil {
		return fmt.Errorf("save metric %q: %w", m.ID, err)
	}
	return nil
}

// SaveRule upserts an optimization rule
func (r *Repository) SaveRule(ctx context.Context, rule domain.OptimizationRule) error {
	data, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("marshal rule %q: %w", rule.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO rules (id, priority, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			priority = excluded.priority,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, rule.ID, rule.Priority, data)
	if err != nil {
		return fmt.Errorf("save rule %q: %w", rule.ID, err)
	}
	return nil
}

// SaveAllocation upserts a resource allocation
func (r *Repository) SaveAllocation(ctx context.Context, alloc domain.ResourceAllocation) error {
	data, err := json.Marshal(alloc)
	if err != nil {
		return fmt.Errorf("marshal allocation %q: %w", alloc.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO allocations (id, resource_type, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			resource_type = excluded.resource_type,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, alloc.ID, alloc.ResourceType, data)
	if err != nil {
		return fmt.Errorf("save allocation %q: %w", alloc.ID, err)
	}
	return nil
}

// SaveGlobalState persists the optimization state and block height together
func (r *Repository) SaveGlobalState(ctx context.Context, state domain.GlobalOptimizationState, height uint64) error {
	global, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal global state: %w", err)
	}
	heightJSON, err := json.Marshal(height)
	if err != nil {
		return fmt.Errorf("marshal block height: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin global state tx: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO global_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, upsert, stateKeyOptimization, global); err != nil {
		return fmt.Errorf("save global state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, stateKeyHeight, heightJSON); err != nil {
		return fmt.Errorf("save block height: %w", err)
	}

	return tx.Commit()
}

// AppendObservation appends one observation to the audit log
func (r *Repository) AppendObservation(ctx context.Context, obs domain.Observation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO observations (id, kind, entity_id, actor, height, summary, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, obs.ID, string(obs.Kind), obs.EntityID, string(obs.Actor), obs.Height, obs.Summary, obs.RecordedAt.UTC())
	if err != nil {
		return fmt.Errorf("append observation %q: %w", obs.ID, err)
	}
	return nil
}

// ListObservations returns the most recent observations, newest first
func (r *Repository) ListObservations(ctx context.Context, limit int) ([]domain.Observation, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, entity_id, actor, height, summary, recorded_at
		FROM observations
		ORDER BY height DESC, recorded_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var (
			obs      domain.Observation
			kind     string
			entityID sql.NullString
			actor    string
			recorded time.Time
		)
		if err := rows.Scan(&obs.ID, &kind, &entityID, &actor, &obs.Height, &obs.Summary, &recorded); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs.Kind = domain.ObservationKind(kind)
		obs.EntityID = entityID.String
		obs.Actor = domain.Principal(actor)
		obs.RecordedAt = recorded
		out = append(out, obs)
	}

	return out, rows.Err()
}

// Close closes the underlying database
func (r *Repository) Close() error {
	return r.db.Close()
}

// loadTable reads every (id, data) pair from an entity table
func loadTable(ctx context.Context, db *sql.DB, table string, fn func(id string, data []byte) error) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT id, data FROM %s`, table))
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		if err := fn(id, data); err != nil {
			return fmt.Errorf("decode %s %q: %w", table, id, err)
		}
	}

	return rows.Err()
}
