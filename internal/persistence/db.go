// Package persistence stores run history in SQLite and archives final
// snapshots as zstd-compressed files.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/civ-world/internal/engine"
	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/world"
)

// ErrUnknownRun is returned for a run id with no stored history.
var ErrUnknownRun = errors.New("unknown run")

// DB wraps a SQLite connection for run history. It implements
// engine.Recorder.
type DB struct {
	conn *sqlx.DB

	mu     sync.Mutex
	stored map[string]counts // per run: rows already written
}

type counts struct {
	turn              uint64
	events, disasters int
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, stored: make(map[string]counts)}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		last_turn INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		type TEXT NOT NULL,
		subtype TEXT NOT NULL,
		target TEXT NOT NULL,
		amount REAL NOT NULL,
		reason TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS disasters (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		center_x INTEGER NOT NULL,
		center_y INTEGER NOT NULL,
		radius INTEGER NOT NULL,
		area_json TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS civ_history (
		run_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		civ_id TEXT NOT NULL,
		name TEXT NOT NULL,
		military REAL NOT NULL,
		economic REAL NOT NULL,
		technology REAL NOT NULL,
		population REAL NOT NULL,
		score REAL NOT NULL,
		resources_json TEXT NOT NULL,
		PRIMARY KEY (run_id, turn, civ_id)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_turn ON events(run_id, turn);
	CREATE INDEX IF NOT EXISTS idx_disasters_turn ON disasters(run_id, turn);
	CREATE INDEX IF NOT EXISTS idx_civ_history_civ ON civ_history(run_id, civ_id, turn);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Record implements engine.Recorder: it stores the snapshot's new events and
// disasters, one history row per civilization, and the run's last turn.
// The first snapshot of a run seen by this handle, or one that is behind
// what was already written, starts the run over: rows left
// under the same id by an earlier run are deleted first.
func (db *DB) Record(ctx context.Context, snap *engine.Snapshot) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	done, seen := db.stored[snap.RunID]
	restart := !seen || snap.Turn < done.turn ||
		done.events > len(snap.Events) || done.disasters > len(snap.Disasters)
	if restart {
		done = counts{}
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (run_id, seed, width, height, last_turn)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET last_turn = excluded.last_turn`,
		snap.RunID, snap.Seed, snap.Width, snap.Height, snap.Turn,
	); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if restart {
		if err := clearRun(ctx, tx, snap.RunID); err != nil {
			return err
		}
	}

	for i := done.events; i < len(snap.Events); i++ {
		e := snap.Events[i]
		if _, err := tx.ExecContext(ctx, `INSERT INTO events
			(run_id, seq, turn, type, subtype, target, amount, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.RunID, i, e.Turn, e.Type, e.Subtype, e.Target, e.Amount, e.Reason,
		); err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}

	for i := done.disasters; i < len(snap.Disasters); i++ {
		d := snap.Disasters[i]
		area, err := json.Marshal(d.Area)
		if err != nil {
			return fmt.Errorf("encode disaster area: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO disasters
			(run_id, seq, turn, kind, severity, center_x, center_y, radius, area_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.RunID, i, d.Turn, d.Kind.String(), d.Severity.String(),
			d.Center.X, d.Center.Y, d.Radius, string(area),
		); err != nil {
			return fmt.Errorf("insert disaster %d: %w", i, err)
		}
	}

	for _, c := range snap.Civilizations {
		res, err := json.Marshal(c.Resources)
		if err != nil {
			return fmt.Errorf("encode resources of %s: %w", c.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO civ_history
			(run_id, turn, civ_id, name, military, economic, technology, population, score, resources_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.RunID, snap.Turn, c.ID, c.Name, c.MilitaryPower, c.EconomicPower,
			c.TechnologyLevel, c.Population, c.PowerScore(), string(res),
		); err != nil {
			return fmt.Errorf("insert history of %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	db.stored[snap.RunID] = counts{turn: snap.Turn, events: len(snap.Events), disasters: len(snap.Disasters)}
	slog.Debug("turn recorded", "run", snap.RunID, "turn", snap.Turn, "events", len(snap.Events)-done.events)
	return nil
}

// clearRun deletes every logged row of a run.
func clearRun(ctx context.Context, tx *sqlx.Tx, runID string) error {
	for _, table := range []string{"events", "disasters", "civ_history"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("clear %s of %s: %w", table, runID, err)
		}
	}
	return nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// Run is the stored summary of one simulation run.
type Run struct {
	RunID    string `db:"run_id" json:"run_id"`
	Seed     int64  `db:"seed" json:"seed"`
	Width    int    `db:"width" json:"width"`
	Height   int    `db:"height" json:"height"`
	LastTurn uint64 `db:"last_turn" json:"last_turn"`
}

// Runs lists every stored run, ordered by id.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	var runs []Run
	err := db.conn.SelectContext(ctx, &runs,
		"SELECT run_id, seed, width, height, last_turn FROM runs ORDER BY run_id")
	return runs, err
}

// GetRun returns one run, or ErrUnknownRun.
func (db *DB) GetRun(ctx context.Context, runID string) (Run, error) {
	var r Run
	err := db.conn.GetContext(ctx, &r,
		"SELECT run_id, seed, width, height, last_turn FROM runs WHERE run_id = ?", runID)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return r, err
}

type eventRow struct {
	Turn    uint64  `db:"turn"`
	Type    string  `db:"type"`
	Subtype string  `db:"subtype"`
	Target  string  `db:"target"`
	Amount  float64 `db:"amount"`
	Reason  string  `db:"reason"`
}

// RecentEvents returns the most recent limit events of a run, newest first.
func (db *DB) RecentEvents(ctx context.Context, runID string, limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT turn, type, subtype, target, amount, reason FROM events
		 WHERE run_id = ? ORDER BY seq DESC LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[i] = engine.Event(r)
	}
	return events, nil
}

// EventCounts tallies a run's events by type and subtype, keyed "type/subtype".
func (db *DB) EventCounts(ctx context.Context, runID string) (map[string]int, error) {
	var rows []struct {
		Type    string `db:"type"`
		Subtype string `db:"subtype"`
		N       int    `db:"n"`
	}
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT type, subtype, COUNT(*) AS n FROM events
		 WHERE run_id = ? GROUP BY type, subtype`, runID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Type+"/"+r.Subtype] = r.N
	}
	return out, nil
}

type disasterRow struct {
	Turn     uint64 `db:"turn"`
	Kind     string `db:"kind"`
	Severity string `db:"severity"`
	CenterX  int    `db:"center_x"`
	CenterY  int    `db:"center_y"`
	Radius   int    `db:"radius"`
	AreaJSON string `db:"area_json"`
}

// Disasters returns a run's disasters that occurred after turn, oldest first.
func (db *DB) Disasters(ctx context.Context, runID string, since uint64) ([]engine.Disaster, error) {
	var rows []disasterRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT turn, kind, severity, center_x, center_y, radius, area_json FROM disasters
		 WHERE run_id = ? AND turn > ? ORDER BY seq`,
		runID, since,
	)
	if err != nil {
		return nil, err
	}

	out := make([]engine.Disaster, 0, len(rows))
	for _, r := range rows {
		d := engine.Disaster{
			Turn:   r.Turn,
			Center: world.Coord{X: r.CenterX, Y: r.CenterY},
			Radius: r.Radius,
		}
		if err := d.Kind.UnmarshalText([]byte(r.Kind)); err != nil {
			return nil, err
		}
		if err := d.Severity.UnmarshalText([]byte(r.Severity)); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(r.AreaJSON), &d.Area); err != nil {
			return nil, fmt.Errorf("decode disaster area: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// HistoryRow is one civilization's record at the end of one turn.
type HistoryRow struct {
	Turn          uint64  `db:"turn" json:"turn"`
	CivID         string  `db:"civ_id" json:"civ_id"`
	Name          string  `db:"name" json:"name"`
	Military      float64 `db:"military" json:"military"`
	Economic      float64 `db:"economic" json:"economic"`
	Technology    float64 `db:"technology" json:"technology"`
	Population    float64 `db:"population" json:"population"`
	Score         float64 `db:"score" json:"score"`
	ResourcesJSON string  `db:"resources_json" json:"-"`
}

// Resources decodes the row's resource stock.
func (r HistoryRow) Resources() (world.Resources, error) {
	var res world.Resources
	if err := json.Unmarshal([]byte(r.ResourcesJSON), &res); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}
	return res, nil
}

// CivilizationHistory returns a civilization's per-turn records, oldest first.
func (db *DB) CivilizationHistory(ctx context.Context, runID string, civ social.CivilizationID) ([]HistoryRow, error) {
	var rows []HistoryRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT turn, civ_id, name, military, economic, technology, population, score, resources_json
		 FROM civ_history WHERE run_id = ? AND civ_id = ? ORDER BY turn`,
		runID, civ,
	)
	return rows, err
}

// CivilizationIDs lists the civilizations recorded for a run.
func (db *DB) CivilizationIDs(ctx context.Context, runID string) ([]string, error) {
	var ids []string
	err := db.conn.SelectContext(ctx, &ids,
		"SELECT DISTINCT civ_id FROM civ_history WHERE run_id = ? ORDER BY civ_id", runID)
	return ids, err
}

// SetLatestRun remembers the most recently started run.
func (db *DB) SetLatestRun(runID string, seed int64) error {
	if err := db.SaveMeta("latest_run", runID); err != nil {
		return err
	}
	return db.SaveMeta("latest_seed", strconv.FormatInt(seed, 10))
}

// LatestRun returns the id stored by SetLatestRun.
func (db *DB) LatestRun() (string, error) {
	id, err := db.GetMeta("latest_run")
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUnknownRun
	}
	return id, err
}
