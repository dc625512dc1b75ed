// Package journal keeps a SQLite record of what the player did each round,
// for replaying and debugging games after the fact.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/nstehr/vimy/vimy-bc/model"
)

// Round is one committed round: the unit census, what was spent and every
// intent the engine accepted, in execution order.
type Round struct {
	Round     int            `json:"round"`
	Planet    model.Planet   `json:"planet"`
	Units     int            `json:"units"`
	Acted     int            `json:"acted"`
	Karbonite int            `json:"karbonite"`
	Err       string         `json:"error,omitempty"`
	Intents   []model.Intent `json:"intents,omitempty"`
}

type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("empty journal path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			round INTEGER PRIMARY KEY,
			planet TEXT NOT NULL,
			units INTEGER NOT NULL,
			acted INTEGER NOT NULL,
			karbonite INTEGER NOT NULL,
			error TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS intents (
			round INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			unit_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			intent_json TEXT NOT NULL,
			PRIMARY KEY (round, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_intents_unit_round ON intents(unit_id, round);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

// Record stores r, replacing anything already written for the same round.
func (j *Journal) Record(ctx context.Context, r Round) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var errText any
	if r.Err != "" {
		errText = r.Err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO rounds(round, planet, units, acted, karbonite, error) VALUES(?,?,?,?,?,?)`,
		r.Round, r.Planet.String(), r.Units, r.Acted, r.Karbonite, errText); err != nil {
		return fmt.Errorf("insert round %d: %w", r.Round, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM intents WHERE round = ?`, r.Round); err != nil {
		return fmt.Errorf("clear intents for round %d: %w", r.Round, err)
	}
	for seq, in := range r.Intents {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", in, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO intents(round, seq, unit_id, kind, intent_json) VALUES(?,?,?,?,?)`,
			r.Round, seq, in.UnitID, in.Kind.String(), string(raw)); err != nil {
			return fmt.Errorf("insert intent %s: %w", in, err)
		}
	}
	return tx.Commit()
}

// Load returns the stored round with its intents in execution order.
func (j *Journal) Load(ctx context.Context, round int) (Round, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	r := Round{Round: round}
	var planet string
	var errText sql.NullString
	err := j.db.QueryRowContext(ctx,
		`SELECT planet, units, acted, karbonite, error FROM rounds WHERE round = ?`, round).
		Scan(&planet, &r.Units, &r.Acted, &r.Karbonite, &errText)
	if err != nil {
		return Round{}, fmt.Errorf("load round %d: %w", round, err)
	}
	if r.Planet, err = model.ParsePlanet(planet); err != nil {
		return Round{}, err
	}
	r.Err = errText.String

	rows, err := j.db.QueryContext(ctx, `SELECT intent_json FROM intents WHERE round = ? ORDER BY seq`, round)
	if err != nil {
		return Round{}, fmt.Errorf("load intents for round %d: %w", round, err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return Round{}, err
		}
		var in model.Intent
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			return Round{}, fmt.Errorf("decode intent: %w", err)
		}
		r.Intents = append(r.Intents, in)
	}
	return r, rows.Err()
}

// UnitHistory lists every recorded intent issued by one unit, oldest first.
func (j *Journal) UnitHistory(ctx context.Context, unitID int) ([]model.Intent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT intent_json FROM intents WHERE unit_id = ? ORDER BY round, seq`, unitID)
	if err != nil {
		return nil, fmt.Errorf("unit %d history: %w", unitID, err)
	}
	defer rows.Close()
	var out []model.Intent
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var in model.Intent
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			return nil, fmt.Errorf("decode intent: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
