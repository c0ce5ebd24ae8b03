// Package store keeps solver results and search records in a SQLite
// database so that runs can be compared and queried later.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/2767mr/tmam/internal/search"
	"github.com/2767mr/tmam/internal/shape"
	"github.com/2767mr/tmam/internal/tmam"
)

const schema = `
CREATE TABLE IF NOT EXISTS solutions (
    target     INTEGER PRIMARY KEY,
    parts      TEXT NOT NULL,
    ord        TEXT NOT NULL,
    extra      INTEGER NOT NULL DEFAULT 0,
    strategy   TEXT NOT NULL,
    iterations INTEGER NOT NULL DEFAULT 0,
    solved_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS builds (
    code  INTEGER PRIMARY KEY,
    op    INTEGER NOT NULL,
    cost  INTEGER NOT NULL,
    code1 INTEGER NOT NULL,
    code2 INTEGER NOT NULL,
    alt   INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS builds_cost ON builds (cost);
`

// Store is a SQLite database of solutions and builds.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSolutions upserts results in one transaction.
func (s *Store) SaveSolutions(ctx context.Context, results []tmam.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx for solutions: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const q = `
		INSERT INTO solutions (target, parts, ord, extra, strategy, iterations, solved_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(target) DO UPDATE SET
			parts      = excluded.parts,
			ord        = excluded.ord,
			extra      = excluded.extra,
			strategy   = excluded.strategy,
			iterations = excluded.iterations,
			solved_at  = CURRENT_TIMESTAMP`

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("store: prepare solution upsert: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		extra := 0
		if res.Extra {
			extra = 1
		}
		if _, err := stmt.ExecContext(ctx, int64(res.Target), joinParts(res.Parts), res.Order,
			extra, string(res.Strategy), res.Stats.Iterations); err != nil {
			return fmt.Errorf("store: save solution %s: %w", res.Target.Hex(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit solutions: %w", err)
	}
	return nil
}

// Solution returns the stored result for target. ok is false when there is
// none.
func (s *Store) Solution(ctx context.Context, target shape.Code) (tmam.Result, bool, error) {
	const q = `SELECT parts, ord, extra, strategy, iterations FROM solutions WHERE target = ?`

	var (
		parts, strategy string
		res             = tmam.Result{Target: target}
	)
	err := s.db.QueryRowContext(ctx, q, int64(target)).
		Scan(&parts, &res.Order, &res.Extra, &strategy, &res.Stats.Iterations)
	if errors.Is(err, sql.ErrNoRows) {
		return tmam.Result{}, false, nil
	}
	if err != nil {
		return tmam.Result{}, false, fmt.Errorf("store: get solution %s: %w", target.Hex(), err)
	}

	res.Strategy = tmam.Strategy(strategy)
	if res.Parts, err = splitParts(parts); err != nil {
		return tmam.Result{}, false, fmt.Errorf("store: solution %s: %w", target.Hex(), err)
	}
	return res, true, nil
}

// StrategyCounts returns how many stored solutions each strategy produced.
func (s *Store) StrategyCounts(ctx context.Context) (map[tmam.Strategy]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT strategy, COUNT(*) FROM solutions GROUP BY strategy`)
	if err != nil {
		return nil, fmt.Errorf("store: count strategies: %w", err)
	}
	defer rows.Close()

	counts := make(map[tmam.Strategy]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("store: scan strategy count: %w", err)
		}
		counts[tmam.Strategy(name)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate strategy counts: %w", err)
	}
	return counts, nil
}

// SaveBuilds replaces the stored builds with records.
func (s *Store) SaveBuilds(ctx context.Context, records []search.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx for builds: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM builds`); err != nil {
		return fmt.Errorf("store: clear builds: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO builds (code, op, cost, code1, code2, alt) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare build insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, int64(rec.Code), int(rec.Op), rec.Cost,
			int64(rec.Code1), int64(rec.Code2), rec.Alt); err != nil {
			return fmt.Errorf("store: save build %s: %w", rec.Code.Hex(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit builds: %w", err)
	}
	return nil
}

// Build returns the stored record for code.
func (s *Store) Build(ctx context.Context, code shape.Code) (search.Record, bool, error) {
	const q = `SELECT op, cost, code1, code2, alt FROM builds WHERE code = ?`

	rec := search.Record{Code: code}
	var op int
	var code1, code2 int64
	err := s.db.QueryRowContext(ctx, q, int64(code)).Scan(&op, &rec.Cost, &code1, &code2, &rec.Alt)
	if errors.Is(err, sql.ErrNoRows) {
		return search.Record{}, false, nil
	}
	if err != nil {
		return search.Record{}, false, fmt.Errorf("store: get build %s: %w", code.Hex(), err)
	}
	rec.Op = search.Op(op)
	rec.Code1, rec.Code2 = shape.Code(code1), shape.Code(code2)
	return rec, true, nil
}

// BuildsUpTo returns every build of at most maxCost, cheapest first.
func (s *Store) BuildsUpTo(ctx context.Context, maxCost int) ([]search.Record, error) {
	const q = `SELECT code, op, cost, code1, code2, alt FROM builds WHERE cost <= ? ORDER BY cost, code`

	rows, err := s.db.QueryContext(ctx, q, maxCost)
	if err != nil {
		return nil, fmt.Errorf("store: query builds: %w", err)
	}
	defer rows.Close()

	var result []search.Record
	for rows.Next() {
		var (
			rec                search.Record
			op                 int
			code, code1, code2 int64
		)
		if err := rows.Scan(&code, &op, &rec.Cost, &code1, &code2, &rec.Alt); err != nil {
			return nil, fmt.Errorf("store: scan build: %w", err)
		}
		rec.Code, rec.Op = shape.Code(code), search.Op(op)
		rec.Code1, rec.Code2 = shape.Code(code1), shape.Code(code2)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate builds: %w", err)
	}
	return result, nil
}

func joinParts(parts []shape.Code) string {
	hex := make([]string, len(parts))
	for i, p := range parts {
		hex[i] = p.Hex()
	}
	return strings.Join(hex, ",")
}

func splitParts(s string) ([]shape.Code, error) {
	var parts []shape.Code
	for _, tok := range strings.Split(s, ",") {
		p, err := shape.ParseHex(tok)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, nil
}
