// Package store mirrors a representative set into sqlite.
//
// The flat directory stays the source of truth for batch work; the
// sqlite mirror exists so the web service can answer list and
// represented-genome queries without holding marker sequences in every
// query path, and so other tools can join against the set.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
)

const schema = `
CREATE TABLE IF NOT EXISTS parms (
	k         INTEGER NOT NULL,
	min_score INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS representatives (
	genome_id TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	protein   TEXT NOT NULL,
	seq       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS represented (
	rep_id    TEXT NOT NULL REFERENCES representatives(genome_id),
	genome_id TEXT NOT NULL,
	score     INTEGER NOT NULL,
	PRIMARY KEY (rep_id, genome_id)
);
`

type Store struct {
	db *sql.DB
}

// RepSummary is one row of the representative listing.
type RepSummary struct {
	GenomeID    string `json:"genome_id"`
	Name        string `json:"name"`
	Represented int    `json:"represented"`
}

// Open opens (creating if needed) the sqlite mirror at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDB replaces the mirror's contents with rdb's. The swap is one
// transaction, so readers never see a half-written set.
func (s *Store) SaveDB(ctx context.Context, rdb *repdb.DB) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"represented", "representatives", "parms"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO parms (k, min_score) VALUES (?, ?)`, rdb.K, rdb.MinScore); err != nil {
		return fmt.Errorf("write parms: %w", err)
	}

	repStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO representatives (genome_id, name, protein, seq) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare representatives insert: %w", err)
	}
	defer repStmt.Close()

	listStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO represented (rep_id, genome_id, score) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare represented insert: %w", err)
	}
	defer listStmt.Close()

	for i, g := range rdb.Reps() {
		if _, err := repStmt.ExecContext(ctx, g.GenomeID, g.Name, g.Protein, i); err != nil {
			return fmt.Errorf("insert representative %s: %w", g.GenomeID, err)
		}
		list, listErr := rdb.RepresentedList(g.GenomeID)
		if listErr != nil {
			return listErr
		}
		for _, r := range list {
			if _, err := listStmt.ExecContext(ctx, g.GenomeID, r.GenomeID, r.Score); err != nil {
				return fmt.Errorf("insert represented %s: %w", r.GenomeID, err)
			}
		}
	}

	return tx.Commit()
}

// LoadDB rebuilds an in-memory set from the mirror.
func (s *Store) LoadDB(ctx context.Context) (*repdb.DB, error) {
	var k, min_score int
	if err := s.db.QueryRowContext(ctx,
		`SELECT k, min_score FROM parms`).Scan(&k, &min_score); err != nil {
		return nil, fmt.Errorf("read parms: %w", err)
	}

	rdb := repdb.New(k, min_score)

	rows, err := s.db.QueryContext(ctx,
		`SELECT genome_id, name, protein FROM representatives ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read representatives: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var genome_id, name, protein string
		if err := rows.Scan(&genome_id, &name, &protein); err != nil {
			return nil, fmt.Errorf("scan representative: %w", err)
		}
		if err := rdb.Insert(genome_id, name, protein); err != nil {
			return nil, fmt.Errorf("insert %s: %w", genome_id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lists, err := s.db.QueryContext(ctx,
		`SELECT rep_id, genome_id, score FROM represented ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("read represented: %w", err)
	}
	defer lists.Close()

	for lists.Next() {
		var rep_id, genome_id string
		var score int
		if err := lists.Scan(&rep_id, &genome_id, &score); err != nil {
			return nil, fmt.Errorf("scan represented: %w", err)
		}
		if err := rdb.Connect(rep_id, genome_id, score); err != nil {
			return nil, err
		}
	}
	return rdb, lists.Err()
}

// Representatives lists the set with per-representative member counts,
// in insertion order.
func (s *Store) Representatives(ctx context.Context) ([]RepSummary, error) {
	const q = `
		SELECT r.genome_id, r.name, COUNT(d.genome_id)
		FROM representatives r
		LEFT JOIN represented d ON d.rep_id = r.genome_id
		GROUP BY r.genome_id, r.name, r.seq
		ORDER BY r.seq`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list representatives: %w", err)
	}
	defer rows.Close()

	var out []RepSummary
	for rows.Next() {
		var r RepSummary
		if err := rows.Scan(&r.GenomeID, &r.Name, &r.Represented); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PlacementsOf is the reverse lookup: the representatives claiming a
// genome, without loading the whole set.
func (s *Store) PlacementsOf(ctx context.Context, genomeID string) ([]repdb.Placement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rep_id, score FROM represented WHERE genome_id = ? ORDER BY rowid`, genomeID)
	if err != nil {
		return nil, fmt.Errorf("placements of %s: %w", genomeID, err)
	}
	defer rows.Close()

	var out []repdb.Placement
	for rows.Next() {
		var p repdb.Placement
		if err := rows.Scan(&p.RepID, &p.Score); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RepresentedOf returns the connect list of one representative.
func (s *Store) RepresentedOf(ctx context.Context, repID string) ([]repdb.Represented, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT genome_id, score FROM represented WHERE rep_id = ? ORDER BY rowid`, repID)
	if err != nil {
		return nil, fmt.Errorf("list represented of %s: %w", repID, err)
	}
	defer rows.Close()

	var out []repdb.Represented
	for rows.Next() {
		var r repdb.Represented
		if err := rows.Scan(&r.GenomeID, &r.Score); err != nil {
			return nil, fmt.Errorf("scan represented: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
