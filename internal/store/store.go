// Package store persists artifacts and dependency edges in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/pom"
)

// Table names, also used by the CSV table export.
const (
	ArtifactTable = "artifact"
	EdgeTable     = "dependencyedge"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Artifact is a stored artifact. ID is stable for the life of the database.
type Artifact struct {
	ID         int64  `json:"id"`
	GAV        string `json:"gav"`
	GroupID    string `json:"group_id"`
	ArtifactID string `json:"artifact_id"`
	Version    string `json:"version"`
}

// Edge is a stored dependency: From depends on To.
type Edge struct {
	ID       int64
	FromGAV  string
	ToGAV    string
	Scope    string
	Optional *bool
}

// OptionalSet reports whether the edge is optional, treating unknown as false.
func (e Edge) OptionalSet() bool {
	return e.Optional != nil && *e.Optional
}

// Open opens or creates a SQLite database at the given path. Use ":memory:"
// for a private in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS artifact (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gav TEXT NOT NULL UNIQUE,
			group_id TEXT NOT NULL,
			artifact_id TEXT NOT NULL,
			version TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS dependencyedge (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_gav TEXT NOT NULL,
			to_gav TEXT NOT NULL,
			scope TEXT NOT NULL,
			optional INTEGER
		);

		-- NULL optional counts as one value for uniqueness
		CREATE UNIQUE INDEX IF NOT EXISTS uq_dep_edge
			ON dependencyedge(from_gav, to_gav, scope, IFNULL(optional, -1));

		CREATE INDEX IF NOT EXISTS idx_edge_from ON dependencyedge(from_gav);
		CREATE INDEX IF NOT EXISTS idx_edge_to ON dependencyedge(to_gav);
		CREATE INDEX IF NOT EXISTS idx_edge_scope ON dependencyedge(scope);
	`
	_, err := db.Exec(schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertArtifact(ctx context.Context, x execer, r gav.Ref) (bool, error) {
	res, err := x.ExecContext(ctx, `
		INSERT OR IGNORE INTO artifact (gav, group_id, artifact_id, version)
		VALUES (?, ?, ?, ?)
	`, r.String(), r.GroupID, r.ArtifactID, r.Version)
	if err != nil {
		return false, fmt.Errorf("inserting artifact %s: %w", r, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func insertEdge(ctx context.Context, x execer, e Edge) (bool, error) {
	var optional sql.NullBool
	if e.Optional != nil {
		optional = sql.NullBool{Bool: *e.Optional, Valid: true}
	}
	res, err := x.ExecContext(ctx, `
		INSERT OR IGNORE INTO dependencyedge (from_gav, to_gav, scope, optional)
		VALUES (?, ?, ?, ?)
	`, e.FromGAV, e.ToGAV, e.Scope, optional)
	if err != nil {
		return false, fmt.Errorf("inserting edge %s -> %s: %w", e.FromGAV, e.ToGAV, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpsertArtifact stores r unless present. It reports whether a row was added.
func (d *DB) UpsertArtifact(ctx context.Context, r gav.Ref) (bool, error) {
	return upsertArtifact(ctx, d.db, r)
}

// InsertEdge stores e unless an edge with the same endpoints, scope and
// optional flag exists. It reports whether a row was added.
func (d *DB) InsertEdge(ctx context.Context, e Edge) (bool, error) {
	return insertEdge(ctx, d.db, e)
}

// IngestResult counts the rows one project added.
type IngestResult struct {
	NewArtifacts int
	NewEdges     int
}

// Ingest stores a parsed project and its dependencies in one transaction.
func (d *DB) Ingest(ctx context.Context, p pom.Project) (IngestResult, error) {
	var res IngestResult
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := upsertArtifact(ctx, tx, p.Coordinates)
	if err != nil {
		return res, err
	}
	if created {
		res.NewArtifacts++
	}

	from := p.Coordinates.String()
	for _, dep := range p.Dependencies {
		created, err := upsertArtifact(ctx, tx, dep.Ref)
		if err != nil {
			return res, err
		}
		if created {
			res.NewArtifacts++
		}

		created, err = insertEdge(ctx, tx, Edge{
			FromGAV:  from,
			ToGAV:    dep.Ref.String(),
			Scope:    dep.EffectiveScope(),
			Optional: dep.Optional,
		})
		if err != nil {
			return res, err
		}
		if created {
			res.NewEdges++
		}
	}

	if err := tx.Commit(); err != nil {
		return IngestResult{}, fmt.Errorf("committing transaction: %w", err)
	}
	return res, nil
}

// Artifacts returns up to limit artifacts in insertion order. A
// non-positive limit returns all of them.
func (d *DB) Artifacts(ctx context.Context, limit int) ([]Artifact, error) {
	q := `SELECT id, gav, group_id, artifact_id, version FROM artifact ORDER BY id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	return scanArtifacts(rows)
}

// Edges returns every edge in insertion order, restricted to scopes when
// any are given.
func (d *DB) Edges(ctx context.Context, scopes []string) ([]Edge, error) {
	q := `SELECT id, from_gav, to_gav, scope, optional FROM dependencyedge`
	var args []any
	if len(scopes) > 0 {
		q += ` WHERE scope IN (?` + strings.Repeat(", ?", len(scopes)-1) + `)`
		for _, s := range scopes {
			args = append(args, s)
		}
	}
	q += ` ORDER BY id`

	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// Scopes returns the distinct edge scopes, sorted.
func (d *DB) Scopes(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT scope FROM dependencyedge ORDER BY scope`)
	if err != nil {
		return nil, fmt.Errorf("querying scopes: %w", err)
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		scopes = append(scopes, s)
	}
	return scopes, rows.Err()
}

// Counts returns the number of artifacts and edges.
func (d *DB) Counts(ctx context.Context) (artifacts, edges int, err error) {
	err = d.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM artifact), (SELECT COUNT(*) FROM dependencyedge)
	`).Scan(&artifacts, &edges)
	return artifacts, edges, err
}

func scanArtifacts(rows *sql.Rows) ([]Artifact, error) {
	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.GAV, &a.GroupID, &a.ArtifactID, &a.Version); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanEdges(rows *sql.Rows) ([]Edge, error) {
	var out []Edge
	for rows.Next() {
		var e Edge
		var optional sql.NullBool
		if err := rows.Scan(&e.ID, &e.FromGAV, &e.ToGAV, &e.Scope, &optional); err != nil {
			return nil, err
		}
		if optional.Valid {
			b := optional.Bool
			e.Optional = &b
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
