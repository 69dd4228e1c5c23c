package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Sabnock01/pyrometer/internal/ctxgraph"
	"github.com/Sabnock01/pyrometer/internal/graph"
	"github.com/Sabnock01/pyrometer/internal/nodes"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT UNIQUE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS nodes (
			file_id INTEGER REFERENCES files(id) ON DELETE CASCADE,
			idx INTEGER,
			kind TEXT,
			label TEXT,
			payload JSON,
			PRIMARY KEY (file_id, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			file_id INTEGER REFERENCES files(id) ON DELETE CASCADE,
			from_idx INTEGER,
			to_idx INTEGER,
			kind TEXT,
			PRIMARY KEY (file_id, from_idx, to_idx, kind)
		);`,
		`CREATE TABLE IF NOT EXISTS bounds (
			file_id INTEGER REFERENCES files(id) ON DELETE CASCADE,
			function TEXT,
			array TEXT,
			line INTEGER,
			relation TEXT,
			target TEXT,
			message TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS failures (
			file_id INTEGER REFERENCES files(id) ON DELETE CASCADE,
			function TEXT,
			kind TEXT,
			message TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bounds_file ON bounds(file_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- SnapshotStore Implementation ---

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, files ...FileSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, f := range files {
		if err := saveFile(ctx, tx, f); err != nil {
			return fmt.Errorf("failed to save %s: %w", f.Path, err)
		}
	}
	return tx.Commit()
}

func saveFile(ctx context.Context, tx *sql.Tx, f FileSnapshot) error {
	// 1. Drop the previous snapshot of this file
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, f.Path); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO files (path) VALUES (?)`, f.Path)
	if err != nil {
		return err
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	// 2. Save Nodes and Edges
	if f.Graph != nil {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (file_id, idx, kind, label, payload) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := 0; i < f.Graph.Len(); i++ {
			p, err := f.Graph.Node(graph.NodeIdx(i))
			if err != nil {
				return err
			}
			payload, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("failed to encode node %d: %w", i, err)
			}
			if _, err := stmt.ExecContext(ctx, fileID, i, string(p.NodeKind()), label(p), payload); err != nil {
				return err
			}
		}

		edgeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO edges (file_id, from_idx, to_idx, kind) VALUES (?, ?, ?, ?)
			ON CONFLICT(file_id, from_idx, to_idx, kind) DO NOTHING
		`)
		if err != nil {
			return err
		}
		defer edgeStmt.Close()
		for _, e := range f.Graph.Edges() {
			if _, err := edgeStmt.ExecContext(ctx, fileID, e.From, e.To, string(e.Kind)); err != nil {
				return err
			}
		}
	}

	// 3. Save results
	for _, r := range f.Reports {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bounds (file_id, function, array, line, relation, target, message) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, fileID, r.Function, r.Array, r.Line, r.Relation, r.Target, r.Message); err != nil {
			return err
		}
	}
	for _, fl := range f.Failures {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO failures (file_id, function, kind, message) VALUES (?, ?, ?, ?)
		`, fileID, fl.Function, fl.Kind, fl.Message); err != nil {
			return err
		}
	}
	return nil
}

// label is a short human-readable description of a node.
func label(p graph.Payload) string {
	switch n := p.(type) {
	case ctxgraph.ContextVar:
		if n.Ty == nil {
			return n.DisplayName
		}
		if r, ok := n.Range(); ok {
			return fmt.Sprintf("%s: %s %s", n.DisplayName, n.Ty, r)
		}
		return fmt.Sprintf("%s: %s", n.DisplayName, n.Ty)
	case *ctxgraph.Context:
		return n.Path
	case nodes.Function:
		return n.Name
	case nodes.Contract:
		return n.Name
	case nodes.FunctionParam:
		return n.Name
	case nodes.FunctionReturn:
		return n.Name
	case nodes.Builtin:
		return n.String()
	case nodes.Concrete:
		return n.Value.String()
	}
	return string(p.NodeKind())
}

func (s *SQLiteStore) Files(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) EdgeCounts(ctx context.Context, path string) (map[graph.EdgeKind]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.kind, COUNT(*) FROM edges e JOIN files f ON f.id = e.file_id
		WHERE f.path = ? GROUP BY e.kind
	`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	counts := make(map[graph.EdgeKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan edge count: %w", err)
		}
		counts[graph.EdgeKind(kind)] = n
	}
	return counts, rows.Err()
}

// --- ReportStore Implementation ---

func (s *SQLiteStore) Reports(ctx context.Context) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.path, b.function, b.array, b.line, b.relation, b.target, b.message
		FROM bounds b JOIN files f ON f.id = b.file_id
		ORDER BY f.path, b.line, b.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bounds: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.Path, &r.Function, &r.Array, &r.Line, &r.Relation, &r.Target, &r.Message); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Failures(ctx context.Context) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.path, fl.function, fl.kind, fl.message
		FROM failures fl JOIN files f ON f.id = fl.file_id
		ORDER BY f.path, fl.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var fl Failure
		if err := rows.Scan(&fl.Path, &fl.Function, &fl.Kind, &fl.Message); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		out = append(out, fl)
	}
	return out, rows.Err()
}
