package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/askql/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

// Store is a local triple store kept in a SQLite file.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	// Graph restricts Retrieve to one named graph. Empty reads all graphs.
	Graph string
}

// OpenStore opens (creating if needed) and migrates the store at path.
// Use ":memory:" for an in-memory store.
func OpenStore(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path == "" {
		return nil, fmt.Errorf("metadata.store_path is required for the store source")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open triple store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping triple store: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("opened triple store", slog.String("path", path))
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Insert adds triples to graph in one transaction. Triples already present
// are skipped. It returns how many rows were new.
func (s *Store) Insert(ctx context.Context, graph string, triples []core.Triple) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO triples (graph, subject, predicate, object) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, t := range triples {
		res, err := stmt.ExecContext(ctx, graph, t.Subject, t.Predicate, t.Object)
		if err != nil {
			return 0, fmt.Errorf("failed to insert triple %s: %w", t, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit triples: %w", err)
	}

	s.logger.Debug("inserted triples", slog.String("graph", graph), slog.Int("inserted", inserted), slog.Int("total", len(triples)))
	return inserted, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Retrieve returns every triple whose subject starts with prefix, in load
// order. The match is case-sensitive.
func (s *Store) Retrieve(ctx context.Context, prefix string) ([]core.Triple, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	// LIKE narrows via the index; instr keeps the match case-sensitive.
	query := `SELECT subject, predicate, object FROM triples
		WHERE subject LIKE ? ESCAPE '\' AND instr(subject, ?) = 1`
	args := []any{likeEscaper.Replace(prefix) + "%", prefix}
	if prefix == "" {
		query = `SELECT subject, predicate, object FROM triples WHERE 1 = 1`
		args = nil
	}
	if s.Graph != "" {
		query += ` AND graph = ?`
		args = append(args, s.Graph)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query triples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var triples []core.Triple
	for rows.Next() {
		var t core.Triple
		if err := rows.Scan(&t.Subject, &t.Predicate, &t.Object); err != nil {
			return nil, fmt.Errorf("failed to scan triple: %w", err)
		}
		triples = append(triples, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating triples: %w", err)
	}
	return triples, nil
}

// Count returns the number of stored triples across all graphs.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count triples: %w", err)
	}
	return n, nil
}

// DeleteGraph removes every triple of graph and returns how many were removed.
func (s *Store) DeleteGraph(ctx context.Context, graph string) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM triples WHERE graph = ?`, graph)
	if err != nil {
		return 0, fmt.Errorf("failed to delete graph %q: %w", graph, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
