package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tailored-agentic-units/agentgraph/graph"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	session_id TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	path       TEXT    NOT NULL,
	status     TEXT    NOT NULL,
	state      BLOB    NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, seq)
)`

// SQLiteStore keeps checkpoints in a single SQLite table keyed by session
// and sequence.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer keeps appends to a session ordered
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checkpoint table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, cp graph.Checkpoint) error {
	if cp.SessionID == "" {
		return fmt.Errorf("%w: checkpoint has no session id", ErrSaveFailed)
	}
	path, err := sonic.Marshal(cp.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	state := cp.State
	if state == nil {
		state = []byte("{}")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	defer tx.Rollback()

	var last sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM checkpoints WHERE session_id = ?`, cp.SessionID).Scan(&last)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if last.Valid && last.Int64 >= int64(cp.Sequence) {
		return fmt.Errorf("%w: sequence %d for session %s is not after %d",
			ErrSaveFailed, cp.Sequence, cp.SessionID, last.Int64)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO checkpoints (session_id, seq, path, status, state, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		cp.SessionID, cp.Sequence, string(path), string(cp.Status), state, cp.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Latest(ctx context.Context, sessionID string) (graph.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, seq, path, status, state, created_at FROM checkpoints
		 WHERE session_id = ? ORDER BY seq DESC LIMIT 1`, sessionID)

	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Checkpoint{}, fmt.Errorf("%w: %s", graph.ErrCheckpointNotFound, sessionID)
	}
	return cp, err
}

func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]graph.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, seq, path, status, state, created_at FROM checkpoints
		 WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer rows.Close()

	out := []graph.Checkpoint{}
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return out, nil
}

func (s *SQLiteStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT session_id FROM checkpoints ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete failed: %s: %w", sessionID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(row scanner) (graph.Checkpoint, error) {
	var (
		cp      graph.Checkpoint
		path    string
		status  string
		created int64
	)
	if err := row.Scan(&cp.SessionID, &cp.Sequence, &path, &status, &cp.State, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cp, err
		}
		return cp, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	if err := sonic.UnmarshalString(path, &cp.Path); err != nil {
		return cp, fmt.Errorf("%w: path: %v", ErrLoadFailed, err)
	}
	cp.Status = graph.Status(status)
	cp.CreatedAt = time.Unix(0, created).UTC()
	return cp, nil
}
