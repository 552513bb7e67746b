// Package history records swap attempts and their terminal state in
// SQLite. The engine itself is stateless; this ledger belongs to the
// calling layer, including the simulated rows it records on test networks.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Record is one swap attempt as the caller saw it end.
type Record struct {
	ID           string
	CreatedAt    time.Time
	NetworkID    int64
	FromToken    string
	ToToken      string
	Amount       string
	ApprovalTx   string
	SwapTx       string
	Status       string // "completed", "failed", "simulated"
	ErrorKind    string
	ErrorMessage string
	Simulated    bool
}

// Store wraps the SQLite connection with migration management.
type Store struct {
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// Insert stores a record, generating its id when empty, and returns the id.
func (s *Store) Insert(ctx context.Context, r Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO swap_attempts
			(id, created_at, network_id, from_token, to_token, amount,
			 approval_tx, swap_tx, status, error_kind, error_message, simulated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt, r.NetworkID, r.FromToken, r.ToToken, r.Amount,
		r.ApprovalTx, r.SwapTx, r.Status, r.ErrorKind, r.ErrorMessage, r.Simulated,
	)
	if err != nil {
		return "", fmt.Errorf("inserting swap attempt: %w", err)
	}
	return r.ID, nil
}

// Recent returns the newest records first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, created_at, network_id, from_token, to_token, amount,
		       approval_tx, swap_tx, status, error_kind, error_message, simulated
		FROM swap_attempts
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying swap attempts: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.CreatedAt, &r.NetworkID, &r.FromToken, &r.ToToken, &r.Amount,
			&r.ApprovalTx, &r.SwapTx, &r.Status, &r.ErrorKind, &r.ErrorMessage, &r.Simulated,
		); err != nil {
			return nil, fmt.Errorf("scanning swap attempt: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
