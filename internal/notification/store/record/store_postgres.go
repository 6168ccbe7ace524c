package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/sentinel"
)

// Schema creates the table backing PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS basic_records (
	id         TEXT PRIMARY KEY,
	content    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore persists records in PostgreSQL.
// This store is pure I/O; content is opaque JSON.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the backing table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate basic_records: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Record, error) {
	query := `SELECT id, content, updated_at FROM basic_records WHERE id = $1`
	var record models.Record
	err := s.db.QueryRowContext(ctx, query, id).Scan(&record.ID, &record.Content, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %q: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w: %w", sentinel.ErrUnavailable, err)
	}
	return &record, nil
}

func (s *PostgresStore) Save(ctx context.Context, record *models.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	content := record.Content
	if len(content) == 0 {
		content = []byte("null")
	}
	query := `
		INSERT INTO basic_records (id, content, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, record.ID, string(content), record.UpdatedAt); err != nil {
		return fmt.Errorf("save record: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM basic_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete record: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
