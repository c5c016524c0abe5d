package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/playmatatu/rollpool/internal/models"
)

// Connect establishes a connection to PostgreSQL
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// DesyncStore persists desync reports sent by peers.
type DesyncStore struct {
	db *sqlx.DB
}

func NewDesyncStore(db *sqlx.DB) *DesyncStore {
	return &DesyncStore{db: db}
}

// Insert stores r and fills in its ID and creation time.
func (s *DesyncStore) Insert(ctx context.Context, r *models.DesyncReport) error {
	row := s.db.QueryRowxContext(ctx,
		`INSERT INTO desync_reports (room, slot, frame, local_checksum, remote_checksum)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		r.Room, r.Slot, r.Frame, r.LocalChecksum, r.RemoteChecksum)
	if err := row.Scan(&r.ID, &r.CreatedAt); err != nil {
		return fmt.Errorf("insert desync report: %w", err)
	}
	return nil
}

// ListByRoom returns the reports for a room, oldest first.
func (s *DesyncStore) ListByRoom(ctx context.Context, room string) ([]models.DesyncReport, error) {
	reports := []models.DesyncReport{}
	err := s.db.SelectContext(ctx, &reports,
		`SELECT id, room, slot, frame, local_checksum, remote_checksum, created_at
		 FROM desync_reports WHERE room=$1 ORDER BY created_at, id`, room)
	if err != nil {
		return nil, fmt.Errorf("list desync reports: %w", err)
	}
	return reports, nil
}
