package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/izin-pramuka-api/internal/models"
)

// IzinRepository manages persistence for permission records.
type IzinRepository struct {
	db *sqlx.DB
}

// NewIzinRepository constructs an IzinRepository.
func NewIzinRepository(db *sqlx.DB) *IzinRepository {
	return &IzinRepository{db: db}
}

// Create inserts a new record with status pending and a generated identifier.
func (r *IzinRepository) Create(ctx context.Context, izin *models.Izin) error {
	now := time.Now().UTC()
	if izin.ID == "" {
		izin.ID = uuid.NewString()
	}
	izin.Status = models.IzinStatusPending
	izin.CreatedAt = now
	izin.UpdatedAt = now

	query := `INSERT INTO izin (id, nis, nama, absen, kelas, sangga, pk_kelas, alasan, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query,
		izin.ID, izin.NIS, izin.Nama, izin.Absen, izin.Kelas, izin.Sangga, izin.PKKelas, izin.Alasan,
		izin.Status, izin.CreatedAt, izin.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert izin: %w", err)
	}
	return nil
}

// FindByID fetches a record by its identifier.
func (r *IzinRepository) FindByID(ctx context.Context, id string) (*models.Izin, error) {
	query := `SELECT id, nis, nama, absen, kelas, sangga, pk_kelas, alasan, status, verified_by, verified_at, created_at, updated_at
        FROM izin WHERE id = $1`
	var izin models.Izin
	if err := r.db.GetContext(ctx, &izin, query, id); err != nil {
		return nil, err
	}
	return &izin, nil
}

// ListByNIS returns all records for a submitter, newest first, optionally
// filtered by status.
func (r *IzinRepository) ListByNIS(ctx context.Context, nis string, status models.IzinStatus) ([]models.Izin, error) {
	query := `SELECT id, nis, nama, absen, kelas, sangga, pk_kelas, alasan, status, verified_by, verified_at, created_at, updated_at
        FROM izin WHERE nis = $1`
	args := []interface{}{nis}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	var list []models.Izin
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list izin by nis: %w", err)
	}
	return list, nil
}

// UpdateStatus transitions a pending record to approved or rejected. The WHERE
// clause enforces that verified records are never overwritten.
func (r *IzinRepository) UpdateStatus(ctx context.Context, id string, status models.IzinStatus, verifiedBy string, verifiedAt time.Time) (*models.Izin, error) {
	query := `UPDATE izin SET status = $2, verified_by = $3, verified_at = $4, updated_at = $4
        WHERE id = $1 AND status = $5
        RETURNING id, nis, nama, absen, kelas, sangga, pk_kelas, alasan, status, verified_by, verified_at, created_at, updated_at`
	var izin models.Izin
	if err := r.db.GetContext(ctx, &izin, query, id, status, verifiedBy, verifiedAt, models.IzinStatusPending); err != nil {
		return nil, err
	}
	return &izin, nil
}
