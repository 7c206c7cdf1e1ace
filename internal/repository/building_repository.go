package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
)

// BuildingRepo reads and writes the buildings table.
type BuildingRepo struct {
	db *sql.DB
}

// NewBuildingRepo returns a BuildingRepo bound to db.
func NewBuildingRepo(db *sql.DB) *BuildingRepo { return &BuildingRepo{db: db} }

// BuildingSummary is a building with its live spot counts, as listed on
// the public buildings page.
type BuildingSummary struct {
	model.Building
	TotalSpots    int `json:"total_spots"`
	OccupiedSpots int `json:"occupied_spots"`
}

// CreateTx inserts b inside tx and fills in its ID and CreatedAt.
func (r *BuildingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Building) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO buildings (name, capacity, created_at) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.Name, b.Capacity, b.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns the building or ledger.ErrBuildingNotFound.
func (r *BuildingRepo) GetByID(ctx context.Context, id uint64) (*model.Building, error) {
	const q = `SELECT id, name, capacity, created_at FROM buildings WHERE id = ?`
	var b model.Building
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Name, &b.Capacity, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrBuildingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
