package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
)

// VehicleRepo reads and writes the vehicles table.
type VehicleRepo struct {
	db *sql.DB
}

// NewVehicleRepo returns a VehicleRepo bound to db.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

// Create inserts a vehicle for userID.
func (r *VehicleRepo) Create(ctx context.Context, userID uint64, plate string) (*model.Vehicle, error) {
	return r.create(ctx, r.db, userID, plate)
}

// CreateTx is Create inside tx.
func (r *VehicleRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID uint64, plate string) (*model.Vehicle, error) {
	return r.create(ctx, tx, userID, plate)
}

func (r *VehicleRepo) create(ctx context.Context, q querier, userID uint64, plate string) (*model.Vehicle, error) {
	v := &model.Vehicle{PlateNumber: plate, UserID: userID, CreatedAt: time.Now().UTC()}
	res, err := q.ExecContext(ctx,
		`INSERT INTO vehicles (plate_number, user_id, created_at) VALUES (?, ?, ?)`,
		v.PlateNumber, v.UserID, v.CreatedAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	v.ID = uint64(id)
	return v, nil
}

// GetByID returns the vehicle or ledger.ErrVehicleNotFound.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.QueryRowContext(ctx,
		`SELECT id, plate_number, user_id, created_at FROM vehicles WHERE id = ?`, id).
		Scan(&v.ID, &v.PlateNumber, &v.UserID, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByUser returns a user's vehicles in registration order.
func (r *VehicleRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, plate_number, user_id, created_at FROM vehicles WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Vehicle{}
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(&v.ID, &v.PlateNumber, &v.UserID, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
