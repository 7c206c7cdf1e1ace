package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
)

// Index names on the generated columns of user_spots.  They only hold a
// value while a session is open, so uniqueness applies to active rows.
const (
	keyActiveSpot = "uq_user_spots_active_spot"
	keyActiveCode = "uq_user_spots_active_code"
)

// SessionRepo reads and writes parking sessions (the user_spots table).
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a SessionRepo bound to db.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// CreateTx opens a session inside tx.  A code held by another active
// session yields ledger.ErrCodeTaken; a second active session on the
// same spot yields ledger.ErrSpotOccupied.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.ParkingSession) error {
	const q = `INSERT INTO user_spots (spot_id, unique_code, vehicle_id, parked_at, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.SpotID, s.UniqueCode, s.VehicleID, s.ParkedAt, s.CreatedAt)
	switch {
	case isDuplicate(err, keyActiveCode):
		return ledger.ErrCodeTaken
	case isDuplicate(err, keyActiveSpot):
		return ledger.ErrSpotOccupied
	case err != nil:
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// LockActiveByCodeTx loads the active session holding code and locks its
// row until tx ends.  It returns ledger.ErrSessionNotFound when none
// matches.
func (r *SessionRepo) LockActiveByCodeTx(ctx context.Context, tx *sql.Tx, code string) (*model.ParkingSession, error) {
	const q = `SELECT id, spot_id, unique_code, vehicle_id, parked_at, created_at
	           FROM user_spots
	           WHERE active_code = ?
	           FOR UPDATE`
	var s model.ParkingSession
	err := tx.QueryRowContext(ctx, q, code).Scan(&s.ID, &s.SpotID, &s.UniqueCode, &s.VehicleID, &s.ParkedAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CloseTx stamps released_at on an open session.
func (r *SessionRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE user_spots SET released_at = ? WHERE id = ? AND released_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrSessionNotFound
	}
	return nil
}

// ListActiveByBuilding returns the open sessions of a building, newest
// first, joined with spot, vehicle and driver.
func (r *SessionRepo) ListActiveByBuilding(ctx context.Context, buildingID uint64) ([]model.ActiveSessionView, error) {
	const q = `SELECT us.id, s.id, s.code, s.floor, v.plate_number, u.name, us.parked_at
	           FROM user_spots us
	           JOIN spots s ON s.id = us.spot_id
	           JOIN vehicles v ON v.id = us.vehicle_id
	           JOIN users u ON u.id = v.user_id
	           WHERE s.building_id = ? AND us.released_at IS NULL
	           ORDER BY us.parked_at DESC`
	rows, err := r.db.QueryContext(ctx, q, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ActiveSessionView{}
	for rows.Next() {
		var v model.ActiveSessionView
		if err := rows.Scan(&v.SessionID, &v.SpotID, &v.SpotCode, &v.Floor, &v.PlateNumber, &v.DriverName, &v.ParkedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
