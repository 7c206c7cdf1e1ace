package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
)

// LedgerStore is the MySQL implementation of ledger.Store.  Booking and
// release each run in a single transaction: the spot flag is flipped
// with a conditional update and the session row is written alongside,
// so concurrent requests can never both win the same spot.
type LedgerStore struct {
	db        *sql.DB
	buildings *BuildingRepo
	spots     *SpotRepo
	vehicles  *VehicleRepo
	sessions  *SessionRepo
}

// NewLedgerStore wires the repositories the ledger needs.
func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{
		db:        db,
		buildings: NewBuildingRepo(db),
		spots:     NewSpotRepo(db),
		vehicles:  NewVehicleRepo(db),
		sessions:  NewSessionRepo(db),
	}
}

func (s *LedgerStore) CreateBuildingWithSpots(ctx context.Context, b *model.Building, layout func(uint64) ([]model.SpotDraft, error)) ([]model.Spot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer rollback(tx, &committed)

	if err := s.buildings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}
	drafts, err := layout(b.ID)
	if err != nil {
		return nil, err
	}
	if err := s.spots.CreateBulkTx(ctx, tx, drafts, b.CreatedAt); err != nil {
		return nil, err
	}
	spots, err := s.spots.ListByBuildingTx(ctx, tx, b.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return spots, nil
}

func (s *LedgerStore) GetBuilding(ctx context.Context, id uint64) (*model.Building, error) {
	return s.buildings.GetByID(ctx, id)
}

func (s *LedgerStore) GetSpot(ctx context.Context, id uint64) (*model.Spot, error) {
	return s.spots.GetByID(ctx, id)
}

func (s *LedgerStore) ListSpots(ctx context.Context, buildingID uint64) ([]model.Spot, error) {
	return s.spots.ListByBuilding(ctx, buildingID)
}

func (s *LedgerStore) GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

func (s *LedgerStore) OccupySpot(ctx context.Context, spotID, vehicleID uint64, code string, at time.Time) (*model.ParkingSession, *model.Spot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer rollback(tx, &committed)

	ok, err := s.spots.MarkOccupiedTx(ctx, tx, spotID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		// Tell a missing spot apart from a taken one.
		if _, err := s.spots.GetByIDTx(ctx, tx, spotID); err != nil {
			return nil, nil, err
		}
		return nil, nil, ledger.ErrSpotOccupied
	}
	session := &model.ParkingSession{SpotID: spotID, UniqueCode: code, VehicleID: vehicleID, ParkedAt: at, CreatedAt: at}
	if err := s.sessions.CreateTx(ctx, tx, session); err != nil {
		return nil, nil, err
	}
	spot, err := s.spots.GetByIDTx(ctx, tx, spotID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return session, spot, nil
}

func (s *LedgerStore) ReleaseByCode(ctx context.Context, code string, at time.Time) (*model.ParkingSession, *model.Spot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer rollback(tx, &committed)

	session, err := s.sessions.LockActiveByCodeTx(ctx, tx, code)
	if err != nil {
		return nil, nil, err
	}
	if err := s.sessions.CloseTx(ctx, tx, session.ID, at); err != nil {
		return nil, nil, err
	}
	if err := s.spots.MarkFreeTx(ctx, tx, session.SpotID); err != nil {
		return nil, nil, err
	}
	spot, err := s.spots.GetByIDTx(ctx, tx, session.SpotID)
	if err != nil {
		if errors.Is(err, ledger.ErrSpotNotFound) {
			return nil, nil, ledger.ErrSessionNotFound
		}
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	released := at
	session.ReleasedAt = &released
	return session, spot, nil
}

func (s *LedgerStore) ListActiveSessions(ctx context.Context, buildingID uint64) ([]model.ActiveSessionView, error) {
	return s.sessions.ListActiveByBuilding(ctx, buildingID)
}

var _ ledger.Store = (*LedgerStore)(nil)
