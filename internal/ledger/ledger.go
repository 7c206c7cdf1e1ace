// Package ledger owns the lifecycle of parking spots and sessions:
// laying out the spots of a new building, booking a free spot,
// releasing it by code and accounting for occupancy.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/model"
)

// maxCodeAttempts bounds release-code regeneration on collision.
const maxCodeAttempts = 5

// notifyTimeout bounds the snapshot query and notifier calls that follow
// a committed change.
const notifyTimeout = time.Second

// Store is the persistence the ledger runs on.  OccupySpot and
// ReleaseByCode must each be atomic: the spot flag and the session row
// change together or not at all.
type Store interface {
	// CreateBuildingWithSpots inserts b, fills in its ID and timestamps,
	// calls layout with the new ID and inserts the returned drafts, all in
	// one transaction.
	CreateBuildingWithSpots(ctx context.Context, b *model.Building, layout func(buildingID uint64) ([]model.SpotDraft, error)) ([]model.Spot, error)
	GetBuilding(ctx context.Context, id uint64) (*model.Building, error)
	GetSpot(ctx context.Context, id uint64) (*model.Spot, error)
	ListSpots(ctx context.Context, buildingID uint64) ([]model.Spot, error)
	GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error)
	// OccupySpot marks the spot occupied only if it is currently free and
	// opens a session with the given code.  It returns ErrSpotNotFound,
	// ErrSpotOccupied or ErrCodeTaken without side effects.
	OccupySpot(ctx context.Context, spotID, vehicleID uint64, code string, at time.Time) (*model.ParkingSession, *model.Spot, error)
	// ReleaseByCode closes the active session holding code and frees its
	// spot.  It returns ErrSessionNotFound when no active session matches.
	ReleaseByCode(ctx context.Context, code string, at time.Time) (*model.ParkingSession, *model.Spot, error)
	ListActiveSessions(ctx context.Context, buildingID uint64) ([]model.ActiveSessionView, error)
}

// Reservation is the result of a successful booking.  Code is the only
// credential that releases the spot.
type Reservation struct {
	Code    string               `json:"unique_code"`
	Spot    model.Spot           `json:"spot"`
	Session model.ParkingSession `json:"session"`
}

// Release is the result of a successful release.
type Release struct {
	Spot    model.Spot           `json:"spot"`
	Session model.ParkingSession `json:"session"`
}

// Ledger implements the reservation operations on top of a Store.
type Ledger struct {
	store    Store
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
	newCode  func() (string, error)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithNotifier sets the receiver of committed events.
func WithNotifier(n Notifier) Option { return func(l *Ledger) { l.notifier = n } }

// WithLogger sets the logger.  The default discards output.
func WithLogger(log *zap.Logger) Option { return func(l *Ledger) { l.log = log } }

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

// WithCodeGenerator overrides release-code generation.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(l *Ledger) { l.newCode = gen }
}

// New builds a Ledger.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:   store,
		log:     zap.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
		newCode: NewReleaseCode,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// CreateBuilding creates a building and its spot layout.  Only building
// owners may call it.
func (l *Ledger) CreateBuilding(ctx context.Context, actor Actor, name string, capacity, floors uint32) (*model.Building, []model.Spot, error) {
	if err := actor.require("create building", model.UserTypeBuildingOwner); err != nil {
		return nil, nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name required", ErrInvalidLayout)
	}
	// Validate before touching the store; the layout callback repeats the
	// check with the real building ID.
	if _, err := FloorCounts(capacity, floors); err != nil {
		return nil, nil, err
	}
	b := &model.Building{Name: name, Capacity: capacity}
	spots, err := l.store.CreateBuildingWithSpots(ctx, b, func(id uint64) ([]model.SpotDraft, error) {
		return GenerateSpotLayout(id, capacity, floors)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create building: %w", err)
	}
	l.log.Info("building created",
		zap.Uint64("building_id", b.ID),
		zap.Uint32("capacity", capacity),
		zap.Uint32("floors", floors),
		zap.Uint64("actor_id", actor.UserID))
	occ := ComputeOccupancy(spots)
	l.emit(ctx, Event{Kind: EventBuildingCreated, BuildingID: b.ID, Building: b, Occupancy: &occ, At: l.now()})
	return b, spots, nil
}

// BookSpot reserves a free spot for one of the actor's vehicles.  Only
// car owners may book, and only with a vehicle they own.
func (l *Ledger) BookSpot(ctx context.Context, actor Actor, spotID, vehicleID uint64) (*Reservation, error) {
	if err := actor.require("book spot", model.UserTypeCarOwner); err != nil {
		return nil, err
	}
	v, err := l.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v.UserID != actor.UserID {
		return nil, fmt.Errorf("book spot: vehicle %d: %w", vehicleID, ErrForbidden)
	}
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := l.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate release code: %w", err)
		}
		session, spot, err := l.store.OccupySpot(ctx, spotID, vehicleID, code, l.now())
		if errors.Is(err, ErrCodeTaken) {
			l.log.Warn("release code collision", zap.Int("attempt", attempt), zap.Uint64("spot_id", spotID))
			continue
		}
		if err != nil {
			return nil, err
		}
		l.log.Info("spot booked",
			zap.Uint64("spot_id", spot.ID),
			zap.Uint64("session_id", session.ID),
			zap.Uint64("vehicle_id", vehicleID))
		l.emit(ctx, Event{Kind: EventSpotBooked, BuildingID: spot.BuildingID, Spot: spot, Session: session, At: session.ParkedAt})
		return &Reservation{Code: session.UniqueCode, Spot: *spot, Session: *session}, nil
	}
	return nil, ErrCodeExhausted
}

// ReleaseSpot closes the active session identified by code.  Any signed
// in user holding the code may release; the code is the credential.
func (l *Ledger) ReleaseSpot(ctx context.Context, actor Actor, code string) (*Release, error) {
	if err := actor.require("release spot"); err != nil {
		return nil, err
	}
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrSessionNotFound
	}
	session, spot, err := l.store.ReleaseByCode(ctx, code, l.now())
	if err != nil {
		return nil, err
	}
	l.log.Info("spot released",
		zap.Uint64("spot_id", spot.ID),
		zap.Uint64("session_id", session.ID),
		zap.Uint64("actor_id", actor.UserID))
	at := l.now()
	if session.ReleasedAt != nil {
		at = *session.ReleasedAt
	}
	l.emit(ctx, Event{Kind: EventSpotReleased, BuildingID: spot.BuildingID, Spot: spot, Session: session, At: at})
	return &Release{Spot: *spot, Session: *session}, nil
}

// Building returns one building or ErrBuildingNotFound.
func (l *Ledger) Building(ctx context.Context, id uint64) (*model.Building, error) {
	return l.store.GetBuilding(ctx, id)
}

// BuildingOccupancy returns the occupancy of one building.
func (l *Ledger) BuildingOccupancy(ctx context.Context, buildingID uint64) (Occupancy, error) {
	spots, err := l.BuildingSpots(ctx, buildingID)
	if err != nil {
		return Occupancy{}, err
	}
	return ComputeOccupancy(spots), nil
}

// BuildingSpots returns the spots of a building, failing with
// ErrBuildingNotFound for unknown buildings.
func (l *Ledger) BuildingSpots(ctx context.Context, buildingID uint64) ([]model.Spot, error) {
	if _, err := l.store.GetBuilding(ctx, buildingID); err != nil {
		return nil, err
	}
	return l.store.ListSpots(ctx, buildingID)
}

// ActiveSessions lists the open sessions of a building.  Only building
// owners may see who is parked where.
func (l *Ledger) ActiveSessions(ctx context.Context, actor Actor, buildingID uint64) ([]model.ActiveSessionView, error) {
	if err := actor.require("list active sessions", model.UserTypeBuildingOwner); err != nil {
		return nil, err
	}
	if _, err := l.store.GetBuilding(ctx, buildingID); err != nil {
		return nil, err
	}
	views, err := l.store.ListActiveSessions(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	now := l.now()
	for i := range views {
		if d := now.Sub(views[i].ParkedAt); d > 0 {
			views[i].MinutesParked = int64(d / time.Minute)
		}
	}
	return views, nil
}

// emit attaches an occupancy snapshot and hands the event to the
// notifier.  Snapshot failures are logged and do not fail the operation.
// The change is already committed, so the work runs on a short deadline
// detached from the caller's cancellation.
func (l *Ledger) emit(parent context.Context, ev Event) {
	if l.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), notifyTimeout)
	defer cancel()
	if ev.Occupancy == nil && ev.BuildingID != 0 {
		spots, err := l.store.ListSpots(ctx, ev.BuildingID)
		if err != nil {
			l.log.Warn("occupancy snapshot failed", zap.Uint64("building_id", ev.BuildingID), zap.Error(err))
		} else {
			occ := ComputeOccupancy(spots)
			ev.Occupancy = &occ
		}
	}
	l.notifier.Notify(ctx, ev)
}
