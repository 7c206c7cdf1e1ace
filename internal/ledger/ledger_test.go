package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/ledger/ledgertest"
	"github.com/iliyamo/parking-reservation/internal/model"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []ledger.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev ledger.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) kinds() []ledger.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.EventKind
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	store    *ledgertest.MemoryStore
	ledger   *ledger.Ledger
	notes    *recordingNotifier
	owner    ledger.Actor
	driver   ledger.Actor
	vehicle  model.Vehicle
	building *model.Building
	spots    []model.Spot
}

func fixedCodes(codes ...string) func() (string, error) {
	var mu sync.Mutex
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(codes) == 0 {
			return "", errors.New("no more codes")
		}
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
}

func newFixture(t *testing.T, opts ...ledger.Option) *fixture {
	t.Helper()
	store := ledgertest.NewMemoryStore()
	notes := &recordingNotifier{}
	opts = append([]ledger.Option{ledger.WithNotifier(notes)}, opts...)
	l := ledger.New(store, opts...)

	owner := store.AddUser("olive", model.UserTypeBuildingOwner)
	driver := store.AddUser("dana", model.UserTypeCarOwner)
	vehicle := store.AddVehicle(driver.ID, "ABC123")

	f := &fixture{
		store:   store,
		ledger:  l,
		notes:   notes,
		owner:   ledger.BuildingOwner(owner.ID),
		driver:  ledger.CarOwner(driver.ID),
		vehicle: vehicle,
	}
	b, spots, err := l.CreateBuilding(context.Background(), f.owner, "  North Garage ", 10, 3)
	require.NoError(t, err)
	f.building, f.spots = b, spots
	return f
}

func TestCreateBuilding(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, "North Garage", f.building.Name)
	require.Len(t, f.spots, 10)
	require.Equal(t, []ledger.EventKind{ledger.EventBuildingCreated}, f.notes.kinds())
	require.Equal(t, 10, f.notes.events[0].Occupancy.Available)

	_, _, err := f.ledger.CreateBuilding(context.Background(), f.driver, "Nope", 10, 2)
	var authErr *ledger.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	require.ErrorIs(t, err, ledger.ErrForbidden)

	_, _, err = f.ledger.CreateBuilding(context.Background(), f.owner, "Tiny", 2, 3)
	require.ErrorIs(t, err, ledger.ErrInvalidLayout)

	_, _, err = f.ledger.CreateBuilding(context.Background(), f.owner, "   ", 2, 1)
	require.ErrorIs(t, err, ledger.ErrInvalidLayout)
}

func TestBookAndRelease(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t,
		ledger.WithCodeGenerator(fixedCodes("XYZ123")),
		ledger.WithClock(func() time.Time { return now }))
	ctx := context.Background()
	spot := f.spots[0]

	res, err := f.ledger.BookSpot(ctx, f.driver, spot.ID, f.vehicle.ID)
	require.NoError(t, err)
	require.Equal(t, "XYZ123", res.Code)
	require.True(t, res.Spot.IsOccupied)
	require.True(t, res.Session.Active())
	require.Equal(t, now, res.Session.ParkedAt)

	occ, err := f.ledger.BuildingOccupancy(ctx, f.building.ID)
	require.NoError(t, err)
	require.Equal(t, 1, occ.Occupied)
	require.Equal(t, 10.0, occ.OccupancyRatePercent)

	// already occupied
	_, err = f.ledger.BookSpot(ctx, f.driver, spot.ID, f.vehicle.ID)
	require.ErrorIs(t, err, ledger.ErrSpotOccupied)

	now = now.Add(90 * time.Minute)
	rel, err := f.ledger.ReleaseSpot(ctx, f.driver, "  xyz123 ")
	require.NoError(t, err)
	require.Equal(t, spot.ID, rel.Spot.ID)
	require.False(t, rel.Spot.IsOccupied)
	require.NotNil(t, rel.Session.ReleasedAt)
	require.Equal(t, now, *rel.Session.ReleasedAt)

	_, err = f.ledger.ReleaseSpot(ctx, f.driver, "XYZ123")
	require.ErrorIs(t, err, ledger.ErrSessionNotFound)

	sessions := f.store.Sessions()
	require.Len(t, sessions, 1)
	require.False(t, sessions[0].Active())

	require.Equal(t,
		[]ledger.EventKind{ledger.EventBuildingCreated, ledger.EventSpotBooked, ledger.EventSpotReleased},
		f.notes.kinds())
	require.Equal(t, 0, f.notes.events[2].Occupancy.Occupied)
}

func TestReleaseUnknownCodeHasNoSideEffects(t *testing.T) {
	f := newFixture(t, ledger.WithCodeGenerator(fixedCodes("AAAAAA")))
	ctx := context.Background()

	_, err := f.ledger.BookSpot(ctx, f.driver, f.spots[1].ID, f.vehicle.ID)
	require.NoError(t, err)

	for _, code := range []string{"", "   ", "BBBBBB", "AAAAA"} {
		_, err := f.ledger.ReleaseSpot(ctx, f.driver, code)
		require.ErrorIs(t, err, ledger.ErrSessionNotFound, "code %q", code)
	}
	occ, err := f.ledger.BuildingOccupancy(ctx, f.building.ID)
	require.NoError(t, err)
	require.Equal(t, 1, occ.Occupied)
	require.True(t, f.store.Sessions()[0].Active())
}

func TestBookSpotAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.BookSpot(ctx, f.owner, f.spots[0].ID, f.vehicle.ID)
	require.ErrorIs(t, err, ledger.ErrForbidden)

	_, err = f.ledger.BookSpot(ctx, ledger.Actor{}, f.spots[0].ID, f.vehicle.ID)
	require.ErrorIs(t, err, ledger.ErrForbidden)

	other := f.store.AddUser("eve", model.UserTypeCarOwner)
	_, err = f.ledger.BookSpot(ctx, ledger.CarOwner(other.ID), f.spots[0].ID, f.vehicle.ID)
	require.ErrorIs(t, err, ledger.ErrForbidden)

	_, err = f.ledger.BookSpot(ctx, f.driver, f.spots[0].ID, 9999)
	require.ErrorIs(t, err, ledger.ErrVehicleNotFound)

	_, err = f.ledger.BookSpot(ctx, f.driver, 9999, f.vehicle.ID)
	require.ErrorIs(t, err, ledger.ErrSpotNotFound)

	_, err = f.ledger.ReleaseSpot(ctx, ledger.Actor{Role: model.UserTypeCarOwner}, "ABCDEF")
	require.ErrorIs(t, err, ledger.ErrForbidden)
}

func TestBookSpotRetriesOnCodeCollision(t *testing.T) {
	f := newFixture(t, ledger.WithCodeGenerator(fixedCodes("DUP001", "DUP001", "DUP001", "NEW002")))
	ctx := context.Background()
	second := f.store.AddVehicle(f.driver.UserID, "XYZ999")

	first, err := f.ledger.BookSpot(ctx, f.driver, f.spots[0].ID, f.vehicle.ID)
	require.NoError(t, err)
	require.Equal(t, "DUP001", first.Code)

	res, err := f.ledger.BookSpot(ctx, f.driver, f.spots[1].ID, second.ID)
	require.NoError(t, err)
	require.Equal(t, "NEW002", res.Code)
}

func TestBookSpotGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t, ledger.WithCodeGenerator(fixedCodes("SAME00", "SAME00", "SAME00", "SAME00", "SAME00", "SAME00")))
	ctx := context.Background()
	second := f.store.AddVehicle(f.driver.UserID, "XYZ999")

	_, err := f.ledger.BookSpot(ctx, f.driver, f.spots[0].ID, f.vehicle.ID)
	require.NoError(t, err)

	_, err = f.ledger.BookSpot(ctx, f.driver, f.spots[1].ID, second.ID)
	require.ErrorIs(t, err, ledger.ErrCodeExhausted)
	occ, err := f.ledger.BuildingOccupancy(ctx, f.building.ID)
	require.NoError(t, err)
	require.Equal(t, 1, occ.Occupied)
}

func TestConcurrentBookingsOnOneSpot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 8
	vehicles := make([]model.Vehicle, n)
	for i := range vehicles {
		vehicles[i] = f.store.AddVehicle(f.driver.UserID, "CAR"+string(rune('A'+i)))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, losses := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v model.Vehicle) {
			defer wg.Done()
			_, err := f.ledger.BookSpot(ctx, f.driver, f.spots[0].ID, v.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if errors.Is(err, ledger.ErrSpotOccupied) {
				losses++
			}
		}(vehicles[i])
	}
	wg.Wait()
	require.Equal(t, 1, wins)
	require.Equal(t, n-1, losses)
}

func TestActiveSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, ledger.WithClock(func() time.Time { now = now.Add(time.Minute); return now }))
	ctx := context.Background()
	second := f.store.AddVehicle(f.driver.UserID, "XYZ999")

	_, err := f.ledger.BookSpot(ctx, f.driver, f.spots[0].ID, f.vehicle.ID)
	require.NoError(t, err)
	_, err = f.ledger.BookSpot(ctx, f.driver, f.spots[5].ID, second.ID)
	require.NoError(t, err)

	views, err := f.ledger.ActiveSessions(ctx, f.owner, f.building.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "XYZ999", views[0].PlateNumber, "newest first")
	require.Equal(t, "dana", views[0].DriverName)
	require.Equal(t, f.spots[5].Code, views[0].SpotCode)

	_, err = f.ledger.ActiveSessions(ctx, f.driver, f.building.ID)
	require.ErrorIs(t, err, ledger.ErrForbidden)

	_, err = f.ledger.ActiveSessions(ctx, f.owner, 4242)
	require.ErrorIs(t, err, ledger.ErrBuildingNotFound)
}

func TestSnapshotFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.store.FailListSpots = errors.New("boom")

	_, err := f.ledger.BookSpot(context.Background(), f.driver, f.spots[0].ID, f.vehicle.ID)
	require.NoError(t, err)
	last := f.notes.events[len(f.notes.events)-1]
	require.Equal(t, ledger.EventSpotBooked, last.Kind)
	require.Nil(t, last.Occupancy)
}

func TestActiveSessionsMinutesParked(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, ledger.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := f.ledger.BookSpot(ctx, f.driver, f.spots[0].ID, f.vehicle.ID)
	require.NoError(t, err)

	now = now.Add(95 * time.Minute)
	views, err := f.ledger.ActiveSessions(ctx, f.owner, f.building.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, int64(95), views[0].MinutesParked)
}

// ctxStore fails reads on a finished context, as a database would.
type ctxStore struct{ *ledgertest.MemoryStore }

func (s ctxStore) ListSpots(ctx context.Context, buildingID uint64) ([]model.Spot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.MemoryStore.ListSpots(ctx, buildingID)
}

type ctxNotifier struct {
	ev          ledger.Event
	err         error
	hasDeadline bool
	deadline    time.Time
}

func (n *ctxNotifier) Notify(ctx context.Context, ev ledger.Event) {
	n.ev = ev
	n.err = ctx.Err()
	n.deadline, n.hasDeadline = ctx.Deadline()
}

func TestNotificationOutlivesCallerContext(t *testing.T) {
	f := newFixture(t)
	notes := &ctxNotifier{}
	l := ledger.New(ctxStore{f.store}, ledger.WithNotifier(notes))

	// The request context ends right after the commit.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	_, err := l.BookSpot(ctx, f.driver, f.spots[0].ID, f.vehicle.ID)
	require.NoError(t, err)

	require.Equal(t, ledger.EventSpotBooked, notes.ev.Kind)
	require.NotNil(t, notes.ev.Occupancy, "snapshot must not use the caller's cancellation")
	require.Equal(t, 1, notes.ev.Occupancy.Occupied)
	require.NoError(t, notes.err)
	require.True(t, notes.hasDeadline, "notifiers run on a bounded deadline")
	require.WithinDuration(t, start, notes.deadline, 2*time.Second)
}
