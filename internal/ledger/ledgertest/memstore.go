// Package ledgertest provides an in-memory ledger.Store for tests.
package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
)

// MemoryStore keeps buildings, spots, vehicles and sessions in maps.  It
// honours the same atomicity contract as the MySQL store by holding a
// single mutex across each operation.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    uint64
	buildings map[uint64]*model.Building
	spots     map[uint64]*model.Spot
	vehicles  map[uint64]*model.Vehicle
	users     map[uint64]*model.User
	sessions  []*model.ParkingSession

	// FailListSpots makes ListSpots fail, to exercise snapshot errors.
	FailListSpots error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buildings: map[uint64]*model.Building{},
		spots:     map[uint64]*model.Spot{},
		vehicles:  map[uint64]*model.Vehicle{},
		users:     map[uint64]*model.User{},
	}
}

func (m *MemoryStore) id() uint64 {
	m.nextID++
	return m.nextID
}

// AddUser registers a user and returns it.
func (m *MemoryStore) AddUser(name, userType string) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{ID: m.id(), Name: name, CardID: "CARD-" + name, UserType: userType, CreatedAt: time.Now().UTC()}
	m.users[u.ID] = u
	return *u
}

// AddVehicle registers a vehicle for userID and returns it.
func (m *MemoryStore) AddVehicle(userID uint64, plate string) model.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := &model.Vehicle{ID: m.id(), PlateNumber: plate, UserID: userID, CreatedAt: time.Now().UTC()}
	m.vehicles[v.ID] = v
	return *v
}

// Sessions returns a copy of every session, open or closed.
func (m *MemoryStore) Sessions() []model.ParkingSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ParkingSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out
}

// Buildings returns every building ordered by ID.
func (m *MemoryStore) Buildings() []model.Building {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Building, 0, len(m.buildings))
	for _, b := range m.buildings {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Vehicles returns the vehicles of userID ordered by ID.
func (m *MemoryStore) Vehicles(userID uint64) []model.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Vehicle{}
	for _, v := range m.vehicles {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) CreateBuildingWithSpots(_ context.Context, b *model.Building, layout func(uint64) ([]model.SpotDraft, error)) ([]model.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID + 1
	drafts, err := layout(id)
	if err != nil {
		return nil, err
	}
	m.nextID = id
	b.ID = id
	b.CreatedAt = time.Now().UTC()
	cp := *b
	m.buildings[id] = &cp
	out := make([]model.Spot, 0, len(drafts))
	for _, d := range drafts {
		s := &model.Spot{ID: m.id(), Code: d.Code, Floor: d.Floor, BuildingID: id, CreatedAt: b.CreatedAt}
		m.spots[s.ID] = s
		out = append(out, *s)
	}
	return out, nil
}

func (m *MemoryStore) GetBuilding(_ context.Context, id uint64) (*model.Building, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buildings[id]
	if !ok {
		return nil, ledger.ErrBuildingNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) GetSpot(_ context.Context, id uint64) (*model.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.spots[id]
	if !ok {
		return nil, ledger.ErrSpotNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ListSpots(_ context.Context, buildingID uint64) ([]model.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailListSpots != nil {
		return nil, m.FailListSpots
	}
	var out []model.Spot
	for _, s := range m.spots {
		if s.BuildingID == buildingID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (m *MemoryStore) GetVehicle(_ context.Context, id uint64) (*model.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, ledger.ErrVehicleNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MemoryStore) OccupySpot(_ context.Context, spotID, vehicleID uint64, code string, at time.Time) (*model.ParkingSession, *model.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.spots[spotID]
	if !ok {
		return nil, nil, ledger.ErrSpotNotFound
	}
	if s.IsOccupied {
		return nil, nil, ledger.ErrSpotOccupied
	}
	for _, sess := range m.sessions {
		if sess.Active() && sess.UniqueCode == code {
			return nil, nil, ledger.ErrCodeTaken
		}
	}
	s.IsOccupied = true
	sess := &model.ParkingSession{ID: m.id(), SpotID: spotID, UniqueCode: code, VehicleID: vehicleID, ParkedAt: at, CreatedAt: at}
	m.sessions = append(m.sessions, sess)
	sc, spc := *sess, *s
	return &sc, &spc, nil
}

func (m *MemoryStore) ReleaseByCode(_ context.Context, code string, at time.Time) (*model.ParkingSession, *model.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions {
		if !sess.Active() || sess.UniqueCode != code {
			continue
		}
		released := at
		sess.ReleasedAt = &released
		s := m.spots[sess.SpotID]
		s.IsOccupied = false
		sc, spc := *sess, *s
		return &sc, &spc, nil
	}
	return nil, nil, ledger.ErrSessionNotFound
}

func (m *MemoryStore) ListActiveSessions(_ context.Context, buildingID uint64) ([]model.ActiveSessionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActiveSessionView
	for _, sess := range m.sessions {
		if !sess.Active() {
			continue
		}
		s := m.spots[sess.SpotID]
		if s.BuildingID != buildingID {
			continue
		}
		view := model.ActiveSessionView{SessionID: sess.ID, SpotID: s.ID, SpotCode: s.Code, Floor: s.Floor, ParkedAt: sess.ParkedAt}
		if v, ok := m.vehicles[sess.VehicleID]; ok {
			view.PlateNumber = v.PlateNumber
			if u, ok := m.users[v.UserID]; ok {
				view.DriverName = u.Name
			}
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParkedAt.After(out[j].ParkedAt) })
	return out, nil
}

var _ ledger.Store = (*MemoryStore)(nil)
