package router

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/ledger/ledgertest"
	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

// fakeUsers keeps users in memory and registers them with the ledger's
// memory store so IDs and vehicles line up.
type fakeUsers struct {
	mu     sync.Mutex
	store  *ledgertest.MemoryStore
	byID   map[uint64]model.User
	byCard map[string]uint64
}

func newFakeUsers(store *ledgertest.MemoryStore) *fakeUsers {
	return &fakeUsers{store: store, byID: map[uint64]model.User{}, byCard: map[string]uint64{}}
}

func (f *fakeUsers) Create(_ context.Context, name, cardID, userType string, plates []string) (*model.User, []model.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byCard[cardID]; ok {
		return nil, nil, repository.ErrCardExists
	}
	u := f.store.AddUser(name, userType)
	u.CardID = cardID
	f.byID[u.ID] = u
	f.byCard[cardID] = u.ID
	var vs []model.Vehicle
	for _, p := range plates {
		vs = append(vs, f.store.AddVehicle(u.ID, p))
	}
	return &u, vs, nil
}

func (f *fakeUsers) GetByCardID(_ context.Context, cardID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byCard[cardID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u := f.byID[id]
	return &u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

type tokenRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type fakeTokens struct {
	mu   sync.Mutex
	rows map[string]*tokenRow
}

func newFakeTokens() *fakeTokens { return &fakeTokens{rows: map[string]*tokenRow{}} }

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[hash] = &tokenRow{userID: userID, exp: exp}
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[hash]
	if !ok || r.revoked || time.Now().After(r.exp) {
		return 0, repository.ErrTokenInvalid
	}
	return r.userID, nil
}

func (f *fakeTokens) Rotate(_ context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[oldHash]
	if !ok || r.revoked || r.userID != userID {
		return repository.ErrTokenInvalid
	}
	r.revoked = true
	f.rows[newHash] = &tokenRow{userID: userID, exp: exp}
	return nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[hash]; ok {
		r.revoked = true
	}
	return nil
}

type fakeVehicles struct{ store *ledgertest.MemoryStore }

func (f fakeVehicles) Create(_ context.Context, userID uint64, plate string) (*model.Vehicle, error) {
	v := f.store.AddVehicle(userID, plate)
	return &v, nil
}

func (f fakeVehicles) ListByUser(_ context.Context, userID uint64) ([]model.Vehicle, error) {
	return f.store.Vehicles(userID), nil
}

type fakeBuildings struct{ store *ledgertest.MemoryStore }

func (f fakeBuildings) Search(ctx context.Context, q repository.BuildingSearchQuery) ([]repository.BuildingSummary, int64, error) {
	q.Normalize()
	var all []repository.BuildingSummary
	for _, b := range f.store.Buildings() {
		if q.Name != "" && !strings.Contains(strings.ToLower(b.Name), strings.ToLower(q.Name)) {
			continue
		}
		spots, err := f.store.ListSpots(ctx, b.ID)
		if err != nil {
			return nil, 0, err
		}
		occ := ledger.ComputeOccupancy(spots)
		if q.AvailableOnly && occ.Available == 0 {
			continue
		}
		all = append(all, repository.BuildingSummary{Building: b, TotalSpots: occ.Total, OccupiedSpots: occ.Occupied})
	}
	out := []repository.BuildingSummary{}
	start := (q.Page - 1) * q.PageSize
	for i := start; i < len(all) && i < start+q.PageSize; i++ {
		out = append(out, all[i])
	}
	return out, int64(len(all)), nil
}
