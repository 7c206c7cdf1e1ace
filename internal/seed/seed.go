// Package seed loads demo users, vehicles and buildings from a YAML
// fixture.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

// Fixture is the document layout of a seed file.
type Fixture struct {
	Users     []User     `yaml:"users"`
	Buildings []Building `yaml:"buildings"`
}

// User is a seeded account.  Plates are ignored for building owners.
type User struct {
	Name   string   `yaml:"name"`
	CardID string   `yaml:"card_id"`
	Type   string   `yaml:"type"`
	Plates []string `yaml:"plates"`
}

// Building is a seeded building.  Owner is the card id of a
// building_owner declared in the same file or already in the database.
type Building struct {
	Name     string `yaml:"name"`
	Owner    string `yaml:"owner"`
	Capacity uint32 `yaml:"capacity"`
	Floors   uint32 `yaml:"floors"`
}

// Parse decodes and validates a fixture.  Unknown keys are rejected.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses the fixture at path.
func Load(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(b))
}

// Validate checks the fixture before anything is written.
func (f *Fixture) Validate() error {
	cards := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("users[%d]: name required", i)
		}
		card := strings.TrimSpace(u.CardID)
		if card == "" {
			return fmt.Errorf("users[%d]: card_id required", i)
		}
		if cards[card] {
			return fmt.Errorf("users[%d]: duplicate card_id %q", i, card)
		}
		cards[card] = true
		if !model.ValidUserType(u.Type) {
			return fmt.Errorf("users[%d]: unknown type %q", i, u.Type)
		}
	}
	for i, b := range f.Buildings {
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("buildings[%d]: name required", i)
		}
		if strings.TrimSpace(b.Owner) == "" {
			return fmt.Errorf("buildings[%d]: owner required", i)
		}
		if _, err := ledger.FloorCounts(b.Capacity, b.Floors); err != nil {
			return fmt.Errorf("buildings[%d]: %w", i, err)
		}
	}
	return nil
}

// Users is the account store the seeder writes to.
type Users interface {
	Create(ctx context.Context, name, cardID, userType string, plates []string) (*model.User, []model.Vehicle, error)
	GetByCardID(ctx context.Context, cardID string) (*model.User, error)
}

// Result counts what Apply created.
type Result struct {
	UsersCreated     int
	UsersSkipped     int
	Vehicles         int
	BuildingsCreated int
	Spots            int
}

// Apply writes the fixture.  Users whose card id already exists are
// left alone, so a file can be applied twice without duplicating
// accounts; buildings are always created.
func Apply(ctx context.Context, f *Fixture, users Users, l *ledger.Ledger, log *zap.Logger) (Result, error) {
	var res Result
	owners := make(map[string]*model.User)
	for _, u := range f.Users {
		card := strings.TrimSpace(u.CardID)
		existing, err := users.GetByCardID(ctx, card)
		switch {
		case err == nil:
			res.UsersSkipped++
			owners[card] = existing
			log.Info("seed: user exists", zap.String("card_id", card))
			continue
		case !errors.Is(err, repository.ErrUserNotFound):
			return res, fmt.Errorf("lookup %s: %w", card, err)
		}
		var plates []string
		if u.Type == model.UserTypeCarOwner {
			plates = model.NormalizePlates(u.Plates)
		}
		created, vehicles, err := users.Create(ctx, strings.TrimSpace(u.Name), card, u.Type, plates)
		if err != nil {
			return res, fmt.Errorf("create user %s: %w", card, err)
		}
		owners[card] = created
		res.UsersCreated++
		res.Vehicles += len(vehicles)
	}

	for _, b := range f.Buildings {
		card := strings.TrimSpace(b.Owner)
		owner, ok := owners[card]
		if !ok {
			var err error
			if owner, err = users.GetByCardID(ctx, card); err != nil {
				return res, fmt.Errorf("building %q: owner %s: %w", b.Name, card, err)
			}
		}
		created, spots, err := l.CreateBuilding(ctx, ledger.Actor{UserID: owner.ID, Role: owner.UserType}, b.Name, b.Capacity, b.Floors)
		if err != nil {
			return res, fmt.Errorf("building %q: %w", b.Name, err)
		}
		res.BuildingsCreated++
		res.Spots += len(spots)
		log.Info("seed: building created", zap.Uint64("building_id", created.ID), zap.Int("spots", len(spots)))
	}
	return res, nil
}
