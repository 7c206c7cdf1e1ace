package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/parking-reservation/internal/model"
)

// UserRepo reads and writes the users table.
type UserRepo struct {
	DB       *sql.DB
	vehicles *VehicleRepo
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db, vehicles: NewVehicleRepo(db)} }

// Create inserts a user together with its vehicles in one transaction
// and returns both.  A taken card id yields ErrCardExists.
func (r *UserRepo) Create(ctx context.Context, name, cardID, userType string, plates []string) (*model.User, []model.Vehicle, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer rollback(tx, &committed)

	u := &model.User{
		Name:      strings.TrimSpace(name),
		CardID:    strings.TrimSpace(cardID),
		UserType:  userType,
		CreatedAt: time.Now().UTC(),
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (name, card_id, user_type, created_at) VALUES (?,?,?,?)",
		u.Name, u.CardID, u.UserType, u.CreatedAt)
	if err != nil {
		if isDuplicate(err, "") {
			return nil, nil, ErrCardExists
		}
		return nil, nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, nil, err
	}
	u.ID = uint64(id)

	vehicles := make([]model.Vehicle, 0, len(plates))
	for _, p := range plates {
		v, err := r.vehicles.CreateTx(ctx, tx, u.ID, p)
		if err != nil {
			return nil, nil, err
		}
		vehicles = append(vehicles, *v)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return u, vehicles, nil
}

// GetByCardID fetches a user by trimmed card id.
func (r *UserRepo) GetByCardID(ctx context.Context, cardID string) (*model.User, error) {
	return r.getOne(ctx,
		"SELECT id,name,card_id,user_type,created_at FROM users WHERE card_id=? LIMIT 1",
		strings.TrimSpace(cardID))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx,
		"SELECT id,name,card_id,user_type,created_at FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Name, &u.CardID, &u.UserType, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
