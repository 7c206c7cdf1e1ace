package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
)

// spotInsertBatch caps the rows of a single multi-row INSERT.
const spotInsertBatch = 500

// SpotRepo reads and writes the spots table.
type SpotRepo struct {
	db *sql.DB
}

// NewSpotRepo returns a SpotRepo bound to db.
func NewSpotRepo(db *sql.DB) *SpotRepo { return &SpotRepo{db: db} }

const spotColumns = `id, code, floor, building_id, is_occupied, created_at`

func scanSpot(row interface{ Scan(...any) error }) (model.Spot, error) {
	var s model.Spot
	err := row.Scan(&s.ID, &s.Code, &s.Floor, &s.BuildingID, &s.IsOccupied, &s.CreatedAt)
	return s, err
}

// CreateBulkTx inserts drafts in batches inside tx.  An empty slice is a
// no-op.
func (r *SpotRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, drafts []model.SpotDraft, at time.Time) error {
	for start := 0; start < len(drafts); start += spotInsertBatch {
		end := start + spotInsertBatch
		if end > len(drafts) {
			end = len(drafts)
		}
		batch := drafts[start:end]
		var sb strings.Builder
		sb.WriteString(`INSERT INTO spots (code, floor, building_id, is_occupied, created_at) VALUES `)
		args := make([]any, 0, len(batch)*4)
		for i, d := range batch {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, 0, ?)")
			args = append(args, d.Code, d.Floor, d.BuildingID, at)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

// GetByID returns the spot or ledger.ErrSpotNotFound.
func (r *SpotRepo) GetByID(ctx context.Context, id uint64) (*model.Spot, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *SpotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Spot, error) {
	return r.get(ctx, tx, id)
}

func (r *SpotRepo) get(ctx context.Context, q querier, id uint64) (*model.Spot, error) {
	s, err := scanSpot(q.QueryRowContext(ctx, `SELECT `+spotColumns+` FROM spots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrSpotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByBuilding returns the spots of a building ordered by floor then
// code.
func (r *SpotRepo) ListByBuilding(ctx context.Context, buildingID uint64) ([]model.Spot, error) {
	return r.list(ctx, r.db, buildingID)
}

// ListByBuildingTx is ListByBuilding inside tx.
func (r *SpotRepo) ListByBuildingTx(ctx context.Context, tx *sql.Tx, buildingID uint64) ([]model.Spot, error) {
	return r.list(ctx, tx, buildingID)
}

func (r *SpotRepo) list(ctx context.Context, q querier, buildingID uint64) ([]model.Spot, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+spotColumns+` FROM spots WHERE building_id = ? ORDER BY floor, code`, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Spot{}
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkOccupiedTx flips a free spot to occupied.  It reports false when
// the spot is missing or already occupied; nothing is changed then.
func (r *SpotRepo) MarkOccupiedTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE spots SET is_occupied = 1 WHERE id = ? AND is_occupied = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkFreeTx clears the occupied flag of a spot.
func (r *SpotRepo) MarkFreeTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `UPDATE spots SET is_occupied = 0 WHERE id = ?`, id)
	return err
}
