package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
)

var spotCols = []string{"id", "code", "floor", "building_id", "is_occupied", "created_at"}

func newMockStore(t *testing.T) (*LedgerStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewLedgerStore(db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestOccupySpot(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE spots SET is_occupied = 1 WHERE id = ? AND is_occupied = 0")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO user_spots")).
		WithArgs(uint64(7), "ABC123", uint64(3), at, at).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(q("FROM spots WHERE id = ?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(spotCols).AddRow(7, "A1-01", 1, 1, true, at))
	mock.ExpectCommit()

	session, spot, err := store.OccupySpot(context.Background(), 7, 3, "ABC123", at)
	require.NoError(t, err)
	require.Equal(t, uint64(42), session.ID)
	require.Equal(t, "ABC123", session.UniqueCode)
	require.True(t, session.Active())
	require.True(t, spot.IsOccupied)
	require.Equal(t, "A1-01", spot.Code)
}

func TestOccupySpotAlreadyOccupied(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE spots SET is_occupied = 1")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("FROM spots WHERE id = ?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(spotCols).AddRow(7, "A1-01", 1, 1, true, at))
	mock.ExpectRollback()

	_, _, err := store.OccupySpot(context.Background(), 7, 3, "ABC123", at)
	require.ErrorIs(t, err, ledger.ErrSpotOccupied)
}

func TestOccupySpotMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE spots SET is_occupied = 1")).
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("FROM spots WHERE id = ?")).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(spotCols))
	mock.ExpectRollback()

	_, _, err := store.OccupySpot(context.Background(), 99, 3, "ABC123", time.Now())
	require.ErrorIs(t, err, ledger.ErrSpotNotFound)
}

func TestOccupySpotCodeTaken(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE spots SET is_occupied = 1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO user_spots")).
		WillReturnError(&mysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry 'ABC123' for key 'user_spots.uq_user_spots_active_code'",
		})
	mock.ExpectRollback()

	_, _, err := store.OccupySpot(context.Background(), 7, 3, "ABC123", time.Now())
	require.ErrorIs(t, err, ledger.ErrCodeTaken)
}

func TestReleaseByCode(t *testing.T) {
	store, mock := newMockStore(t)
	parked := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	at := parked.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(q("WHERE active_code = ?")).
		WithArgs("ABC123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "spot_id", "unique_code", "vehicle_id", "parked_at", "created_at"}).
			AddRow(42, 7, "ABC123", 3, parked, parked))
	mock.ExpectExec(q("UPDATE user_spots SET released_at = ? WHERE id = ? AND released_at IS NULL")).
		WithArgs(at, uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE spots SET is_occupied = 0 WHERE id = ?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FROM spots WHERE id = ?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(spotCols).AddRow(7, "A1-01", 1, 1, false, parked))
	mock.ExpectCommit()

	session, spot, err := store.ReleaseByCode(context.Background(), "ABC123", at)
	require.NoError(t, err)
	require.False(t, session.Active())
	require.Equal(t, at, *session.ReleasedAt)
	require.False(t, spot.IsOccupied)
}

func TestReleaseByCodeUnknown(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("WHERE active_code = ?")).
		WithArgs("NOPE00").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := store.ReleaseByCode(context.Background(), "NOPE00", time.Now())
	require.ErrorIs(t, err, ledger.ErrSessionNotFound)
}

func TestCreateBuildingWithSpots(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO buildings")).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(q("INSERT INTO spots (code, floor, building_id, is_occupied, created_at) VALUES (?, ?, ?, 0, ?),(?, ?, ?, 0, ?)")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(q("FROM spots WHERE building_id = ? ORDER BY floor, code")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(spotCols).
			AddRow(10, "C1-01", 1, 3, false, time.Now()).
			AddRow(11, "C2-01", 2, 3, false, time.Now()))
	mock.ExpectCommit()

	b := &model.Building{Name: "Harbor", Capacity: 2}
	var gotID uint64
	spots, err := store.CreateBuildingWithSpots(context.Background(), b, func(id uint64) ([]model.SpotDraft, error) {
		gotID = id
		return ledger.GenerateSpotLayout(id, 2, 2)
	})
	require.NoError(t, err)
	require.Equal(t, uint64(3), b.ID)
	require.Equal(t, uint64(3), gotID)
	require.Len(t, spots, 2)
}

func TestCreateBuildingWithSpotsRollsBackOnLayoutError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO buildings")).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectRollback()

	_, err := store.CreateBuildingWithSpots(context.Background(), &model.Building{Name: "Bad"}, func(uint64) ([]model.SpotDraft, error) {
		return nil, ledger.ErrInvalidLayout
	})
	require.ErrorIs(t, err, ledger.ErrInvalidLayout)
}
