package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/ledger/ledgertest"
	"github.com/iliyamo/parking-reservation/internal/live"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("create building: %w: capacity 2 over 3 floors", ledger.ErrInvalidLayout), http.StatusBadRequest},
		{&ledger.AuthorizationError{Op: "book spot", Role: "building_owner"}, http.StatusForbidden},
		{fmt.Errorf("book spot: vehicle 3: %w", ledger.ErrForbidden), http.StatusForbidden},
		{ledger.ErrSessionNotFound, http.StatusNotFound},
		{ledger.ErrSpotNotFound, http.StatusNotFound},
		{ledger.ErrBuildingNotFound, http.StatusNotFound},
		{ledger.ErrVehicleNotFound, http.StatusNotFound},
		{repository.ErrUserNotFound, http.StatusNotFound},
		{ledger.ErrSpotOccupied, http.StatusConflict},
		{repository.ErrCardExists, http.StatusConflict},
		{ledger.ErrCodeExhausted, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, msg := errorStatus(tc.err)
		require.Equal(t, tc.status, status, tc.err.Error())
		require.NotEmpty(t, msg)
	}

	_, msg := errorStatus(fmt.Errorf("create building: %w: capacity 2 over 3 floors", ledger.ErrInvalidLayout))
	require.NotContains(t, msg, "create building:")
	_, msg = errorStatus(errors.New("dsn leaked"))
	require.Equal(t, "internal error", msg)
}

func TestConstructorsStoreDependencies(t *testing.T) {
	log := zap.NewNop()
	l := ledger.New(ledgertest.NewMemoryStore())
	hub := live.NewHub(log)

	var owner *OwnerHandler
	require.NotPanics(t, func() { owner = NewOwnerHandler(l, hub, log) })
	require.Same(t, l, owner.Ledger)
	require.Same(t, hub, owner.Hub)

	require.NotPanics(t, func() { NewOwnerHandler(nil, nil, log) })
	require.NotPanics(t, func() { NewParkingHandler(nil, nil, log) })
	require.NotPanics(t, func() { NewBrowseHandler(nil, nil, log) })
	require.NotPanics(t, func() { NewHealthHandler(nil) })
}
