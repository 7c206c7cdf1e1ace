package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/middleware"
	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID extracts the authenticated user ID set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.New("invalid user_id in context")
	}
	return id, nil
}

// actorFrom builds the ledger actor for the current request.  A missing
// identity yields the zero Actor, which every ledger operation rejects.
func actorFrom(c echo.Context) ledger.Actor {
	id, _ := middleware.UserID(c)
	return ledger.Actor{UserID: id, Role: middleware.Role(c)}
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// errorStatus maps domain errors to an HTTP status and a client-facing
// message.  Unknown errors become 500 with a generic message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidLayout):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), "create building: ")
	case errors.Is(err, ledger.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ledger.ErrSessionNotFound):
		return http.StatusNotFound, "invalid or already used code"
	case errors.Is(err, ledger.ErrBuildingNotFound),
		errors.Is(err, ledger.ErrSpotNotFound),
		errors.Is(err, ledger.ErrVehicleNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, ledger.ErrSpotOccupied):
		return http.StatusConflict, ledger.ErrSpotOccupied.Error()
	case errors.Is(err, repository.ErrCardExists):
		return http.StatusConflict, repository.ErrCardExists.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

// writeError renders err as {"error": msg}.  Server-side failures are
// logged with the request id.
func writeError(c echo.Context, log *zap.Logger, op string, err error) error {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", zap.String("request_id", middleware.RequestID(c)), zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// Stores the handlers depend on.  The MySQL repositories satisfy them.
type (
	userStore interface {
		Create(ctx context.Context, name, cardID, userType string, plates []string) (*model.User, []model.Vehicle, error)
		GetByCardID(ctx context.Context, cardID string) (*model.User, error)
		GetByID(ctx context.Context, id uint64) (*model.User, error)
	}
	tokenStore interface {
		StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
		ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
		Rotate(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
		RevokeByHash(ctx context.Context, tokenHash string) error
	}
	vehicleStore interface {
		Create(ctx context.Context, userID uint64, plate string) (*model.Vehicle, error)
		ListByUser(ctx context.Context, userID uint64) ([]model.Vehicle, error)
	}
	buildingSearcher interface {
		Search(ctx context.Context, q repository.BuildingSearchQuery) ([]repository.BuildingSummary, int64, error)
	}
)

var (
	_ userStore        = (*repository.UserRepo)(nil)
	_ tokenStore       = (*repository.TokenRepo)(nil)
	_ vehicleStore     = (*repository.VehicleRepo)(nil)
	_ buildingSearcher = (*repository.BuildingRepo)(nil)
)
