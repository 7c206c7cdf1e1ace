package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/live"
)

// OwnerHandler serves building owners.
type OwnerHandler struct {
	Ledger *ledger.Ledger
	Hub    *live.Hub
	Log    *zap.Logger
}

func NewOwnerHandler(l *ledger.Ledger, hub *live.Hub, log *zap.Logger) *OwnerHandler {
	return &OwnerHandler{Ledger: l, Hub: hub, Log: log}
}

type createBuildingReq struct {
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
	Floors   uint32 `json:"floors"`
}

// CreateBuilding creates a building and lays out its spots.
func (h *OwnerHandler) CreateBuilding(c echo.Context) error {
	var req createBuildingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, spots, err := h.Ledger.CreateBuilding(ctx, actorFrom(c), req.Name, req.Capacity, req.Floors)
	if err != nil {
		return writeError(c, h.Log, "create building", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"building":  b,
		"occupancy": ledger.ComputeOccupancy(spots),
		"floors":    ledger.GroupByFloor(spots),
	})
}

// Dashboard returns occupancy, the floor plan and the open sessions of
// a building.
func (h *OwnerHandler) Dashboard(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid building id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	actor := actorFrom(c)
	sessions, err := h.Ledger.ActiveSessions(ctx, actor, id)
	if err != nil {
		return writeError(c, h.Log, "active sessions", err)
	}
	b, err := h.Ledger.Building(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "get building", err)
	}
	spots, err := h.Ledger.BuildingSpots(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "list spots", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"building":        b,
		"occupancy":       ledger.ComputeOccupancy(spots),
		"floors":          ledger.GroupByFloor(spots),
		"active_sessions": sessions,
	})
}

// Live upgrades to a websocket that streams occupancy frames for the
// building, starting with a snapshot.
func (h *OwnerHandler) Live(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid building id")
	}
	ctx, cancel := requestContext(c)
	occ, err := h.Ledger.BuildingOccupancy(ctx, id)
	cancel()
	if err != nil {
		return writeError(c, h.Log, "live snapshot", err)
	}
	if err := h.Hub.Serve(c.Response(), c.Request(), id, live.SnapshotFrame(id, occ, time.Now().UTC())); err != nil {
		h.Log.Warn("live: upgrade failed", zap.Uint64("building_id", id), zap.Error(err))
	}
	return nil
}
