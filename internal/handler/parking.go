package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
)

// ParkingHandler serves car owners: their vehicles, booking and release.
type ParkingHandler struct {
	Ledger   *ledger.Ledger
	Vehicles vehicleStore
	Log      *zap.Logger
}

func NewParkingHandler(l *ledger.Ledger, v vehicleStore, log *zap.Logger) *ParkingHandler {
	return &ParkingHandler{Ledger: l, Vehicles: v, Log: log}
}

type addVehicleReq struct {
	PlateNumber string `json:"plate_number"`
}

type bookReq struct {
	VehicleID uint64 `json:"vehicle_id"`
}

type releaseReq struct {
	Code string `json:"code"`
}

// ListVehicles returns the caller's vehicles.
func (h *ParkingHandler) ListVehicles(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	items, err := h.Vehicles.ListByUser(ctx, uid)
	if err != nil {
		return writeError(c, h.Log, "list vehicles", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AddVehicle registers another plate for the caller.
func (h *ParkingHandler) AddVehicle(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addVehicleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	plate := model.NormalizePlate(req.PlateNumber)
	if plate == "" {
		return badRequest(c, "plate_number required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	v, err := h.Vehicles.Create(ctx, uid, plate)
	if err != nil {
		return writeError(c, h.Log, "add vehicle", err)
	}
	return c.JSON(http.StatusCreated, v)
}

// Book reserves spot :id for one of the caller's vehicles and returns
// the release code.
func (h *ParkingHandler) Book(c echo.Context) error {
	spotID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid spot id")
	}
	var req bookReq
	if err := c.Bind(&req); err != nil || req.VehicleID == 0 {
		return badRequest(c, "vehicle_id required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Ledger.BookSpot(ctx, actorFrom(c), spotID, req.VehicleID)
	if err != nil {
		return writeError(c, h.Log, "book spot", err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Release frees the spot held by the given code.
func (h *ParkingHandler) Release(c echo.Context) error {
	var req releaseReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Code) == "" {
		return badRequest(c, "code required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	rel, err := h.Ledger.ReleaseSpot(ctx, actorFrom(c), req.Code)
	if err != nil {
		return writeError(c, h.Log, "release spot", err)
	}
	return c.JSON(http.StatusOK, rel)
}
