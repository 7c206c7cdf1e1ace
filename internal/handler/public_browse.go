package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

// BrowseHandler serves the public building pages.
type BrowseHandler struct {
	Ledger    *ledger.Ledger
	Buildings buildingSearcher
	Log       *zap.Logger
}

func NewBrowseHandler(l *ledger.Ledger, b buildingSearcher, log *zap.Logger) *BrowseHandler {
	return &BrowseHandler{Ledger: l, Buildings: b, Log: log}
}

// ListBuildings returns a page of buildings with their spot counts.
// Query: q (name contains), available=true, page, page_size.
func (h *BrowseHandler) ListBuildings(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	available, _ := strconv.ParseBool(c.QueryParam("available"))
	q := repository.BuildingSearchQuery{
		Name:          c.QueryParam("q"),
		AvailableOnly: available,
		Page:          page,
		PageSize:      size,
	}
	q.Normalize()

	ctx, cancel := requestContext(c)
	defer cancel()
	items, total, err := h.Buildings.Search(ctx, q)
	if err != nil {
		return writeError(c, h.Log, "list buildings", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// GetBuilding returns one building and its occupancy.
func (h *BrowseHandler) GetBuilding(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid building id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, err := h.Ledger.Building(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "get building", err)
	}
	occ, err := h.Ledger.BuildingOccupancy(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "building occupancy", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"building": b, "occupancy": occ})
}

// ListSpots returns the spots of a building grouped by floor.
func (h *BrowseHandler) ListSpots(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid building id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	spots, err := h.Ledger.BuildingSpots(ctx, id)
	if err != nil {
		return writeError(c, h.Log, "list spots", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"building_id": id,
		"occupancy":   ledger.ComputeOccupancy(spots),
		"floors":      ledger.GroupByFloor(spots),
	})
}
