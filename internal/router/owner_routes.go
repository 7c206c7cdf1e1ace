package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/middleware"
	"github.com/iliyamo/parking-reservation/internal/model"
)

// RegisterOwner registers building owner routes.  The live feed accepts
// the token as a query parameter because browsers cannot set headers on
// websocket upgrades.
func RegisterOwner(e *echo.Echo, d Deps) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.UserTypeBuildingOwner),
	}
	e.POST("/v1/buildings", d.Owner.CreateBuilding, append(mw, chain(d.WriteLimit)...)...)

	g := e.Group("/v1/owner", mw...)
	g.GET("/buildings/:id/dashboard", d.Owner.Dashboard)
	g.GET("/buildings/:id/live", d.Owner.Live)
}
