package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/middleware"
	"github.com/iliyamo/parking-reservation/internal/model"
)

// RegisterCarOwner registers the routes only car owners may call.
func RegisterCarOwner(e *echo.Echo, d Deps) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.UserTypeCarOwner),
	}
	e.GET("/v1/vehicles", d.Parking.ListVehicles, mw...)
	e.POST("/v1/vehicles", d.Parking.AddVehicle, mw...)
	e.POST("/v1/spots/:id/book", d.Parking.Book, append(mw, chain(d.WriteLimit)...)...)
}
