// Package router registers the HTTP routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/handler"
	"github.com/iliyamo/parking-reservation/internal/middleware"
	"github.com/iliyamo/parking-reservation/internal/model"
)

// Deps are the handlers and shared middleware the routes are built from.
// Cache, ReadLimit and WriteLimit may be nil.
type Deps struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Browse    *handler.BrowseHandler
	Parking   *handler.ParkingHandler
	Owner     *handler.OwnerHandler
	JWTSecret string

	Cache      echo.MiddlewareFunc
	ReadLimit  echo.MiddlewareFunc
	WriteLimit echo.MiddlewareFunc
}

// Register wires every route.
func Register(e *echo.Echo, d Deps) {
	RegisterPublic(e, d)
	RegisterAuth(e, d)
	RegisterCarOwner(e, d)
	RegisterOwner(e, d)
}

// chain drops nil middleware so optional ones can be passed freely.
func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterPublic registers the health check and the cached guest pages.
func RegisterPublic(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health.Health)

	browse := chain(d.ReadLimit, d.Cache)
	e.GET("/v1/buildings", d.Browse.ListBuildings, browse...)
	e.GET("/v1/buildings/:id", d.Browse.GetBuilding, browse...)
	e.GET("/v1/buildings/:id/spots", d.Browse.ListSpots, browse...)
}

// RegisterAuth registers account routes.  Register, login, refresh and
// logout need no session; /v1/me and release accept any signed-in role.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/v1/auth", chain(d.WriteLimit)...)
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/logout", d.Auth.Logout)

	signedIn := chain(middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.UserTypeCarOwner, model.UserTypeBuildingOwner))
	e.GET("/v1/me", d.Auth.Me, signedIn...)
	e.POST("/v1/spots/release", d.Parking.Release, append(signedIn, chain(d.WriteLimit)...)...)
}
