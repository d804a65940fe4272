// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roomescape-reservation/internal/handler"
	"github.com/iliyamo/roomescape-reservation/internal/middleware"
)

// Deps carries everything RegisterRoutes needs.  Cache and RateLimit may
// be nil-backed; they then pass requests through untouched.
type Deps struct {
	Reservations *handler.ReservationHandler
	Catalog      *handler.CatalogHandler
	Cache        *middleware.ResponseCache
	RateLimit    echo.MiddlewareFunc
}

// RegisterRoutes mounts the health check and the /v1 API.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	limit := d.RateLimit
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	v1 := e.Group("/v1")

	// reservation reads bypass the cache
	r := v1.Group("/reservations")
	r.POST("", d.Reservations.Create, limit)
	r.GET("", d.Reservations.List)
	r.GET("/times", d.Reservations.AvailableTimes)
	r.GET("/:id", d.Reservations.Get)
	r.DELETE("/:id", d.Reservations.Delete, limit)

	var catalogMW []echo.MiddlewareFunc
	if d.Cache != nil {
		catalogMW = append(catalogMW, d.Cache.Middleware(), d.Cache.PurgeOnWrite())
	}
	times := v1.Group("/times", catalogMW...)
	times.POST("", d.Catalog.CreateTime)
	times.GET("", d.Catalog.ListTimes)
	times.DELETE("/:id", d.Catalog.DeleteTime)

	themes := v1.Group("/themes", catalogMW...)
	themes.POST("", d.Catalog.CreateTheme)
	themes.GET("", d.Catalog.ListThemes)
	themes.DELETE("/:id", d.Catalog.DeleteTheme)

	// ranking follows reservations and the date, so it is never cached
	v1.GET("/themes/popular", d.Catalog.PopularThemes)
}
