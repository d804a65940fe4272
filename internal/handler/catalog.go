package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/roomescape-reservation/internal/service"
)

// CatalogHandler manages time slots and themes.
type CatalogHandler struct {
	svc *service.CatalogService
	log zerolog.Logger
}

// NewCatalogHandler panics if svc is nil.
func NewCatalogHandler(svc *service.CatalogService, log zerolog.Logger) *CatalogHandler {
	if svc == nil {
		panic("nil service passed to NewCatalogHandler")
	}
	return &CatalogHandler{svc: svc, log: log}
}

type createTimeRequest struct {
	StartAt string `json:"start_at" validate:"required"`
}

// CreateTime handles POST /v1/times.
func (h *CatalogHandler) CreateTime(c echo.Context) error {
	var req createTimeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ts, err := h.svc.CreateTimeSlot(c.Request().Context(), req.StartAt)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/v1/times/%d", ts.ID))
	return c.JSON(http.StatusCreated, ts)
}

// ListTimes handles GET /v1/times.
func (h *CatalogHandler) ListTimes(c echo.Context) error {
	items, err := h.svc.ListTimeSlots(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteTime handles DELETE /v1/times/:id.
func (h *CatalogHandler) DeleteTime(c echo.Context) error {
	id, err := deleteID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.svc.DeleteTimeSlot(c.Request().Context(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type createThemeRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail" validate:"max=1024"`
}

// CreateTheme handles POST /v1/themes.
func (h *CatalogHandler) CreateTheme(c echo.Context) error {
	var req createThemeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	t, err := h.svc.CreateTheme(c.Request().Context(), service.CreateThemeInput{
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/v1/themes/%d", t.ID))
	return c.JSON(http.StatusCreated, t)
}

// ListThemes handles GET /v1/themes.
func (h *CatalogHandler) ListThemes(c echo.Context) error {
	items, err := h.svc.ListThemes(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// PopularThemes handles GET /v1/themes/popular.
func (h *CatalogHandler) PopularThemes(c echo.Context) error {
	items, err := h.svc.PopularThemes(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteTheme handles DELETE /v1/themes/:id.
func (h *CatalogHandler) DeleteTheme(c echo.Context) error {
	id, err := deleteID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.svc.DeleteTheme(c.Request().Context(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
