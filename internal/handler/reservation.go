package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/roomescape-reservation/internal/service"
)

// ReservationHandler exposes reservation admission, availability and
// lookup over HTTP.
type ReservationHandler struct {
	svc *service.ReservationService
	log zerolog.Logger
}

// NewReservationHandler panics if svc is nil.
func NewReservationHandler(svc *service.ReservationService, log zerolog.Logger) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc, log: log}
}

type createReservationRequest struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeID  uint64 `json:"time_id" validate:"required"`
	ThemeID uint64 `json:"theme_id" validate:"required"`
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	res, err := h.svc.Create(c.Request().Context(), service.CreateReservationInput{
		Date:    req.Date,
		TimeID:  req.TimeID,
		ThemeID: req.ThemeID,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/v1/reservations/%d", res.ID))
	return c.JSON(http.StatusCreated, res)
}

// List handles GET /v1/reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	res, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /v1/reservations/:id.  Unknown IDs also get 204.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := deleteID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AvailableTimes handles GET /v1/reservations/times?date=YYYY-MM-DD&theme_id=N.
func (h *ReservationHandler) AvailableTimes(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	var themeID uint64
	if raw := strings.TrimSpace(c.QueryParam("theme_id")); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("invalid_argument", "theme_id must be a positive integer"))
		}
		themeID = n
	}
	items, err := h.svc.AvailableTimes(c.Request().Context(), date, themeID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
