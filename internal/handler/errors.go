package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/roomescape-reservation/internal/service"
)

func errorBody(code, msg string) echo.Map {
	return echo.Map{"error": code, "message": msg}
}

// respondError writes err as a JSON error body.  Service errors map to
// 404/400/409, validation failures to 400; everything else is logged and
// reported as 500 without detail.
func respondError(c echo.Context, log zerolog.Logger, err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(se, service.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(se, service.ErrInvalidArgument):
			status = http.StatusBadRequest
		case errors.Is(se, service.ErrConflict):
			status = http.StatusConflict
		}
		return c.JSON(status, errorBody(se.Code, se.Message))
	}
	var ve *validationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, errorBody("invalid_argument", ve.msg))
	}
	log.Error().Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("request failed")
	return c.JSON(http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
}

// bindAndValidate decodes the request body into dst and validates it.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return &service.Error{Kind: service.ErrInvalidArgument, Code: "invalid_request_body", Message: "invalid request body"}
	}
	return c.Validate(dst)
}

// deleteID parses the :id of a delete request.  Zero is accepted: it names
// no entity, so the delete is a no-op like any other unknown id.
func deleteID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, &service.Error{Kind: service.ErrInvalidArgument, Code: "invalid_id", Message: "id must be a non-negative integer"}
	}
	return id, nil
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.Error{Kind: service.ErrInvalidArgument, Code: "invalid_id", Message: "id must be a positive integer"}
	}
	return id, nil
}
