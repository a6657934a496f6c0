package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stayfinder/internal/service"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError logs err under event and turns it into an echo error with an error/code body.
// Causes of 5xx responses are logged but never sent to the client.
func respondError(l *slog.Logger, event string, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		l.Error(event, "status", 500, "reason", "unexpected error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, echo.Map{"error": "Internal server error", "code": "INTERNAL_ERROR"})
	}

	status := statusOf(err)
	l.Warn(event, "status", status, "reason", se.Code, "error", se.Msg)
	return echo.NewHTTPError(status, echo.Map{"error": se.Msg, "code": se.Code})
}

func badRequest(l *slog.Logger, event, code, msg string, err error) error {
	l.Warn(event, "status", 400, "reason", code, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": msg, "code": code})
}

func invalidBody(l *slog.Logger, event string, err error) error {
	return badRequest(l, event, "INVALID_BODY", "Invalid request body", err)
}

func parseID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return uint(v), nil
}

// optionalUint parses an optional positive integer query parameter.
func optionalUint(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, errors.New(name + " must be a positive integer")
	}
	id := uint(v)
	return &id, nil
}

func optionalInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, errors.New(name + " must be a non-negative integer")
	}
	return &v, nil
}

func optionalInt64(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, errors.New(name + " must be a non-negative integer")
	}
	return &v, nil
}
