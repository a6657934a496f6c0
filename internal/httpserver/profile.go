package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	authmw "github.com/Skotchmaster/stayfinder/internal/middleware/auth"
	"github.com/Skotchmaster/stayfinder/internal/service"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

type ProfileHTTP struct {
	Svc *service.ProfileService
}

func (h *ProfileHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.get")

	u, err := h.Svc.Get(ctx, authmw.Caller(c).ID)
	if err != nil {
		return respondError(l, "get_profile_error", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *ProfileHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.update")

	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "update_profile_error", err)
	}

	u, err := h.Svc.Update(ctx, authmw.Caller(c).ID, req)
	if err != nil {
		return respondError(l, "update_profile_error", err)
	}

	l.Info("update_profile_success")
	return c.JSON(http.StatusOK, u)
}
