package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	authmw "github.com/Skotchmaster/stayfinder/internal/middleware/auth"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/service"
	"github.com/Skotchmaster/stayfinder/internal/transport"
	"github.com/Skotchmaster/stayfinder/internal/util"
)

type AdminHTTP struct {
	Svc *service.AdminService
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	limit, offset := util.Window(
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultLimit),
		util.ParseIntDefault(c.QueryParam("offset"), 0),
	)
	f := repo.UserFilter{
		Search: strings.TrimSpace(c.QueryParam("search")),
		Role:   c.QueryParam("role"),
		Limit:  limit,
		Offset: offset,
	}

	total, users, err := h.Svc.ListUsers(ctx, f)
	if err != nil {
		return respondError(l, "list_users_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": users,
		"meta": util.Meta(limit, offset, total),
	})
}

func (h *AdminHTTP) ChangeRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.change_role")

	caller := authmw.Caller(c)
	if err := service.RequireManager(caller.Role); err != nil {
		return respondError(l, "change_role_error", err)
	}

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "change_role_error", "INVALID_ID", "Invalid user id", err)
	}

	var req transport.ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "change_role_error", err)
	}

	u, err := h.Svc.ChangeRole(ctx, caller, id, req.Role)
	if err != nil {
		return respondError(l, "change_role_error", err)
	}

	l.Info("change_role_success", "target_id", u.ID, "new_role", u.Role)
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHTTP) ListListings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_listings")

	f, err := listingFilter(c, l, "admin_list_listings_error")
	if err != nil {
		return err
	}

	total, items, err := h.Svc.ListListings(ctx, f)
	if err != nil {
		return respondError(l, "admin_list_listings_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": util.Meta(f.Limit, f.Offset, total),
	})
}

func (h *AdminHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.stats")

	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		return respondError(l, "stats_error", err)
	}
	return c.JSON(http.StatusOK, stats)
}
