package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	authmw "github.com/Skotchmaster/stayfinder/internal/middleware/auth"
	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/service"
	"github.com/Skotchmaster/stayfinder/internal/tokens"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

func clientMeta(c echo.Context) service.ClientMeta {
	return service.ClientMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

func (h *AuthHTTP) respond(c echo.Context, status int, res *service.AuthResult) error {
	c.SetCookie(tokens.CreateCookie(tokens.SessionCookie, res.SessionToken, "/", res.ExpiresAt, h.CookieSecure))
	return c.JSON(status, transport.AuthResponse{
		User:         res.User,
		SessionToken: res.SessionToken,
		ExpiresAt:    res.ExpiresAt,
	})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "register_error", err)
	}

	res, err := h.Svc.Register(ctx, req, clientMeta(c))
	if err != nil {
		return respondError(l, "register_error", err)
	}

	l.Info("register_success", "user_id", res.User.ID)
	return h.respond(c, http.StatusCreated, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "login_error", err)
	}

	res, err := h.Svc.Login(ctx, req, clientMeta(c))
	if err != nil {
		return respondError(l, "login_error", err)
	}

	l.Info("login_success", "user_id", res.User.ID)
	return h.respond(c, http.StatusOK, res)
}

// Session runs behind RequireSession and echoes the resolved user.
func (h *AuthHTTP) Session(c echo.Context) error {
	user, _ := c.Get(authmw.CtxUser).(*models.User)
	session, _ := c.Get(authmw.CtxSession).(*models.Session)

	resp := echo.Map{"user": user}
	if session != nil {
		resp["expiresAt"] = session.ExpiresAt
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if err := h.Svc.Logout(ctx, authmw.BearerToken(c)); err != nil {
		l.Error("logout_error", "status", 200, "reason", "cannot revoke session", "error", err)
	}
	c.SetCookie(tokens.DeleteCookie(tokens.SessionCookie, "/", h.CookieSecure))

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}
