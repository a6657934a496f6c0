package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/service"
	"github.com/Skotchmaster/stayfinder/internal/tokens"
)

const (
	CtxUserID  = "user_id"
	CtxRole    = "role"
	CtxUser    = "user"
	CtxSession = "session"
)

type SessionAuth struct {
	Svc          *service.AuthService
	CookieSecure bool
}

// BearerToken reads the session token from the Authorization header, then the cookie.
func BearerToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if ck, err := c.Cookie(tokens.SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

func (m *SessionAuth) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "require_session")

		user, session, err := m.Svc.Authenticate(ctx, BearerToken(c))
		if err != nil {
			var se *service.Error
			if !errors.As(err, &se) {
				l.Error("auth_error", "status", 500, "reason", "cannot load session", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, echo.Map{"error": "Internal server error", "code": "INTERNAL_ERROR"})
			}
			if _, cerr := c.Cookie(tokens.SessionCookie); cerr == nil {
				c.SetCookie(tokens.DeleteCookie(tokens.SessionCookie, "/", m.CookieSecure))
			}
			status := http.StatusUnauthorized
			if errors.Is(err, service.ErrNotFound) {
				status = http.StatusNotFound
			}
			l.Warn("auth_error", "status", status, "reason", se.Code)
			return echo.NewHTTPError(status, echo.Map{"error": se.Msg, "code": se.Code})
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxRole, user.Role)
		c.Set(CtxUser, user)
		c.Set(CtxSession, session)

		l = logging.FromContext(ctx).With("user_id", user.ID, "role", user.Role)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
		return next(c)
	}
}

// RequireRole must run after RequireSession.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			logging.FromContext(c.Request().Context()).Warn("auth_error", "status", 403, "reason", "role not allowed", "role", role)
			return echo.NewHTTPError(http.StatusForbidden, echo.Map{"error": "Insufficient permissions", "code": "FORBIDDEN"})
		}
	}
}

func RequireStaff() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin, models.RoleManager)
}

func Caller(c echo.Context) service.Caller {
	id, _ := c.Get(CtxUserID).(uint)
	role, _ := c.Get(CtxRole).(string)
	return service.Caller{ID: id, Role: role}
}
