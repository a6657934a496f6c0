package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	authmw "github.com/Skotchmaster/stayfinder/internal/middleware/auth"
	"github.com/Skotchmaster/stayfinder/internal/repo"
)

type Deps struct {
	Repo    *repo.GormRepo
	Session *authmw.SessionAuth

	AuthHandler    *AuthHTTP
	ListingHandler *ListingHTTP
	BookingHandler *BookingHTTP
	LedgerHandler  *LedgerHTTP
	ProfileHandler *ProfileHTTP
	AdminHandler   *AdminHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := d.Repo.Ping(c.Request().Context()); err != nil {
			logging.FromContext(c.Request().Context()).Error("readiness_error", "status", 503, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")
	signedIn := d.Session.RequireSession
	staff := authmw.RequireStaff()

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/session", d.AuthHandler.Session, signedIn)

	listings := api.Group("/listings")
	listings.GET("", d.ListingHandler.List)
	listings.GET("/:id", d.ListingHandler.Get)
	listings.GET("/:id/quote", d.ListingHandler.Quote)
	listings.POST("", d.ListingHandler.Create, signedIn, staff)
	listings.PUT("/:id", d.ListingHandler.Update, signedIn, staff)
	listings.DELETE("/:id", d.ListingHandler.Delete, signedIn, staff)

	bookings := api.Group("/bookings", signedIn)
	bookings.GET("", d.BookingHandler.List)
	bookings.POST("", d.BookingHandler.Create)
	bookings.GET("/:id", d.BookingHandler.Get)
	bookings.PUT("/:id", d.BookingHandler.UpdateStatus)
	bookings.POST("/:id/refund", d.BookingHandler.Refund)

	ledger := api.Group("/transactions", signedIn)
	ledger.GET("", d.LedgerHandler.List)
	ledger.POST("", d.LedgerHandler.Create, staff)

	profile := api.Group("/profile", signedIn)
	profile.GET("", d.ProfileHandler.Get)
	profile.PUT("", d.ProfileHandler.Update)

	admin := api.Group("/admin", signedIn, staff)
	admin.GET("/users", d.AdminHandler.ListUsers)
	admin.GET("/listings", d.AdminHandler.ListListings)
	admin.GET("/stats", d.AdminHandler.Stats)

	// Role changes answer non-managers with their own error code.
	api.PUT("/admin/users/:id/role", d.AdminHandler.ChangeRole, signedIn)
}
