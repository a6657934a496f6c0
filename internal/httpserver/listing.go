package httpserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	authmw "github.com/Skotchmaster/stayfinder/internal/middleware/auth"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/service"
	"github.com/Skotchmaster/stayfinder/internal/transport"
	"github.com/Skotchmaster/stayfinder/internal/util"
)

type ListingHTTP struct {
	Svc      *service.ListingService
	Bookings *service.BookingService
}

// listingFilter reads the public listing query parameters.
func listingFilter(c echo.Context, l *slog.Logger, event string) (repo.ListingFilter, error) {
	limit, offset := util.Window(
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultLimit),
		util.ParseIntDefault(c.QueryParam("offset"), 0),
	)
	f := repo.ListingFilter{
		Search: strings.TrimSpace(c.QueryParam("search")),
		Status: c.QueryParam("status"),
		Limit:  limit,
		Offset: offset,
	}

	var err error
	if f.MinPrice, err = optionalInt64(c, "minPrice"); err != nil {
		return f, badRequest(l, event, "INVALID_FILTER", err.Error(), err)
	}
	if f.MaxPrice, err = optionalInt64(c, "maxPrice"); err != nil {
		return f, badRequest(l, event, "INVALID_FILTER", err.Error(), err)
	}
	if f.Guests, err = optionalInt(c, "guests"); err != nil {
		return f, badRequest(l, event, "INVALID_FILTER", err.Error(), err)
	}
	if f.Bedrooms, err = optionalInt(c, "bedrooms"); err != nil {
		return f, badRequest(l, event, "INVALID_FILTER", err.Error(), err)
	}
	if f.UserID, err = optionalUint(c, "userId"); err != nil {
		return f, badRequest(l, event, "INVALID_FILTER", err.Error(), err)
	}
	if raw := c.QueryParam("featured"); raw != "" {
		if f.Featured, err = strconv.ParseBool(raw); err != nil {
			return f, badRequest(l, event, "INVALID_FILTER", "featured must be true or false", err)
		}
	}
	return f, nil
}

func (h *ListingHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "listing.list")

	f, err := listingFilter(c, l, "list_listings_error")
	if err != nil {
		return err
	}

	total, items, err := h.Svc.List(ctx, f)
	if err != nil {
		return respondError(l, "list_listings_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": util.Meta(f.Limit, f.Offset, total),
	})
}

func (h *ListingHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "listing.get")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_listing_error", "INVALID_ID", "Invalid listing id", err)
	}

	listing, err := h.Svc.Get(ctx, id)
	if err != nil {
		return respondError(l, "get_listing_error", err)
	}
	return c.JSON(http.StatusOK, listing)
}

func (h *ListingHTTP) Quote(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "listing.quote")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "quote_error", "INVALID_ID", "Invalid listing id", err)
	}

	q, err := h.Bookings.Quote(ctx, id, c.QueryParam("checkIn"), c.QueryParam("checkOut"))
	if err != nil {
		return respondError(l, "quote_error", err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *ListingHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "listing.create")

	var req transport.CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "create_listing_error", err)
	}

	listing, err := h.Svc.Create(ctx, req, authmw.Caller(c).ID)
	if err != nil {
		return respondError(l, "create_listing_error", err)
	}

	l.Info("create_listing_success", "listing_id", listing.ID)
	return c.JSON(http.StatusCreated, listing)
}

func (h *ListingHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "listing.update")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "update_listing_error", "INVALID_ID", "Invalid listing id", err)
	}

	var req transport.PatchListingRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "update_listing_error", err)
	}

	listing, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return respondError(l, "update_listing_error", err)
	}

	l.Info("update_listing_success", "listing_id", listing.ID)
	return c.JSON(http.StatusOK, listing)
}

func (h *ListingHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "listing.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_listing_error", "INVALID_ID", "Invalid listing id", err)
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		return respondError(l, "delete_listing_error", err)
	}

	l.Info("delete_listing_success", "listing_id", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "Listing deleted successfully", "id": id})
}
