package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	authmw "github.com/Skotchmaster/stayfinder/internal/middleware/auth"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/service"
	"github.com/Skotchmaster/stayfinder/internal/transport"
	"github.com/Skotchmaster/stayfinder/internal/util"
)

type BookingHTTP struct {
	Svc *service.BookingService
}

func (h *BookingHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "booking.create")

	var req transport.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "create_booking_error", err)
	}

	b, tx, err := h.Svc.Create(ctx, req, authmw.Caller(c))
	if err != nil {
		return respondError(l, "create_booking_error", err)
	}

	l.Info("create_booking_success", "booking_id", b.ID, "status", b.Status)
	return c.JSON(http.StatusCreated, transport.BookingResponse{Booking: b, Transaction: tx})
}

func (h *BookingHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "booking.list")

	limit, offset := util.Window(
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultLimit),
		util.ParseIntDefault(c.QueryParam("offset"), 0),
	)
	f := repo.BookingFilter{Status: c.QueryParam("status"), Limit: limit, Offset: offset}

	var err error
	if f.UserID, err = optionalUint(c, "userId"); err != nil {
		return badRequest(l, "list_bookings_error", "INVALID_USER_ID", "Invalid user id", err)
	}
	if f.ListingID, err = optionalUint(c, "listingId"); err != nil {
		return badRequest(l, "list_bookings_error", "INVALID_LISTING_ID", "Invalid listing id", err)
	}

	total, items, err := h.Svc.List(ctx, f, authmw.Caller(c))
	if err != nil {
		return respondError(l, "list_bookings_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": util.Meta(f.Limit, f.Offset, total),
	})
}

func (h *BookingHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "booking.get")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_booking_error", "INVALID_ID", "Invalid booking id", err)
	}

	b, err := h.Svc.Get(ctx, id, authmw.Caller(c))
	if err != nil {
		return respondError(l, "get_booking_error", err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BookingHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "booking.update_status")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "update_booking_error", "INVALID_ID", "Invalid booking id", err)
	}

	var req transport.UpdateBookingRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "update_booking_error", err)
	}

	b, tx, err := h.Svc.UpdateStatus(ctx, id, req.Status, authmw.Caller(c))
	if err != nil {
		return respondError(l, "update_booking_error", err)
	}

	l.Info("update_booking_success", "booking_id", b.ID, "status", b.Status)
	return c.JSON(http.StatusOK, transport.BookingResponse{Booking: b, Transaction: tx})
}

func (h *BookingHTTP) Refund(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "booking.refund")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "refund_booking_error", "INVALID_ID", "Invalid booking id", err)
	}

	b, tx, err := h.Svc.Refund(ctx, id, authmw.Caller(c))
	if err != nil {
		return respondError(l, "refund_booking_error", err)
	}

	l.Info("refund_booking_success", "booking_id", b.ID, "amount", tx.Amount)
	return c.JSON(http.StatusOK, transport.BookingResponse{Booking: b, Transaction: tx})
}
