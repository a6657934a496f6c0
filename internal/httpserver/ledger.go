package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stayfinder/internal/logging"
	authmw "github.com/Skotchmaster/stayfinder/internal/middleware/auth"
	"github.com/Skotchmaster/stayfinder/internal/service"
	"github.com/Skotchmaster/stayfinder/internal/transport"
	"github.com/Skotchmaster/stayfinder/internal/util"
)

type LedgerHTTP struct {
	Svc *service.LedgerService
}

func (h *LedgerHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ledger.list")

	userID, err := optionalUint(c, "userId")
	if err != nil {
		return badRequest(l, "list_transactions_error", "INVALID_USER_ID", "Invalid user id", err)
	}
	limit, offset := util.Window(
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultLimit),
		util.ParseIntDefault(c.QueryParam("offset"), 0),
	)

	page, err := h.Svc.List(ctx, userID, limit, offset, authmw.Caller(c))
	if err != nil {
		return respondError(l, "list_transactions_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":    page.Items,
		"balance": page.Balance,
		"meta":    util.Meta(limit, offset, page.Total),
	})
}

func (h *LedgerHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ledger.create")

	var req transport.CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(l, "create_transaction_error", err)
	}

	t, err := h.Svc.Create(ctx, req)
	if err != nil {
		return respondError(l, "create_transaction_error", err)
	}

	l.Info("create_transaction_success", "transaction_id", t.ID, "amount", t.Amount)
	return c.JSON(http.StatusCreated, t)
}
