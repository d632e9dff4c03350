package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/delivery"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/escrow"
)

const participantHeader = "X-Participant"

type handler struct {
	ledger escrow.Ledger
}

// New registers the escrow routes
func New(e *echo.Echo, ledger escrow.Ledger) {
	h := &handler{ledger}

	g := e.Group("/escrow")

	g.GET("/balance", h.balance)

	g.POST("/deposit", h.deposit)

	g.POST("/withdraw", h.withdraw)
}

func participant(c echo.Context) (domain.Address, bool) {
	p := domain.Address(c.Request().Header.Get(participantHeader))
	if p.IsEmpty() {
		return "", false
	}
	return p.ToLower(), true
}

func (h *handler) balance(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p, ok := participant(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing X-Participant")
	}

	if balance, err := h.ledger.Balance(ctx, p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, map[string]int64{"balance": balance})
	}
}

func (h *handler) deposit(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p, ok := participant(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing X-Participant")
	}

	type payload struct {
		Amount int64 `json:"amount" validate:"required,gt=0"`
	}
	body := &payload{}
	if err := c.Bind(body); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(body); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if balance, err := h.ledger.Deposit(ctx, p, body.Amount); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, map[string]int64{"balance": balance})
	}
}

func (h *handler) withdraw(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p, ok := participant(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "missing X-Participant")
	}

	type payload struct {
		Amount int64 `json:"amount" validate:"required,gt=0"`
	}
	body := &payload{}
	if err := c.Bind(body); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(body); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if balance, err := h.ledger.Withdraw(ctx, p, body.Amount); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, map[string]int64{"balance": balance})
	}
}
