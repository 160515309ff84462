package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WalletHandler struct {
	svc service.WalletService
	log *zap.Logger
}

func NewWalletHandler(svc service.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{svc: svc, log: log}
}

type WalletEntryResponse struct {
	ID           uint64  `json:"id"`
	Amount       string  `json:"amount"`
	BalanceAfter string  `json:"balanceAfter"`
	Reason       string  `json:"reason"`
	OrderID      *uint64 `json:"orderId,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

func toWalletEntryResponse(e *model.WalletEntry) WalletEntryResponse {
	return WalletEntryResponse{
		ID:           e.ID,
		Amount:       money(e.Amount),
		BalanceAfter: money(e.BalanceAfter),
		Reason:       string(e.Reason),
		OrderID:      e.OrderID,
		CreatedAt:    formatTime(e.CreatedAt),
	}
}

func (h *WalletHandler) Get(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	ctx := c.Request().Context()
	balance, err := h.svc.Balance(ctx, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.svc.Entries(ctx, uid, limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	resp := make([]WalletEntryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, toWalletEntryResponse(&entries[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"balance": money(balance),
		"entries": resp,
	})
}

func (h *WalletHandler) Deposit(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid amount")
	}
	e, err := h.svc.Deposit(c.Request().Context(), uid, body.Amount)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Funds added",
		"entryId": e.ID,
		"balance": money(e.BalanceAfter),
	})
}
