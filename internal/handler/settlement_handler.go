package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/service"
	"go.uber.org/zap"
)

type SettlementHandler struct {
	svc service.SettlementService
	log *zap.Logger
}

func NewSettlementHandler(svc service.SettlementService, log *zap.Logger) *SettlementHandler {
	return &SettlementHandler{svc: svc, log: log}
}

func (h *SettlementHandler) Settle(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid bargain id")
	}
	var body struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	method := model.PaymentMethod(strings.ToLower(strings.TrimSpace(body.PaymentMethod)))
	if method == "" {
		method = model.PaymentMethodWallet
	}
	o, err := h.svc.Settle(c.Request().Context(), id, uid, method)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":     true,
		"message":     "Order placed",
		"bargainId":   id,
		"orderNumber": o.OrderNumber,
		"order":       toOrderResponse(o),
	})
}

func (h *SettlementHandler) AddToCart(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid bargain id")
	}
	item, err := h.svc.AddToCart(c.Request().Context(), id, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    "Added to cart at the agreed price",
		"bargainId":  id,
		"cartItemId": item.ID,
		"quantity":   item.Quantity,
		"unitPrice":  money(item.UnitPrice),
	})
}
