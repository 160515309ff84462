package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/service"
	"go.uber.org/zap"
)

type OrderHandler struct {
	svc service.OrderService
	log *zap.Logger
}

func NewOrderHandler(svc service.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

type OrderItemResponse struct {
	ProductID   uint64 `json:"productId"`
	SellerUID   string `json:"sellerUid"`
	Quantity    int    `json:"quantity"`
	PriceAtTime string `json:"priceAtTime"`
	TotalPrice  string `json:"totalPrice"`
}

type PaymentResponse struct {
	Method        string `json:"method"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

type OrderResponse struct {
	OrderNumber     string              `json:"orderNumber"`
	BuyerUID        string              `json:"buyerUid"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"paymentStatus"`
	Subtotal        string              `json:"subtotal"`
	TotalAmount     string              `json:"totalAmount"`
	BargainID       *uint64             `json:"bargainId,omitempty"`
	ShippingName    string              `json:"shippingName"`
	ShippingAddress string              `json:"shippingAddress"`
	ShippingCity    string              `json:"shippingCity"`
	ShippingCountry string              `json:"shippingCountry"`
	Items           []OrderItemResponse `json:"items"`
	Payment         *PaymentResponse    `json:"payment,omitempty"`
	ConfirmedAt     *string             `json:"confirmedAt,omitempty"`
	CreatedAt       string              `json:"createdAt"`
}

func toOrderResponse(o *model.Order) OrderResponse {
	resp := OrderResponse{
		OrderNumber:     o.OrderNumber,
		BuyerUID:        o.BuyerUID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Subtotal:        money(o.Subtotal),
		TotalAmount:     money(o.TotalAmount),
		BargainID:       o.BargainID,
		ShippingName:    o.ShippingName,
		ShippingAddress: o.ShippingAddress,
		ShippingCity:    o.ShippingCity,
		ShippingCountry: o.ShippingCountry,
		Items:           make([]OrderItemResponse, 0, len(o.Items)),
		ConfirmedAt:     formatTimePtr(o.ConfirmedAt),
		CreatedAt:       formatTime(o.CreatedAt),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:   it.ProductID,
			SellerUID:   it.SellerUID,
			Quantity:    it.Quantity,
			PriceAtTime: money(it.PriceAtTime),
			TotalPrice:  money(it.TotalPrice),
		})
	}
	if o.Payment != nil {
		resp.Payment = &PaymentResponse{
			Method:        string(o.Payment.Method),
			Amount:        money(o.Payment.Amount),
			Status:        string(o.Payment.Status),
			TransactionID: o.Payment.TransactionID,
		}
	}
	return resp
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.ListByBuyer(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOrderResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) Get(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	o, err := h.svc.Get(c.Request().Context(), c.Param("number"), uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) Process(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	o, err := h.svc.Process(c.Request().Context(), c.Param("number"), uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Order is being processed",
		"orderNumber": o.OrderNumber,
		"status":      string(o.Status),
	})
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	o, err := h.svc.Cancel(c.Request().Context(), c.Param("number"), uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       "Order cancelled",
		"orderNumber":   o.OrderNumber,
		"status":        string(o.Status),
		"paymentStatus": string(o.PaymentStatus),
	})
}
