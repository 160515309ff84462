package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BargainHandler struct {
	svc    service.BargainService
	notify service.NotificationService
	log    *zap.Logger
}

func NewBargainHandler(svc service.BargainService, notify service.NotificationService, log *zap.Logger) *BargainHandler {
	return &BargainHandler{svc: svc, notify: notify, log: log}
}

type BargainResponse struct {
	ID                 uint64  `json:"id"`
	ProductID          uint64  `json:"productId"`
	BuyerUID           string  `json:"buyerUid"`
	SellerUID          string  `json:"sellerUid"`
	OriginalPrice      string  `json:"originalPrice"`
	RequestedPrice     string  `json:"requestedPrice"`
	CurrentOffer       *string `json:"currentOffer"`
	EffectivePrice     string  `json:"effectivePrice"`
	DiscountPercentage string  `json:"discountPercentage"`
	Quantity           int     `json:"quantity"`
	Status             string  `json:"status"`
	Message            string  `json:"message"`
	ExpiresAt          *string `json:"expiresAt,omitempty"`
	RespondedAt        *string `json:"respondedAt,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

func toBargainResponse(b *model.BargainRequest) BargainResponse {
	return BargainResponse{
		ID:                 b.ID,
		ProductID:          b.ProductID,
		BuyerUID:           b.BuyerUID,
		SellerUID:          b.SellerUID,
		OriginalPrice:      money(b.OriginalPrice),
		RequestedPrice:     money(b.RequestedPrice),
		CurrentOffer:       moneyPtr(b.CurrentOffer),
		EffectivePrice:     money(b.EffectivePrice()),
		DiscountPercentage: b.DiscountPercentage().StringFixed(2),
		Quantity:           b.Quantity,
		Status:             string(b.Status),
		Message:            b.Message,
		ExpiresAt:          formatTimePtr(b.ExpiresAt),
		RespondedAt:        formatTimePtr(b.RespondedAt),
		CreatedAt:          formatTime(b.CreatedAt),
		UpdatedAt:          formatTime(b.UpdatedAt),
	}
}

type BargainMessageResponse struct {
	ID             uint64  `json:"id"`
	SenderUID      string  `json:"senderUid,omitempty"`
	Body           string  `json:"body"`
	OfferedPrice   *string `json:"offeredPrice,omitempty"`
	IsCounterOffer bool    `json:"isCounterOffer"`
	IsSystem       bool    `json:"isSystem"`
	CreatedAt      string  `json:"createdAt"`
}

func toBargainMessageResponse(m *model.BargainMessage) BargainMessageResponse {
	return BargainMessageResponse{
		ID:             m.ID,
		SenderUID:      m.SenderUID,
		Body:           m.Body,
		OfferedPrice:   moneyPtr(m.OfferedPrice),
		IsCounterOffer: m.IsCounterOffer,
		IsSystem:       m.IsSystem,
		CreatedAt:      formatTime(m.CreatedAt),
	}
}

type BargainDetailResponse struct {
	Bargain       BargainResponse          `json:"bargain"`
	Product       *ProductResponse         `json:"product,omitempty"`
	Messages      []BargainMessageResponse `json:"messages"`
	OriginalTotal string                   `json:"originalTotal"`
	CurrentTotal  string                   `json:"currentTotal"`
	Savings       string                   `json:"savings"`
	IsExpired     bool                     `json:"isExpired"`
}

type createBargainRequest struct {
	ProductID    uint64          `json:"productId"`
	OfferedPrice decimal.Decimal `json:"offeredPrice"`
	Quantity     int             `json:"quantity"`
	Message      string          `json:"message"`
}

func (h *BargainHandler) Create(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body createBargainRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.ProductID == 0 {
		return badRequest(c, "productId is required")
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}
	b, err := h.svc.Create(c.Request().Context(), service.CreateBargainInput{
		BuyerUID:     uid,
		ProductID:    body.ProductID,
		OfferedPrice: body.OfferedPrice,
		Quantity:     body.Quantity,
		Message:      body.Message,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":   true,
		"message":   "Bargain request sent",
		"bargainId": b.ID,
		"bargain":   toBargainResponse(b),
	})
}

type respondBargainRequest struct {
	Action       string          `json:"action"`
	CounterOffer json.RawMessage `json:"counterOffer"`
	Message      string          `json:"message"`
}

// rawAmount accepts the amount either as a JSON number or as a quoted string.
func rawAmount(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}

func (h *BargainHandler) Respond(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid bargain id")
	}
	var body respondBargainRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	b, err := h.svc.Respond(c.Request().Context(), service.RespondInput{
		BargainID:    id,
		ActorUID:     uid,
		Action:       service.RespondAction(strings.ToLower(strings.TrimSpace(body.Action))),
		CounterOffer: rawAmount(body.CounterOffer),
		Message:      body.Message,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Bargain " + string(b.Status),
		"bargainId": b.ID,
		"status":    string(b.Status),
		"bargain":   toBargainResponse(b),
	})
}

func (h *BargainHandler) AddMessage(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid bargain id")
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	m, err := h.svc.AddMessage(c.Request().Context(), id, uid, body.Message)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":   true,
		"message":   "Message sent",
		"messageId": m.ID,
		"data":      toBargainMessageResponse(m),
	})
}

func (h *BargainHandler) Get(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid bargain id")
	}
	d, err := h.svc.Get(c.Request().Context(), id, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if h.notify != nil {
		_ = h.notify.MarkByBargain(c.Request().Context(), uid, id)
	}
	resp := BargainDetailResponse{
		Bargain:       toBargainResponse(&d.Bargain),
		Messages:      make([]BargainMessageResponse, 0, len(d.Messages)),
		OriginalTotal: money(d.OriginalTotal),
		CurrentTotal:  money(d.CurrentTotal),
		Savings:       money(d.Savings),
		IsExpired:     d.IsExpired,
	}
	if d.Product != nil {
		p := toProductResponse(d.Product)
		resp.Product = &p
	}
	for i := range d.Messages {
		resp.Messages = append(resp.Messages, toBargainMessageResponse(&d.Messages[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BargainHandler) ListMine(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.ListByBuyer(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toBargainResponses(list))
}

func (h *BargainHandler) ListReceived(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.ListBySeller(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toBargainResponses(list))
}

func toBargainResponses(list []model.BargainRequest) []BargainResponse {
	resp := make([]BargainResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toBargainResponse(&list[i]))
	}
	return resp
}
