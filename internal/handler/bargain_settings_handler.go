package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BargainSettingsHandler struct {
	svc service.BargainSettingsService
	log *zap.Logger
}

func NewBargainSettingsHandler(svc service.BargainSettingsService, log *zap.Logger) *BargainSettingsHandler {
	return &BargainSettingsHandler{svc: svc, log: log}
}

type BargainSettingsResponse struct {
	EnableAutoAccept         bool    `json:"enableAutoAccept"`
	AutoAcceptThreshold      *string `json:"autoAcceptThreshold"`
	EnableAutoReject         bool    `json:"enableAutoReject"`
	AutoRejectThreshold      *string `json:"autoRejectThreshold"`
	EnableAutoCounter        bool    `json:"enableAutoCounter"`
	CounterOfferPercentage   *string `json:"counterOfferPercentage"`
	DefaultResponseTimeHours int     `json:"defaultResponseTimeHours"`
}

func toBargainSettingsResponse(s *model.BargainSettings) BargainSettingsResponse {
	return BargainSettingsResponse{
		EnableAutoAccept:         s.EnableAutoAccept,
		AutoAcceptThreshold:      moneyPtr(s.AutoAcceptThreshold),
		EnableAutoReject:         s.EnableAutoReject,
		AutoRejectThreshold:      moneyPtr(s.AutoRejectThreshold),
		EnableAutoCounter:        s.EnableAutoCounter,
		CounterOfferPercentage:   moneyPtr(s.CounterOfferPercentage),
		DefaultResponseTimeHours: s.DefaultResponseTimeHours,
	}
}

type updateBargainSettingsRequest struct {
	EnableAutoAccept         *bool            `json:"enableAutoAccept"`
	AutoAcceptThreshold      *decimal.Decimal `json:"autoAcceptThreshold"`
	EnableAutoReject         *bool            `json:"enableAutoReject"`
	AutoRejectThreshold      *decimal.Decimal `json:"autoRejectThreshold"`
	EnableAutoCounter        *bool            `json:"enableAutoCounter"`
	CounterOfferPercentage   *decimal.Decimal `json:"counterOfferPercentage"`
	DefaultResponseTimeHours *int             `json:"defaultResponseTimeHours"`
}

func (h *BargainSettingsHandler) Get(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	st, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toBargainSettingsResponse(st))
}

func (h *BargainSettingsHandler) Update(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body updateBargainSettingsRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	st, err := h.svc.Update(c.Request().Context(), uid, service.BargainSettingsInput{
		EnableAutoAccept:         body.EnableAutoAccept,
		AutoAcceptThreshold:      body.AutoAcceptThreshold,
		EnableAutoReject:         body.EnableAutoReject,
		AutoRejectThreshold:      body.AutoRejectThreshold,
		EnableAutoCounter:        body.EnableAutoCounter,
		CounterOfferPercentage:   body.CounterOfferPercentage,
		DefaultResponseTimeHours: body.DefaultResponseTimeHours,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Bargain settings saved",
		"settings": toBargainSettingsResponse(st),
	})
}
