package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"github.com/shinyyama/bargain-backend/internal/reqctx"
	"github.com/shinyyama/bargain-backend/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// errorKinds maps service sentinels to their wire code and status, most specific first.
var errorKinds = []struct {
	kind   error
	code   string
	status int
}{
	{service.ErrValidation, "validation_error", http.StatusBadRequest},
	{service.ErrForbidden, "forbidden", http.StatusForbidden},
	{service.ErrNotFound, "not_found", http.StatusNotFound},
	{service.ErrInsufficientStock, "insufficient_stock", http.StatusConflict},
	{service.ErrInsufficientBalance, "insufficient_balance", http.StatusPaymentRequired},
	{service.ErrInvalidState, "invalid_state", http.StatusConflict},
}

// writeError renders a service error. Unknown errors are logged and hidden behind internal_error.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return c.JSON(k.status, NewErrorResponse(k.code, service.Message(err)))
		}
	}
	if errors.Is(err, repository.ErrDBNotReady) {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", "database is starting, retry shortly"))
	}
	ctx := c.Request().Context()
	log.Error("request failed",
		zap.String("request_id", reqctx.RequestID(ctx)),
		zap.String("uid", reqctx.UID(ctx)),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "something went wrong"))
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("validation_error", msg))
}

func currentUID(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money(*d)
	return &s
}
