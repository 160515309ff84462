package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"github.com/shinyyama/bargain-backend/internal/reqctx"
	"github.com/shinyyama/bargain-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{fmt.Errorf("%w: price must be positive", service.ErrValidation), http.StatusBadRequest, "validation_error", "price must be positive"},
		{service.ErrForbidden, http.StatusForbidden, "forbidden", "forbidden"},
		{fmt.Errorf("%w: bargain not found", service.ErrNotFound), http.StatusNotFound, "not_found", "bargain not found"},
		{service.ErrInvalidState, http.StatusConflict, "invalid_state", "invalid state"},
		{service.ErrInsufficientStock, http.StatusConflict, "insufficient_stock", "insufficient stock"},
		{service.ErrInsufficientBalance, http.StatusPaymentRequired, "insufficient_balance", "insufficient balance"},
		{repository.ErrDBNotReady, http.StatusServiceUnavailable, "unavailable", "database is starting, retry shortly"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error", "something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, writeError(c, zap.NewNop(), tt.err))
			assert.Equal(t, tt.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.msg, body.Error.Message)
		})
	}
}

func TestWriteErrorLogsRequestCaller(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := reqctx.WithUID(reqctx.WithRequestID(req.Context(), "rid-1"), "user-42")
	c := e.NewContext(req.WithContext(ctx), rec)

	require.NoError(t, writeError(c, zap.New(core), errors.New("disk on fire")))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "user-42", fields["uid"])
	assert.Equal(t, "rid-1", fields["request_id"])

	// mapped errors are the caller's fault and stay out of the error log
	c = e.NewContext(req.WithContext(ctx), httptest.NewRecorder())
	require.NoError(t, writeError(c, zap.New(core), service.ErrForbidden))
	assert.Equal(t, 1, logs.Len())
}

func TestErrorResponseAlwaysCarriesSuccessFalse(t *testing.T) {
	raw, err := json.Marshal(NewErrorResponse("not_found", "bargain not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"not_found","message":"bargain not found"}}`, string(raw))
}

func TestRawAmount(t *testing.T) {
	assert.Equal(t, "900", rawAmount(json.RawMessage(`900`)))
	assert.Equal(t, "900.50", rawAmount(json.RawMessage(`"900.50"`)))
	assert.Equal(t, "", rawAmount(json.RawMessage(`null`)))
	assert.Equal(t, "", rawAmount(nil))
}
