package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/reqctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	uid, ok := f[idToken]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: uid}, nil
}

func serve(t *testing.T, m *AuthMiddleware, headers map[string]string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	var seen string
	e.Use(RequestID())
	e.GET("/me", func(c echo.Context) error {
		seen = reqctx.UID(c.Request().Context())
		assert.NotEmpty(t, reqctx.RequestID(c.Request().Context()))
		return c.String(http.StatusOK, c.Get("uid").(string))
	}, m.RequireAuth)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestRequireAuthWithToken(t *testing.T) {
	m := &AuthMiddleware{verifier: fakeVerifier{"good": "user-1"}}

	rec, seen := serve(t, m, map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
	assert.Equal(t, "user-1", seen)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec, _ = serve(t, m, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")

	rec, _ = serve(t, m, map[string]string{DevUserHeader: "user-2"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "dev header is ignored unless enabled")
}

func TestRequireAuthDevHeader(t *testing.T) {
	m, err := NewAuthMiddleware(context.Background(), "", true)
	require.NoError(t, err)

	rec, seen := serve(t, m, map[string]string{DevUserHeader: " buyer-7 "})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "buyer-7", seen)

	rec, _ = serve(t, m, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewAuthMiddlewareNeedsProject(t *testing.T) {
	_, err := NewAuthMiddleware(context.Background(), "", false)
	assert.Error(t, err)
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(RequestID(), RequestLogger(zap.NewNop()))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
