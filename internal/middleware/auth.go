package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/reqctx"
)

// DevUserHeader carries the caller uid when the development fallback is on.
const DevUserHeader = "X-User-ID"

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthMiddleware struct {
	verifier  tokenVerifier
	devHeader bool
}

// NewAuthMiddleware builds the Firebase verifier. With devHeader set the
// project id may be empty and X-User-ID is trusted as the caller.
func NewAuthMiddleware(ctx context.Context, projectID string, devHeader bool) (*AuthMiddleware, error) {
	m := &AuthMiddleware{devHeader: devHeader}
	if projectID == "" {
		if !devHeader {
			return nil, errors.New("FIREBASE_PROJECT_ID is not set")
		}
		return m, nil
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	m.verifier = client
	return m, nil
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, code := m.resolve(c)
		if uid == "" {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"error":   map[string]string{"code": code, "message": "authentication required"},
			})
		}
		c.Set("uid", uid)
		req := c.Request()
		c.SetRequest(req.WithContext(reqctx.WithUID(req.Context(), uid)))
		return next(c)
	}
}

func (m *AuthMiddleware) resolve(c echo.Context) (string, string) {
	authz := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") && m.verifier != nil {
		token, err := m.verifier.VerifyIDToken(c.Request().Context(), strings.TrimPrefix(authz, "Bearer "))
		if err != nil {
			return "", "invalid_token"
		}
		return token.UID, ""
	}
	if m.devHeader {
		if uid := strings.TrimSpace(c.Request().Header.Get(DevUserHeader)); uid != "" {
			return uid, ""
		}
	}
	return "", "unauthorized"
}
