//go:build !integration

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ravello/domain"
	"ravello/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	active map[string]bool
	err    error
}

func (s stubSessions) IsActive(ctx context.Context, token string) (bool, error) {
	return s.active[token], s.err
}

type stubResolver map[uint64]domain.Store

func (s stubResolver) ResolveOwnedStore(ctx context.Context, clientID uint64) (domain.Store, error) {
	store, ok := s[clientID]
	if !ok {
		return domain.Store{}, domain.NewAuthorizationError("access denied: store not found")
	}
	return store, nil
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func serve(t *testing.T, mw []echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/me", func(c echo.Context) error {
		identity, _ := IdentityFrom(c)
		store, _ := StoreFrom(c)
		return c.JSON(http.StatusOK, map[string]any{
			"client_id": identity.ClientID,
			"store_id":  store.StoreID,
			"token":     TokenFrom(c),
		})
	}, mw...)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body envelope
	if rec.Code != http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	expired, err := utils.NewTokenIssuer("secret", -time.Minute).GenerateJWT(domain.Identity{ClientID: 1})
	require.NoError(t, err)
	foreign, err := utils.NewTokenIssuer("other", time.Hour).GenerateJWT(domain.Identity{ClientID: 1})
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "Missing authorization header"},
		{"wrong scheme", "Basic abc", "Invalid authorization format"},
		{"empty token", "Bearer ", "Invalid authorization format"},
		{"garbage", "Bearer not-a-jwt", "Invalid token"},
		{"foreign secret", "Bearer " + foreign, "Invalid token"},
		{"expired", "Bearer " + expired, "Token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serve(t, []echo.MiddlewareFunc{AuthMiddleware(issuer)}, tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, body.Success)
			assert.Equal(t, "UNAUTHORIZED", body.Status)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestAuthMiddleware_AcceptsValidToken(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.GenerateJWT(domain.Identity{ClientID: 42, Email: "a@example.com"})
	require.NoError(t, err)

	rec, _ := serve(t, []echo.MiddlewareFunc{AuthMiddleware(issuer)}, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 42, got["client_id"])
	assert.Equal(t, token, got["token"])
}

func TestAuthMiddlewareWithRedis(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.GenerateJWT(domain.Identity{ClientID: 7})
	require.NoError(t, err)

	rec, body := serve(t, []echo.MiddlewareFunc{AuthMiddlewareWithRedis(issuer, stubSessions{})}, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Session has been logged out", body.Message)

	rec, _ = serve(t, []echo.MiddlewareFunc{AuthMiddlewareWithRedis(issuer, stubSessions{active: map[string]bool{token: true}})}, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = serve(t, []echo.MiddlewareFunc{AuthMiddlewareWithRedis(issuer, stubSessions{err: errors.New("dial tcp")})}, "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body.Message)
}

func TestRequireStoreOwner(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	resolver := stubResolver{1: {StoreID: 5, ClientID: 1}}
	chain := []echo.MiddlewareFunc{AuthMiddleware(issuer), RequireStoreOwner(resolver)}

	owner, err := issuer.GenerateJWT(domain.Identity{ClientID: 1})
	require.NoError(t, err)
	rec, _ := serve(t, chain, "Bearer "+owner)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 5, got["store_id"])

	buyer, err := issuer.GenerateJWT(domain.Identity{ClientID: 2})
	require.NoError(t, err)
	rec, body := serve(t, chain, "Bearer "+buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", body.Status)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{domain.NewValidationError("bad"), http.StatusBadRequest, "bad"},
		{domain.NewInsufficientStockError(3, 0), http.StatusBadRequest, "insufficient stock for product 3, remaining 0"},
		{domain.NewNotFoundError("gone"), http.StatusNotFound, "gone"},
		{domain.NewConflictError("dup"), http.StatusConflict, "dup"},
		{domain.NewStorageError("failed to save order", errors.New("pq: secret detail")), http.StatusInternalServerError, "Internal server error"},
		{errors.New("raw"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		status, _, msg := StatusOf(tt.err)
		assert.Equal(t, tt.status, status)
		assert.Equal(t, tt.message, msg)
	}
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", body.Status)
	assert.False(t, body.Success)
}
