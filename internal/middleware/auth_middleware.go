package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ravello/domain"
	"ravello/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	ctxIdentity = "identity"
	ctxToken    = "token"
	ctxStore    = "store"
)

type TokenParser interface {
	ParseJWT(token string) (domain.Identity, error)
}

// SessionChecker reports whether a token is still registered, i.e. has not
// been logged out.
type SessionChecker interface {
	IsActive(ctx context.Context, token string) (bool, error)
}

type StoreResolver interface {
	ResolveOwnedStore(ctx context.Context, clientID uint64) (domain.Store, error)
}

// AuthMiddleware basic JWT authentication without Redis
func AuthMiddleware(parser TokenParser) echo.MiddlewareFunc {
	return AuthMiddlewareWithRedis(parser, nil)
}

// AuthMiddlewareWithRedis additionally rejects tokens that are no longer in
// the session registry. A nil checker disables that check.
func AuthMiddlewareWithRedis(parser TokenParser, sessions SessionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, fres.DefaultErrorResponse{
					Success: false,
					Status:  string(domain.KindAuthentication),
					Message: "Missing authorization header",
				})
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
				return c.JSON(http.StatusUnauthorized, fres.DefaultErrorResponse{
					Success: false,
					Status:  string(domain.KindAuthentication),
					Message: "Invalid authorization format",
				})
			}
			tokenString = strings.TrimSpace(tokenString)

			identity, err := parser.ParseJWT(tokenString)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "Token expired"
				}
				logger.Debug("Rejected token", "error", err)
				return c.JSON(http.StatusUnauthorized, fres.DefaultErrorResponse{
					Success: false,
					Status:  string(domain.KindAuthentication),
					Message: msg,
				})
			}

			if sessions != nil {
				ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
				defer cancel()

				active, err := sessions.IsActive(ctx, tokenString)
				if err != nil {
					logger.Error("Failed to check session", err)
					return c.JSON(http.StatusInternalServerError, fres.DefaultErrorResponse{
						Success: false,
						Status:  string(domain.KindDependency),
						Message: "Internal server error",
					})
				}
				if !active {
					return c.JSON(http.StatusUnauthorized, fres.DefaultErrorResponse{
						Success: false,
						Status:  string(domain.KindAuthentication),
						Message: "Session has been logged out",
					})
				}
			}

			c.Set(ctxIdentity, identity)
			c.Set(ctxToken, tokenString)

			return next(c)
		}
	}
}

// RequireStoreOwner must run after the auth middleware. It resolves the
// caller's store from the database, not from token claims, so a store opened
// after login is honoured.
func RequireStoreOwner(resolver StoreResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, fres.DefaultErrorResponse{
					Success: false,
					Status:  string(domain.KindAuthentication),
					Message: "User not authenticated",
				})
			}

			store, err := resolver.ResolveOwnedStore(c.Request().Context(), identity.ClientID)
			if err != nil {
				return WriteError(c, err)
			}

			c.Set(ctxStore, store)
			return next(c)
		}
	}
}

func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(ctxIdentity).(domain.Identity)
	return identity, ok
}

func TokenFrom(c echo.Context) string {
	token, _ := c.Get(ctxToken).(string)
	return token
}

func StoreFrom(c echo.Context) (domain.Store, bool) {
	store, ok := c.Get(ctxStore).(domain.Store)
	return store, ok
}
