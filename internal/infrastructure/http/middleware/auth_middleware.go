package middleware

import (
	stdErrors "errors"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/interview-analyzer/errors"
	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/pkg/jwt"
)

// Echo context keys set by EchoAuth
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
	ContextKeyEmail  = "email"
)

// TokenValidator parses a bearer token
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// EchoAuth returns an Echo middleware that validates the bearer JWT and sets
// "user_id" (uuid.UUID), "role" (entities.UserRole) and "email" into Echo context
func EchoAuth(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return errors.ErrUnauthenticated()
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				if stdErrors.Is(err, jwt.ErrTokenExpired) {
					return errors.ErrTokenExpired()
				}
				return errors.ErrInvalidToken()
			}

			role := entities.UserRole(claims.Role)
			if !role.IsValid() {
				return errors.ErrInvalidToken()
			}

			c.Set(ContextKeyUserID, claims.UserID)
			c.Set(ContextKeyRole, role)
			c.Set(ContextKeyEmail, claims.Email)

			return next(c)
		}
	}
}

// RequireRole rejects callers whose role is not listed
func RequireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, role, ok := CurrentUser(c)
			if !ok {
				return errors.ErrUnauthenticated()
			}
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return errors.ErrPermissionDenied("insufficient role")
		}
	}
}

// CurrentUser reads the authenticated caller from Echo context
func CurrentUser(c echo.Context) (uuid.UUID, entities.UserRole, bool) {
	userID, ok := c.Get(ContextKeyUserID).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, "", false
	}
	role, _ := c.Get(ContextKeyRole).(entities.UserRole)
	return userID, role, true
}

func extractToken(c echo.Context) string {
	// Try Authorization header first
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Try cookie as fallback
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}

	return ""
}
