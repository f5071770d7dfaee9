package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/paysync/internal/application/identity"
	"github.com/erp/paysync/internal/domain/shared"
	"github.com/erp/paysync/internal/infrastructure/logger"
	"github.com/erp/paysync/internal/interfaces/http/dto"
)

// Auth context keys
const (
	PrincipalKey  = "auth_principal"
	UsernameKey   = "auth_username"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator resolves an API token to its principal
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*identity.Principal, error)
}

// BearerToken extracts the token from an Authorization header, or "" when absent
func BearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
}

// TokenAuth rejects requests without a valid issued token
func TokenAuth(validator TokenValidator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing bearer token")
			return
		}

		principal, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			log.Warn("Token authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			code, msg := dto.ErrCodeTokenInvalid, "Invalid token"
			if errors.Is(err, shared.ErrTokenExpired) {
				code, msg = dto.ErrCodeTokenExpired, "Token has expired"
			}
			abortUnauthorized(c, code, msg)
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// SetPrincipal stores an authenticated principal on the request
func SetPrincipal(c *gin.Context, p *identity.Principal) {
	c.Set(PrincipalKey, p)
	c.Set(UsernameKey, p.Username)
	c.Request = c.Request.WithContext(logger.WithUsername(c.Request.Context(), p.Username))
}

// GetPrincipal returns the authenticated principal, or nil
func GetPrincipal(c *gin.Context) *identity.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*identity.Principal); ok {
			return p
		}
	}
	return nil
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
