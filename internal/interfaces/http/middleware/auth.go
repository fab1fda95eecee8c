package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cordon-zt/cordon/internal/domain/token"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/constants"
	"github.com/cordon-zt/cordon/internal/shared/logger"
	"github.com/cordon-zt/cordon/internal/shared/utils"
)

// AuthMiddleware authenticates requests against the token service and puts
// the resulting subject in the request context.
type AuthMiddleware struct {
	verifier token.Verifier
	logger   logger.Interface
}

func NewAuthMiddleware(verifier token.Verifier, log logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   log,
	}
}

// RequireAuth verifies the bearer token and rejects credentials whose type
// does not match the surface they were presented on. A browser token cannot
// open a gateway session and vice versa.
func (m *AuthMiddleware) RequireAuth(expected token.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		encoded := bearerToken(c)
		if encoded == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		tctx := token.Context{
			RemoteIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Type:      expected,
		}

		claims, err := m.verifier.VerifyToken(c.Request.Context(), encoded, tctx)
		if err != nil {
			m.logger.Warnw("failed to verify token", "error", err, "ip", c.ClientIP())
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeySubject, authorization.Subject{
			AccountID: claims.AccountID,
			ActorID:   claims.ActorID,
			TokenID:   claims.TokenID,
			ExpiresAt: claims.ExpiresAt,
			Context:   tctx,
		})

		c.Next()
	}
}

// SubjectFrom extracts the authenticated subject placed by RequireAuth.
func SubjectFrom(c *gin.Context) (authorization.Subject, bool) {
	val, exists := c.Get(constants.ContextKeySubject)
	if !exists {
		return authorization.Subject{}, false
	}
	subject, ok := val.(authorization.Subject)
	return subject, ok
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	// Websocket clients cannot set headers from browsers; they pass the
	// token as a query parameter instead.
	return c.Query("token")
}
