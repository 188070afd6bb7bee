package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/servimatch/skilltest-backend/internal/response"
	"github.com/servimatch/skilltest-backend/internal/service"
)

// ContextKeyClaims is the gin context key holding validated JWT claims.
const ContextKeyClaims = "jwt_claims"

// RequireProviderJWT validates the Bearer token and ensures the caller is
// a provider. Claims are stored in the request context for handlers.
func RequireProviderJWT(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		if claims.Role != service.RoleProvider {
			response.AbortFail(c, http.StatusForbidden, response.ErrProviderAccessOnly)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireProviderWSAuth authenticates WebSocket upgrades. Browsers cannot
// set headers on WebSocket handshakes, so the token travels in the
// ?token query parameter instead.
func RequireProviderWSAuth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		if claims.Role != service.RoleProvider {
			response.AbortFail(c, http.StatusForbidden, response.ErrProviderAccessOnly)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves validated claims from the request context.
func GetClaims(c *gin.Context) (*service.Claims, bool) {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*service.Claims)
	return claims, ok
}
