package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servimatch/skilltest-backend/internal/response"
	"golang.org/x/crypto/bcrypt"
)

// ServiceKeyHeader carries the internal service API key for catalog
// ingestion calls from the marketplace core.
const ServiceKeyHeader = "X-Service-Key"

// RequireServiceKey guards internal endpoints with a bcrypt-hashed API
// key. An empty configured hash disables the endpoints entirely rather
// than leaving them open.
func RequireServiceKey(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyHash == "" {
			response.AbortFail(c, http.StatusForbidden, response.ErrServiceKeyInvalid)
			return
		}

		key := c.GetHeader(ServiceKeyHeader)
		if key == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrServiceKeyInvalid)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrServiceKeyInvalid)
			return
		}
		c.Next()
	}
}
