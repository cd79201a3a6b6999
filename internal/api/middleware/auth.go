package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ikyum/shopbridge/internal/config"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

// APIKeyHeader carries the shared-secret API key
const APIKeyHeader = "X-API-KEY"

// AuthMiddleware authenticates requests using the static API key, accepted
// from the X-API-KEY header or the "key" query parameter. When a bcrypt
// hash is configured it takes precedence over the plain key.
func AuthMiddleware(cfg config.APIConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(APIKeyHeader)
		if apiKey == "" {
			apiKey = c.Query("key")
		}
		if apiKey == "" {
			abortWithError(c, &apperrors.ErrUnauthorized{Message: "missing API key"})
			return
		}

		if !verifyAPIKey(cfg, apiKey) {
			logger.Warn("Rejected request with invalid API key",
				zap.String("path", c.Request.URL.Path),
			)
			abortWithError(c, &apperrors.ErrUnauthorized{Message: "invalid API key"})
			return
		}

		c.Next()
	}
}

// abortWithError rejects the request with the status the error taxonomy
// assigns
func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
}

func verifyAPIKey(cfg config.APIConfig, apiKey string) bool {
	if cfg.KeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.KeyHash), []byte(apiKey)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(cfg.Key), []byte(apiKey)) == 1
}
