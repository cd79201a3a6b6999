package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/repository"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

// IdempotencyKeyHeader carries the client-supplied deduplication token
const IdempotencyKeyHeader = "Idempotency-Key"

var idempotencyKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// bodyCaptureWriter mirrors everything written to the response so a
// successful outcome can be cached for replay
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the cached response for a previously seen
// key within TTL, byte for byte, without running the handler. A key reused
// with a different payload is a conflict. Requests without a key pass
// through untouched.
//
// Two concurrent requests with the same unseen key both miss the cache and
// both execute; the store deduplicates replays, not in-flight work.
func IdempotencyMiddleware(store repository.IdempotencyStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		if !idempotencyKeyPattern.MatchString(key) {
			abortWithError(c, &apperrors.ErrValidation{
				Message: "Idempotency-Key must be 8-64 characters of [A-Za-z0-9_-]",
			})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logger.Error("Failed to read request body for idempotency", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
			c.Abort()
			return
		}
		// Restore body for handler
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		entry, err := store.Get(c.Request.Context(), key)
		if err != nil {
			// A broken store must not block writes; fall through to the
			// handler without replay protection.
			logger.Error("Idempotency store lookup failed", zap.Error(err))
			c.Next()
			return
		}

		if entry != nil {
			if entry.RequestHash != requestHash {
				abortWithError(c, &apperrors.ErrConflict{
					Message: "idempotency key conflict: same key used with different payload",
				})
				return
			}
			logger.Info("Replaying cached idempotent response",
				zap.String("key", key),
				zap.String("path", c.Request.URL.Path),
			)
			c.Data(entry.StatusCode, "application/json; charset=utf-8", entry.ResponseBody)
			c.Abort()
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		// Only successful handling is cached; failures stay retryable.
		status := writer.Status()
		if status >= 200 && status < 300 {
			setErr := store.Set(c.Request.Context(), &repository.IdempotencyEntry{
				Key:          key,
				RequestHash:  requestHash,
				StatusCode:   status,
				ResponseBody: append([]byte(nil), writer.body.Bytes()...),
			})
			if setErr != nil {
				logger.Error("Failed to store idempotency entry", zap.Error(setErr))
			}
		}
	}
}
