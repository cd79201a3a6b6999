package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

// respond writes a JSON body with the processing_time_ms field every
// endpoint carries
func respond(c *gin.Context, start time.Time, status int, payload gin.H) {
	payload["processing_time_ms"] = time.Since(start).Milliseconds()
	c.JSON(status, payload)
}

// respondError maps the error taxonomy onto HTTP statuses via
// apperrors.HTTPStatus. Upstream errors re-surface the upstream status code
// when it is an error code, otherwise they read as a bad gateway.
func respondError(c *gin.Context, start time.Time, err error) {
	status := apperrors.HTTPStatus(err)

	if e, ok := err.(*apperrors.ErrUpstream); ok {
		respond(c, start, status, gin.H{"message": "upstream API error", "error": e.Error(), "upstream_status": e.StatusCode})
		return
	}

	switch err.(type) {
	case *apperrors.ErrValidation, *apperrors.ErrNotFound, *apperrors.ErrInvalidState,
		*apperrors.ErrConflict, *apperrors.ErrUnauthorized:
		respond(c, start, status, gin.H{"message": err.Error()})
	default:
		respond(c, start, status, gin.H{"message": "internal error", "error": err.Error()})
	}
}
