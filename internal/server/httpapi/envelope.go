package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vkarpins/stashkeeper/internal/common"
)

// errorResponse is the uniform error envelope returned by every endpoint.
type errorResponse struct {
	Status    int               `json:"status"`
	Message   string            `json:"message"`
	Path      string            `json:"path"`
	Timestamp time.Time         `json:"timestamp"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// writeError maps a domain error onto an HTTP status and writes the envelope.
// Unknown errors collapse to a generic 500 so internals never leak.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	var fields map[string]string

	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		message = "validation failed"
		fields = verr.Fields
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrTokenMalformed),
		errors.Is(err, common.ErrTokenSignature),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenNotFound),
		errors.Is(err, common.ErrTokenBlacklisted),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrorUnauthorized):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, common.ErrAccountDisabled),
		errors.Is(err, common.ErrEmailNotVerified),
		errors.Is(err, common.ErrorForbidden):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, common.ErrorConflict),
		errors.Is(err, common.ErrDuplicateName),
		errors.Is(err, common.ErrFolderCycle):
		status = http.StatusConflict
		message = err.Error()
	}

	c.AbortWithStatusJSON(status, errorResponse{
		Status:    status,
		Message:   message,
		Path:      c.Request.URL.Path,
		Timestamp: time.Now().UTC(),
		Errors:    fields,
	})
}

// badRequest writes a 400 envelope with a field error map.
func badRequest(c *gin.Context, fields map[string]string) {
	writeError(c, common.NewValidationError(fields))
}
