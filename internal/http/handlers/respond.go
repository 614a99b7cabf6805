package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Error codes shared by every route.
const (
	CodeInvalidInput       = "invalid_input"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthorized       = "unauthorized"
	CodeNotFound           = "not_found"
	CodeUserAlreadyExists  = "user_already_exists"
	CodeInvalidRole        = "invalid_role"
	CodeCannotDeleteSelf   = "cannot_delete_self"
	CodePayloadTooLarge    = "payload_too_large"
	CodeInternal           = "internal_error"
)

// storeTimeout bounds a single datastore round trip.
const storeTimeout = 3 * time.Second

type APIError struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	Code      string      `json:"code"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// storeCtx derives a bounded context from the request so a client
// disconnect cancels the pending store call.
func storeCtx(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), storeTimeout)
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, APIError{
		Success:   false,
		Error:     message,
		Code:      code,
		RequestID: requestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, CodeInvalidInput, message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, CodeNotFound, message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondInternal logs err with the request id and answers with a generic message.
func RespondInternal(ctx *gin.Context, message string, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), message,
		"request_id", requestIDFrom(ctx),
		"route", ctx.FullPath(),
		"err", err,
	)
	RespondError(ctx, http.StatusInternalServerError, CodeInternal, message, nil)
}

func RespondOK(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}
