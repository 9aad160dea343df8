package appErrors

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/logger"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *AppError `json:"error"`
}

// Respond writes err to the gin context using the AppError's HTTP code.
// Unknown error types are wrapped as internal errors; in production the
// underlying detail is not exposed to the caller.
func Respond(c *gin.Context, err error, debug bool) {
	var appErr *AppError

	if !As(err, &appErr) {
		appErr = InternalError(err)
		if !debug {
			appErr = New(CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
	}

	if appErr.HTTPCode >= 500 {
		logger.CtxWithError(c.Request.Context(), "request failed", err, "path", c.FullPath())
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Success: false, Error: appErr})
}
