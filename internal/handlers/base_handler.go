package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/appErrors"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/logger"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/validator"
	"github.com/AkashMedishetty/ISSH-2026-sub004/pkg/contextkeys"
)

type BaseHandler struct {
	validator *validator.Validator
	debug     bool
}

func NewBaseHandler(v *validator.Validator, debug bool) *BaseHandler {
	return &BaseHandler{
		validator: v,
		debug:     debug,
	}
}

// GetDB extracts the *gorm.DB (pool or injected transaction) from the
// gin context. Every handler that touches a service goes through this.
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	dbKey := string(contextkeys.DBContextKey)

	val, ok := c.Get(dbKey)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db key not found in context", "key", dbKey)
		panic("critical error: DBMiddleware did not set the db key")
	}

	db, ok := val.(*gorm.DB)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db in context is not *gorm.DB", "key", dbKey, "type", fmt.Sprintf("%T", val))
		panic("critical error: db in context has incorrect type")
	}

	return db
}

func (h *BaseHandler) BindAndValidateJSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindJSON(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind JSON body", err, "path", c.Request.URL.Path)
		appErrors.Respond(c, appErrors.NewBadRequestError("Invalid request body: "+err.Error()), h.debug)
		return false
	}

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			appErrors.Respond(c, appErrors.ValidationError(vErr.Errors), h.debug)
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			appErrors.Respond(c, appErrors.InternalError(err), h.debug)
		}
		return false
	}
	return true
}

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *appErrors.AppError
	if appErrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"error", appErr.Message,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
		appErrors.Respond(c, appErr, h.debug)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		appErrors.Respond(c, appErrors.InternalError(err), h.debug)
	}
}

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	ctx := c.Request.Context()

	userIDVal, exists := c.Get("userID")
	if !exists {
		logger.CtxWarn(ctx, "Unauthorized access: userID not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		appErrors.Respond(c, appErrors.ErrUnauthorized, h.debug)
		return "", false
	}

	userIDStr, ok := userIDVal.(string)
	if !ok || userIDStr == "" {
		logger.CtxWarn(ctx, "Unauthorized access: invalid userID in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		appErrors.Respond(c, appErrors.ErrUnauthorized, h.debug)
		return "", false
	}

	return userIDStr, true
}

// SessionUserID returns the authenticated user id or "" when the
// request is anonymous.
func (h *BaseHandler) SessionUserID(c *gin.Context) string {
	userIDVal, exists := c.Get("userID")
	if !exists {
		return ""
	}
	id, _ := userIDVal.(string)
	return id
}
