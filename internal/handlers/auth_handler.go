package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/services"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

func (h *AuthHandler) RegisterRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.GET("/me", requireAuth, h.Me)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": resp.Token, "user": resp.User})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.CurrentUser(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
