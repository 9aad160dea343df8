package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/services"
)

type AdminHandler struct {
	*BaseHandler
	paymentService services.PaymentService
	authService    services.AuthService
}

func NewAdminHandler(base *BaseHandler, paymentService services.PaymentService, authService services.AuthService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:    base,
		paymentService: paymentService,
		authService:    authService,
	}
}

// RegisterRoutes mounts the admin recovery endpoints behind auth and the
// admin role guard.
func (h *AdminHandler) RegisterRoutes(api *gin.RouterGroup, requireAuth, requireAdmin gin.HandlerFunc) {
	admin := api.Group("/admin", requireAuth, requireAdmin)
	{
		admin.GET("/pending-payments", h.ListPendingPayments)
		admin.POST("/pending-payments/:id/resolve", h.ResolvePendingPayment)
	}
}

// ListPendingPayments returns open recovery records: captured payments
// whose registration never committed.
func (h *AdminHandler) ListPendingPayments(c *gin.Context) {
	pending, err := h.paymentService.ListPendingPayments(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": pending})
}

type resolvePendingRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ResolvePendingPayment completes a recovery record: the registrant is
// created from the stored payload and the payment record finalized.
func (h *AdminHandler) ResolvePendingPayment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req resolvePendingRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	admin, err := h.authService.CurrentUser(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	actor := services.Actor{ID: admin.ID, Email: admin.Email, Role: admin.Role}
	user, err := h.paymentService.ResolvePendingPayment(c.Request.Context(), db, c.Param("id"), actor, req.Notes)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"registrationId": user.Registration.RegistrationID,
		"userId":         user.ID,
	})
}
