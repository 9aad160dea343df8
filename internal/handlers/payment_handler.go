package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/appErrors"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/config"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/gateway"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/logger"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/services"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
	attemptService services.AttemptService
	authService    services.AuthService
	cfg            *config.Config
}

func NewPaymentHandler(
	base *BaseHandler,
	paymentService services.PaymentService,
	attemptService services.AttemptService,
	authService services.AuthService,
	cfg *config.Config,
) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
		attemptService: attemptService,
		authService:    authService,
		cfg:            cfg,
	}
}

// RegisterRoutes mounts the payment endpoints. Verify is reachable
// anonymously for the legacy flow; attempts and status require a session.
func (h *PaymentHandler) RegisterRoutes(api *gin.RouterGroup, optionalAuth, requireAuth gin.HandlerFunc) {
	payments := api.Group("/payments")
	{
		payments.POST("/verify", optionalAuth, h.VerifyPayment)
		payments.POST("/webhook", h.Webhook)
		payments.POST("/attempts", requireAuth, h.RecordAttempt)
		payments.GET("/status/:registrationId", requireAuth, h.PaymentStatus)
	}
}

// VerifyPayment handles the checkout callback. Anonymous requests are
// allowed; the legacy flow carries the registration payload in the body
// and authenticated sessions resolve through the token.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req services.VerifyPaymentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	req.SessionUserID = h.SessionUserID(c)
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	result, err := h.paymentService.VerifyAndReconcile(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if result.RecoveryNeeded {
		// The money moved but the registration did not commit. The client
		// must see an error, and must also see that the charge succeeded.
		c.JSON(http.StatusInternalServerError, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

type recordAttemptRequest struct {
	Purpose         string                 `json:"purpose" validate:"omitempty,is-record-type"`
	Method          string                 `json:"method" validate:"required,is-payment-method"`
	Amount          float64                `json:"amount" validate:"required,gt=0"`
	Currency        string                 `json:"currency" validate:"omitempty,len=3"`
	RazorpayOrderID string                 `json:"razorpayOrderId"`
	Platform        string                 `json:"platform"`
	MethodRefs      map[string]interface{} `json:"methodRefs"`
}

// RecordAttempt appends an entry to the attempt ledger for the
// authenticated registrant.
func (h *PaymentHandler) RecordAttempt(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req recordAttemptRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	user, err := h.authService.CurrentUser(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if user.Registration.RegistrationID == "" {
		h.HandleServiceError(c, appErrors.NewBadRequestError("no registration on this account"))
		return
	}

	purpose := models.RecordTypeRegistration
	if req.Purpose != "" {
		purpose = models.RecordType(req.Purpose)
	}
	currency := req.Currency
	if currency == "" {
		currency = h.cfg.Pricing.Currency
	}

	attempt, err := h.attemptService.RecordAttempt(db, services.RecordAttemptInput{
		RegistrationID:  user.Registration.RegistrationID,
		Method:          models.PaymentMethod(req.Method),
		Purpose:         purpose,
		Amount:          req.Amount,
		Currency:        currency,
		RazorpayOrderID: req.RazorpayOrderID,
		Device: services.DeviceMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Platform:  req.Platform,
		},
		MethodRefs: req.MethodRefs,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "attempt": attempt})
}

// PaymentStatus reports payment state and attempt history for one
// registration. Registrants see their own; admins see any.
func (h *PaymentHandler) PaymentStatus(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	registrationID := c.Param("registrationId")

	db := h.GetDB(c)
	user, err := h.authService.CurrentUser(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if user.Role != models.UserRoleAdmin && user.Registration.RegistrationID != registrationID {
		h.HandleServiceError(c, appErrors.ErrForbidden)
		return
	}

	status, err := h.paymentService.StatusForRegistration(db, registrationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": status})
}

type webhookPayment struct {
	Entity struct {
		ID      string `json:"id"`
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	} `json:"entity"`
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment webhookPayment `json:"payment"`
	} `json:"payload"`
}

// Webhook ingests Razorpay webhook deliveries. The raw body HMAC is the
// only authentication; an invalid signature is dropped with 400. Only
// payment.captured triggers reconciliation, other events are
// acknowledged and ignored.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		h.HandleServiceError(c, appErrors.NewBadRequestError("unreadable body"))
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if !gateway.VerifyWebhookSignature(body, signature, h.cfg.Razorpay.WebhookSecret) {
		logger.CtxWarn(c.Request.Context(), "webhook signature rejected", "ip", c.ClientIP())
		h.HandleServiceError(c, appErrors.ErrSignatureMismatch)
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.HandleServiceError(c, appErrors.NewBadRequestError("malformed webhook payload"))
		return
	}

	if event.Event != "payment.captured" {
		c.JSON(http.StatusOK, gin.H{"success": true, "ignored": event.Event})
		return
	}

	entity := event.Payload.Payment.Entity
	// The webhook is server-to-server and already authenticated by the
	// body HMAC, so the checkout signature is derived locally.
	req := &services.VerifyPaymentRequest{
		RazorpayOrderID:   entity.OrderID,
		RazorpayPaymentID: entity.ID,
		RazorpaySignature: gateway.SignPayment(entity.OrderID, entity.ID, h.cfg.Razorpay.KeySecret),
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = "razorpay-webhook"

	result, err := h.paymentService.VerifyAndReconcile(c.Request.Context(), h.GetDB(c), req)
	if err != nil {
		var appErr *appErrors.AppError
		if appErrors.As(err, &appErr) && appErr.Code == appErrors.CodeRegistrantNotResolve {
			// The checkout callback may still be in flight with the
			// legacy payload. Acknowledge so Razorpay does not retry
			// forever; the callback path will finish the job.
			logger.CtxWarn(c.Request.Context(), "webhook capture before registrant known",
				"order_id", entity.OrderID, "payment_id", entity.ID)
			c.JSON(http.StatusOK, gin.H{"success": true, "deferred": true})
			return
		}
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
