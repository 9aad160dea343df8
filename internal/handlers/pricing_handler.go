package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/services"
)

type PricingHandler struct {
	*BaseHandler
	pricingService services.PricingService
}

func NewPricingHandler(base *BaseHandler, pricingService services.PricingService) *PricingHandler {
	return &PricingHandler{
		BaseHandler:    base,
		pricingService: pricingService,
	}
}

func (h *PricingHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/pricing/current", h.CurrentPricing)
}

// CurrentPricing returns the tier active right now, with its category
// amounts, so the client renders the same prices the server will charge.
func (h *PricingHandler) CurrentPricing(c *gin.Context) {
	resolution, err := h.pricingService.ResolveActiveTier(h.GetDB(c), time.Now())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"tier":   resolution.Tier,
			"source": resolution.Source,
		},
	})
}
