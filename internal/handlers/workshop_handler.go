package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/services"
)

type WorkshopHandler struct {
	*BaseHandler
	workshopService services.WorkshopService
}

func NewWorkshopHandler(base *BaseHandler, workshopService services.WorkshopService) *WorkshopHandler {
	return &WorkshopHandler{
		BaseHandler:     base,
		workshopService: workshopService,
	}
}

func (h *WorkshopHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/workshops", h.ListWorkshops)
}

// ListWorkshops returns the active catalog with live seat availability.
func (h *WorkshopHandler) ListWorkshops(c *gin.Context) {
	workshops, err := h.workshopService.ListActive(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": workshops})
}
