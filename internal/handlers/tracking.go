// internal/handlers/tracking.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/utils"
)

type TrackingHandler struct {
	trackingService *services.TrackingService
}

func NewTrackingHandler(trackingService *services.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

func (h *TrackingHandler) recorded(c *gin.Context, interaction *models.Interaction, err error) {
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(utils.GetLangFromContext(c), i18n.KeyInteractionRecorded),
		"interaction": interaction,
	})
}

// POST /tracking/interaction
func (h *TrackingHandler) TrackInteraction(c *gin.Context) {
	var req services.TrackInteractionRequest
	if !bindJSON(c, &req) {
		return
	}
	interaction, err := h.trackingService.TrackRequest(&req)
	h.recorded(c, interaction, err)
}

// POST /tracking/view
func (h *TrackingHandler) TrackView(c *gin.Context) {
	var req services.TrackViewRequest
	if !bindJSON(c, &req) {
		return
	}
	interaction, err := h.trackingService.TrackView(&req)
	h.recorded(c, interaction, err)
}

// POST /tracking/click
func (h *TrackingHandler) TrackClick(c *gin.Context) {
	var req services.TrackClickRequest
	if !bindJSON(c, &req) {
		return
	}
	interaction, err := h.trackingService.TrackClick(&req)
	h.recorded(c, interaction, err)
}

// GET /tracking/sessions/:id/metrics
func (h *TrackingHandler) SessionMetrics(c *gin.Context) {
	metrics, err := h.trackingService.SessionMetrics(c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, metrics)
}

// GET /tracking/sessions/:id/recent
func (h *TrackingHandler) RecentActivity(c *gin.Context) {
	activity, err := h.trackingService.RecentActivity(c.Param("id"), queryInt(c, "limit", 0))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, activity)
}
