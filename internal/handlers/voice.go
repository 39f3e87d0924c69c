// internal/handlers/voice.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/utils"
)

type VoiceHandler struct {
	voiceService *services.VoiceService
}

func NewVoiceHandler(voiceService *services.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService}
}

// POST /voice
func (h *VoiceHandler) Process(c *gin.Context) {
	var req services.VoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.voiceService.Process(&req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}
