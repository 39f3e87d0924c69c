// internal/handlers/rating.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/utils"
)

type RatingHandler struct {
	ratingService *services.RatingService
}

func NewRatingHandler(ratingService *services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// POST /ratings
func (h *RatingHandler) Rate(c *gin.Context) {
	var req services.RateRecommendationRequest
	if !bindJSON(c, &req) {
		return
	}

	rating, err := h.ratingService.Rate(&req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyRatingRecorded),
		"rating":  rating,
	})
}

// POST /ratings/group
func (h *RatingHandler) RateGroup(c *gin.Context) {
	var req services.RateGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	rating, err := h.ratingService.RateGroup(&req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyRatingRecorded),
		"rating":  rating,
	})
}

// GET /ratings/stats
func (h *RatingHandler) Stats(c *gin.Context) {
	stats, err := h.ratingService.Stats()
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}
