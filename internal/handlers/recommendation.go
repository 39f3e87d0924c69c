// internal/handlers/recommendation.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/utils"
)

type RecommendationHandler struct {
	recommendationService *services.RecommendationService
	trackingService       *services.TrackingService
}

func NewRecommendationHandler(recommendationService *services.RecommendationService, trackingService *services.TrackingService) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
		trackingService:       trackingService,
	}
}

func (h *RecommendationHandler) respond(c *gin.Context, result *services.RecommendationResult, err error) {
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}

// GET /recommendations/category/:name
func (h *RecommendationHandler) ByCategory(c *gin.Context) {
	result, err := h.recommendationService.ByCategory(c.Param("name"), queryInt(c, "limit", 0), c.Query("session_id"))
	h.respond(c, result, err)
}

// GET /recommendations/brand/:name
func (h *RecommendationHandler) ByBrand(c *gin.Context) {
	result, err := h.recommendationService.ByBrand(c.Param("name"), queryInt(c, "limit", 0), c.Query("session_id"))
	h.respond(c, result, err)
}

// GET /recommendations/color/:color
func (h *RecommendationHandler) ByColor(c *gin.Context) {
	result, err := h.recommendationService.ByColor(c.Param("color"), queryInt(c, "limit", 0), c.Query("session_id"))
	h.respond(c, result, err)
}

// GET /recommendations/price?min=&max=
func (h *RecommendationHandler) ByPriceRange(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	minPrice, okMin := queryFloat(c, "min")
	maxPrice, okMax := queryFloat(c, "max")
	if !okMin || !okMax {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "min, max"), nil)
		return
	}

	result, err := h.recommendationService.ByPriceRange(minPrice, maxPrice, queryInt(c, "limit", 0), c.Query("session_id"))
	h.respond(c, result, err)
}

// GET /recommendations/budget?max=
func (h *RecommendationHandler) Budget(c *gin.Context) {
	maxBudget, ok := queryFloat(c, "max")
	if !ok {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationRequired, "max"), nil)
		return
	}

	result, err := h.recommendationService.Budget(maxBudget, queryInt(c, "limit", 0), c.Query("session_id"))
	h.respond(c, result, err)
}

// GET /recommendations/seasonal/:season
func (h *RecommendationHandler) Seasonal(c *gin.Context) {
	result, err := h.recommendationService.Seasonal(c.Param("season"), queryInt(c, "limit", 0), c.Query("session_id"))
	h.respond(c, result, err)
}

// GET /recommendations/trending?days=
func (h *RecommendationHandler) Trending(c *gin.Context) {
	result, err := h.recommendationService.Trending(queryInt(c, "days", 0), queryInt(c, "limit", 0), c.Query("session_id"))
	h.respond(c, result, err)
}

// GET /recommendations/similar/:variant_id
func (h *RecommendationHandler) Similar(c *gin.Context) {
	variantID, ok := uuidParam(c, "variant_id")
	if !ok {
		return
	}
	result, err := h.recommendationService.SimilarTo(variantID, queryInt(c, "limit", 0), c.Query("session_id"))
	h.respond(c, result, err)
}

// GET /recommendations/cross-sell/:variant_id
func (h *RecommendationHandler) CrossSell(c *gin.Context) {
	variantID, ok := uuidParam(c, "variant_id")
	if !ok {
		return
	}
	result, err := h.recommendationService.CrossSell(variantID, queryInt(c, "limit", 0), c.Query("session_id"))
	h.respond(c, result, err)
}

// POST /recommendations/personalized
func (h *RecommendationHandler) Personalized(c *gin.Context) {
	var req services.PersonalizedRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.recommendationService.Personalized(&req)
	h.respond(c, result, err)
}

// GET /recommendations/:id/verify-price/:variant_id
func (h *RecommendationHandler) VerifyPrice(c *gin.Context) {
	recommendationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	variantID, ok := uuidParam(c, "variant_id")
	if !ok {
		return
	}

	check, err := h.trackingService.VerifyPrice(recommendationID, variantID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, check)
}
