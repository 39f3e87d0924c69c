// internal/handlers/search.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/utils"
)

type SearchHandler struct {
	searchService *services.SearchService
}

func NewSearchHandler(searchService *services.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// GET /search?q=
func (h *SearchHandler) Search(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	query := c.Query("q")
	if query == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "q"), nil)
		return
	}

	result, err := h.searchService.Search(query, queryInt(c, "limit", 0), c.Query("session_id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	message := i18n.T(lang, i18n.KeySearchResultsFound, result.Total)
	if result.Total == 0 {
		message = i18n.T(lang, i18n.KeySearchNoResults)
	}
	utils.SuccessResponse(c, gin.H{
		"message": message,
		"result":  result,
	})
}

// GET /search/suggestions?prefix=
func (h *SearchHandler) Suggestions(c *gin.Context) {
	suggestions, err := h.searchService.Suggestions(c.Request.Context(), c.Query("prefix"), queryInt(c, "limit", 0))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"suggestions": suggestions,
	})
}
