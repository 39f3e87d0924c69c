// internal/handlers/catalog.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/utils"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GET /catalog/categories
func (h *CatalogHandler) Categories(c *gin.Context) {
	categories, err := h.catalogService.Categories(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"categories": categories,
	})
}

// GET /catalog/variants/:id
func (h *CatalogHandler) GetVariant(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	variant, err := h.catalogService.GetVariant(id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, variant)
}

// POST /catalog/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyProductCreated),
		"product": product,
	})
}

// PUT /catalog/variants/:id/price
func (h *CatalogHandler) UpdatePrice(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdatePriceRequest
	if !bindJSON(c, &req) {
		return
	}

	variant, err := h.catalogService.UpdatePrice(id, &req)
	h.updated(c, variant, err)
}

// PUT /catalog/variants/:id/image
func (h *CatalogHandler) UpdateImage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateImageRequest
	if !bindJSON(c, &req) {
		return
	}

	variant, err := h.catalogService.UpdateImage(id, &req)
	h.updated(c, variant, err)
}

func (h *CatalogHandler) updated(c *gin.Context, variant *services.VariantView, err error) {
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyVariantUpdated),
		"variant": variant,
	})
}
