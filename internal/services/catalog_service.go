// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/cache"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/nlu"
	"github.com/smartotem/totem-backend/internal/utils"
)

const (
	categoriesCacheKey = "catalog:categories"
	categoriesCacheTTL = 10 * time.Minute
)

// VariantView is the client-facing shape of a recommended or searched variant.
type VariantView struct {
	VariantID   uuid.UUID `json:"variantId"`
	ProductID   uuid.UUID `json:"productId"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	SKU         string    `json:"sku"`
	Color       string    `json:"color"`
	Size        string    `json:"size"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl"`
	SearchScore *float64  `json:"searchScore,omitempty"`
	SearchRank  int       `json:"searchRank,omitempty"`
}

// NewVariantView flattens a variant whose Product and Product.Category are loaded.
func NewVariantView(v *models.ProductVariant) VariantView {
	return VariantView{
		VariantID: v.ID,
		ProductID: v.ProductID,
		Name:      v.Product.Name,
		Brand:     v.Product.Brand,
		Category:  v.Product.Category.Name,
		SKU:       v.SKU,
		Color:     v.Color,
		Size:      v.Size,
		Price:     v.Price,
		ImageURL:  v.ImageURL,
	}
}

func variantViews(variants []models.ProductVariant) []VariantView {
	views := make([]VariantView, 0, len(variants))
	for i := range variants {
		views = append(views, NewVariantView(&variants[i]))
	}
	return views
}

// variantQuery joins variants to their product and category so filters can
// reference all three tables.
func variantQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&models.ProductVariant{}).
		Joins("JOIN products ON products.id = product_variants.product_id AND products.deleted_at IS NULL").
		Joins("JOIN categories ON categories.id = products.category_id").
		Preload("Product").
		Preload("Product.Category")
}

const variantOrder = "products.name ASC, product_variants.sku ASC"

// foldedPattern matches term against the accent-free search columns.
func foldedPattern(term string) string {
	return "%" + nlu.Fold(strings.TrimSpace(term)) + "%"
}

type CatalogService struct {
	db    *gorm.DB
	cache cache.Provider
}

type CreateProductRequest struct {
	Name        string                 `json:"name" validate:"required,min=2,max=255"`
	Brand       string                 `json:"brand" validate:"required,max=100"`
	Category    string                 `json:"category" validate:"required,max=100"`
	Description string                 `json:"description,omitempty"`
	Variants    []CreateVariantRequest `json:"variants" validate:"required,min=1,dive"`
}

type CreateVariantRequest struct {
	SKU      string  `json:"sku" validate:"required,max=64"`
	Size     string  `json:"size" validate:"max=10"`
	Color    string  `json:"color" validate:"required,max=50"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	ImageURL string  `json:"image_url,omitempty" validate:"omitempty,url,max=512"`
}

type UpdatePriceRequest struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

type UpdateImageRequest struct {
	ImageURL string `json:"image_url" validate:"required,url,max=512"`
}

type CategoryView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ProductCount int64     `json:"product_count"`
}

func NewCatalogService(db *gorm.DB, cacheProvider cache.Provider) *CatalogService {
	return &CatalogService{db: db, cache: cacheProvider}
}

// Categories lists categories with product counts, served from cache when warm.
func (s *CatalogService) Categories(ctx context.Context) ([]CategoryView, error) {
	var categories []CategoryView
	if err := cache.GetJSON(ctx, s.cache, categoriesCacheKey, &categories); err == nil {
		return categories, nil
	}

	err := s.db.Model(&models.Category{}).
		Select("categories.id, categories.name, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id AND products.deleted_at IS NULL").
		Group("categories.id, categories.name").
		Order("categories.name ASC").
		Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	if err := cache.SetJSON(ctx, s.cache, categoriesCacheKey, categories, categoriesCacheTTL); err != nil {
		logrus.WithError(err).Warn("Failed to cache categories")
	}
	return categories, nil
}

func (s *CatalogService) GetVariant(id uuid.UUID) (*VariantView, error) {
	var variant models.ProductVariant
	if err := variantQuery(s.db).Where("product_variants.id = ?", id).First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("variant", "variant "+id.String()+" not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	view := NewVariantView(&variant)
	return &view, nil
}

// CreateProduct inserts a product and its variants, creating the category on demand.
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Variants))
	for _, v := range req.Variants {
		sku := strings.ToUpper(strings.TrimSpace(v.SKU))
		if seen[sku] {
			return nil, apperrors.Validationf("duplicate sku %s in request", sku)
		}
		seen[sku] = true
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Brand:       strings.TrimSpace(req.Brand),
		Description: req.Description,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		category := models.Category{Name: strings.TrimSpace(req.Category)}
		if err := tx.Where("name = ?", category.Name).FirstOrCreate(&category).Error; err != nil {
			return fmt.Errorf("failed to resolve category: %w", err)
		}
		product.CategoryID = category.ID
		product.Category = category

		var existing int64
		skus := make([]string, 0, len(seen))
		for sku := range seen {
			skus = append(skus, sku)
		}
		if err := tx.Model(&models.ProductVariant{}).Where("sku IN ?", skus).Count(&existing).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if existing > 0 {
			return apperrors.Conflict("sku already exists")
		}

		if err := tx.Omit("Category", "Variants").Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		for _, v := range req.Variants {
			variant := models.ProductVariant{
				ProductID: product.ID,
				SKU:       strings.ToUpper(strings.TrimSpace(v.SKU)),
				Size:      strings.ToUpper(strings.TrimSpace(v.Size)),
				Color:     strings.ToLower(strings.TrimSpace(v.Color)),
				Price:     v.Price,
				ImageURL:  v.ImageURL,
			}
			if err := tx.Omit("Product").Create(&variant).Error; err != nil {
				return fmt.Errorf("failed to create variant: %w", err)
			}
			product.Variants = append(product.Variants, variant)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return product, nil
}

// UpdatePrice and UpdateImage are the only mutations a variant accepts after creation.
func (s *CatalogService) UpdatePrice(id uuid.UUID, req *UpdatePriceRequest) (*VariantView, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	return s.updateVariant(id, "price", req.Price)
}

func (s *CatalogService) UpdateImage(id uuid.UUID, req *UpdateImageRequest) (*VariantView, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	return s.updateVariant(id, "image_url", req.ImageURL)
}

func (s *CatalogService) updateVariant(id uuid.UUID, column string, value interface{}) (*VariantView, error) {
	result := s.db.Model(&models.ProductVariant{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update variant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("variant", "variant "+id.String()+" not found")
	}
	return s.GetVariant(id)
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, categoriesCacheKey); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate catalog cache")
	}
}
