// internal/services/recommendation_service.go
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/metrics"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/nlu"
	"github.com/smartotem/totem-backend/internal/utils"
	"github.com/smartotem/totem-backend/internal/vision"
)

const (
	distinctOverfetch     = 2
	trendingPerCategory   = 3
	personalizedPerPick   = 3
	personalizedColorSlot = 8
	crossSellPerCategory  = 2
	seasonalPerCategory   = 4
	maxCandidateGroups    = 2
	defaultTrendingDays   = 7
)

// Detected garment -> catalog category.
var itemCategories = map[string]string{
	vision.ItemTShirt:  "Poleras",
	vision.ItemLongTee: "Poleras",
	vision.ItemHoodie:  "Polerones",
	vision.ItemJacket:  "Chaquetas",
}

var styleCategories = map[string][]string{
	vision.StyleSport:  {"Zapatillas", "Polerones"},
	vision.StyleFormal: {"Camisas", "Chaquetas"},
	vision.StyleCasual: {"Poleras", "Pantalones"},
}

var complementaryCategories = map[string][]string{
	"Zapatillas": {"Poleras", "Pantalones", "Accesorios"},
	"Poleras":    {"Pantalones", "Zapatillas", "Chaquetas"},
	"Polerones":  {"Pantalones", "Zapatillas"},
	"Pantalones": {"Poleras", "Zapatillas", "Accesorios"},
	"Camisas":    {"Pantalones", "Chaquetas", "Accesorios"},
	"Chaquetas":  {"Poleras", "Pantalones", "Accesorios"},
	"Shorts":     {"Poleras", "Zapatillas"},
	"Accesorios": {"Poleras", "Chaquetas"},
}

var seasonalCategories = map[string][]string{
	"verano":    {"Poleras", "Shorts", "Zapatillas"},
	"otono":     {"Chaquetas", "Pantalones", "Camisas"},
	"invierno":  {"Chaquetas", "Polerones", "Pantalones"},
	"primavera": {"Camisas", "Poleras", "Zapatillas"},
}

type ageProfile struct {
	categories []string
	brands     []string
}

var (
	youngProfile   = ageProfile{categories: []string{"Poleras", "Zapatillas"}, brands: []string{"Nike", "Adidas"}}
	formalProfile  = ageProfile{categories: []string{"Camisas", "Chaquetas"}, brands: []string{"Hugo Boss", "Tommy Hilfiger"}}
	classicProfile = ageProfile{categories: []string{"Pantalones", "Camisas"}, brands: []string{"Levi's", "Lacoste"}}
)

func profileForAge(age string) ageProfile {
	switch age {
	case vision.AgeYoung, vision.AgeAdult:
		return youngProfile
	case vision.AgeMiddle, vision.AgeMature:
		return formalProfile
	default:
		return classicProfile
	}
}

// SeasonFor maps a date to the southern hemisphere season.
func SeasonFor(t time.Time) string {
	switch t.Month() {
	case time.December, time.January, time.February:
		return "verano"
	case time.March, time.April, time.May:
		return "otono"
	case time.June, time.July, time.August:
		return "invierno"
	default:
		return "primavera"
	}
}

type RecommendationService struct {
	db           *gorm.DB
	tracking     *TrackingService
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// RecommendationResult is a ranked list plus the batch id to report views and clicks against.
type RecommendationResult struct {
	RecommendationID *uuid.UUID                `json:"recommendation_id,omitempty"`
	Type             models.RecommendationType `json:"type"`
	Algorithm        string                    `json:"algorithm"`
	GenerationMs     int64                     `json:"generation_ms"`
	Items            []VariantView             `json:"items"`
}

type PersonalizedRequest struct {
	SessionID string `json:"session_id,omitempty" validate:"session_id"`
	Age       string `json:"age,omitempty" validate:"omitempty,max=10"`
	Gender    string `json:"gender,omitempty" validate:"omitempty,max=20"`
	Style     string `json:"style,omitempty" validate:"omitempty,max=20"`
	Color     string `json:"color,omitempty" validate:"omitempty,max=50"`
	Limit     int    `json:"limit,omitempty" validate:"min=0"`
}

func NewRecommendationService(db *gorm.DB, tracking *TrackingService, defaultLimit, maxLimit int) *RecommendationService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &RecommendationService{
		db:           db,
		tracking:     tracking,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		now:          time.Now,
	}
}

func (s *RecommendationService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// finish records the outermost call. Inner calls go through the unexported
// helpers and never reach here.
func (s *RecommendationService) finish(sessionID string, recType models.RecommendationType, algorithm string, filters models.RecommendationFilters, items []VariantView, started time.Time) *RecommendationResult {
	elapsed := time.Since(started)
	metrics.RecommendationDuration.WithLabelValues(string(recType)).Observe(elapsed.Seconds())

	if items == nil {
		items = []VariantView{}
	}
	result := &RecommendationResult{
		Type:         recType,
		Algorithm:    algorithm,
		GenerationMs: elapsed.Milliseconds(),
		Items:        items,
	}
	if sessionID == "" {
		return result
	}

	batch, err := s.tracking.GenerateRecommendation(sessionID, recType, filters, algorithm, items, elapsed)
	if err != nil {
		// Tracking never blocks the recommendation itself.
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"type":       recType,
		}).Warn("Failed to record recommendation batch")
		metrics.SoftErrors.WithLabelValues("recommendation_tracking").Inc()
		return result
	}
	result.RecommendationID = &batch.ID
	return result
}

// distinctProducts returns the first variant of each matching product, over-fetching
// products so those without variants do not shrink the result.
func (s *RecommendationService) distinctProducts(column, value string, limit int) ([]VariantView, error) {
	var products []models.Product
	err := s.db.Model(&models.Product{}).
		Joins("JOIN categories ON categories.id = products.category_id").
		Where(column+" LIKE ?", foldedPattern(value)).
		Order("products.name ASC, products.id ASC").
		Limit(limit * distinctOverfetch).
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_variants.sku ASC")
		}).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	views := make([]VariantView, 0, limit)
	for i := range products {
		if len(views) == limit {
			break
		}
		product := products[i]
		if len(product.Variants) == 0 {
			continue
		}
		variant := product.Variants[0]
		variant.Product = product
		views = append(views, NewVariantView(&variant))
	}
	return views, nil
}

func (s *RecommendationService) byCategory(name string, limit int) ([]VariantView, error) {
	return s.distinctProducts("categories.search_name", name, limit)
}

func (s *RecommendationService) byBrand(brand string, limit int) ([]VariantView, error) {
	return s.distinctProducts("products.search_brand", brand, limit)
}

func (s *RecommendationService) byColor(color string, limit int) ([]VariantView, error) {
	var variants []models.ProductVariant
	err := variantQuery(s.db).
		Where("product_variants.search_color LIKE ?", foldedPattern(color)).
		Order(variantOrder).
		Limit(limit).
		Find(&variants).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return variantViews(variants), nil
}

func (s *RecommendationService) byPriceRange(minPrice, maxPrice float64, limit int) ([]VariantView, error) {
	query := variantQuery(s.db).Where("product_variants.price >= ?", minPrice)
	if maxPrice > 0 {
		query = query.Where("product_variants.price <= ?", maxPrice)
	}

	var variants []models.ProductVariant
	if err := query.Order(variantOrder).Limit(limit).Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return variantViews(variants), nil
}

func (s *RecommendationService) baseVariant(id uuid.UUID) (*models.ProductVariant, error) {
	var base models.ProductVariant
	err := variantQuery(s.db).Where("product_variants.id = ?", id).First(&base).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &base, nil
}

func (s *RecommendationService) ByCategory(name string, limit int, sessionID string) (*RecommendationResult, error) {
	started := time.Now()
	limit = s.clampLimit(limit)
	items, err := s.byCategory(name, limit)
	if err != nil {
		return nil, err
	}
	filters := models.RecommendationFilters{Category: name, Limit: limit}
	return s.finish(sessionID, models.RecommendationTypeCategory, "category_distinct_products", filters, items, started), nil
}

func (s *RecommendationService) ByBrand(brand string, limit int, sessionID string) (*RecommendationResult, error) {
	started := time.Now()
	limit = s.clampLimit(limit)
	items, err := s.byBrand(brand, limit)
	if err != nil {
		return nil, err
	}
	filters := models.RecommendationFilters{Brand: brand, Limit: limit}
	return s.finish(sessionID, models.RecommendationTypeBrand, "brand_distinct_products", filters, items, started), nil
}

func (s *RecommendationService) ByColor(color string, limit int, sessionID string) (*RecommendationResult, error) {
	started := time.Now()
	limit = s.clampLimit(limit)
	items, err := s.byColor(color, limit)
	if err != nil {
		return nil, err
	}
	filters := models.RecommendationFilters{Color: color, Limit: limit}
	return s.finish(sessionID, models.RecommendationTypeColor, "color_match", filters, items, started), nil
}

// ByPriceRange filters on price; maxPrice 0 means no upper bound.
func (s *RecommendationService) ByPriceRange(minPrice, maxPrice float64, limit int, sessionID string) (*RecommendationResult, error) {
	if minPrice < 0 || maxPrice < 0 || (maxPrice > 0 && maxPrice < minPrice) {
		return nil, errInvalidPriceRange(minPrice, maxPrice)
	}
	started := time.Now()
	limit = s.clampLimit(limit)
	items, err := s.byPriceRange(minPrice, maxPrice, limit)
	if err != nil {
		return nil, err
	}
	filters := models.RecommendationFilters{MinPrice: &minPrice, Limit: limit}
	if maxPrice > 0 {
		filters.MaxPrice = &maxPrice
	}
	return s.finish(sessionID, models.RecommendationTypePriceRange, "price_range", filters, items, started), nil
}

// SimilarTo returns other variants in the base variant's category. Unknown base yields an empty list.
func (s *RecommendationService) SimilarTo(variantID uuid.UUID, limit int, sessionID string) (*RecommendationResult, error) {
	started := time.Now()
	limit = s.clampLimit(limit)
	filters := models.RecommendationFilters{BaseVariant: variantID.String(), Limit: limit}

	base, err := s.baseVariant(variantID)
	if err != nil {
		return nil, err
	}
	var items []VariantView
	if base != nil {
		var variants []models.ProductVariant
		err := variantQuery(s.db).
			Where("products.category_id = ? AND product_variants.id <> ?", base.Product.CategoryID, base.ID).
			Order(variantOrder).
			Limit(limit).
			Find(&variants).Error
		if err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		items = variantViews(variants)
		filters.Category = base.Product.Category.Name
	}
	return s.finish(sessionID, models.RecommendationTypeSimilar, "same_category", filters, items, started), nil
}

// Trending ranks categories by how often their garments were detected in the window.
func (s *RecommendationService) Trending(days, limit int, sessionID string) (*RecommendationResult, error) {
	started := time.Now()
	limit = s.clampLimit(limit)
	if days <= 0 {
		days = defaultTrendingDays
	}
	since := s.now().UTC().AddDate(0, 0, -days)

	var tallies []struct {
		ClothingItem string
		Total        int64
	}
	if err := s.db.Model(&models.Detection{}).
		Select("clothing_item, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("clothing_item").
		Order("total DESC, clothing_item ASC").
		Scan(&tallies).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var categories []string
	seen := make(map[string]bool)
	for _, t := range tallies {
		category, ok := itemCategories[t.ClothingItem]
		if !ok || seen[category] {
			continue
		}
		seen[category] = true
		categories = append(categories, category)
	}

	var items []VariantView
	for _, category := range categories {
		group, err := s.byCategory(category, trendingPerCategory)
		if err != nil {
			return nil, err
		}
		items = append(items, group...)
	}
	items = dedupeVariants(items, limit)

	filters := models.RecommendationFilters{Days: days, Categories: categories, Limit: limit}
	return s.finish(sessionID, models.RecommendationTypeTrending, "detection_frequency", filters, items, started), nil
}

// Personalized puts color matches first, then style or age categories, then age brands.
func (s *RecommendationService) Personalized(req *PersonalizedRequest) (*RecommendationResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	started := time.Now()
	limit := s.clampLimit(req.Limit)

	profile := profileForAge(req.Age)
	categories := profile.categories
	if byStyle, ok := styleCategories[strings.ToLower(req.Style)]; ok {
		categories = byStyle
	}
	categories = firstN(categories, maxCandidateGroups)
	brands := firstN(profile.brands, maxCandidateGroups)

	// Vision colors are kept as-is; "azul petróleo" must not widen to "azul".
	color := strings.TrimSpace(req.Color)
	if !vision.IsColorName(color) {
		if canonical, ok := nlu.ColorFromText(color); ok {
			color = canonical
		}
	}
	if color == vision.Unknown || color == vision.Error || color == vision.UnknownColor {
		color = ""
	}

	var items []VariantView
	if color != "" {
		colored, err := s.byColor(color, personalizedColorSlot)
		if err != nil {
			return nil, err
		}
		items = append(items, colored...)
	}
	for _, category := range categories {
		group, err := s.byCategory(category, personalizedPerPick)
		if err != nil {
			return nil, err
		}
		items = append(items, group...)
	}
	for _, brand := range brands {
		group, err := s.byBrand(brand, personalizedPerPick)
		if err != nil {
			return nil, err
		}
		items = append(items, group...)
	}
	items = dedupeVariants(items, limit)

	filters := models.RecommendationFilters{
		Age:        req.Age,
		Gender:     req.Gender,
		Style:      req.Style,
		Color:      color,
		Categories: categories,
		Brands:     brands,
		Limit:      limit,
	}
	return s.finish(req.SessionID, models.RecommendationTypePersonalized, "profile_tables_color_first", filters, items, started), nil
}

// CrossSell suggests complementary categories for the base variant's category.
func (s *RecommendationService) CrossSell(variantID uuid.UUID, limit int, sessionID string) (*RecommendationResult, error) {
	started := time.Now()
	limit = s.clampLimit(limit)
	filters := models.RecommendationFilters{BaseVariant: variantID.String(), Limit: limit}

	base, err := s.baseVariant(variantID)
	if err != nil {
		return nil, err
	}
	var items []VariantView
	if base != nil {
		filters.Category = base.Product.Category.Name
		for _, category := range complementaryCategories[base.Product.Category.Name] {
			group, err := s.byCategory(category, crossSellPerCategory)
			if err != nil {
				return nil, err
			}
			for _, v := range group {
				if v.ProductID != base.ProductID {
					items = append(items, v)
				}
			}
			filters.Categories = append(filters.Categories, category)
		}
		items = dedupeVariants(items, limit)
	}
	return s.finish(sessionID, models.RecommendationTypeCrossSell, "complementary_categories", filters, items, started), nil
}

// Budget returns variants under maxBudget, cheapest first.
func (s *RecommendationService) Budget(maxBudget float64, limit int, sessionID string) (*RecommendationResult, error) {
	if maxBudget <= 0 {
		return nil, errInvalidPriceRange(0, maxBudget)
	}
	started := time.Now()
	limit = s.clampLimit(limit)

	items, err := s.byPriceRange(0, maxBudget, limit)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Price < items[j].Price
	})

	filters := models.RecommendationFilters{MaxPrice: &maxBudget, Limit: limit}
	return s.finish(sessionID, models.RecommendationTypeBudget, "budget_ascending_price", filters, items, started), nil
}

// Seasonal maps a season to categories. An unknown season uses the current one.
func (s *RecommendationService) Seasonal(season string, limit int, sessionID string) (*RecommendationResult, error) {
	started := time.Now()
	limit = s.clampLimit(limit)

	key := nlu.Fold(season)
	categories, ok := seasonalCategories[key]
	if !ok {
		key = SeasonFor(s.now())
		categories = seasonalCategories[key]
	}

	var items []VariantView
	for _, category := range categories {
		group, err := s.byCategory(category, seasonalPerCategory)
		if err != nil {
			return nil, err
		}
		items = append(items, group...)
	}
	items = dedupeVariants(items, limit)

	filters := models.RecommendationFilters{Season: key, Categories: categories, Limit: limit}
	return s.finish(sessionID, models.RecommendationTypeSeasonal, "season_categories", filters, items, started), nil
}

// dedupeVariants keeps the first occurrence of each variant and truncates to limit.
func dedupeVariants(items []VariantView, limit int) []VariantView {
	seen := make(map[uuid.UUID]bool, len(items))
	out := make([]VariantView, 0, len(items))
	for _, item := range items {
		if seen[item.VariantID] {
			continue
		}
		seen[item.VariantID] = true
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func errInvalidPriceRange(minPrice, maxPrice float64) error {
	return apperrors.Validationf("invalid price range %.2f-%.2f", minPrice, maxPrice)
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
