// internal/services/search_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/cache"
	"github.com/smartotem/totem-backend/internal/metrics"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/nlu"
)

// Search scoring weights
const (
	scoreFullName    = 10.0
	scoreNameTerm    = 5.0
	scoreBrandTerm   = 3.0
	scoreCategory    = 2.0
	scoreColorTerm   = 1.0
	scoreCheapBonus  = 0.5
	cheapPriceCutoff = 50000.0

	searchCandidateCap     = 200
	suggestionsCachePrefix = "search:suggest:"
	suggestionsCacheTTL    = time.Minute
)

// searchSynonyms relaxes a term when the literal query finds nothing.
var searchSynonyms = map[string][]string{
	"formal":    {"elegante", "traje", "blazer", "camisa", "oxford", "slim"},
	"elegante":  {"blazer", "camisa", "traje", "formal"},
	"deportivo": {"running", "zapatillas", "short", "nike", "adidas", "deportiva"},
	"deporte":   {"running", "zapatillas", "short", "deportivo"},
	"casual":    {"polera", "jeans", "basica", "denim"},
	"clasico":   {"clasica", "basica", "oxford"},
	"abrigo":    {"chaqueta", "poleron", "parka"},
	"camiseta":  {"polera", "poleras"},
	"sudadera":  {"poleron", "polerones", "capucha"},
	"zapatos":   {"zapatillas", "calzado"},
	"pantalon":  {"jeans", "pantalones", "denim"},
	"gorro":     {"gorra", "accesorios"},
	"barato":    {"basica", "oferta"},
	"verano":    {"short", "polera", "shorts"},
	"invierno":  {"chaqueta", "poleron", "parka"},
}

type SearchService struct {
	db       *gorm.DB
	tracking *TrackingService
	cache    cache.Provider
	maxLimit int
}

type SearchResult struct {
	Query            string        `json:"query"`
	Items            []VariantView `json:"items"`
	Total            int           `json:"total"`
	Fallback         bool          `json:"fallback"`
	RecommendationID *uuid.UUID    `json:"recommendation_id,omitempty"`
}

func NewSearchService(db *gorm.DB, tracking *TrackingService, cacheProvider cache.Provider, maxLimit int) *SearchService {
	if maxLimit <= 0 {
		maxLimit = 50
	}
	return &SearchService{db: db, tracking: tracking, cache: cacheProvider, maxLimit: maxLimit}
}

func searchText(s string) string {
	return strings.Join(nlu.Tokens(nlu.Fold(s)), " ")
}

// Search ranks variants by multi-field term matches and falls back to synonyms when nothing matches.
func (s *SearchService) Search(query string, limit int, sessionID string) (*SearchResult, error) {
	started := time.Now()
	if limit <= 0 {
		limit = 10
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	result := &SearchResult{Query: query, Items: []VariantView{}}
	terms := nlu.Tokens(query)
	if len(terms) == 0 {
		return result, nil
	}

	candidates, err := s.candidates(terms)
	if err != nil {
		return nil, err
	}

	if len(candidates) > 0 {
		result.Items = rankCandidates(query, terms, candidates, limit)
	} else {
		relaxed := expandSynonyms(terms)
		if len(relaxed) > 0 {
			fallback, err := s.candidates(relaxed)
			if err != nil {
				return nil, err
			}
			result.Items = dedupeVariants(variantViews(fallback), limit)
			for i := range result.Items {
				result.Items[i].SearchRank = i + 1
			}
			result.Fallback = true
			metrics.SearchFallbacks.Inc()
		}
	}
	result.Total = len(result.Items)

	metrics.RecommendationDuration.WithLabelValues(string(models.RecommendationTypeSearch)).Observe(time.Since(started).Seconds())
	if sessionID != "" {
		s.track(sessionID, query, limit, result, time.Since(started))
	}
	return result, nil
}

// candidates unions name, brand, category and color substring matches for every
// term. Terms and columns are both accent-free.
func (s *SearchService) candidates(terms []string) ([]models.ProductVariant, error) {
	var out []models.ProductVariant
	seen := make(map[uuid.UUID]bool)

	fields := []string{"products.search_name", "products.search_brand", "categories.search_name", "product_variants.search_color"}
	for _, term := range terms {
		pattern := foldedPattern(term)
		for _, field := range fields {
			var matches []models.ProductVariant
			if err := variantQuery(s.db).
				Where(field+" LIKE ?", pattern).
				Order(variantOrder).
				Limit(searchCandidateCap).
				Find(&matches).Error; err != nil {
				return nil, fmt.Errorf("database error: %w", err)
			}
			for _, m := range matches {
				if !seen[m.ID] {
					seen[m.ID] = true
					out = append(out, m)
				}
			}
		}
	}
	return out, nil
}

// ScoreVariant applies the search weights to one variant.
func ScoreVariant(query string, terms []string, v VariantView) float64 {
	name := searchText(v.Name)
	brand := searchText(v.Brand)
	category := searchText(v.Category)
	color := searchText(v.Color)

	score := 0.0
	if full := searchText(query); full != "" && strings.Contains(name, full) {
		score += scoreFullName
	}
	for _, term := range terms {
		t := nlu.Fold(term)
		if strings.Contains(name, t) {
			score += scoreNameTerm
		}
		if strings.Contains(brand, t) {
			score += scoreBrandTerm
		}
		if strings.Contains(category, t) {
			score += scoreCategory
		}
		if strings.Contains(color, t) {
			score += scoreColorTerm
		}
	}
	if v.Price < cheapPriceCutoff {
		score += scoreCheapBonus
	}
	return score
}

func rankCandidates(query string, terms []string, candidates []models.ProductVariant, limit int) []VariantView {
	views := variantViews(candidates)
	for i := range views {
		score := ScoreVariant(query, terms, views[i])
		views[i].SearchScore = &score
	}
	sort.SliceStable(views, func(i, j int) bool {
		return *views[i].SearchScore > *views[j].SearchScore
	})
	if len(views) > limit {
		views = views[:limit]
	}
	for i := range views {
		views[i].SearchRank = i + 1
	}
	return views
}

// expandSynonyms returns the relaxed term set, excluding the original terms.
func expandSynonyms(terms []string) []string {
	var relaxed []string
	seen := make(map[string]bool)
	for _, term := range terms {
		seen[nlu.Fold(term)] = true
	}
	for _, term := range terms {
		for _, syn := range searchSynonyms[nlu.Fold(term)] {
			if !seen[syn] {
				seen[syn] = true
				relaxed = append(relaxed, syn)
			}
		}
	}
	return relaxed
}

// track records the search; failures are logged and never reach the caller.
func (s *SearchService) track(sessionID, query string, limit int, result *SearchResult, elapsed time.Duration) {
	meta := models.SearchMetadata{Query: query, ResultCount: result.Total, Fallback: result.Fallback}
	if _, err := s.tracking.TrackInteraction(sessionID, models.InteractionSearch, nil, meta, nil); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to track search")
		metrics.SoftErrors.WithLabelValues("search_tracking").Inc()
		return
	}

	algorithm := "multi_field_score"
	if result.Fallback {
		algorithm = "synonym_fallback"
	}
	filters := models.RecommendationFilters{Query: query, Limit: limit}
	batch, err := s.tracking.GenerateRecommendation(sessionID, models.RecommendationTypeSearch, filters, algorithm, result.Items, elapsed)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to record search results")
		metrics.SoftErrors.WithLabelValues("search_tracking").Inc()
		return
	}
	result.RecommendationID = &batch.ID
}

// Suggestions completes a prefix from product name words, brands, categories and colors.
func (s *SearchService) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if limit <= 0 || limit > s.maxLimit {
		limit = 10
	}
	if prefix == "" {
		return []string{}, nil
	}

	key := suggestionsCachePrefix + nlu.Fold(prefix) + ":" + strconv.Itoa(limit)
	var cached []string
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return cached, nil
	}

	folded := nlu.Fold(prefix)
	lower := strings.ToLower(prefix)
	suggestions := make([]string, 0, limit)
	seen := make(map[string]bool)
	add := func(value string) bool {
		k := nlu.Fold(value)
		if value == "" || seen[k] || !strings.HasPrefix(k, folded) {
			return len(suggestions) >= limit
		}
		seen[k] = true
		suggestions = append(suggestions, value)
		return len(suggestions) >= limit
	}

	var names []string
	if err := s.db.Model(&models.Product{}).
		Where("LOWER(name) LIKE ?", "%"+lower+"%").
		Order("name ASC").Limit(searchCandidateCap).
		Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	for _, name := range names {
		for _, word := range nlu.Tokens(strings.ToLower(name)) {
			if add(word) {
				return s.storeSuggestions(ctx, key, suggestions), nil
			}
		}
	}

	sources := []struct {
		model  interface{}
		column string
	}{
		{&models.Product{}, "brand"},
		{&models.Category{}, "name"},
		{&models.ProductVariant{}, "color"},
	}
	for _, src := range sources {
		var values []string
		if err := s.db.Model(src.model).
			Distinct(src.column).
			Where("LOWER("+src.column+") LIKE ?", lower+"%").
			Order(src.column+" ASC").
			Pluck(src.column, &values).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		for _, v := range values {
			if add(v) {
				return s.storeSuggestions(ctx, key, suggestions), nil
			}
		}
	}

	return s.storeSuggestions(ctx, key, suggestions), nil
}

func (s *SearchService) storeSuggestions(ctx context.Context, key string, suggestions []string) []string {
	if err := cache.SetJSON(ctx, s.cache, key, suggestions, suggestionsCacheTTL); err != nil {
		logrus.WithError(err).Warn("Failed to cache suggestions")
	}
	return suggestions
}
