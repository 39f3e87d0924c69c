// internal/services/tracking_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/database"
	"github.com/smartotem/totem-backend/internal/metrics"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/utils"
)

const topClickedLimit = 5

type TrackingService struct {
	db          *gorm.DB
	provisioner *Provisioner
}

type TrackInteractionRequest struct {
	SessionID       string                 `json:"session_id" validate:"required,session_id"`
	Type            models.InteractionType `json:"interaction_type" validate:"required,oneof=view click search voice camera_detection product_click recommendation_viewed"`
	VariantID       *uuid.UUID             `json:"variant_id,omitempty"`
	Metadata        map[string]string      `json:"metadata,omitempty"`
	DurationSeconds *float64               `json:"duration_seconds,omitempty" validate:"omitempty,min=0"`
}

type TrackViewRequest struct {
	SessionID        string     `json:"session_id" validate:"required,session_id"`
	RecommendationID *uuid.UUID `json:"recommendation_id,omitempty"`
	VariantID        uuid.UUID  `json:"variant_id" validate:"required"`
	Position         int        `json:"position,omitempty" validate:"min=0"`
	DurationSeconds  *float64   `json:"duration_seconds,omitempty" validate:"omitempty,min=0"`
}

type TrackClickRequest struct {
	SessionID        string     `json:"session_id" validate:"required,session_id"`
	RecommendationID *uuid.UUID `json:"recommendation_id,omitempty"`
	VariantID        uuid.UUID  `json:"variant_id" validate:"required"`
	Position         int        `json:"position,omitempty" validate:"min=0"`
}

// ClickCount is one row of a top-clicked ranking.
type ClickCount struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Clicks int64  `json:"clicks"`
}

type SessionMetricsView struct {
	SessionID               string       `json:"session_id"`
	TotalRecommendations    int64        `json:"total_recommendations"`
	TotalShown              int64        `json:"total_shown"`
	TotalClicked            int64        `json:"total_clicked"`
	CTR                     float64      `json:"ctr"`
	AverageViewDurationSecs float64      `json:"average_view_duration_seconds"`
	TopClickedProducts      []ClickCount `json:"top_clicked_products"`
	TopClickedCategories    []ClickCount `json:"top_clicked_categories"`
	ComputedAt              time.Time    `json:"computed_at"`
}

type PriceCheck struct {
	RecommendationID uuid.UUID `json:"recommendation_id"`
	VariantID        uuid.UUID `json:"variant_id"`
	SKU              string    `json:"sku"`
	Price            float64   `json:"price"`
	VerifiedAt       time.Time `json:"verified_at"`
}

type RecentActivity struct {
	SessionID    string               `json:"session_id"`
	Detections   []models.Detection   `json:"detections"`
	Interactions []models.Interaction `json:"interactions"`
}

func NewTrackingService(db *gorm.DB, provisioner *Provisioner) *TrackingService {
	return &TrackingService{db: db, provisioner: provisioner}
}

// TrackInteraction appends one interaction, provisioning the session when needed.
func (s *TrackingService) TrackInteraction(sessionID string, interactionType models.InteractionType, variantID *uuid.UUID, meta models.TrackingMetadata, duration *float64) (*models.Interaction, error) {
	if !interactionType.Valid() {
		return nil, apperrors.Validationf("unknown interaction type %q", interactionType)
	}
	if meta != nil && meta.Kind() != interactionType && !(interactionType == models.InteractionProductClick && meta.Kind() == models.InteractionClick) {
		return nil, apperrors.Validationf("metadata of kind %s does not match interaction %s", meta.Kind(), interactionType)
	}

	var interaction *models.Interaction
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var err error
		interaction, err = s.appendInteraction(tx, sessionID, interactionType, variantID, meta, duration)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.Interactions.WithLabelValues(string(interactionType)).Inc()
	return interaction, nil
}

// TrackRequest adapts the generic HTTP payload.
func (s *TrackingService) TrackRequest(req *TrackInteractionRequest) (*models.Interaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var meta models.TrackingMetadata
	if len(req.Metadata) > 0 {
		meta = models.ExtraMetadata{Type: req.Type, Values: req.Metadata}
	}
	return s.TrackInteraction(req.SessionID, req.Type, req.VariantID, meta, req.DurationSeconds)
}

func (s *TrackingService) appendInteraction(tx *gorm.DB, sessionID string, interactionType models.InteractionType, variantID *uuid.UUID, meta models.TrackingMetadata, duration *float64) (*models.Interaction, error) {
	channel := models.SessionChannelTracking
	switch interactionType {
	case models.InteractionVoice:
		channel = models.SessionChannelVoice
	case models.InteractionCameraDetection:
		channel = models.SessionChannelVision
	}
	if _, err := s.provisioner.Session(tx, sessionID, channel); err != nil {
		return nil, err
	}

	interaction := &models.Interaction{
		SessionID:       sessionID,
		Type:            interactionType,
		VariantID:       variantID,
		Metadata:        models.EncodeMetadata(meta),
		DurationSeconds: duration,
	}
	if err := tx.Create(interaction).Error; err != nil {
		return nil, fmt.Errorf("failed to record interaction: %w", err)
	}
	return interaction, nil
}

// GenerateRecommendation persists a batch and its items, all initially unshown.
func (s *TrackingService) GenerateRecommendation(sessionID string, recType models.RecommendationType, filters models.RecommendationFilters, algorithm string, items []VariantView, elapsed time.Duration) (*models.RecommendationBatch, error) {
	batch := &models.RecommendationBatch{
		SessionID:    sessionID,
		Type:         recType,
		Filters:      models.ToJSON(filters),
		Algorithm:    algorithm,
		ItemCount:    len(items),
		GenerationMs: elapsed.Milliseconds(),
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if _, err := s.provisioner.Session(tx, sessionID, models.SessionChannelMixed); err != nil {
			return err
		}
		if err := tx.Omit("Items").Create(batch).Error; err != nil {
			return fmt.Errorf("failed to create recommendation: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		rows := make([]models.RecommendationItem, 0, len(items))
		seen := make(map[uuid.UUID]bool, len(items))
		for i, item := range items {
			if seen[item.VariantID] {
				continue
			}
			seen[item.VariantID] = true
			rows = append(rows, models.RecommendationItem{
				BatchID:   batch.ID,
				VariantID: item.VariantID,
				Position:  i + 1,
				Score:     itemScore(item, i, len(items)),
			})
		}
		if err := tx.Omit("Variant").Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to create recommendation items: %w", err)
		}
		batch.Items = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// itemScore keeps the search score when there is one and otherwise decays by rank.
func itemScore(item VariantView, index, total int) float64 {
	if item.SearchScore != nil {
		return *item.SearchScore
	}
	return float64(total-index) / float64(total)
}

func (s *TrackingService) TrackView(req *TrackViewRequest) (*models.Interaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	meta := models.ViewMetadata{Position: req.Position}
	if req.RecommendationID != nil {
		meta.RecommendationID = req.RecommendationID.String()
	}

	var interaction *models.Interaction
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var err error
		interaction, err = s.appendInteraction(tx, req.SessionID, models.InteractionView, &req.VariantID, meta, req.DurationSeconds)
		if err != nil {
			return err
		}
		if req.RecommendationID == nil {
			return nil
		}

		updates := map[string]interface{}{"shown": true}
		if req.DurationSeconds != nil {
			updates["view_duration_seconds"] = *req.DurationSeconds
		}
		return tx.Model(&models.RecommendationItem{}).
			Where("batch_id = ? AND variant_id = ?", *req.RecommendationID, req.VariantID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.Interactions.WithLabelValues(string(models.InteractionView)).Inc()
	return interaction, nil
}

// TrackClick marks the item shown and clicked together, so clicked never holds without shown.
// The first click time is kept on repeats.
func (s *TrackingService) TrackClick(req *TrackClickRequest) (*models.Interaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	meta := models.ClickMetadata{Position: req.Position}
	if req.RecommendationID != nil {
		meta.RecommendationID = req.RecommendationID.String()
	}

	var interaction *models.Interaction
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var err error
		interaction, err = s.appendInteraction(tx, req.SessionID, models.InteractionClick, &req.VariantID, meta, nil)
		if err != nil {
			return err
		}
		if req.RecommendationID == nil {
			return nil
		}

		return tx.Model(&models.RecommendationItem{}).
			Where("batch_id = ? AND variant_id = ?", *req.RecommendationID, req.VariantID).
			Updates(map[string]interface{}{
				"shown":      true,
				"clicked":    true,
				"clicked_at": gorm.Expr("COALESCE(clicked_at, ?)", s.provisioner.now()),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.Interactions.WithLabelValues(string(models.InteractionClick)).Inc()
	return interaction, nil
}

// CTR is clicked over shown, zero when nothing was shown.
func CTR(clicked, shown int64) float64 {
	if shown <= 0 {
		return 0
	}
	ctr := float64(clicked) / float64(shown)
	if ctr > 1 {
		return 1
	}
	return ctr
}

// SessionMetrics recomputes the session snapshot from raw rows and stores it.
func (s *TrackingService) SessionMetrics(sessionID string) (*SessionMetricsView, error) {
	view := &SessionMetricsView{
		SessionID:            sessionID,
		TopClickedProducts:   []ClickCount{},
		TopClickedCategories: []ClickCount{},
		ComputedAt:           s.provisioner.now(),
	}

	if err := s.db.Model(&models.RecommendationBatch{}).
		Where("session_id = ?", sessionID).
		Count(&view.TotalRecommendations).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	items := s.db.Model(&models.RecommendationItem{}).
		Joins("JOIN recommendation_batches ON recommendation_batches.id = recommendation_items.batch_id").
		Where("recommendation_batches.session_id = ?", sessionID)
	if err := items.Session(&gorm.Session{}).Where("recommendation_items.shown = ?", true).
		Count(&view.TotalShown).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := items.Session(&gorm.Session{}).Where("recommendation_items.clicked = ?", true).
		Count(&view.TotalClicked).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	view.CTR = CTR(view.TotalClicked, view.TotalShown)

	var avg struct{ Avg *float64 }
	if err := s.db.Model(&models.Interaction{}).
		Select("AVG(duration_seconds) AS avg").
		Where("session_id = ? AND type = ? AND duration_seconds IS NOT NULL", sessionID, models.InteractionView).
		Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if avg.Avg != nil {
		view.AverageViewDurationSecs = *avg.Avg
	}

	clicks := []models.InteractionType{models.InteractionClick, models.InteractionProductClick}
	if err := s.db.Model(&models.Interaction{}).
		Select("products.id AS id, products.name AS name, COUNT(*) AS clicks").
		Joins("JOIN product_variants ON product_variants.id = interactions.variant_id").
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("interactions.session_id = ? AND interactions.type IN ?", sessionID, clicks).
		Group("products.id, products.name").
		Order("clicks DESC, products.name ASC").
		Limit(topClickedLimit).
		Scan(&view.TopClickedProducts).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := s.db.Model(&models.Interaction{}).
		Select("categories.id AS id, categories.name AS name, COUNT(*) AS clicks").
		Joins("JOIN product_variants ON product_variants.id = interactions.variant_id").
		Joins("JOIN products ON products.id = product_variants.product_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("interactions.session_id = ? AND interactions.type IN ?", sessionID, clicks).
		Group("categories.id, categories.name").
		Order("clicks DESC, categories.name ASC").
		Limit(topClickedLimit).
		Scan(&view.TopClickedCategories).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	snapshot := models.SessionMetrics{
		SessionID:               sessionID,
		TotalRecommendations:    view.TotalRecommendations,
		TotalShown:              view.TotalShown,
		TotalClicked:            view.TotalClicked,
		CTR:                     view.CTR,
		AverageViewDurationSecs: view.AverageViewDurationSecs,
		TopClickedProducts:      models.ToJSON(view.TopClickedProducts),
		TopClickedCategories:    models.ToJSON(view.TopClickedCategories),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_recommendations", "total_shown", "total_clicked", "ctr",
			"average_view_duration_secs", "top_clicked_products", "top_clicked_categories", "updated_at",
		}),
	}).Create(&snapshot).Error
	if err != nil {
		// The snapshot is a cache; the computed view is still correct.
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to store session metrics snapshot")
		metrics.SoftErrors.WithLabelValues("session_metrics").Inc()
	}

	return view, nil
}

// VerifyPrice returns the current price of a variant that belongs to a recommendation.
func (s *TrackingService) VerifyPrice(recommendationID, variantID uuid.UUID) (*PriceCheck, error) {
	var batch models.RecommendationBatch
	if err := s.db.Where("id = ?", recommendationID).First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("recommendation", "recommendation "+recommendationID.String()+" not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var item models.RecommendationItem
	if err := s.db.Preload("Variant").
		Where("batch_id = ? AND variant_id = ?", recommendationID, variantID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("recommendation_item", "variant "+variantID.String()+" is not part of the recommendation")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if item.Variant.ID == uuid.Nil {
		return nil, apperrors.NotFound("variant", "variant "+variantID.String()+" not found")
	}

	return &PriceCheck{
		RecommendationID: recommendationID,
		VariantID:        variantID,
		SKU:              item.Variant.SKU,
		Price:            item.Variant.Price,
		VerifiedAt:       s.provisioner.now(),
	}, nil
}

// RecentActivity returns the newest detections and interactions of a session, newest first.
func (s *TrackingService) RecentActivity(sessionID string, limit int) (*RecentActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	activity := &RecentActivity{SessionID: sessionID}
	if err := s.db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").Limit(limit).
		Find(&activity.Detections).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := s.db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").Limit(limit).
		Find(&activity.Interactions).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return activity, nil
}
