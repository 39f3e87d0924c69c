// internal/services/rating_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/database"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/utils"
)

type RatingService struct {
	db          *gorm.DB
	provisioner *Provisioner
}

type RateRecommendationRequest struct {
	SessionID        string    `json:"session_id" validate:"required,session_id"`
	RecommendationID uuid.UUID `json:"recommendation_id" validate:"required"`
	Score            int       `json:"score" validate:"min=1,max=5"`
	Comment          string    `json:"comment,omitempty" validate:"max=1000"`
}

type RateGroupRequest struct {
	SessionID  string      `json:"session_id" validate:"required,session_id"`
	GroupType  string      `json:"group_type" validate:"required,max=50"`
	GroupName  string      `json:"group_name" validate:"required,max=255"`
	VariantIDs []uuid.UUID `json:"variant_ids,omitempty"`
	Score      int         `json:"score" validate:"min=1,max=5"`
	Comment    string      `json:"comment,omitempty" validate:"max=1000"`
}

// ScoreStats aggregates one kind of rating.
type ScoreStats struct {
	Count        int64         `json:"count"`
	Average      float64       `json:"average"`
	Distribution map[int]int64 `json:"distribution"`
}

type RatingStats struct {
	Recommendations ScoreStats `json:"recommendations"`
	Groups          ScoreStats `json:"groups"`
}

func NewRatingService(db *gorm.DB, provisioner *Provisioner) *RatingService {
	return &RatingService{db: db, provisioner: provisioner}
}

func checkScore(score int) error {
	if !models.ValidRatingScore(score) {
		return apperrors.Validationf("score must be between %d and %d", models.MinRatingScore, models.MaxRatingScore)
	}
	return nil
}

// Rate stores a rating. Unknown session or recommendation ids get placeholders
// so a rating is never dropped for a dangling reference.
func (s *RatingService) Rate(req *RateRecommendationRequest) (*models.Rating, error) {
	if err := checkScore(req.Score); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		SessionID:        req.SessionID,
		RecommendationID: req.RecommendationID,
		Score:            req.Score,
		Comment:          req.Comment,
	}
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if _, err := s.provisioner.Session(tx, req.SessionID, models.SessionChannelMixed); err != nil {
			return err
		}
		if _, err := s.provisioner.RecommendationBatch(tx, req.RecommendationID, req.SessionID); err != nil {
			return err
		}
		if err := tx.Create(rating).Error; err != nil {
			return fmt.Errorf("failed to store rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

func (s *RatingService) RateGroup(req *RateGroupRequest) (*models.GroupRating, error) {
	if err := checkScore(req.Score); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	rating := &models.GroupRating{
		SessionID:  req.SessionID,
		GroupType:  req.GroupType,
		GroupName:  req.GroupName,
		VariantIDs: models.ToJSON(req.VariantIDs),
		Score:      req.Score,
		Comment:    req.Comment,
	}
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if _, err := s.provisioner.Session(tx, req.SessionID, models.SessionChannelMixed); err != nil {
			return err
		}
		if err := tx.Create(rating).Error; err != nil {
			return fmt.Errorf("failed to store group rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

func (s *RatingService) Stats() (*RatingStats, error) {
	recs, err := s.scoreStats(&models.Rating{})
	if err != nil {
		return nil, err
	}
	groups, err := s.scoreStats(&models.GroupRating{})
	if err != nil {
		return nil, err
	}
	return &RatingStats{Recommendations: *recs, Groups: *groups}, nil
}

func (s *RatingService) scoreStats(model interface{}) (*ScoreStats, error) {
	var rows []struct {
		Score int
		Total int64
	}
	if err := s.db.Model(model).
		Select("score, COUNT(*) AS total").
		Group("score").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	stats := &ScoreStats{Distribution: make(map[int]int64, models.MaxRatingScore)}
	for score := models.MinRatingScore; score <= models.MaxRatingScore; score++ {
		stats.Distribution[score] = 0
	}

	var sum int64
	for _, row := range rows {
		stats.Distribution[row.Score] = row.Total
		stats.Count += row.Total
		sum += int64(row.Score) * row.Total
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}
