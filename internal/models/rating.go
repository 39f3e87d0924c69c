// internal/models/rating.go
package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

type Rating struct {
	EventModel
	SessionID        string    `json:"session_id" gorm:"size:64;not null;index"`
	RecommendationID uuid.UUID `json:"recommendation_id" gorm:"type:uuid;not null;index"`
	Score            int       `json:"score" gorm:"not null;check:chk_ratings_score,score >= 1 AND score <= 5"`
	Comment          string    `json:"comment,omitempty" gorm:"type:text"`
}

func (Rating) TableName() string {
	return "ratings"
}

// GroupRating rates a named group of variants (an outfit, a shelf) instead of a batch.
type GroupRating struct {
	EventModel
	SessionID  string         `json:"session_id" gorm:"size:64;not null;index"`
	GroupType  string         `json:"group_type" gorm:"size:50;not null;index"`
	GroupName  string         `json:"group_name" gorm:"size:255;not null"`
	VariantIDs datatypes.JSON `json:"variant_ids"`
	Score      int            `json:"score" gorm:"not null;check:chk_group_ratings_score,score >= 1 AND score <= 5"`
	Comment    string         `json:"comment,omitempty" gorm:"type:text"`
}

func (GroupRating) TableName() string {
	return "group_ratings"
}

func ValidRatingScore(score int) bool {
	return score >= MinRatingScore && score <= MaxRatingScore
}
