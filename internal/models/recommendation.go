// internal/models/recommendation.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecommendationBatch is one call to the recommendation engine.
type RecommendationBatch struct {
	BaseModel
	SessionID    string             `json:"session_id" gorm:"size:64;not null;index:idx_rec_batches_session_created,priority:1"`
	Type         RecommendationType `json:"type" gorm:"type:varchar(20);not null;index"`
	Filters      datatypes.JSON     `json:"filters"`
	Algorithm    string             `json:"algorithm" gorm:"size:50"`
	ItemCount    int                `json:"item_count"`
	GenerationMs int64              `json:"generation_ms"`
	Placeholder  bool               `json:"placeholder" gorm:"default:false"`

	// Relationships
	Items []RecommendationItem `json:"items,omitempty" gorm:"foreignKey:BatchID"`
}

func (RecommendationBatch) TableName() string {
	return "recommendation_batches"
}

type RecommendationItem struct {
	BaseModel
	BatchID             uuid.UUID  `json:"batch_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_rec_items_batch_variant,priority:1"`
	VariantID           uuid.UUID  `json:"variant_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_rec_items_batch_variant,priority:2"`
	Position            int        `json:"position"`
	Score               float64    `json:"score"`
	Shown               bool       `json:"shown" gorm:"default:false"`
	Clicked             bool       `json:"clicked" gorm:"default:false"`
	ClickedAt           *time.Time `json:"clicked_at"`
	ViewDurationSeconds *float64   `json:"view_duration_seconds"`

	// Relationships
	Variant ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

func (RecommendationItem) TableName() string {
	return "recommendation_items"
}

// RecommendationFilters is the serialized filter set of a batch.
type RecommendationFilters struct {
	Category    string   `json:"category,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Brands      []string `json:"brands,omitempty"`
	Color       string   `json:"color,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	Age         string   `json:"age,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Style       string   `json:"style,omitempty"`
	Season      string   `json:"season,omitempty"`
	Days        int      `json:"days,omitempty"`
	BaseVariant string   `json:"base_variant,omitempty"`
	Query       string   `json:"query,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}
