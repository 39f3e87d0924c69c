// internal/models/common.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns a time-ordered UUID when the caller did not set one.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.Must(uuid.NewV7())
	}
	return nil
}

// EventModel is the base for append-only rows.
type EventModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (e *EventModel) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.Must(uuid.NewV7())
	}
	return nil
}

// ToJSON marshals v into a JSON column value. Marshal failures yield an empty object.
func ToJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// FromJSON decodes a JSON column into out. An empty column leaves out untouched.
func FromJSON(data datatypes.JSON, out interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Enums
type SessionChannel string

const (
	SessionChannelVoice    SessionChannel = "voice"
	SessionChannelVision   SessionChannel = "vision"
	SessionChannelMixed    SessionChannel = "mixed"
	SessionChannelTracking SessionChannel = "tracking"
)

type InteractionType string

const (
	InteractionView                 InteractionType = "view"
	InteractionClick                InteractionType = "click"
	InteractionSearch               InteractionType = "search"
	InteractionVoice                InteractionType = "voice"
	InteractionCameraDetection      InteractionType = "camera_detection"
	InteractionProductClick         InteractionType = "product_click"
	InteractionRecommendationViewed InteractionType = "recommendation_viewed"
)

func (t InteractionType) Valid() bool {
	switch t {
	case InteractionView, InteractionClick, InteractionSearch, InteractionVoice,
		InteractionCameraDetection, InteractionProductClick, InteractionRecommendationViewed:
		return true
	}
	return false
}

type RecommendationType string

const (
	RecommendationTypeCategory     RecommendationType = "category"
	RecommendationTypeBrand        RecommendationType = "brand"
	RecommendationTypeColor        RecommendationType = "color"
	RecommendationTypePriceRange   RecommendationType = "price_range"
	RecommendationTypeSimilar      RecommendationType = "similar"
	RecommendationTypeTrending     RecommendationType = "trending"
	RecommendationTypePersonalized RecommendationType = "personalized"
	RecommendationTypeCrossSell    RecommendationType = "cross_sell"
	RecommendationTypeBudget       RecommendationType = "budget"
	RecommendationTypeSeasonal     RecommendationType = "seasonal"
	RecommendationTypeSearch       RecommendationType = "search"
	RecommendationTypeVoice        RecommendationType = "voice"
	RecommendationTypePlaceholder  RecommendationType = "placeholder"
)

type ShiftName string

const (
	ShiftMorning   ShiftName = "manana"
	ShiftAfternoon ShiftName = "tarde"
	ShiftNight     ShiftName = "noche"
	ShiftAdHoc     ShiftName = "adhoc"
)

// ShiftNameFor picks the operational window a wall-clock time falls into.
func ShiftNameFor(t time.Time) ShiftName {
	switch h := t.Hour(); {
	case h >= 6 && h < 14:
		return ShiftMorning
	case h >= 14 && h < 22:
		return ShiftAfternoon
	default:
		return ShiftNight
	}
}

type StaffRole string

const (
	StaffRoleAdmin    StaffRole = "admin"
	StaffRoleOperator StaffRole = "operator"
)
