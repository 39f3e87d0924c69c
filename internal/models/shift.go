// internal/models/shift.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Shift struct {
	BaseModel
	Name            ShiftName  `json:"name" gorm:"type:varchar(20);not null"`
	StartedAt       time.Time  `json:"started_at" gorm:"not null;index"`
	EndedAt         *time.Time `json:"ended_at"`
	IsActive        bool       `json:"is_active" gorm:"not null;default:false;index"`
	TotalDetections int64      `json:"total_detections" gorm:"default:0"`
	TotalPeople     int64      `json:"total_people" gorm:"default:0"`

	Summary *ShiftSummary `json:"summary,omitempty" gorm:"foreignKey:ShiftID"`
}

func (Shift) TableName() string {
	return "shifts"
}

// ShiftPointer is the single row naming the active shift. Rollover locks it.
type ShiftPointer struct {
	ID            int        `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ActiveShiftID *uuid.UUID `json:"active_shift_id" gorm:"type:uuid"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (ShiftPointer) TableName() string {
	return "shift_pointer"
}

const ShiftPointerID = 1

type DetectionBuffer struct {
	EventModel
	ShiftID        uuid.UUID `json:"shift_id" gorm:"type:uuid;not null;index:idx_detection_buffer_shift_processed,priority:1"`
	SessionID      string    `json:"session_id" gorm:"size:64;index"`
	AgeBracket     string    `json:"age_bracket" gorm:"size:10"`
	Style          string    `json:"style" gorm:"size:20"`
	PrimaryColor   string    `json:"primary_color" gorm:"size:50"`
	SecondaryColor string    `json:"secondary_color" gorm:"size:50"`
	Garment        string    `json:"garment" gorm:"size:40"`
	Accessories    string    `json:"accessories" gorm:"size:255"`
	Confidence     float64   `json:"confidence"`
	Processed      bool      `json:"processed" gorm:"not null;default:false;index:idx_detection_buffer_shift_processed,priority:2"`
}

func (DetectionBuffer) TableName() string {
	return "detection_buffer"
}

type ShiftSummary struct {
	BaseModel
	ShiftID               uuid.UUID      `json:"shift_id" gorm:"type:uuid;not null;uniqueIndex"`
	TotalDetections       int64          `json:"total_detections"`
	AgeDistribution       datatypes.JSON `json:"age_distribution"`
	StyleDistribution     datatypes.JSON `json:"style_distribution"`
	ColorDistribution     datatypes.JSON `json:"color_distribution"`
	GarmentDistribution   datatypes.JSON `json:"garment_distribution"`
	AccessoryDistribution datatypes.JSON `json:"accessory_distribution"`
	DominantProfile       datatypes.JSON `json:"dominant_profile"`
	InventorySuggestions  datatypes.JSON `json:"inventory_suggestions"`
	ReportKey             string         `json:"report_key,omitempty" gorm:"size:512"`
	GeneratedAt           time.Time      `json:"generated_at"`
}

func (ShiftSummary) TableName() string {
	return "shift_summaries"
}

// Distribution is a label -> count frequency table.
type Distribution map[string]int64

// DominantTrait is the mode of one distribution and its share of the total.
type DominantTrait struct {
	Value      string  `json:"value"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type DominantProfile struct {
	Age       *DominantTrait `json:"age,omitempty"`
	Style     *DominantTrait `json:"style,omitempty"`
	Color     *DominantTrait `json:"color,omitempty"`
	Garment   *DominantTrait `json:"garment,omitempty"`
	Accessory *DominantTrait `json:"accessory,omitempty"`
}
