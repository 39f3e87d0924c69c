// internal/models/session.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session ids are opaque strings supplied by the kiosk or generated server side.
type Session struct {
	ID        string         `json:"id" gorm:"primaryKey;size:64"`
	StartedAt time.Time      `json:"started_at" gorm:"not null;index"`
	EndedAt   *time.Time     `json:"ended_at"`
	Channel   SessionChannel `json:"channel" gorm:"type:varchar(20);default:'mixed'"`
	// Placeholder marks rows created by get-or-create rather than an explicit start.
	Placeholder bool      `json:"placeholder" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Detections   []Detection   `json:"detections,omitempty" gorm:"foreignKey:SessionID"`
	Interactions []Interaction `json:"interactions,omitempty" gorm:"foreignKey:SessionID"`
	VoiceQueries []VoiceQuery  `json:"voice_queries,omitempty" gorm:"foreignKey:SessionID"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Active() bool {
	return s.EndedAt == nil
}

type Detection struct {
	EventModel
	SessionID    string  `json:"session_id" gorm:"size:64;not null;index:idx_detections_session_created,priority:1"`
	ClothingItem string  `json:"clothing_item" gorm:"size:40;index"`
	Style        string  `json:"style" gorm:"size:20"`
	Color        string  `json:"color" gorm:"size:50"`
	AgeBracket   string  `json:"age_bracket" gorm:"size:10"`
	Confidence   float64 `json:"confidence"`
}

func (Detection) TableName() string {
	return "detections"
}

type VoiceQuery struct {
	EventModel
	SessionID  string         `json:"session_id" gorm:"size:64;not null;index"`
	Transcript string         `json:"transcript" gorm:"type:text;not null"`
	Intent     string         `json:"intent" gorm:"size:20;index"`
	Entities   datatypes.JSON `json:"entities"`
	Confidence float64        `json:"confidence"`
}

func (VoiceQuery) TableName() string {
	return "voice_queries"
}
