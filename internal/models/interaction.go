// internal/models/interaction.go
package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Interaction struct {
	EventModel
	SessionID       string          `json:"session_id" gorm:"size:64;not null;index:idx_interactions_session_created,priority:1"`
	Type            InteractionType `json:"type" gorm:"type:varchar(30);not null;index"`
	VariantID       *uuid.UUID      `json:"variant_id,omitempty" gorm:"type:uuid;index"`
	Metadata        datatypes.JSON  `json:"metadata,omitempty"`
	DurationSeconds *float64        `json:"duration_seconds,omitempty"`
}

func (Interaction) TableName() string {
	return "interactions"
}

// SessionMetrics is a recomputable snapshot, never the source of truth.
type SessionMetrics struct {
	BaseModel
	SessionID               string         `json:"session_id" gorm:"size:64;not null;uniqueIndex"`
	TotalRecommendations    int64          `json:"total_recommendations"`
	TotalShown              int64          `json:"total_shown"`
	TotalClicked            int64          `json:"total_clicked"`
	CTR                     float64        `json:"ctr"`
	AverageViewDurationSecs float64        `json:"average_view_duration_seconds"`
	TopClickedProducts      datatypes.JSON `json:"top_clicked_products"`
	TopClickedCategories    datatypes.JSON `json:"top_clicked_categories"`
}

func (SessionMetrics) TableName() string {
	return "session_metrics"
}

// TrackingMetadata is the closed set of payloads an Interaction can carry.
type TrackingMetadata interface {
	Kind() InteractionType
}

type ViewMetadata struct {
	RecommendationID string `json:"recommendation_id,omitempty"`
	Position         int    `json:"position,omitempty"`
}

func (ViewMetadata) Kind() InteractionType { return InteractionView }

type ClickMetadata struct {
	RecommendationID string `json:"recommendation_id,omitempty"`
	Position         int    `json:"position,omitempty"`
}

func (ClickMetadata) Kind() InteractionType { return InteractionClick }

type SearchMetadata struct {
	Query       string `json:"query"`
	ResultCount int    `json:"result_count"`
	Fallback    bool   `json:"fallback,omitempty"`
}

func (SearchMetadata) Kind() InteractionType { return InteractionSearch }

type VoiceMetadata struct {
	Transcript string  `json:"transcript"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

func (VoiceMetadata) Kind() InteractionType { return InteractionVoice }

type CameraMetadata struct {
	Item  string `json:"item"`
	Color string `json:"color"`
}

func (CameraMetadata) Kind() InteractionType { return InteractionCameraDetection }

// ExtraMetadata is the free-form bag for interaction types without a fixed payload.
type ExtraMetadata struct {
	Type   InteractionType   `json:"-"`
	Values map[string]string `json:"values,omitempty"`
}

func (e ExtraMetadata) Kind() InteractionType { return e.Type }

// EncodeMetadata wraps a payload with its kind tag for storage.
func EncodeMetadata(m TrackingMetadata) datatypes.JSON {
	if m == nil {
		return nil
	}
	return ToJSON(map[string]interface{}{
		"kind":    m.Kind(),
		"payload": m,
	})
}

// DecodeMetadata restores the typed payload written by EncodeMetadata.
func DecodeMetadata(data datatypes.JSON) (TrackingMetadata, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var envelope struct {
		Kind    InteractionType `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	var out TrackingMetadata
	switch envelope.Kind {
	case InteractionView:
		var v ViewMetadata
		if err := json.Unmarshal(envelope.Payload, &v); err != nil {
			return nil, err
		}
		out = v
	case InteractionClick, InteractionProductClick:
		var v ClickMetadata
		if err := json.Unmarshal(envelope.Payload, &v); err != nil {
			return nil, err
		}
		out = v
	case InteractionSearch:
		var v SearchMetadata
		if err := json.Unmarshal(envelope.Payload, &v); err != nil {
			return nil, err
		}
		out = v
	case InteractionVoice:
		var v VoiceMetadata
		if err := json.Unmarshal(envelope.Payload, &v); err != nil {
			return nil, err
		}
		out = v
	case InteractionCameraDetection:
		var v CameraMetadata
		if err := json.Unmarshal(envelope.Payload, &v); err != nil {
			return nil, err
		}
		out = v
	default:
		if !envelope.Kind.Valid() {
			return nil, fmt.Errorf("unknown metadata kind %q", envelope.Kind)
		}
		v := ExtraMetadata{Type: envelope.Kind}
		if err := json.Unmarshal(envelope.Payload, &v); err != nil {
			return nil, err
		}
		out = v
	}
	return out, nil
}
