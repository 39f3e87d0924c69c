// internal/services/voice_service.go
package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/database"
	"github.com/smartotem/totem-backend/internal/metrics"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/nlu"
	"github.com/smartotem/totem-backend/internal/utils"
)

type VoiceService struct {
	db              *gorm.DB
	extractor       *nlu.Extractor
	provisioner     *Provisioner
	tracking        *TrackingService
	search          *SearchService
	recommendations *RecommendationService
}

type VoiceRequest struct {
	SessionID  string `json:"session_id" validate:"session_id"`
	Transcript string `json:"transcript" validate:"required,max=500"`
	Limit      int    `json:"limit,omitempty" validate:"min=0"`
}

type VoiceResult struct {
	Transcript       string        `json:"transcript"`
	Intent           nlu.Intent    `json:"intent"`
	Entities         nlu.Entities  `json:"entities"`
	Confidence       float64       `json:"confidence"`
	Source           string        `json:"source,omitempty"`
	Products         []VariantView `json:"products"`
	RecommendationID *uuid.UUID    `json:"recommendation_id,omitempty"`
	QueryID          *uuid.UUID    `json:"query_id,omitempty"`
}

func NewVoiceService(
	db *gorm.DB,
	provisioner *Provisioner,
	tracking *TrackingService,
	search *SearchService,
	recommendations *RecommendationService,
) *VoiceService {
	return &VoiceService{
		db:              db,
		extractor:       nlu.NewExtractor(),
		provisioner:     provisioner,
		tracking:        tracking,
		search:          search,
		recommendations: recommendations,
	}
}

// Process classifies a transcript and answers it with products. A color entity
// drives a color recommendation, anything else a catalog search.
func (s *VoiceService) Process(req *VoiceRequest) (*VoiceResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	extracted := s.extractor.Extract(req.Transcript)
	metrics.VoiceIntents.WithLabelValues(string(extracted.Intent)).Inc()

	result := &VoiceResult{
		Transcript: req.Transcript,
		Intent:     extracted.Intent,
		Entities:   extracted.Entities,
		Confidence: extracted.Confidence,
		Products:   []VariantView{},
	}
	if req.SessionID != "" {
		result.QueryID = s.record(req.SessionID, req.Transcript, extracted)
	}

	switch {
	case extracted.Intent == nlu.IntentNone:
		return result, nil

	case extracted.Entities.Color != "":
		recs, err := s.recommendations.ByColor(extracted.Entities.Color, req.Limit, req.SessionID)
		if err != nil {
			return nil, err
		}
		result.Source = string(models.RecommendationTypeColor)
		result.Products = recs.Items
		result.RecommendationID = recs.RecommendationID

	default:
		terms := nlu.QueryTerms(req.Transcript)
		if len(terms) == 0 {
			return result, nil
		}
		found, err := s.search.Search(strings.Join(terms, " "), req.Limit, req.SessionID)
		if err != nil {
			return nil, err
		}
		result.Source = string(models.RecommendationTypeSearch)
		result.Products = found.Items
		result.RecommendationID = found.RecommendationID
	}
	return result, nil
}

// record stores the query and its interaction. Failures are logged and do not
// affect the answer.
func (s *VoiceService) record(sessionID, transcript string, extracted nlu.Result) *uuid.UUID {
	log := logrus.WithField("session_id", sessionID)

	var queryID *uuid.UUID
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if _, err := s.provisioner.Session(tx, sessionID, models.SessionChannelVoice); err != nil {
			return err
		}
		query := &models.VoiceQuery{
			SessionID:  sessionID,
			Transcript: transcript,
			Intent:     string(extracted.Intent),
			Entities:   models.ToJSON(extracted.Entities),
			Confidence: extracted.Confidence,
		}
		if err := tx.Create(query).Error; err != nil {
			return err
		}
		queryID = &query.ID
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Failed to store voice query")
		metrics.SoftErrors.WithLabelValues("voice_query").Inc()
	}

	meta := models.VoiceMetadata{
		Transcript: transcript,
		Intent:     string(extracted.Intent),
		Confidence: extracted.Confidence,
	}
	if _, err := s.tracking.TrackInteraction(sessionID, models.InteractionVoice, nil, meta, nil); err != nil {
		log.WithError(err).Warn("Failed to track voice interaction")
		metrics.SoftErrors.WithLabelValues("tracking").Inc()
	}
	return queryID
}
