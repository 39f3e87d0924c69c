// internal/services/vision_service.go
package services

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/database"
	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/metrics"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/utils"
	"github.com/smartotem/totem-backend/internal/vision"
)

type VisionService struct {
	db              *gorm.DB
	analyzer        *vision.Analyzer
	provisioner     *Provisioner
	tracking        *TrackingService
	shifts          *ShiftService
	recommendations *RecommendationService
	maxUploadBytes  int
}

type AnalyzeFrameRequest struct {
	SessionID string            `validate:"session_id"`
	Frame     []byte            `validate:"-"`
	Landmarks *vision.Landmarks `validate:"-"`
	Annotate  bool
	Recommend bool
	Limit     int `validate:"min=0"`
}

type FrameResult struct {
	Profile         vision.Profile        `json:"profile"`
	Warnings        []vision.Warning      `json:"warnings,omitempty"`
	AnnotatedImage  string                `json:"annotated_image,omitempty"`
	DetectionID     *uuid.UUID            `json:"detection_id,omitempty"`
	Recommendations *RecommendationResult `json:"recommendations,omitempty"`
	ProcessingMs    int64                 `json:"processing_ms"`
}

func NewVisionService(
	db *gorm.DB,
	analyzer *vision.Analyzer,
	provisioner *Provisioner,
	tracking *TrackingService,
	shifts *ShiftService,
	recommendations *RecommendationService,
	maxUploadBytes int,
) *VisionService {
	return &VisionService{
		db:              db,
		analyzer:        analyzer,
		provisioner:     provisioner,
		tracking:        tracking,
		shifts:          shifts,
		recommendations: recommendations,
		maxUploadBytes:  maxUploadBytes,
	}
}

// AnalyzeFrame runs the pipeline on one uploaded frame. Only a rejected payload
// is an error; pipeline failures come back as an error profile with warnings.
func (s *VisionService) AnalyzeFrame(ctx context.Context, req *AnalyzeFrameRequest) (*FrameResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := vision.ValidateUpload(req.Frame, s.maxUploadBytes); err != nil {
		return nil, apperrors.Validation(err.Error()).WithKey(uploadErrorKey(err))
	}

	started := time.Now()
	analysis := s.analyzer.Analyze(ctx, req.Frame, vision.Options{Landmarks: req.Landmarks, Annotate: req.Annotate})
	elapsed := time.Since(started)
	observeAnalysis(analysis, elapsed)

	result := &FrameResult{
		Profile:      analysis.Profile,
		Warnings:     analysis.Warnings,
		ProcessingMs: elapsed.Milliseconds(),
	}
	if len(analysis.Annotated) > 0 {
		result.AnnotatedImage = base64.StdEncoding.EncodeToString(analysis.Annotated)
	}

	if req.SessionID != "" && !analysis.Profile.IsError() {
		result.DetectionID = s.record(req.SessionID, analysis.Profile)
	}

	if req.Recommend && !analysis.Profile.IsError() {
		recs, err := s.recommendations.Personalized(&PersonalizedRequest{
			SessionID: req.SessionID,
			Age:       analysis.Profile.AgeBracket,
			Style:     analysis.Profile.ClothingStyle,
			Color:     analysis.Profile.PrimaryColor,
			Limit:     req.Limit,
		})
		if err != nil {
			logrus.WithError(err).WithField("session_id", req.SessionID).Warn("Failed to build frame recommendations")
			metrics.SoftErrors.WithLabelValues("vision_recommend").Inc()
		} else {
			result.Recommendations = recs
		}
	}
	return result, nil
}

func uploadErrorKey(err error) string {
	switch {
	case errors.Is(err, vision.ErrUploadTooLarge):
		return i18n.KeyFrameTooLarge
	case errors.Is(err, vision.ErrUnsupportedImage):
		return i18n.KeyFrameInvalidType
	default:
		return i18n.KeyFrameMissing
	}
}

func observeAnalysis(analysis vision.Analysis, elapsed time.Duration) {
	outcome := "ok"
	switch {
	case analysis.Profile.IsError():
		outcome = "error"
	case !analysis.Profile.PersonDetected:
		outcome = "empty"
	}
	metrics.FramesAnalyzed.WithLabelValues(outcome).Inc()
	metrics.FrameDuration.Observe(elapsed.Seconds())
	for _, w := range analysis.Warnings {
		metrics.VisionWarnings.WithLabelValues(w.Stage, w.Code).Inc()
		if w.Detail != "" {
			logrus.WithFields(logrus.Fields{
				"stage":  w.Stage,
				"code":   w.Code,
				"detail": w.Detail,
			}).Debug("Vision warning")
		}
	}
	for _, label := range analysis.Profile.Accessories() {
		metrics.AccessoriesDetected.WithLabelValues(label).Inc()
	}
}

// record persists the detection for the session, the shift buffer and the
// interaction log. Each write is independent and failures are only logged.
func (s *VisionService) record(sessionID string, profile vision.Profile) *uuid.UUID {
	log := logrus.WithField("session_id", sessionID)

	var detectionID *uuid.UUID
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if _, err := s.provisioner.Session(tx, sessionID, models.SessionChannelVision); err != nil {
			return err
		}
		detection := &models.Detection{
			SessionID:    sessionID,
			ClothingItem: profile.ClothingItem,
			Style:        profile.ClothingStyle,
			Color:        profile.PrimaryColor,
			AgeBracket:   profile.AgeBracket,
			Confidence:   profile.DetectionConfidence,
		}
		if err := tx.Create(detection).Error; err != nil {
			return err
		}
		detectionID = &detection.ID
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Failed to store detection")
		metrics.SoftErrors.WithLabelValues("detection").Inc()
	}

	if s.shifts != nil {
		if _, err := s.shifts.RecordDetection(sessionID, profile); err != nil {
			log.WithError(err).Warn("Failed to buffer detection on shift")
			metrics.SoftErrors.WithLabelValues("shift_buffer").Inc()
		}
	}

	meta := models.CameraMetadata{Item: profile.ClothingItem, Color: profile.PrimaryColor}
	if _, err := s.tracking.TrackInteraction(sessionID, models.InteractionCameraDetection, nil, meta, nil); err != nil {
		log.WithError(err).Warn("Failed to track camera detection")
		metrics.SoftErrors.WithLabelValues("tracking").Inc()
	}
	return detectionID
}
