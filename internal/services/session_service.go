// internal/services/session_service.go
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
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/utils"
)

// Provisioner is the single get-or-create boundary for referenced ids that
// may not exist yet. In strict mode it reports not-found instead.
type Provisioner struct {
	strict bool
	now    func() time.Time
}

func NewProvisioner(strict bool) *Provisioner {
	return &Provisioner{strict: strict, now: func() time.Time { return time.Now().UTC() }}
}

func (p *Provisioner) Strict() bool {
	return p.strict
}

// Session returns the session row for id, inserting a placeholder when absent.
func (p *Provisioner) Session(tx *gorm.DB, id string, channel models.SessionChannel) (*models.Session, error) {
	if id == "" {
		return nil, apperrors.Validation("session id is required")
	}

	var session models.Session
	err := tx.Where("id = ?", id).First(&session).Error
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if p.strict {
		return nil, apperrors.NotFound("session", "session "+id+" does not exist")
	}

	session = models.Session{
		ID:          id,
		StartedAt:   p.now(),
		Channel:     channel,
		Placeholder: true,
	}
	// A concurrent writer may have inserted it first; either row is fine.
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to provision session: %w", err)
	}
	if err := tx.Where("id = ?", id).First(&session).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id": id,
		"channel":    channel,
	}).Debug("Provisioned placeholder session")
	return &session, nil
}

// RecommendationBatch returns the batch with id, inserting an empty placeholder when absent.
func (p *Provisioner) RecommendationBatch(tx *gorm.DB, id uuid.UUID, sessionID string) (*models.RecommendationBatch, error) {
	var batch models.RecommendationBatch
	err := tx.Where("id = ?", id).First(&batch).Error
	if err == nil {
		return &batch, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if p.strict {
		return nil, apperrors.NotFound("recommendation", "recommendation "+id.String()+" does not exist")
	}

	batch = models.RecommendationBatch{
		SessionID:   sessionID,
		Type:        models.RecommendationTypePlaceholder,
		Algorithm:   "placeholder",
		Filters:     models.ToJSON(models.RecommendationFilters{}),
		Placeholder: true,
	}
	batch.ID = id
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&batch).Error; err != nil {
		return nil, fmt.Errorf("failed to provision recommendation: %w", err)
	}
	return &batch, nil
}

type SessionService struct {
	db          *gorm.DB
	provisioner *Provisioner
}

type StartSessionRequest struct {
	ID      string                `json:"session_id,omitempty" validate:"session_id"`
	Channel models.SessionChannel `json:"channel,omitempty" validate:"omitempty,oneof=voice vision mixed tracking"`
}

func NewSessionService(db *gorm.DB, provisioner *Provisioner) *SessionService {
	return &SessionService{db: db, provisioner: provisioner}
}

// Start opens a session. A known id that is still open is returned as is;
// a placeholder row is promoted to an explicit start.
func (s *SessionService) Start(req *StartSessionRequest) (*models.Session, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	channel := req.Channel
	if channel == "" {
		channel = models.SessionChannelMixed
	}

	var session models.Session
	err := s.db.Where("id = ?", id).First(&session).Error
	switch {
	case err == nil:
		if !session.Active() {
			return nil, apperrors.Conflict("session " + id + " already ended")
		}
		if session.Placeholder {
			session.Placeholder = false
			session.Channel = channel
			if err := s.db.Model(&session).Updates(map[string]interface{}{
				"placeholder": false,
				"channel":     channel,
			}).Error; err != nil {
				return nil, fmt.Errorf("failed to update session: %w", err)
			}
		}
		return &session, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("database error: %w", err)
	}

	session = models.Session{
		ID:        id,
		StartedAt: s.provisioner.now(),
		Channel:   channel,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &session, nil
}

func (s *SessionService) Get(id string) (*models.Session, error) {
	var session models.Session
	if err := s.db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("session", "session "+id+" not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &session, nil
}

// End stamps the end time. Ending an ended session is a no-op.
func (s *SessionService) End(id string) (*models.Session, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !session.Active() {
		return session, nil
	}

	now := s.provisioner.now()
	if err := s.db.Model(session).Update("ended_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	session.EndedAt = &now
	return session, nil
}

// Reset ends id (when it exists) and opens a fresh session on the same channel.
func (s *SessionService) Reset(id string) (*models.Session, error) {
	channel := models.SessionChannelMixed
	if previous, err := s.End(id); err == nil {
		channel = previous.Channel
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	return s.Start(&StartSessionRequest{Channel: channel})
}
