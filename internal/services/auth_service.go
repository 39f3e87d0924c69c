// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/config"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/utils"
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required"`
}

type CreateStaffRequest struct {
	Username    string           `json:"username" validate:"required,username"`
	DisplayName string           `json:"display_name" validate:"omitempty,max=100"`
	Password    string           `json:"password" validate:"required,min=8"`
	Role        models.StaffRole `json:"role" validate:"required,oneof=admin operator"`
}

type AuthResponse struct {
	Staff       *models.Staff `json:"staff"`
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int           `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var staff models.Staff
	if err := s.db.Where("username = ?", req.Username).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !staff.Active {
		return nil, apperrors.Unauthorized("account is disabled")
	}
	if err := staff.CheckPassword(req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid username or password")
	}

	// Update last login time
	now := time.Now()
	staff.LastLoginAt = &now
	if err := s.db.Model(&staff).Update("last_login_at", now).Error; err != nil {
		logrus.WithError(err).WithField("staff_id", staff.ID).Warn("Failed to update last login")
	}

	accessToken, err := utils.GenerateJWT(staff.ID, staff.Username, string(staff.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		Staff:       &staff,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

func (s *AuthService) Me(staffID uuid.UUID) (*models.Staff, error) {
	var staff models.Staff
	if err := s.db.Where("id = ?", staffID).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("staff", "staff member not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &staff, nil
}

// CreateStaff registers an operator or admin account. Only admins reach it.
func (s *AuthService) CreateStaff(req *CreateStaffRequest) (*models.Staff, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Staff{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return nil, apperrors.Conflict("username already taken")
	}

	staff := &models.Staff{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Active:      true,
	}
	if err := staff.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.Create(staff).Error; err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	return staff, nil
}
