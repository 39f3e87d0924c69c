// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Login(&req)
	if err != nil {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyAuthLoginSuccess),
		"staff":      authResponse.Staff,
		"token":      authResponse.AccessToken,
		"token_type": authResponse.TokenType,
		"expires_in": authResponse.ExpiresIn,
	})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	staffIDStr, exists := utils.GetStaffIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	staffID, err := uuid.Parse(staffIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	staff, err := h.authService.Me(staffID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"staff": staff,
	})
}

// POST /auth/staff
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	var req services.CreateStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	staff, err := h.authService.CreateStaff(&req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"staff": staff,
	})
}
