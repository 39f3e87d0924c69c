// internal/handlers/session.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/utils"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// POST /sessions
func (h *SessionHandler) Start(c *gin.Context) {
	var req services.StartSessionRequest
	// An empty body starts an anonymous mixed-channel session.
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	session, err := h.sessionService.Start(&req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, session)
}

// GET /sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessionService.Get(c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, session)
}

// POST /sessions/:id/end
func (h *SessionHandler) End(c *gin.Context) {
	session, err := h.sessionService.End(c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeySessionEnded),
		"session": session,
	})
}

// POST /sessions/:id/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	session, err := h.sessionService.Reset(c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, session)
}
