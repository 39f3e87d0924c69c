// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/models"
)

const maxAuditBody = 64 << 10

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if sessionID := c.Query("session_id"); sessionID != "" {
			fields["session_id"] = sessionID
		}

		entry := logrus.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics":
			entry.Debug("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}

// AuditLogMiddleware records every authenticated staff write. Kiosk traffic
// carries no staff id and is not audited.
func AuditLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		// Read request body
		var requestBody []byte
		if c.Request.Body != nil && strings.HasPrefix(c.ContentType(), "application/json") {
			requestBody, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody))
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		staffID, ok := c.Get("staff_id")
		if !ok {
			return
		}
		var staffUUID *uuid.UUID
		if id, ok := staffID.(string); ok {
			if parsed, err := uuid.Parse(id); err == nil {
				staffUUID = &parsed
			}
		}

		var details map[string]interface{}
		if len(requestBody) > 0 {
			if err := json.Unmarshal(requestBody, &details); err == nil {
				delete(details, "password")
			}
		}

		auditLog := &models.AuditLog{
			StaffID:      staffUUID,
			Action:       c.Request.Method + " " + c.FullPath(),
			ResourceType: extractResourceType(c.Request.URL.Path),
			ResourceID:   c.Param("id"),
			Details:      models.ToJSON(details),
			StatusCode:   c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}
		if err := db.Create(auditLog).Error; err != nil {
			logrus.WithError(err).WithField("action", auditLog.Action).Error("Failed to create audit log")
		}
	}
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "v1" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}
