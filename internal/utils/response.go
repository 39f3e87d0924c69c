// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/i18n"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAdminAccessDenied)
	}
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

func NotFoundResponse(c *gin.Context, resource string) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, resource+".not_found")
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, "CONFLICT", message, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyError)
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func ServiceUnavailableResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusServiceUnavailable, "UNAVAILABLE", message, nil)
}

func ValidationErrorResponse(c *gin.Context, details []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

// ClientError maps a service error onto the status and error body a client
// may see. Untyped errors become a generic localized message; their text never
// leaves the server.
func ClientError(lang string, err error) (int, *APIError) {
	if details := GetValidationErrors(err); len(details) > 0 {
		return http.StatusBadRequest, &APIError{
			Code:    "VALIDATION_ERROR",
			Message: i18n.T(lang, i18n.KeyValidationInvalid, "input"),
			Details: details,
		}
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message := appErr.Message
		if appErr.Key != "" {
			message = i18n.T(lang, appErr.Key)
		}
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			if message == "" {
				message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
			}
			return http.StatusBadRequest, &APIError{Code: "BAD_REQUEST", Message: message}
		case apperrors.ErrorTypeNotFound:
			return http.StatusNotFound, &APIError{Code: "NOT_FOUND", Message: i18n.T(lang, appErr.Resource+".not_found")}
		case apperrors.ErrorTypeUnauthorized:
			return http.StatusUnauthorized, &APIError{Code: "UNAUTHORIZED", Message: i18n.T(lang, i18n.KeyAuthRequired)}
		case apperrors.ErrorTypeConflict:
			return http.StatusConflict, &APIError{Code: "CONFLICT", Message: message}
		}
	}

	return http.StatusInternalServerError, &APIError{Code: "INTERNAL_ERROR", Message: i18n.T(lang, i18n.KeyError)}
}

// AppErrorResponse maps a service error onto the response envelope.
// Anything that is not a typed client error is logged and answered with a generic 500.
func AppErrorResponse(c *gin.Context, err error) {
	status, apiErr := ClientError(GetLangFromContext(c), err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		}).Error("Request failed")
	}
	ErrorResponse(c, status, apiErr.Code, apiErr.Message, apiErr.Details)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
			"sort":        result.Sort,
			"order":       result.Order,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return i18n.DefaultLanguage()
}

func GetStaffIDFromContext(c *gin.Context) (string, bool) {
	if staffID, exists := c.Get("staff_id"); exists {
		if staffIDStr, ok := staffID.(string); ok {
			return staffIDStr, true
		}
	}
	return "", false
}

func GetStaffRoleFromContext(c *gin.Context) (string, bool) {
	if role, exists := c.Get("staff_role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr, true
		}
	}
	return "", false
}
