// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smartotem/totem-backend/internal/i18n"
)

// I18nMiddleware resolves the response language from ?lang or Accept-Language.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := resolveLanguage(c.Query("lang"))
		if lang == "" {
			lang = resolveLanguage(c.GetHeader("Accept-Language"))
		}
		if lang == "" {
			lang = i18n.DefaultLanguage()
		}

		c.Set("lang", lang)
		c.Next()
	}
}

// Handles values like "es-CL,es;q=0.9,en;q=0.8"; only the first preference counts.
func resolveLanguage(value string) string {
	if value == "" {
		return ""
	}
	first := strings.TrimSpace(strings.Split(strings.Split(value, ",")[0], ";")[0])
	base := strings.ToLower(strings.SplitN(strings.ReplaceAll(first, "_", "-"), "-", 2)[0])
	if i18n.IsSupported(base) {
		return base
	}
	return ""
}
