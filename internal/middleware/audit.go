package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
)

var auditMethods = map[string]bool{
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

var sensitiveAuditFields = []string{"password", "token", "refreshToken", "accessToken"}

// AuditMiddleware records every mutating API request to the audit_logs
// table after the response is written. Failures to persist the entry
// are logged and never affect the request.
func AuditMiddleware(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auditMethods[c.Request.Method] || !strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Next()
			return
		}

		startedAt := time.Now()

		// The body has to be buffered so the handler can still read it.
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		c.Next()

		actorID, _ := GetUserIDFromContext(c)
		actorRole := "guest"
		if role, ok := GetUserRoleFromContext(c); ok {
			actorRole = string(role)
		}

		entry := models.AuditLog{
			Action:      c.Request.Method + " " + c.Request.URL.Path,
			Method:      c.Request.Method,
			Path:        c.Request.URL.Path,
			StatusCode:  c.Writer.Status(),
			DurationMS:  time.Since(startedAt).Milliseconds(),
			ActorUserID: actorID,
			ActorRole:   actorRole,
			IP:          c.ClientIP(),
			UserAgent:   c.Request.UserAgent(),
			Body:        sanitizeAuditBody(body),
		}

		if err := db.Create(&entry).Error; err != nil {
			log.Error("failed to write audit log",
				zap.String("path", entry.Path),
				zap.Error(err))
		}
	}
}

// sanitizeAuditBody redacts credential fields from a JSON request body
// before it is persisted. Non-JSON bodies are dropped entirely.
func sanitizeAuditBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, field := range sensitiveAuditFields {
		if _, ok := payload[field]; ok {
			payload[field] = "[REDACTED]"
		}
	}
	sanitized, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(sanitized)
}
