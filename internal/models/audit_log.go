package models

// AuditLog records a mutating API request: who did what, when, and how
// the server answered. Written by the audit middleware after the
// response is sent.
type AuditLog struct {
	BaseModel
	Action      string `gorm:"size:255;not null" json:"action"`
	Method      string `gorm:"size:10" json:"method"`
	Path        string `gorm:"size:255;index" json:"path"`
	StatusCode  int    `json:"statusCode"`
	DurationMS  int64  `json:"durationMs"`
	ActorUserID string `gorm:"size:36;index" json:"actorUserId,omitempty"`
	ActorRole   string `gorm:"size:20" json:"actorRole"`
	IP          string `gorm:"size:45" json:"ip"`
	UserAgent   string `gorm:"size:255" json:"userAgent,omitempty"`
	Body        string `gorm:"type:text" json:"body,omitempty"`
}
