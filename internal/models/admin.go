// internal/models/admin.go
package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog records staff writes (shift rollover, catalog edits).
type AuditLog struct {
	BaseModel
	StaffID      *uuid.UUID     `json:"staff_id" gorm:"type:uuid;index"`
	Action       string         `json:"action" gorm:"size:100;not null;index"`
	ResourceType string         `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   string         `json:"resource_id" gorm:"size:64;index"`
	Details      datatypes.JSON `json:"details"`
	StatusCode   int            `json:"status_code"`
	IPAddress    string         `json:"ip_address" gorm:"size:45"`
	UserAgent    string         `json:"user_agent" gorm:"type:text"`

	// Relationships
	Staff *Staff `json:"staff,omitempty" gorm:"foreignKey:StaffID"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
