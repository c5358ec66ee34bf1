package entities

import "time"

type AuditEventType string

const (
	AuditEventAuth    AuditEventType = "auth"
	AuditEventAccount AuditEventType = "account"
	AuditEventDesign  AuditEventType = "design"
)

// ParseAuditEventType returns false for anything outside the known set.
func ParseAuditEventType(s string) (AuditEventType, bool) {
	switch t := AuditEventType(s); t {
	case AuditEventAuth, AuditEventAccount, AuditEventDesign:
		return t, true
	}
	return "", false
}

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is a security-relevant action: logins, registrations and
// catalogue changes made by admins.
type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AccountID   uint           `gorm:"index" json:"accountId"` // actor; 0 when unknown
	EventType   AuditEventType `gorm:"index;size:50" json:"eventType"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g. "login", "design_delete"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string         `gorm:"size:50" json:"entityType,omitempty"`
	EntityID    *uint          `gorm:"index" json:"entityId,omitempty"`
	IPAddress   string         `gorm:"size:45" json:"ipAddress,omitempty"`
	UserAgent   string         `gorm:"size:500" json:"userAgent,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
