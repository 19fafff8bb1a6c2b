package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"plata/internal/logger"
	"plata/internal/models"
)

// auditService records sensitive operations. Logging is best-effort: an
// audit failure must never fail the request that triggered it.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log writes an audit entry for a user action on a resource.
func (s *auditService) Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]any) {
	var changesJSON string
	if len(changes) > 0 {
		if b, err := json.Marshal(changes); err == nil {
			changesJSON = string(b)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}
	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to write audit log",
			"user_id", userID,
			"action", action,
			"error", err.Error(),
		)
	}
}
