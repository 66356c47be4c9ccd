// internal/services/audit_service.go
package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

// AuditService writes the append-only trail of security-relevant actions.
// Recording is fire-and-forget: an audit insert failure is logged but never
// fails the operation it describes.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) Record(userID *uuid.UUID, action, resourceType string, resourceID *uuid.UUID, metadata models.JSONB) {
	go func() {
		entry := &models.AuditLog{
			UserID:       userID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			Metadata:     metadata,
		}
		if err := s.db.Create(entry).Error; err != nil {
			logrus.WithError(err).WithField("action", action).Error("Failed to write audit log")
		}
	}()
}

// List pages the audit trail for admins, optionally filtered by action or
// resource type.
func (s *AuditService) List(params utils.PaginationParams, action, resourceType string) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{})
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if resourceType != "" {
		query = query.Where("resource_type = ?", resourceType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	query = query.Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
