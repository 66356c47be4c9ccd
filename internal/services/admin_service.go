// internal/services/admin_service.go
package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

// AdminService covers platform oversight that does not belong to a domain
// service: user administration, the transaction ledger, and the webhook
// reconciliation trail.
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) ListUsers(params utils.PaginationParams, role string) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count users", err)
	}

	var users []models.User
	query = query.Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&users).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list users", err)
	}

	return users, total, nil
}

// SetUserStatus suspends or reactivates an account.
func (s *AdminService) SetUserStatus(userID uuid.UUID, status models.UserStatus) (*models.User, error) {
	if status != models.UserStatusActive && status != models.UserStatusSuspended {
		return nil, apperrors.Validation("status must be active or suspended")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Internal("failed to load user", err)
	}
	if user.IsAdmin() {
		return nil, apperrors.Forbidden("admin accounts cannot be suspended")
	}

	if err := s.db.Model(&user).Update("status", status).Error; err != nil {
		return nil, apperrors.Internal("failed to update user status", err)
	}

	return &user, nil
}

// ListTransactions pages the full payment ledger.
func (s *AdminService) ListTransactions(params utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count transactions", err)
	}

	var transactions []models.Transaction
	query = query.Preload("Buyer").Preload("Design").Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&transactions).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list transactions", err)
	}

	return transactions, total, nil
}

// ListWebhookEvents pages the settlement reconciliation trail, optionally
// filtered to one outcome.
func (s *AdminService) ListWebhookEvents(params utils.PaginationParams, outcome string) ([]models.WebhookEvent, int64, error) {
	query := s.db.Model(&models.WebhookEvent{})
	if outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count webhook events", err)
	}

	var events []models.WebhookEvent
	query = query.Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&events).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list webhook events", err)
	}

	return events, total, nil
}
