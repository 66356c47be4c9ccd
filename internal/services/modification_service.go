// internal/services/modification_service.go
package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/config"
	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

// ModificationService runs the paid-modification workflow: a licensed buyer
// requests changes, the architect quotes, the buyer pays through the same
// checkout/settlement machinery as purchases, and settlement marks the
// request completed, which unlocks direct contact.
type ModificationService struct {
	db             *gorm.DB
	paymentService *PaymentService
	config         *config.Config
}

type RequestModificationRequest struct {
	Description string `json:"description" validate:"required,min=10,max=5000"`
}

type QuoteModificationRequest struct {
	QuoteCents int64 `json:"quote_cents" validate:"required,min=1"`
}

func NewModificationService(db *gorm.DB, paymentService *PaymentService, cfg *config.Config) *ModificationService {
	return &ModificationService{
		db:             db,
		paymentService: paymentService,
		config:         cfg,
	}
}

// RequestModification opens a modification request against a design the
// buyer holds an active license for.
func (s *ModificationService) RequestModification(buyer Identity, designID uuid.UUID, req *RequestModificationRequest) (*models.ModificationRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed", utils.ValidationMessages(err)...)
	}

	var design models.Design
	if err := s.db.First(&design, "id = ?", designID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("design")
		}
		return nil, apperrors.Internal("failed to load design", err)
	}

	var licenseCount int64
	if err := s.db.Model(&models.License{}).
		Where("buyer_id = ? AND design_id = ? AND status = ?", buyer.UserID, designID, models.LicenseStatusActive).
		Count(&licenseCount).Error; err != nil {
		return nil, apperrors.Internal("failed to check license", err)
	}
	if licenseCount == 0 {
		return nil, apperrors.Forbidden("an active license is required to request modifications")
	}

	mod := &models.ModificationRequest{
		BuyerID:     buyer.UserID,
		ArchitectID: design.ArchitectID,
		DesignID:    designID,
		Description: strings.TrimSpace(req.Description),
		Currency:    design.Currency,
		Status:      models.ModificationStatusRequested,
	}
	if err := s.db.Create(mod).Error; err != nil {
		return nil, apperrors.Internal("failed to create modification request", err)
	}

	return mod, nil
}

// QuoteModification lets the architect price a requested modification.
func (s *ModificationService) QuoteModification(modID uuid.UUID, architect Identity, req *QuoteModificationRequest) (*models.ModificationRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed", utils.ValidationMessages(err)...)
	}

	mod, err := s.load(modID)
	if err != nil {
		return nil, err
	}
	if mod.ArchitectID != architect.UserID && !architect.IsAdmin() {
		return nil, apperrors.Forbidden("modification request belongs to a different architect")
	}
	if mod.Status != models.ModificationStatusRequested && mod.Status != models.ModificationStatusQuoted {
		return nil, apperrors.StateConflict("modification request", string(mod.Status),
			string(models.ModificationStatusRequested)+" or "+string(models.ModificationStatusQuoted))
	}

	if err := s.db.Model(mod).Updates(map[string]interface{}{
		"quote_cents": req.QuoteCents,
		"status":      models.ModificationStatusQuoted,
	}).Error; err != nil {
		return nil, apperrors.Internal("failed to quote modification", err)
	}

	return s.load(modID)
}

// PayModification opens a checkout session for a quoted modification and
// moves it to pending payment. Settlement completes it.
func (s *ModificationService) PayModification(modID uuid.UUID, buyer Identity) (*CheckoutResponse, error) {
	mod, err := s.load(modID)
	if err != nil {
		return nil, err
	}
	if mod.BuyerID != buyer.UserID {
		return nil, apperrors.Forbidden("modification request belongs to a different buyer")
	}
	if mod.Status != models.ModificationStatusQuoted {
		return nil, apperrors.StateConflict("modification request", string(mod.Status), string(models.ModificationStatusQuoted))
	}
	if mod.QuoteCents <= 0 {
		return nil, apperrors.Validation("modification request has no valid quote")
	}

	var design models.Design
	if err := s.db.First(&design, "id = ?", mod.DesignID).Error; err != nil {
		return nil, apperrors.Internal("failed to load design", err)
	}

	session, err := s.paymentService.CreateModificationCheckoutSession(mod, &design, mod.QuoteCents)
	if err != nil {
		return nil, err
	}

	feeCents, shareCents := ComputeSplit(mod.QuoteCents, s.config.Payment.PlatformFeePercent)
	transaction := &models.Transaction{
		BuyerID:             buyer.UserID,
		DesignID:            &mod.DesignID,
		ModificationID:      &mod.ID,
		PaymentType:         models.PaymentTypeModificationPayment,
		CheckoutSessionID:   session.ID,
		AmountCents:         mod.QuoteCents,
		PlatformFeeCents:    feeCents,
		ArchitectShareCents: shareCents,
		Currency:            mod.Currency,
		Status:              models.TransactionStatusPending,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Internal("failed to record transaction", err)
	}

	if err := s.db.Model(mod).Update("status", models.ModificationStatusPendingPayment).Error; err != nil {
		return nil, apperrors.Internal("failed to update modification status", err)
	}

	return &CheckoutResponse{
		CheckoutURL:   session.URL,
		SessionID:     session.ID,
		TransactionID: transaction.ID,
		AmountCents:   mod.QuoteCents,
		Currency:      mod.Currency,
	}, nil
}

// DeclineModification closes an unpaid request, by either party.
func (s *ModificationService) DeclineModification(modID uuid.UUID, actor Identity) (*models.ModificationRequest, error) {
	mod, err := s.load(modID)
	if err != nil {
		return nil, err
	}
	if mod.BuyerID != actor.UserID && mod.ArchitectID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.NotFound("modification request")
	}
	if mod.Status != models.ModificationStatusRequested && mod.Status != models.ModificationStatusQuoted {
		return nil, apperrors.StateConflict("modification request", string(mod.Status),
			string(models.ModificationStatusRequested)+" or "+string(models.ModificationStatusQuoted))
	}

	if err := s.db.Model(mod).Update("status", models.ModificationStatusDeclined).Error; err != nil {
		return nil, apperrors.Internal("failed to decline modification", err)
	}

	return s.load(modID)
}

// GetModificationRequests lists requests where the caller is buyer or
// architect.
func (s *ModificationService) GetModificationRequests(user Identity, params utils.PaginationParams) ([]models.ModificationRequest, int64, error) {
	query := s.db.Model(&models.ModificationRequest{}).
		Where("buyer_id = ? OR architect_id = ?", user.UserID, user.UserID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count modification requests", err)
	}

	var mods []models.ModificationRequest
	query = query.Preload("Design").Preload("Buyer").Preload("Architect").Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&mods).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list modification requests", err)
	}

	return mods, total, nil
}

func (s *ModificationService) load(id uuid.UUID) (*models.ModificationRequest, error) {
	var mod models.ModificationRequest
	if err := s.db.First(&mod, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("modification request")
		}
		return nil, apperrors.Internal("failed to load modification request", err)
	}
	return &mod, nil
}
