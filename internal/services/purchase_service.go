// internal/services/purchase_service.go
package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/config"
	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

type PurchaseService struct {
	db             *gorm.DB
	paymentService *PaymentService
	config         *config.Config
}

// Availability is the result of the pre-purchase eligibility check. Reasons
// lists every failed rule so the storefront can explain, not just refuse.
type Availability struct {
	Available bool     `json:"available"`
	Reasons   []string `json:"reasons,omitempty"`
}

type CheckoutResponse struct {
	CheckoutURL   string    `json:"checkout_url"`
	SessionID     string    `json:"session_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
}

func NewPurchaseService(db *gorm.DB, paymentService *PaymentService, cfg *config.Config) *PurchaseService {
	return &PurchaseService{
		db:             db,
		paymentService: paymentService,
		config:         cfg,
	}
}

// AvailabilityReasons applies every purchase-eligibility rule to already
// loaded facts. Kept pure so the rules are testable without a database; the
// race between concurrent exclusive buyers is closed by the partial unique
// index on licenses, not by this check.
func AvailabilityReasons(design *models.Design, buyerID uuid.UUID, hasActiveLicense, exclusiveTaken bool) []string {
	var reasons []string

	if !design.Purchasable() {
		reasons = append(reasons, "design is not available for purchase")
	}
	if design.ArchitectID == buyerID {
		reasons = append(reasons, "architects cannot purchase their own designs")
	}
	if hasActiveLicense {
		reasons = append(reasons, "you already hold an active license for this design")
	}
	if design.LicenseType == models.LicenseTypeExclusive && exclusiveTaken {
		reasons = append(reasons, "the exclusive license for this design has already been claimed")
	}

	return reasons
}

// CheckAvailability evaluates purchase eligibility for a buyer without
// side effects. Unavailable is a normal answer, not an error.
func (s *PurchaseService) CheckAvailability(designID uuid.UUID, buyer Identity) (*Availability, error) {
	var design models.Design
	if err := s.db.First(&design, "id = ?", designID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("design")
		}
		return nil, apperrors.Internal("failed to load design", err)
	}

	hasLicense, exclusiveTaken, err := s.licenseFacts(s.db, &design, buyer.UserID)
	if err != nil {
		return nil, err
	}

	reasons := AvailabilityReasons(&design, buyer.UserID, hasLicense, exclusiveTaken)
	return &Availability{Available: len(reasons) == 0, Reasons: reasons}, nil
}

// InitiateCheckout verifies eligibility, opens a provider checkout session
// and records a pending transaction with the fee split fixed at purchase
// time. Nothing is granted here; only settlement turns a pending row into a
// license.
func (s *PurchaseService) InitiateCheckout(buyer Identity, designID uuid.UUID) (*CheckoutResponse, error) {
	var design models.Design
	if err := s.db.Preload("Architect").First(&design, "id = ?", designID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("design")
		}
		return nil, apperrors.Internal("failed to load design", err)
	}

	hasLicense, exclusiveTaken, err := s.licenseFacts(s.db, &design, buyer.UserID)
	if err != nil {
		return nil, err
	}
	if reasons := AvailabilityReasons(&design, buyer.UserID, hasLicense, exclusiveTaken); len(reasons) > 0 {
		return nil, apperrors.Validation("design cannot be purchased", reasons...)
	}

	// An open checkout session for the same buyer and design counts as a
	// duplicate; the buyer finishes or abandons it before starting another.
	var openSessions int64
	if err := s.db.Model(&models.Transaction{}).
		Where("buyer_id = ? AND design_id = ? AND payment_type = ? AND status = ?",
			buyer.UserID, design.ID, models.PaymentTypeDesignPurchase, models.TransactionStatusPending).
		Count(&openSessions).Error; err != nil {
		return nil, apperrors.Internal("failed to check open checkout sessions", err)
	}
	if openSessions > 0 {
		return nil, apperrors.Duplicate("a checkout for this design is already in progress")
	}

	amountCents := priceToCents(design.Price)
	if amountCents <= 0 {
		return nil, apperrors.Validation("design has no valid price")
	}
	feeCents, shareCents := ComputeSplit(amountCents, s.config.Payment.PlatformFeePercent)

	session, err := s.paymentService.CreateDesignCheckoutSession(&design, buyer.UserID, amountCents)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		BuyerID:             buyer.UserID,
		DesignID:            &design.ID,
		PaymentType:         models.PaymentTypeDesignPurchase,
		CheckoutSessionID:   session.ID,
		AmountCents:         amountCents,
		PlatformFeeCents:    feeCents,
		ArchitectShareCents: shareCents,
		Currency:            design.Currency,
		LicenseType:         design.LicenseType,
		Status:              models.TransactionStatusPending,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Internal("failed to record transaction", err)
	}

	return &CheckoutResponse{
		CheckoutURL:   session.URL,
		SessionID:     session.ID,
		TransactionID: transaction.ID,
		AmountCents:   amountCents,
		Currency:      design.Currency,
	}, nil
}

// GetPurchaseHistory lists the buyer's transactions, newest first.
func (s *PurchaseService) GetPurchaseHistory(buyerID uuid.UUID, params utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{}).Where("buyer_id = ?", buyerID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count transactions", err)
	}

	var transactions []models.Transaction
	query = query.Preload("Design").Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&transactions).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list transactions", err)
	}

	return transactions, total, nil
}

// GetLicenses lists the buyer's licenses together with the designs they
// unlock.
func (s *PurchaseService) GetLicenses(buyerID uuid.UUID, params utils.PaginationParams) ([]models.License, int64, error) {
	query := s.db.Model(&models.License{}).Where("buyer_id = ?", buyerID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count licenses", err)
	}

	var licenses []models.License
	query = query.Preload("Design").Preload("Design.Architect").Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&licenses).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list licenses", err)
	}

	return licenses, total, nil
}

// GetArchitectEarnings lists settlement-produced earnings with a running
// total per status.
func (s *PurchaseService) GetArchitectEarnings(architectID uuid.UUID, params utils.PaginationParams) ([]models.ArchitectEarning, int64, map[string]int64, error) {
	query := s.db.Model(&models.ArchitectEarning{}).Where("architect_id = ?", architectID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, nil, apperrors.Internal("failed to count earnings", err)
	}

	var earnings []models.ArchitectEarning
	query = query.Preload("Transaction").Preload("Transaction.Design").Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&earnings).Error; err != nil {
		return nil, 0, nil, apperrors.Internal("failed to list earnings", err)
	}

	type statusSum struct {
		Status models.EarningStatus
		Total  int64
	}
	var sums []statusSum
	if err := s.db.Model(&models.ArchitectEarning{}).
		Select("status, COALESCE(SUM(amount_cents), 0) AS total").
		Where("architect_id = ?", architectID).
		Group("status").
		Scan(&sums).Error; err != nil {
		return nil, 0, nil, apperrors.Internal("failed to sum earnings", err)
	}

	totals := make(map[string]int64, len(sums))
	for _, row := range sums {
		totals[string(row.Status)] = row.Total
	}

	return earnings, total, totals, nil
}

// HasActiveLicense reports whether the buyer currently holds an active
// license for the design. Shared by the access gate and review service.
func (s *PurchaseService) HasActiveLicense(buyerID, designID uuid.UUID) (bool, *models.License, error) {
	var license models.License
	err := s.db.Where("buyer_id = ? AND design_id = ? AND status = ?",
		buyerID, designID, models.LicenseStatusActive).First(&license).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, apperrors.Internal("failed to check license", err)
	}
	return true, &license, nil
}

// licenseFacts gathers the availability inputs for one buyer and design.
// For an exclusive design, a purchase intent already claims the single sale:
// any pending or paid design-purchase transaction counts as taken, not only a
// settled license, so a second buyer cannot open a checkout session while the
// first one is still paying.
func (s *PurchaseService) licenseFacts(db *gorm.DB, design *models.Design, buyerID uuid.UUID) (hasLicense, exclusiveTaken bool, err error) {
	var buyerCount int64
	if err := db.Model(&models.License{}).
		Where("buyer_id = ? AND design_id = ? AND status = ?", buyerID, design.ID, models.LicenseStatusActive).
		Count(&buyerCount).Error; err != nil {
		return false, false, apperrors.Internal("failed to check existing license", err)
	}

	if design.LicenseType != models.LicenseTypeExclusive {
		return buyerCount > 0, false, nil
	}

	var exclusiveCount int64
	if err := db.Model(&models.License{}).
		Where("design_id = ? AND license_type = ? AND status = ?", design.ID, models.LicenseTypeExclusive, models.LicenseStatusActive).
		Count(&exclusiveCount).Error; err != nil {
		return false, false, apperrors.Internal("failed to check exclusive license", err)
	}

	var intentCount int64
	if err := db.Model(&models.Transaction{}).
		Where("design_id = ? AND payment_type = ? AND status IN ?",
			design.ID, models.PaymentTypeDesignPurchase,
			[]models.TransactionStatus{models.TransactionStatusPending, models.TransactionStatusPaid}).
		Count(&intentCount).Error; err != nil {
		return false, false, apperrors.Internal("failed to check purchase intents", err)
	}

	return buyerCount > 0, exclusiveCount > 0 || intentCount > 0, nil
}

// priceToCents converts the listed decimal price into minor currency units,
// rounding to the cent boundary the same way the checkout provider does.
func priceToCents(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
