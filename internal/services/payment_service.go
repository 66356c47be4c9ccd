// internal/services/payment_service.go
package services

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	checkoutsession "github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/refund"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/config"
	"github.com/planmarket/planmarket-backend/internal/models"
)

// PaymentService is the only component that talks to the payment provider.
// Everything downstream works from the durable Transaction row, so the rest
// of the system never depends on provider availability.
type PaymentService struct {
	db     *gorm.DB
	config *config.Config
}

// CheckoutSession is the provider-session subset the purchase flow needs.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutMetadata is the session metadata settlement reads back from
// webhook events to classify and validate them.
type CheckoutMetadata struct {
	PaymentType    models.PaymentType
	DesignID       *uuid.UUID
	ModificationID *uuid.UUID
	BuyerID        uuid.UUID
	LicenseType    models.LicenseType
	AmountCents    int64
}

func NewPaymentService(db *gorm.DB, cfg *config.Config) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:     db,
		config: cfg,
	}
}

// CreateDesignCheckoutSession opens a one-off payment session for a design
// purchase. The metadata mirrors the pending transaction so settlement can
// cross-check the webhook against what was actually offered.
func (s *PaymentService) CreateDesignCheckoutSession(design *models.Design, buyerID uuid.UUID, amountCents int64) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.config.Frontend.CheckoutSuccessURL),
		CancelURL:  stripe.String(s.config.Frontend.CheckoutCancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(design.Currency),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(design.Title),
						Description: stripe.String(fmt.Sprintf("%s license", design.LicenseType)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(buyerID.String()),
	}
	params.Metadata = map[string]string{
		"payment_type": string(models.PaymentTypeDesignPurchase),
		"design_id":    design.ID.String(),
		"buyer_id":     buyerID.String(),
		"license_type": string(design.LicenseType),
		"amount_cents": strconv.FormatInt(amountCents, 10),
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, apperrors.External("create checkout session", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CreateModificationCheckoutSession opens a payment session for a quoted
// design modification.
func (s *PaymentService) CreateModificationCheckoutSession(mod *models.ModificationRequest, design *models.Design, amountCents int64) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.config.Frontend.CheckoutSuccessURL),
		CancelURL:  stripe.String(s.config.Frontend.CheckoutCancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(mod.Currency),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Design modification: " + design.Title),
						Description: stripe.String("Custom modification work"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(mod.BuyerID.String()),
	}
	params.Metadata = map[string]string{
		"payment_type":    string(models.PaymentTypeModificationPayment),
		"modification_id": mod.ID.String(),
		"design_id":       mod.DesignID.String(),
		"buyer_id":        mod.BuyerID.String(),
		"amount_cents":    strconv.FormatInt(amountCents, 10),
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, apperrors.External("create checkout session", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhookPayload authenticates a raw webhook body against the signing
// secret. Signature failure is the one condition that rejects a webhook
// outright.
func (s *PaymentService) VerifyWebhookPayload(payload []byte, signatureHeader string) (*stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signatureHeader,
		s.config.Payment.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, apperrors.Security("webhook signature verification failed")
	}
	return &event, nil
}

// ParseCheckoutMetadata reads checkout metadata back from a provider
// session, reporting every malformed field.
func ParseCheckoutMetadata(metadata map[string]string) (*CheckoutMetadata, []string) {
	var problems []string
	out := &CheckoutMetadata{}

	switch models.PaymentType(metadata["payment_type"]) {
	case models.PaymentTypeDesignPurchase:
		out.PaymentType = models.PaymentTypeDesignPurchase
	case models.PaymentTypeModificationPayment:
		out.PaymentType = models.PaymentTypeModificationPayment
	default:
		problems = append(problems, "unknown payment_type: "+metadata["payment_type"])
	}

	if raw := metadata["design_id"]; raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			out.DesignID = &id
		} else {
			problems = append(problems, "malformed design_id")
		}
	}
	if raw := metadata["modification_id"]; raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			out.ModificationID = &id
		} else {
			problems = append(problems, "malformed modification_id")
		}
	}

	if id, err := uuid.Parse(metadata["buyer_id"]); err == nil {
		out.BuyerID = id
	} else {
		problems = append(problems, "missing or malformed buyer_id")
	}

	if raw := metadata["license_type"]; raw != "" {
		out.LicenseType = models.LicenseType(raw)
	}

	if cents, err := strconv.ParseInt(metadata["amount_cents"], 10, 64); err == nil {
		out.AmountCents = cents
	} else {
		problems = append(problems, "missing or malformed amount_cents")
	}

	if out.PaymentType == models.PaymentTypeDesignPurchase && out.DesignID == nil {
		problems = append(problems, "design purchase without design_id")
	}
	if out.PaymentType == models.PaymentTypeModificationPayment && out.ModificationID == nil {
		problems = append(problems, "modification payment without modification_id")
	}

	return out, problems
}

// RefundTransaction issues a provider refund for a paid transaction and
// marks the row refunded. Earnings flip back to pending review by the
// payout workflow, never silently disappear.
func (s *PaymentService) RefundTransaction(transactionID uuid.UUID, admin Identity, reason string) (*models.Transaction, error) {
	if !admin.IsAdmin() {
		return nil, apperrors.Forbidden("admin role required")
	}

	var transaction models.Transaction
	if err := s.db.First(&transaction, "id = ?", transactionID).Error; err != nil {
		return nil, apperrors.NotFound("transaction")
	}

	if transaction.Status != models.TransactionStatusPaid {
		return nil, apperrors.StateConflict("transaction", string(transaction.Status), string(models.TransactionStatusPaid))
	}
	if transaction.PaymentReference == "" {
		return nil, apperrors.Validation("transaction has no payment reference to refund")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(transaction.PaymentReference),
		Reason:        stripe.String("requested_by_customer"),
	}
	if _, err := refund.New(params); err != nil {
		return nil, apperrors.External("create refund", err)
	}

	updates := map[string]interface{}{
		"status":       models.TransactionStatusRefunded,
		"failure_note": reason,
	}
	if err := s.db.Model(&transaction).Updates(updates).Error; err != nil {
		return nil, apperrors.Internal("failed to mark transaction refunded", err)
	}

	return &transaction, nil
}
