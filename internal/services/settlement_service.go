// internal/services/settlement_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/planmarket/planmarket-backend/internal/config"
	"github.com/planmarket/planmarket-backend/internal/database"
	"github.com/planmarket/planmarket-backend/internal/models"
)

// SettlementService turns provider payment confirmations into licenses and
// earnings. Events arrive at-least-once, so every step is idempotent on the
// persisted Transaction status; a redelivered event is acknowledged without
// effect. Any failure past signature verification is still acknowledged to
// the provider and logged loudly for manual reconciliation, trading a rare
// manual follow-up against an indefinite retry storm.
type SettlementService struct {
	db             *gorm.DB
	paymentService *PaymentService
	auditService   *AuditService
	config         *config.Config
}

// Webhook event outcomes recorded for reconciliation.
const (
	outcomeSettled          = "settled"
	outcomeDuplicate        = "duplicate_delivery"
	outcomeOrphanSession    = "orphan_session"
	outcomeStateConflict    = "state_conflict"
	outcomeMetadataMismatch = "metadata_mismatch"
	outcomeExpired          = "session_expired"
	outcomeFailed           = "settlement_failed"
	outcomeIgnored          = "ignored"
)

func NewSettlementService(db *gorm.DB, paymentService *PaymentService, auditService *AuditService, cfg *config.Config) *SettlementService {
	return &SettlementService{
		db:             db,
		paymentService: paymentService,
		auditService:   auditService,
		config:         cfg,
	}
}

// ProcessWebhook authenticates and dispatches a raw provider webhook.
// The returned error is non-nil only for signature failure; every other
// condition acknowledges the delivery.
func (s *SettlementService) ProcessWebhook(payload []byte, signatureHeader string) error {
	event, err := s.paymentService.VerifyWebhookPayload(payload, signatureHeader)
	if err != nil {
		logrus.WithError(err).Warn("Security violation: webhook signature verification failed")
		return err
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			s.recordEvent(event, "", outcomeFailed, "unparseable session payload: "+err.Error())
			logrus.WithError(err).WithField("event_id", event.ID).Error("Settlement failure: cannot parse checkout session")
			return nil
		}
		s.settleCheckoutSession(event, &session)
	case "checkout.session.expired":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			s.recordEvent(event, "", outcomeFailed, "unparseable session payload: "+err.Error())
			return nil
		}
		s.expireCheckoutSession(event, &session)
	default:
		s.recordEvent(event, "", outcomeIgnored, "unhandled event type "+string(event.Type))
	}

	return nil
}

// settleCheckoutSession runs the full settlement algorithm for one completed
// checkout session. All outcomes acknowledge; the WebhookEvent row is the
// reconciliation trail.
func (s *SettlementService) settleCheckoutSession(event *stripe.Event, session *stripe.CheckoutSession) {
	log := logrus.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"session_id": session.ID,
	})

	// Idempotency check #1, outside the transaction: the common duplicate
	// delivery never takes a lock.
	var existing models.Transaction
	err := s.db.Where("checkout_session_id = ?", session.ID).First(&existing).Error
	if err == nil && existing.Status == models.TransactionStatusPaid {
		s.recordEvent(event, session.ID, outcomeDuplicate, "transaction already paid")
		log.Info("Duplicate settlement delivery acknowledged")
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.recordEvent(event, session.ID, outcomeOrphanSession, "no transaction for session")
		log.Warn("Settlement event for unknown checkout session")
		return
	}
	if err != nil {
		s.recordEvent(event, session.ID, outcomeFailed, "transaction lookup failed: "+err.Error())
		log.WithError(err).Error("Settlement failure: transaction lookup")
		return
	}

	txErr := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var transaction models.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("checkout_session_id = ?", session.ID).
			First(&transaction).Error; err != nil {
			return fmt.Errorf("locked transaction lookup: %w", err)
		}

		// Idempotency check #2, under lock: a concurrent delivery may
		// have finalized the row between the first check and here.
		if transaction.Status != models.TransactionStatusPending {
			s.recordEvent(event, session.ID, outcomeDuplicate,
				"transaction already "+string(transaction.Status))
			return nil
		}

		meta, problems := ParseCheckoutMetadata(session.Metadata)
		if len(problems) == 0 {
			problems = validateMetadata(meta, &transaction)
		}
		if len(problems) > 0 {
			s.recordEvent(event, session.ID, outcomeMetadataMismatch, joinProblems(problems))
			log.WithField("problems", problems).Error("Settlement failure: metadata does not match transaction")
			// Acknowledge without mutating state; a tampered or corrupt
			// event must not finalize anything.
			return nil
		}

		now := time.Now()
		paymentRef := ""
		if session.PaymentIntent != nil {
			paymentRef = session.PaymentIntent.ID
		}
		if err := tx.Model(&transaction).Updates(map[string]interface{}{
			"status":            models.TransactionStatusPaid,
			"paid_at":           now,
			"payment_reference": paymentRef,
		}).Error; err != nil {
			return fmt.Errorf("mark transaction paid: %w", err)
		}

		architectID, err := s.fulfill(tx, &transaction)
		if err != nil {
			return err
		}

		earning := &models.ArchitectEarning{
			ArchitectID:   architectID,
			TransactionID: transaction.ID,
			AmountCents:   transaction.ArchitectShareCents,
			Currency:      transaction.Currency,
			Status:        models.EarningStatusPending,
		}
		if err := tx.Create(earning).Error; err != nil {
			return fmt.Errorf("create architect earning: %w", err)
		}

		s.recordEventTx(tx, event, session.ID, outcomeSettled, "")
		return nil
	})

	if txErr != nil {
		s.recordEvent(event, session.ID, outcomeFailed, txErr.Error())
		log.WithError(txErr).Error("Settlement failure: manual reconciliation required")
		return
	}

	log.Info("Checkout session settled")
}

// fulfill applies the payment-type specific half of settlement and returns
// the architect who earns the share.
func (s *SettlementService) fulfill(tx *gorm.DB, transaction *models.Transaction) (architectID uuid.UUID, err error) {
	switch transaction.PaymentType {
	case models.PaymentTypeDesignPurchase:
		return s.fulfillDesignPurchase(tx, transaction)
	case models.PaymentTypeModificationPayment:
		return s.fulfillModificationPayment(tx, transaction)
	default:
		return uuid.Nil, fmt.Errorf("unknown payment type %q", transaction.PaymentType)
	}
}

func (s *SettlementService) fulfillDesignPurchase(tx *gorm.DB, transaction *models.Transaction) (uuid.UUID, error) {
	if transaction.DesignID == nil {
		return uuid.Nil, errors.New("design purchase without design id")
	}

	var design models.Design
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&design, "id = ?", *transaction.DesignID).Error; err != nil {
		return uuid.Nil, fmt.Errorf("load design: %w", err)
	}

	// Defense against the design being unpublished between intent and
	// confirmation. The whole unit rolls back and the conflict goes to
	// manual reconciliation via the event log.
	if !design.Purchasable() {
		return uuid.Nil, fmt.Errorf("design %s no longer purchasable (status %s)", design.ID, design.Status)
	}

	license := &models.License{
		BuyerID:       transaction.BuyerID,
		DesignID:      design.ID,
		TransactionID: transaction.ID,
		LicenseType:   transaction.LicenseType,
		Status:        models.LicenseStatusActive,
	}
	// The partial unique indexes on licenses are the authority for
	// single-sale exclusivity and duplicate purchases; a violation here
	// means a concurrent settlement won the race.
	if err := tx.Create(license).Error; err != nil {
		return uuid.Nil, fmt.Errorf("create license: %w", err)
	}

	if transaction.LicenseType == models.LicenseTypeExclusive {
		unlock := &models.ContactUnlock{
			DesignID: design.ID,
			BuyerID:  transaction.BuyerID,
			Source:   string(models.ConversationReasonExclusiveLicense),
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(unlock).Error; err != nil {
			return uuid.Nil, fmt.Errorf("create contact unlock: %w", err)
		}

		s.auditService.Record(&transaction.BuyerID, "contact_unlocked", "design", &design.ID, models.JSONB{
			"source":         string(models.ConversationReasonExclusiveLicense),
			"transaction_id": transaction.ID.String(),
		})
	}

	return design.ArchitectID, nil
}

func (s *SettlementService) fulfillModificationPayment(tx *gorm.DB, transaction *models.Transaction) (uuid.UUID, error) {
	if transaction.ModificationID == nil {
		return uuid.Nil, errors.New("modification payment without modification id")
	}

	var mod models.ModificationRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&mod, "id = ?", *transaction.ModificationID).Error; err != nil {
		return uuid.Nil, fmt.Errorf("load modification request: %w", err)
	}

	if mod.Status != models.ModificationStatusPendingPayment {
		return uuid.Nil, fmt.Errorf("modification %s not awaiting payment (status %s)", mod.ID, mod.Status)
	}

	now := time.Now()
	if err := tx.Model(&mod).Updates(map[string]interface{}{
		"status":       models.ModificationStatusCompleted,
		"completed_at": now,
	}).Error; err != nil {
		return uuid.Nil, fmt.Errorf("complete modification: %w", err)
	}

	unlock := &models.ContactUnlock{
		DesignID: mod.DesignID,
		BuyerID:  mod.BuyerID,
		Source:   string(models.ConversationReasonPaidModification),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(unlock).Error; err != nil {
		return uuid.Nil, fmt.Errorf("create contact unlock: %w", err)
	}

	s.auditService.Record(&mod.BuyerID, "contact_unlocked", "design", &mod.DesignID, models.JSONB{
		"source":          string(models.ConversationReasonPaidModification),
		"modification_id": mod.ID.String(),
	})

	return mod.ArchitectID, nil
}

// expireCheckoutSession marks a still-pending transaction failed when the
// provider reports the session expired unpaid.
func (s *SettlementService) expireCheckoutSession(event *stripe.Event, session *stripe.CheckoutSession) {
	result := s.db.Model(&models.Transaction{}).
		Where("checkout_session_id = ? AND status = ?", session.ID, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":       models.TransactionStatusFailed,
			"failure_note": "checkout session expired",
		})

	if result.Error != nil {
		s.recordEvent(event, session.ID, outcomeFailed, result.Error.Error())
		logrus.WithError(result.Error).WithField("session_id", session.ID).Error("Failed to expire transaction")
		return
	}
	if result.RowsAffected == 0 {
		s.recordEvent(event, session.ID, outcomeStateConflict, "no pending transaction to expire")
		return
	}
	s.recordEvent(event, session.ID, outcomeExpired, "")
}

// validateMetadata cross-checks session metadata against the durable intent
// record; client-supplied or tampered values never win over what was priced
// at intent time.
func validateMetadata(meta *CheckoutMetadata, transaction *models.Transaction) []string {
	var problems []string

	if meta.BuyerID != transaction.BuyerID {
		problems = append(problems, "buyer id does not match transaction")
	}
	if meta.AmountCents != transaction.AmountCents {
		problems = append(problems, fmt.Sprintf("amount %d does not match transaction amount %d", meta.AmountCents, transaction.AmountCents))
	}
	if meta.PaymentType != transaction.PaymentType {
		problems = append(problems, "payment type does not match transaction")
	}
	if transaction.DesignID != nil && (meta.DesignID == nil || *meta.DesignID != *transaction.DesignID) {
		problems = append(problems, "design id does not match transaction")
	}
	if transaction.ModificationID != nil && (meta.ModificationID == nil || *meta.ModificationID != *transaction.ModificationID) {
		problems = append(problems, "modification id does not match transaction")
	}

	return problems
}

func (s *SettlementService) recordEvent(event *stripe.Event, sessionID, outcome, detail string) {
	s.recordEventTx(s.db, event, sessionID, outcome, detail)
}

func (s *SettlementService) recordEventTx(db *gorm.DB, event *stripe.Event, sessionID, outcome, detail string) {
	row := &models.WebhookEvent{
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		SessionID:       sessionID,
		Outcome:         outcome,
		Detail:          detail,
	}
	if err := db.Create(row).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event_id": event.ID,
			"outcome":  outcome,
		}).Error("Failed to record webhook event")
	}
}

func joinProblems(problems []string) string {
	out := ""
	for i, p := range problems {
		if i > 0 {
			out += "; "
		}
		out += p
	}
	return out
}
