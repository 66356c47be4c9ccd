// internal/tests/settlement_test.go
package tests

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/services"
)

type SettlementTestSuite struct {
	IntegrationSuite
	settlement *services.SettlementService
}

func (suite *SettlementTestSuite) SetupSuite() {
	suite.IntegrationSuite.SetupSuite()
	paymentService := services.NewPaymentService(suite.db, suite.cfg)
	auditService := services.NewAuditService(suite.db)
	suite.settlement = services.NewSettlementService(suite.db, paymentService, auditService, suite.cfg)
}

func (suite *SettlementTestSuite) signedPayload(eventID, sessionID, paymentIntent string, metadata map[string]string) ([]byte, string) {
	session := map[string]interface{}{
		"id":             sessionID,
		"object":         "checkout.session",
		"payment_intent": paymentIntent,
		"metadata":       metadata,
	}
	event := map[string]interface{}{
		"id":     eventID,
		"object": "event",
		"type":   "checkout.session.completed",
		"data":   map[string]interface{}{"object": session},
	}
	payload, err := json.Marshal(event)
	suite.Require().NoError(err)

	now := time.Now()
	signature := webhook.ComputeSignature(now, payload, suite.cfg.Payment.StripeWebhookSecret)
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(signature))
	return payload, header
}

func purchaseMetadata(transaction *models.Transaction) map[string]string {
	return map[string]string{
		"payment_type": string(transaction.PaymentType),
		"design_id":    transaction.DesignID.String(),
		"buyer_id":     transaction.BuyerID.String(),
		"license_type": string(transaction.LicenseType),
		"amount_cents": fmt.Sprintf("%d", transaction.AmountCents),
	}
}

func (suite *SettlementTestSuite) TestSettlementCreatesLicenseAndEarning() {
	architect := suite.createUser(models.UserRoleArchitect)
	buyer := suite.createUser(models.UserRoleBuyer)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)
	transaction := suite.createPendingTransaction(buyer.ID, design, 120000)

	payload, header := suite.signedPayload("evt_settle_1", transaction.CheckoutSessionID, "pi_settle_1", purchaseMetadata(transaction))
	suite.Require().NoError(suite.settlement.ProcessWebhook(payload, header))

	var settled models.Transaction
	suite.Require().NoError(suite.db.First(&settled, "id = ?", transaction.ID).Error)
	suite.Equal(models.TransactionStatusPaid, settled.Status)
	suite.Equal("pi_settle_1", settled.PaymentReference)
	suite.NotNil(settled.PaidAt)

	suite.Equal(int64(1), suite.countRows(&models.License{}, "transaction_id = ?", transaction.ID))

	var earning models.ArchitectEarning
	suite.Require().NoError(suite.db.First(&earning, "transaction_id = ?", transaction.ID).Error)
	suite.Equal(architect.ID, earning.ArchitectID)
	suite.Equal(int64(108000), earning.AmountCents)
	suite.Equal(models.EarningStatusPending, earning.Status)
}

func (suite *SettlementTestSuite) TestSettlementIsIdempotent() {
	architect := suite.createUser(models.UserRoleArchitect)
	buyer := suite.createUser(models.UserRoleBuyer)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)
	transaction := suite.createPendingTransaction(buyer.ID, design, 120000)

	payload, header := suite.signedPayload("evt_dup_1", transaction.CheckoutSessionID, "pi_dup_1", purchaseMetadata(transaction))
	suite.Require().NoError(suite.settlement.ProcessWebhook(payload, header))

	// A redelivery of the same event must acknowledge without creating a
	// second license or earning.
	payload, header = suite.signedPayload("evt_dup_1", transaction.CheckoutSessionID, "pi_dup_1", purchaseMetadata(transaction))
	suite.Require().NoError(suite.settlement.ProcessWebhook(payload, header))

	suite.Equal(int64(1), suite.countRows(&models.License{}, "transaction_id = ?", transaction.ID))
	suite.Equal(int64(1), suite.countRows(&models.ArchitectEarning{}, "transaction_id = ?", transaction.ID))
	suite.Equal(int64(1), suite.countRows(&models.WebhookEvent{},
		"session_id = ? AND outcome = ?", transaction.CheckoutSessionID, "duplicate_delivery"))
}

func (suite *SettlementTestSuite) TestSettlementRejectsMetadataMismatch() {
	architect := suite.createUser(models.UserRoleArchitect)
	buyer := suite.createUser(models.UserRoleBuyer)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)
	transaction := suite.createPendingTransaction(buyer.ID, design, 120000)

	metadata := purchaseMetadata(transaction)
	metadata["amount_cents"] = "1"

	payload, header := suite.signedPayload("evt_tamper_1", transaction.CheckoutSessionID, "pi_tamper_1", metadata)
	suite.Require().NoError(suite.settlement.ProcessWebhook(payload, header))

	// Acknowledged, but nothing finalized.
	var current models.Transaction
	suite.Require().NoError(suite.db.First(&current, "id = ?", transaction.ID).Error)
	suite.Equal(models.TransactionStatusPending, current.Status)
	suite.Equal(int64(0), suite.countRows(&models.License{}, "transaction_id = ?", transaction.ID))
	suite.Equal(int64(1), suite.countRows(&models.WebhookEvent{},
		"session_id = ? AND outcome = ?", transaction.CheckoutSessionID, "metadata_mismatch"))
}

func (suite *SettlementTestSuite) TestSettlementAcksOrphanSession() {
	sessionID := "cs_orphan_" + uuid.NewString()[:8]
	payload, header := suite.signedPayload("evt_orphan_1", sessionID, "pi_orphan_1", map[string]string{})
	suite.Require().NoError(suite.settlement.ProcessWebhook(payload, header))

	suite.Equal(int64(1), suite.countRows(&models.WebhookEvent{},
		"session_id = ? AND outcome = ?", sessionID, "orphan_session"))
}

func (suite *SettlementTestSuite) TestSettlementRejectsBadSignature() {
	err := suite.settlement.ProcessWebhook([]byte(`{"id":"evt_forged"}`), "t=1,v1=deadbeef")
	suite.Error(err)
}

func (suite *SettlementTestSuite) TestExclusivePurchaseUnlocksContact() {
	architect := suite.createUser(models.UserRoleArchitect)
	buyer := suite.createUser(models.UserRoleBuyer)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeExclusive)
	transaction := suite.createPendingTransaction(buyer.ID, design, 500000)

	payload, header := suite.signedPayload("evt_excl_1", transaction.CheckoutSessionID, "pi_excl_1", purchaseMetadata(transaction))
	suite.Require().NoError(suite.settlement.ProcessWebhook(payload, header))

	suite.Equal(int64(1), suite.countRows(&models.ContactUnlock{},
		"design_id = ? AND buyer_id = ?", design.ID, buyer.ID))
}

func TestSettlementSuite(t *testing.T) {
	suite.Run(t, new(SettlementTestSuite))
}
