// internal/services/payment_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planmarket/planmarket-backend/internal/models"
)

func validCheckoutMetadata() map[string]string {
	return map[string]string{
		"payment_type": "design_purchase",
		"design_id":    uuid.New().String(),
		"buyer_id":     uuid.New().String(),
		"license_type": "standard",
		"amount_cents": "120000",
	}
}

func TestParseCheckoutMetadataValid(t *testing.T) {
	raw := validCheckoutMetadata()
	meta, problems := ParseCheckoutMetadata(raw)

	require.Empty(t, problems)
	assert.Equal(t, models.PaymentTypeDesignPurchase, meta.PaymentType)
	require.NotNil(t, meta.DesignID)
	assert.Equal(t, raw["design_id"], meta.DesignID.String())
	assert.Equal(t, raw["buyer_id"], meta.BuyerID.String())
	assert.Equal(t, models.LicenseTypeStandard, meta.LicenseType)
	assert.Equal(t, int64(120000), meta.AmountCents)
}

func TestParseCheckoutMetadataModificationPayment(t *testing.T) {
	raw := map[string]string{
		"payment_type":    "modification_payment",
		"modification_id": uuid.New().String(),
		"buyer_id":        uuid.New().String(),
		"amount_cents":    "50000",
	}
	meta, problems := ParseCheckoutMetadata(raw)

	require.Empty(t, problems)
	assert.Equal(t, models.PaymentTypeModificationPayment, meta.PaymentType)
	require.NotNil(t, meta.ModificationID)
	assert.Nil(t, meta.DesignID)
}

func TestParseCheckoutMetadataUnknownPaymentType(t *testing.T) {
	raw := validCheckoutMetadata()
	raw["payment_type"] = "gift_card"

	_, problems := ParseCheckoutMetadata(raw)
	assert.Contains(t, problems, "unknown payment_type: gift_card")
}

func TestParseCheckoutMetadataMalformedIDs(t *testing.T) {
	raw := validCheckoutMetadata()
	raw["design_id"] = "not-a-uuid"
	raw["buyer_id"] = "also-not-a-uuid"

	_, problems := ParseCheckoutMetadata(raw)
	assert.Contains(t, problems, "malformed design_id")
	assert.Contains(t, problems, "missing or malformed buyer_id")
}

func TestParseCheckoutMetadataMissingAmount(t *testing.T) {
	raw := validCheckoutMetadata()
	delete(raw, "amount_cents")

	_, problems := ParseCheckoutMetadata(raw)
	assert.Contains(t, problems, "missing or malformed amount_cents")
}

func TestParseCheckoutMetadataDesignPurchaseNeedsDesign(t *testing.T) {
	raw := validCheckoutMetadata()
	delete(raw, "design_id")

	_, problems := ParseCheckoutMetadata(raw)
	assert.Contains(t, problems, "design purchase without design_id")
}

func TestParseCheckoutMetadataEmpty(t *testing.T) {
	_, problems := ParseCheckoutMetadata(map[string]string{})
	assert.NotEmpty(t, problems)
}
