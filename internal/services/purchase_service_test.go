// internal/services/purchase_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/planmarket/planmarket-backend/internal/models"
)

func publishedDesign(licenseType models.LicenseType) *models.Design {
	d := &models.Design{
		ArchitectID: uuid.New(),
		Status:      models.DesignStatusPublished,
		LicenseType: licenseType,
	}
	d.ID = uuid.New()
	return d
}

func TestAvailabilityReasonsPurchasable(t *testing.T) {
	design := publishedDesign(models.LicenseTypeStandard)
	reasons := AvailabilityReasons(design, uuid.New(), false, false)
	assert.Empty(t, reasons)
}

func TestAvailabilityReasonsNotPurchasable(t *testing.T) {
	design := publishedDesign(models.LicenseTypeStandard)
	design.Status = models.DesignStatusDraft

	reasons := AvailabilityReasons(design, uuid.New(), false, false)
	assert.Equal(t, []string{"design is not available for purchase"}, reasons)
}

func TestAvailabilityReasonsSelfPurchase(t *testing.T) {
	design := publishedDesign(models.LicenseTypeStandard)
	reasons := AvailabilityReasons(design, design.ArchitectID, false, false)
	assert.Equal(t, []string{"architects cannot purchase their own designs"}, reasons)
}

func TestAvailabilityReasonsDuplicateLicense(t *testing.T) {
	design := publishedDesign(models.LicenseTypeStandard)
	reasons := AvailabilityReasons(design, uuid.New(), true, false)
	assert.Equal(t, []string{"you already hold an active license for this design"}, reasons)
}

func TestAvailabilityReasonsExclusiveClaimed(t *testing.T) {
	design := publishedDesign(models.LicenseTypeExclusive)
	reasons := AvailabilityReasons(design, uuid.New(), false, true)
	assert.Equal(t, []string{"the exclusive license for this design has already been claimed"}, reasons)
}

func TestAvailabilityReasonsExclusiveTakenIgnoredForStandard(t *testing.T) {
	// A standard design can sell any number of licenses, so the exclusive
	// fact is irrelevant.
	design := publishedDesign(models.LicenseTypeStandard)
	reasons := AvailabilityReasons(design, uuid.New(), false, true)
	assert.Empty(t, reasons)
}

func TestAvailabilityReasonsAccumulate(t *testing.T) {
	design := publishedDesign(models.LicenseTypeExclusive)
	design.Status = models.DesignStatusSubmitted

	reasons := AvailabilityReasons(design, design.ArchitectID, true, true)
	assert.Len(t, reasons, 4)
}
