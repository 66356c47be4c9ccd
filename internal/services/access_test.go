// internal/services/access_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/planmarket/planmarket-backend/internal/models"
)

func TestDecideAccess(t *testing.T) {
	architectID := uuid.New()
	buyerID := uuid.New()

	design := &models.Design{
		ArchitectID: architectID,
		Status:      models.DesignStatusPublished,
	}
	design.ID = uuid.New()

	packageFile := &models.DesignFile{FileType: models.FileTypeMainPackage}
	previewFile := &models.DesignFile{FileType: models.FileTypePreviewImage, IsPublicPreview: true}

	architect := &Identity{UserID: architectID, Role: models.UserRoleArchitect}
	buyer := &Identity{UserID: buyerID, Role: models.UserRoleBuyer}
	admin := &Identity{UserID: uuid.New(), Role: models.UserRoleAdmin}

	standardLicense := &models.License{
		BuyerID:     buyerID,
		LicenseType: models.LicenseTypeStandard,
		Status:      models.LicenseStatusActive,
	}
	exclusiveLicense := &models.License{
		BuyerID:     buyerID,
		LicenseType: models.LicenseTypeExclusive,
		Status:      models.LicenseStatusActive,
	}
	revokedLicense := &models.License{
		BuyerID:     buyerID,
		LicenseType: models.LicenseTypeStandard,
		Status:      models.LicenseStatusRevoked,
	}

	tests := []struct {
		name      string
		file      *models.DesignFile
		requester *Identity
		license   *models.License
		want      AccessGrant
	}{
		{"owner gets original package", packageFile, architect, nil, AccessOriginal},
		{"admin gets original package", packageFile, admin, nil, AccessOriginal},
		{"anonymous gets public preview", previewFile, nil, nil, AccessOriginal},
		{"anonymous denied package", packageFile, nil, nil, AccessDenied},
		{"unlicensed buyer denied package", packageFile, buyer, nil, AccessDenied},
		{"revoked license denied package", packageFile, buyer, revokedLicense, AccessDenied},
		{"standard license gets watermarked package", packageFile, buyer, standardLicense, AccessWatermarked},
		{"standard license gets clean preview", previewFile, buyer, standardLicense, AccessOriginal},
		{"exclusive license gets original package", packageFile, buyer, exclusiveLicense, AccessOriginal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideAccess(design, tt.file, tt.requester, tt.license))
		})
	}
}

func TestDecideAccessUnpublishedDesign(t *testing.T) {
	design := &models.Design{
		ArchitectID: uuid.New(),
		Status:      models.DesignStatusDraft,
	}
	previewFile := &models.DesignFile{FileType: models.FileTypePreviewImage, IsPublicPreview: true}

	// Previews of an unpublished design are not public.
	assert.Equal(t, AccessDenied, DecideAccess(design, previewFile, nil, nil))

	// The owner still sees their own draft.
	owner := &Identity{UserID: design.ArchitectID, Role: models.UserRoleArchitect}
	assert.Equal(t, AccessOriginal, DecideAccess(design, previewFile, owner, nil))
}
