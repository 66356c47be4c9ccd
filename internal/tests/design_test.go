// internal/tests/design_test.go
package tests

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/services"
)

type DesignTestSuite struct {
	IntegrationSuite
	designs *services.DesignService
}

func (suite *DesignTestSuite) SetupSuite() {
	suite.IntegrationSuite.SetupSuite()
	storageService, err := services.NewStorageService(suite.cfg)
	suite.Require().NoError(err)
	suite.designs = services.NewDesignService(suite.db, storageService, suite.cfg)
}

func (suite *DesignTestSuite) identity(user *models.User) services.Identity {
	return services.Identity{UserID: user.ID, Role: user.Role}
}

func (suite *DesignTestSuite) createRequest(title string) *services.CreateDesignRequest {
	return &services.CreateDesignRequest{
		Title:       title,
		Summary:     "A compact starter home.",
		Category:    "residential",
		Price:       decimal.NewFromInt(900),
		LicenseType: models.LicenseTypeStandard,
	}
}

func (suite *DesignTestSuite) TestSlugCollisionGetsSuffix() {
	architect := suite.createUser(models.UserRoleArchitect)
	other := suite.createUser(models.UserRoleArchitect)

	first, err := suite.designs.CreateDesign(architect.ID, suite.createRequest("Courtyard Villa"))
	suite.Require().NoError(err)
	second, err := suite.designs.CreateDesign(other.ID, suite.createRequest("Courtyard Villa"))
	suite.Require().NoError(err)
	third, err := suite.designs.CreateDesign(architect.ID, suite.createRequest("Courtyard Villa"))
	suite.Require().NoError(err)

	suite.Equal("courtyard-villa", first.Slug)
	suite.Equal("courtyard-villa-1", second.Slug)
	suite.Equal("courtyard-villa-2", third.Slug)
}

func (suite *DesignTestSuite) TestConcurrentCreatesWithSameTitle() {
	// Two creates racing on the same title may both pick the base slug;
	// the loser must retry against the unique index, not surface an error.
	first := suite.createUser(models.UserRoleArchitect)
	second := suite.createUser(models.UserRoleArchitect)

	type result struct {
		design *models.Design
		err    error
	}
	results := make(chan result, 2)
	start := make(chan struct{})
	for _, architect := range []*models.User{first, second} {
		go func(id uuid.UUID) {
			<-start
			design, err := suite.designs.CreateDesign(id, suite.createRequest("Twin Gable House"))
			results <- result{design, err}
		}(architect.ID)
	}
	close(start)

	slugs := make(map[string]bool)
	for i := 0; i < 2; i++ {
		r := <-results
		suite.Require().NoError(r.err)
		slugs[r.design.Slug] = true
	}
	suite.Len(slugs, 2)
	suite.True(slugs["twin-gable-house"])
	suite.True(slugs["twin-gable-house-1"])
}

func (suite *DesignTestSuite) TestSubmissionChecklistEnforced() {
	architect := suite.createUser(models.UserRoleArchitect)
	actor := suite.identity(architect)

	design, err := suite.designs.CreateDesign(architect.ID, suite.createRequest("Bare Draft"))
	suite.Require().NoError(err)

	// No files attached yet, so submission fails with the full checklist.
	_, err = suite.designs.SubmitDesign(design.ID, actor, &services.SubmitDesignRequest{AcceptDisclaimer: true})
	suite.Require().Error(err)
	suite.Equal(apperrors.KindValidation, apperrors.KindOf(err))
	suite.Contains(apperrors.ViolationsOf(err), "at least one main package file is required")
}

func (suite *DesignTestSuite) TestModerationLifecycle() {
	architect := suite.createUser(models.UserRoleArchitect)
	admin := suite.createUser(models.UserRoleAdmin)
	actor := suite.identity(architect)
	moderator := suite.identity(admin)

	design, err := suite.designs.CreateDesign(architect.ID, suite.createRequest("Hillside Cabin"))
	suite.Require().NoError(err)
	suite.Equal(models.DesignStatusDraft, design.Status)

	_, err = suite.designs.AddFiles(design.ID, actor, []services.DesignFileInput{
		{FileType: models.FileTypeMainPackage, StorageKey: "designs/packages/cabin.zip", OriginalName: "cabin.zip", Size: 2048, MimeType: "application/zip"},
		{FileType: models.FileTypePreviewImage, StorageKey: "designs/previews/1.jpg", OriginalName: "1.jpg", Size: 100, MimeType: "image/jpeg", IsPublicPreview: true},
		{FileType: models.FileTypePreviewImage, StorageKey: "designs/previews/2.jpg", OriginalName: "2.jpg", Size: 100, MimeType: "image/jpeg", IsPublicPreview: true},
		{FileType: models.FileTypePreviewImage, StorageKey: "designs/previews/3.jpg", OriginalName: "3.jpg", Size: 100, MimeType: "image/jpeg", IsPublicPreview: true},
	})
	suite.Require().NoError(err)

	design, err = suite.designs.SubmitDesign(design.ID, actor, &services.SubmitDesignRequest{AcceptDisclaimer: true})
	suite.Require().NoError(err)
	suite.Equal(models.DesignStatusSubmitted, design.Status)
	suite.NotNil(design.SubmittedAt)

	// Editing a submitted design is a state conflict.
	title := "Hillside Cabin v2"
	_, err = suite.designs.UpdateDesign(design.ID, actor, &services.UpdateDesignRequest{Title: &title})
	suite.Require().Error(err)
	suite.Equal(apperrors.KindStateConflict, apperrors.KindOf(err))

	design, err = suite.designs.ApproveDesign(design.ID, moderator, "")
	suite.Require().NoError(err)
	suite.Equal(models.DesignStatusApproved, design.Status)

	design, err = suite.designs.PublishDesign(design.ID, moderator)
	suite.Require().NoError(err)
	suite.Equal(models.DesignStatusPublished, design.Status)
	suite.NotNil(design.PublishedAt)
}

func (suite *DesignTestSuite) TestRejectionRoundTrip() {
	architect := suite.createUser(models.UserRoleArchitect)
	admin := suite.createUser(models.UserRoleAdmin)
	actor := suite.identity(architect)

	design, err := suite.designs.CreateDesign(architect.ID, suite.createRequest("Narrow Lot House"))
	suite.Require().NoError(err)
	_, err = suite.designs.AddFiles(design.ID, actor, []services.DesignFileInput{
		{FileType: models.FileTypeMainPackage, StorageKey: "designs/packages/n.zip", OriginalName: "n.zip", Size: 2048, MimeType: "application/zip"},
		{FileType: models.FileTypePreviewImage, StorageKey: "designs/previews/n1.jpg", OriginalName: "n1.jpg", Size: 100, MimeType: "image/jpeg", IsPublicPreview: true},
		{FileType: models.FileTypePreviewImage, StorageKey: "designs/previews/n2.jpg", OriginalName: "n2.jpg", Size: 100, MimeType: "image/jpeg", IsPublicPreview: true},
		{FileType: models.FileTypePreviewImage, StorageKey: "designs/previews/n3.jpg", OriginalName: "n3.jpg", Size: 100, MimeType: "image/jpeg", IsPublicPreview: true},
	})
	suite.Require().NoError(err)

	_, err = suite.designs.SubmitDesign(design.ID, actor, &services.SubmitDesignRequest{AcceptDisclaimer: true})
	suite.Require().NoError(err)

	design, err = suite.designs.RejectDesign(design.ID, services.Identity{UserID: admin.ID, Role: admin.Role}, &services.RejectDesignRequest{
		Reason:     "floor plan is missing structural details",
		AdminNotes: "second submission from this account with the same issue",
	})
	suite.Require().NoError(err)
	suite.Equal(models.DesignStatusRejected, design.Status)
	suite.Require().NotNil(design.RejectionReason)

	// The architect edits the rejected design; it returns to draft with the
	// rejection reason still readable.
	summary := "Revised with structural sheets."
	design, err = suite.designs.UpdateDesign(design.ID, actor, &services.UpdateDesignRequest{Summary: &summary})
	suite.Require().NoError(err)
	suite.Equal(models.DesignStatusDraft, design.Status)
	suite.NotNil(design.RejectionReason)
}

func (suite *DesignTestSuite) TestFileChangesReopenRejectedDesign() {
	architect := suite.createUser(models.UserRoleArchitect)
	admin := suite.createUser(models.UserRoleAdmin)
	actor := suite.identity(architect)

	design, err := suite.designs.CreateDesign(architect.ID, suite.createRequest("Lakeside Retreat"))
	suite.Require().NoError(err)
	files, err := suite.designs.AddFiles(design.ID, actor, []services.DesignFileInput{
		{FileType: models.FileTypeMainPackage, StorageKey: "designs/packages/lake.zip", OriginalName: "lake.zip", Size: 2048, MimeType: "application/zip"},
		{FileType: models.FileTypePreviewImage, StorageKey: "designs/previews/l1.jpg", OriginalName: "l1.jpg", Size: 100, MimeType: "image/jpeg", IsPublicPreview: true},
		{FileType: models.FileTypePreviewImage, StorageKey: "designs/previews/l2.jpg", OriginalName: "l2.jpg", Size: 100, MimeType: "image/jpeg", IsPublicPreview: true},
		{FileType: models.FileTypePreviewImage, StorageKey: "designs/previews/l3.jpg", OriginalName: "l3.jpg", Size: 100, MimeType: "image/jpeg", IsPublicPreview: true},
	})
	suite.Require().NoError(err)

	_, err = suite.designs.SubmitDesign(design.ID, actor, &services.SubmitDesignRequest{AcceptDisclaimer: true})
	suite.Require().NoError(err)
	design, err = suite.designs.RejectDesign(design.ID, suite.identity(admin), &services.RejectDesignRequest{
		Reason: "the main package is missing elevation drawings",
	})
	suite.Require().NoError(err)
	suite.Equal(models.DesignStatusRejected, design.Status)

	// Attaching a replacement file reopens the design as a draft, same as
	// a field edit.
	_, err = suite.designs.AddFiles(design.ID, actor, []services.DesignFileInput{
		{FileType: models.FileTypeMainPackage, StorageKey: "designs/packages/lake-v2.zip", OriginalName: "lake-v2.zip", Size: 4096, MimeType: "application/zip"},
	})
	suite.Require().NoError(err)
	design, err = suite.designs.GetDesign(design.ID, &actor)
	suite.Require().NoError(err)
	suite.Equal(models.DesignStatusDraft, design.Status)

	// Re-reject via a fresh submission, then confirm removal reopens too.
	_, err = suite.designs.SubmitDesign(design.ID, actor, &services.SubmitDesignRequest{AcceptDisclaimer: true})
	suite.Require().NoError(err)
	_, err = suite.designs.RejectDesign(design.ID, suite.identity(admin), &services.RejectDesignRequest{
		Reason: "duplicate package files attached to the design",
	})
	suite.Require().NoError(err)

	err = suite.designs.RemoveFile(design.ID, files[0].ID, actor)
	suite.Require().NoError(err)
	design, err = suite.designs.GetDesign(design.ID, &actor)
	suite.Require().NoError(err)
	suite.Equal(models.DesignStatusDraft, design.Status)
}

func TestDesignSuite(t *testing.T) {
	suite.Run(t, new(DesignTestSuite))
}
