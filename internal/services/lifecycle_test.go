// internal/services/lifecycle_test.go
package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/planmarket/planmarket-backend/internal/models"
)

func TestCanPerform(t *testing.T) {
	allStatuses := []models.DesignStatus{
		models.DesignStatusDraft,
		models.DesignStatusSubmitted,
		models.DesignStatusApproved,
		models.DesignStatusRejected,
		models.DesignStatusPublished,
	}

	allowed := map[LifecycleAction][]models.DesignStatus{
		ActionUpdate:  {models.DesignStatusDraft, models.DesignStatusRejected},
		ActionSubmit:  {models.DesignStatusDraft},
		ActionApprove: {models.DesignStatusSubmitted},
		ActionReject:  {models.DesignStatusSubmitted},
		ActionPublish: {models.DesignStatusApproved},
		ActionDelete:  {models.DesignStatusDraft, models.DesignStatusRejected},
	}

	for action, legal := range allowed {
		for _, status := range allStatuses {
			want := false
			for _, s := range legal {
				if s == status {
					want = true
				}
			}
			got := CanPerform(action, status)
			assert.Equal(t, want, got, "%s from %s", action, status)
		}
	}
}

func TestCanPerformTerminalStates(t *testing.T) {
	// A published design is frozen for the architect.
	assert.False(t, CanPerform(ActionUpdate, models.DesignStatusPublished))
	assert.False(t, CanPerform(ActionDelete, models.DesignStatusPublished))
	assert.False(t, CanPerform(ActionSubmit, models.DesignStatusPublished))

	// Approving twice is a state conflict, not a no-op.
	assert.False(t, CanPerform(ActionApprove, models.DesignStatusApproved))
}

func TestRequiredStates(t *testing.T) {
	assert.Equal(t, "draft", RequiredStates(ActionSubmit))
	assert.Equal(t, "draft or rejected", RequiredStates(ActionUpdate))
	assert.Equal(t, "submitted", RequiredStates(ActionApprove))
}

func completeDesign() *models.Design {
	return &models.Design{
		Title:    "Modern Lake House",
		Summary:  "A two-story lake house with floor-to-ceiling glazing.",
		Category: "residential",
		Price:    decimal.NewFromInt(1200),
	}
}

func completeFiles() []models.DesignFile {
	return []models.DesignFile{
		{FileType: models.FileTypeMainPackage},
		{FileType: models.FileTypePreviewImage},
		{FileType: models.FileTypePreviewImage},
		{FileType: models.FileTypePreviewImage},
	}
}

func TestSubmissionViolationsComplete(t *testing.T) {
	violations := SubmissionViolations(completeDesign(), completeFiles(), true, 3)
	assert.Empty(t, violations)
}

func TestSubmissionViolationsReportsAll(t *testing.T) {
	design := &models.Design{Price: decimal.Zero}
	violations := SubmissionViolations(design, nil, false, 3)

	// Every broken rule is reported, not just the first.
	assert.Len(t, violations, 7)
	assert.Contains(t, violations, "title is required")
	assert.Contains(t, violations, "summary is required")
	assert.Contains(t, violations, "category is required")
	assert.Contains(t, violations, "price must be greater than zero")
	assert.Contains(t, violations, "at least one main package file is required")
	assert.Contains(t, violations, "at least 3 preview images are required")
	assert.Contains(t, violations, "compliance disclaimer must be accepted")
}

func TestSubmissionViolationsPreviewCount(t *testing.T) {
	files := []models.DesignFile{
		{FileType: models.FileTypeMainPackage},
		{FileType: models.FileTypePreviewImage},
	}
	violations := SubmissionViolations(completeDesign(), files, true, 3)
	assert.Equal(t, []string{"at least 3 preview images are required"}, violations)
}

func TestSubmissionViolationsWhitespaceTitle(t *testing.T) {
	design := completeDesign()
	design.Title = "   "
	violations := SubmissionViolations(design, completeFiles(), true, 3)
	assert.Equal(t, []string{"title is required"}, violations)
}

func TestSubmissionViolationsNegativePrice(t *testing.T) {
	design := completeDesign()
	design.Price = decimal.NewFromInt(-5)
	violations := SubmissionViolations(design, completeFiles(), true, 3)
	assert.Equal(t, []string{"price must be greater than zero"}, violations)
}
