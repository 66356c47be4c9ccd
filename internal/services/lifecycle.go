// internal/services/lifecycle.go
package services

import (
	"fmt"
	"strings"

	"github.com/planmarket/planmarket-backend/internal/models"
)

// LifecycleAction names a moderation state-machine operation on a design.
type LifecycleAction string

const (
	ActionUpdate  LifecycleAction = "update"
	ActionSubmit  LifecycleAction = "submit"
	ActionApprove LifecycleAction = "approve"
	ActionReject  LifecycleAction = "reject"
	ActionPublish LifecycleAction = "publish"
	ActionDelete  LifecycleAction = "delete"
)

// legalStates is the complete transition table:
// DRAFT -> SUBMITTED -> APPROVED -> PUBLISHED, SUBMITTED -> REJECTED,
// REJECTED -> DRAFT (via update). Any (state, action) pair not listed here
// fails with a state conflict and leaves the record untouched.
var legalStates = map[LifecycleAction][]models.DesignStatus{
	ActionUpdate:  {models.DesignStatusDraft, models.DesignStatusRejected},
	ActionSubmit:  {models.DesignStatusDraft},
	ActionApprove: {models.DesignStatusSubmitted},
	ActionReject:  {models.DesignStatusSubmitted},
	ActionPublish: {models.DesignStatusApproved},
	ActionDelete:  {models.DesignStatusDraft, models.DesignStatusRejected},
}

// CanPerform reports whether the action is legal from the given status.
func CanPerform(action LifecycleAction, status models.DesignStatus) bool {
	for _, s := range legalStates[action] {
		if s == status {
			return true
		}
	}
	return false
}

// RequiredStates names the states the action is legal from, for error
// messages that tell the caller both where the design is and where it
// needs to be.
func RequiredStates(action LifecycleAction) string {
	states := legalStates[action]
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return strings.Join(names, " or ")
}

// SubmissionViolations checks every submission precondition and returns all
// violated rules, not just the first, so the client can render the complete
// checklist at once.
func SubmissionViolations(design *models.Design, files []models.DesignFile, disclaimerAccepted bool, minPreviewImages int) []string {
	var violations []string

	if strings.TrimSpace(design.Title) == "" {
		violations = append(violations, "title is required")
	}
	if strings.TrimSpace(design.Summary) == "" {
		violations = append(violations, "summary is required")
	}
	if strings.TrimSpace(design.Category) == "" {
		violations = append(violations, "category is required")
	}
	if !design.Price.IsPositive() {
		violations = append(violations, "price must be greater than zero")
	}

	var mainPackages, previews int
	for _, f := range files {
		switch f.FileType {
		case models.FileTypeMainPackage:
			mainPackages++
		case models.FileTypePreviewImage:
			previews++
		}
	}

	if mainPackages < 1 {
		violations = append(violations, "at least one main package file is required")
	}
	if previews < minPreviewImages {
		violations = append(violations, fmt.Sprintf("at least %d preview images are required", minPreviewImages))
	}

	if !disclaimerAccepted {
		violations = append(violations, "compliance disclaimer must be accepted")
	}

	return violations
}
