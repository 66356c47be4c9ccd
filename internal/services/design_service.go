// internal/services/design_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/config"
	"github.com/planmarket/planmarket-backend/internal/database"
	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

type DesignService struct {
	db             *gorm.DB
	storageService *StorageService
	config         *config.Config
}

type CreateDesignRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=255"`
	Summary     string          `json:"summary,omitempty" validate:"omitempty,max=500"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Price       decimal.Decimal `json:"price"`
	LicenseType models.LicenseType `json:"license_type,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

type UpdateDesignRequest struct {
	Title       *string            `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Summary     *string            `json:"summary,omitempty" validate:"omitempty,max=500"`
	Description *string            `json:"description,omitempty"`
	Category    *string            `json:"category,omitempty" validate:"omitempty,max=100"`
	Price       *decimal.Decimal   `json:"price,omitempty"`
	LicenseType *models.LicenseType `json:"license_type,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
}

type SubmitDesignRequest struct {
	AcceptDisclaimer bool `json:"accept_disclaimer"`
}

type RejectDesignRequest struct {
	Reason     string `json:"reason" validate:"required"`
	AdminNotes string `json:"admin_notes,omitempty"`
}

type DesignFileInput struct {
	FileType        models.FileType
	StorageKey      string
	OriginalName    string
	Size            int64
	MimeType        string
	IsPublicPreview bool
}

type DesignSearchParams struct {
	utils.PaginationParams
	LicenseType *models.LicenseType `json:"license_type,omitempty"`
	PriceMin    *decimal.Decimal    `json:"price_min,omitempty"`
	PriceMax    *decimal.Decimal    `json:"price_max,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
}

func NewDesignService(db *gorm.DB, storageService *StorageService, cfg *config.Config) *DesignService {
	return &DesignService{
		db:             db,
		storageService: storageService,
		config:         cfg,
	}
}

func (s *DesignService) CreateDesign(architectID uuid.UUID, req *CreateDesignRequest) (*models.Design, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed", utils.ValidationMessages(err)...)
	}
	if req.Price.IsNegative() {
		return nil, apperrors.Validation("price must not be negative")
	}

	licenseType := req.LicenseType
	if licenseType == "" {
		licenseType = models.LicenseTypeStandard
	}
	if licenseType != models.LicenseTypeStandard && licenseType != models.LicenseTypeExclusive {
		return nil, apperrors.Validation(fmt.Sprintf("unknown license type: %s", licenseType))
	}

	// Slug allocation is check-then-insert, so two concurrent creates with
	// the same title can both pick the base slug. The unique index catches
	// the loser; reallocating against the committed winner resolves it.
	var design *models.Design
	for attempt := 0; attempt < 3; attempt++ {
		slug, err := ensureUniqueSlug(s.db, MakeSlug(req.Title), uuid.Nil)
		if err != nil {
			return nil, apperrors.Internal("failed to allocate slug", err)
		}

		design = &models.Design{
			ArchitectID: architectID,
			Title:       req.Title,
			Slug:        slug,
			Summary:     req.Summary,
			Description: req.Description,
			Category:    req.Category,
			Price:       req.Price,
			Currency:    s.config.Payment.Currency,
			LicenseType: licenseType,
			Status:      models.DesignStatusDraft,
			Tags:        req.Tags,
		}

		err = s.db.Create(design).Error
		if err == nil {
			return design, nil
		}
		if !isUniqueViolation(err) {
			return nil, apperrors.Internal("failed to create design", err)
		}
	}

	return nil, apperrors.Internal("failed to allocate a unique slug", nil)
}

// GetDesign resolves a design with viewer-dependent visibility: anything not
// yet purchasable reads as not-found to everyone but its architect and
// admins, so drafts and rejected work never leak through the public surface.
func (s *DesignService) GetDesign(id uuid.UUID, viewer *Identity) (*models.Design, error) {
	var design models.Design
	if err := s.db.Preload("Architect").Preload("Files").First(&design, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("design")
		}
		return nil, apperrors.Internal("failed to load design", err)
	}

	if !s.visibleTo(&design, viewer) {
		return nil, apperrors.NotFound("design")
	}

	if viewer == nil || viewer.UserID != design.ArchitectID {
		go s.incrementViewCount(design.ID)
	}

	return &design, nil
}

func (s *DesignService) GetDesignBySlug(slug string, viewer *Identity) (*models.Design, error) {
	var design models.Design
	if err := s.db.Preload("Architect").Preload("Files").First(&design, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("design")
		}
		return nil, apperrors.Internal("failed to load design", err)
	}

	if !s.visibleTo(&design, viewer) {
		return nil, apperrors.NotFound("design")
	}

	if viewer == nil || viewer.UserID != design.ArchitectID {
		go s.incrementViewCount(design.ID)
	}

	return &design, nil
}

func (s *DesignService) visibleTo(design *models.Design, viewer *Identity) bool {
	if design.Purchasable() {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.IsAdmin() || viewer.UserID == design.ArchitectID
}

// SearchDesigns lists the public catalog: purchasable designs only.
func (s *DesignService) SearchDesigns(params DesignSearchParams) ([]models.Design, int64, error) {
	query := s.db.Model(&models.Design{}).
		Where("status IN ?", []models.DesignStatus{models.DesignStatusApproved, models.DesignStatusPublished})

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.LicenseType != nil {
		query = query.Where("license_type = ?", *params.LicenseType)
	}
	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}
	if len(params.Tags) > 0 {
		query = query.Where("tags && ?", pq.StringArray(params.Tags))
	}
	if params.Search != "" {
		search := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ? OR LOWER(description) LIKE ?", search, search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count designs", err)
	}

	var designs []models.Design
	query = query.Preload("Architect").Order(orderClause(params.Sort, params.Order))
	if err := utils.ApplyPagination(query, params.PaginationParams).Find(&designs).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list designs", err)
	}

	return designs, total, nil
}

// GetArchitectDesigns lists the architect's own designs across all states.
func (s *DesignService) GetArchitectDesigns(architectID uuid.UUID, params utils.PaginationParams) ([]models.Design, int64, error) {
	query := s.db.Model(&models.Design{}).Where("architect_id = ?", architectID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count designs", err)
	}

	var designs []models.Design
	query = query.Preload("Files").Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&designs).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list designs", err)
	}

	return designs, total, nil
}

// ListPendingDesigns feeds the moderation queue, oldest submission first.
func (s *DesignService) ListPendingDesigns(params utils.PaginationParams) ([]models.Design, int64, error) {
	query := s.db.Model(&models.Design{}).Where("status = ?", models.DesignStatusSubmitted)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count pending designs", err)
	}

	var designs []models.Design
	query = query.Preload("Architect").Preload("Files").Order("submitted_at ASC")
	if err := utils.ApplyPagination(query, params).Find(&designs).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list pending designs", err)
	}

	return designs, total, nil
}

func (s *DesignService) UpdateDesign(id uuid.UUID, actor Identity, req *UpdateDesignRequest) (*models.Design, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed", utils.ValidationMessages(err)...)
	}

	design, err := s.loadOwned(id, actor)
	if err != nil {
		return nil, err
	}

	if !CanPerform(ActionUpdate, design.Status) {
		return nil, apperrors.StateConflict("design", string(design.Status), RequiredStates(ActionUpdate))
	}

	updates := map[string]interface{}{}

	if req.Title != nil && *req.Title != design.Title {
		slug, err := ensureUniqueSlug(s.db, MakeSlug(*req.Title), design.ID)
		if err != nil {
			return nil, apperrors.Internal("failed to allocate slug", err)
		}
		updates["title"] = *req.Title
		updates["slug"] = slug
	}
	if req.Summary != nil {
		updates["summary"] = *req.Summary
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperrors.Validation("price must not be negative")
		}
		updates["price"] = *req.Price
	}
	if req.LicenseType != nil {
		if *req.LicenseType != models.LicenseTypeStandard && *req.LicenseType != models.LicenseTypeExclusive {
			return nil, apperrors.Validation(fmt.Sprintf("unknown license type: %s", *req.LicenseType))
		}
		updates["license_type"] = *req.LicenseType
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}

	// Editing rejected work reopens it as a draft; the rejection reason
	// stays attached until the next submission so the architect can keep
	// referring to it while revising.
	if design.Status == models.DesignStatusRejected {
		updates["status"] = models.DesignStatusDraft
	}

	if len(updates) == 0 {
		return design, nil
	}

	if err := s.db.Model(design).Updates(updates).Error; err != nil {
		return nil, apperrors.Internal("failed to update design", err)
	}

	return s.reload(design.ID)
}

// SubmitDesign moves a draft into the moderation queue after every
// completeness precondition holds. All violations are reported together.
func (s *DesignService) SubmitDesign(id uuid.UUID, actor Identity, req *SubmitDesignRequest) (*models.Design, error) {
	design, err := s.loadOwned(id, actor)
	if err != nil {
		return nil, err
	}

	if !CanPerform(ActionSubmit, design.Status) {
		return nil, apperrors.StateConflict("design", string(design.Status), RequiredStates(ActionSubmit))
	}

	var files []models.DesignFile
	if err := s.db.Where("design_id = ?", design.ID).Find(&files).Error; err != nil {
		return nil, apperrors.Internal("failed to load design files", err)
	}

	if violations := SubmissionViolations(design, files, req.AcceptDisclaimer, s.config.Moderation.MinPreviewImages); len(violations) > 0 {
		return nil, apperrors.Validation("design is not ready for submission", violations...)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":                 models.DesignStatusSubmitted,
		"submitted_at":           now,
		"disclaimer_accepted_at": now,
		"rejection_reason":       nil,
	}
	if err := s.db.Model(design).Updates(updates).Error; err != nil {
		return nil, apperrors.Internal("failed to submit design", err)
	}

	return s.reload(design.ID)
}

func (s *DesignService) ApproveDesign(id uuid.UUID, admin Identity, adminNotes string) (*models.Design, error) {
	if !admin.IsAdmin() {
		return nil, apperrors.Forbidden("admin role required")
	}

	design, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if !CanPerform(ActionApprove, design.Status) {
		return nil, apperrors.StateConflict("design", string(design.Status), RequiredStates(ActionApprove))
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":           models.DesignStatusApproved,
		"approved_at":      now,
		"rejection_reason": nil,
	}
	if adminNotes != "" {
		updates["admin_notes"] = adminNotes
	}
	if s.config.Moderation.AutoPublishOnApprove && design.Price.IsPositive() {
		updates["status"] = models.DesignStatusPublished
		updates["published_at"] = now
	}

	if err := s.db.Model(design).Updates(updates).Error; err != nil {
		return nil, apperrors.Internal("failed to approve design", err)
	}

	logrus.WithFields(logrus.Fields{
		"design_id": design.ID,
		"admin_id":  admin.UserID,
		"status":    updates["status"],
	}).Info("Design approved")

	return s.reload(design.ID)
}

func (s *DesignService) RejectDesign(id uuid.UUID, admin Identity, req *RejectDesignRequest) (*models.Design, error) {
	if !admin.IsAdmin() {
		return nil, apperrors.Forbidden("admin role required")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed", utils.ValidationMessages(err)...)
	}
	if len(strings.TrimSpace(req.Reason)) < s.config.Moderation.MinRejectReasonLen {
		return nil, apperrors.Validation(fmt.Sprintf("rejection reason must be at least %d characters", s.config.Moderation.MinRejectReasonLen))
	}

	design, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if !CanPerform(ActionReject, design.Status) {
		return nil, apperrors.StateConflict("design", string(design.Status), RequiredStates(ActionReject))
	}

	updates := map[string]interface{}{
		"status":           models.DesignStatusRejected,
		"rejection_reason": req.Reason,
	}
	if req.AdminNotes != "" {
		updates["admin_notes"] = req.AdminNotes
	}

	if err := s.db.Model(design).Updates(updates).Error; err != nil {
		return nil, apperrors.Internal("failed to reject design", err)
	}

	logrus.WithFields(logrus.Fields{
		"design_id": design.ID,
		"admin_id":  admin.UserID,
	}).Info("Design rejected")

	return s.reload(design.ID)
}

func (s *DesignService) PublishDesign(id uuid.UUID, admin Identity) (*models.Design, error) {
	if !admin.IsAdmin() {
		return nil, apperrors.Forbidden("admin role required")
	}

	design, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if !CanPerform(ActionPublish, design.Status) {
		return nil, apperrors.StateConflict("design", string(design.Status), RequiredStates(ActionPublish))
	}
	if !design.Price.IsPositive() {
		return nil, apperrors.Validation("design must have a positive price before publishing")
	}

	now := time.Now()
	if err := s.db.Model(design).Updates(map[string]interface{}{
		"status":       models.DesignStatusPublished,
		"published_at": now,
	}).Error; err != nil {
		return nil, apperrors.Internal("failed to publish design", err)
	}

	return s.reload(design.ID)
}

// DeleteDesign removes an unsold draft or rejected design together with its
// files. State already guarantees no purchase references it: designs become
// purchasable only after leaving these states.
func (s *DesignService) DeleteDesign(id uuid.UUID, actor Identity) error {
	design, err := s.loadOwned(id, actor)
	if err != nil {
		return err
	}

	if !CanPerform(ActionDelete, design.Status) {
		return apperrors.StateConflict("design", string(design.Status), RequiredStates(ActionDelete))
	}

	var files []models.DesignFile
	if err := s.db.Where("design_id = ?", design.ID).Find(&files).Error; err != nil {
		return apperrors.Internal("failed to load design files", err)
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("design_id = ?", design.ID).Delete(&models.DesignFile{}).Error; err != nil {
			return err
		}
		return tx.Delete(design).Error
	})
	if err != nil {
		return apperrors.Internal("failed to delete design", err)
	}

	// Stored bytes go best-effort after commit; a leaked object is
	// recoverable, a dangling row is not.
	for _, f := range files {
		if err := s.storageService.DeleteFile(f.StorageKey); err != nil {
			logrus.WithError(err).WithField("storage_key", f.StorageKey).Warn("Failed to delete stored file")
		}
	}

	return nil
}

// AddFiles records uploaded file metadata against an editable design. The
// batch is inserted atomically.
func (s *DesignService) AddFiles(designID uuid.UUID, actor Identity, inputs []DesignFileInput) ([]models.DesignFile, error) {
	if len(inputs) == 0 {
		return nil, apperrors.Validation("no files provided")
	}

	design, err := s.loadOwned(designID, actor)
	if err != nil {
		return nil, err
	}

	if !design.Editable() {
		return nil, apperrors.StateConflict("design", string(design.Status), RequiredStates(ActionUpdate))
	}

	files := make([]models.DesignFile, 0, len(inputs))
	for _, in := range inputs {
		files = append(files, models.DesignFile{
			DesignID:        design.ID,
			FileType:        in.FileType,
			StorageKey:      in.StorageKey,
			OriginalName:    in.OriginalName,
			Size:            in.Size,
			MimeType:        in.MimeType,
			IsPublicPreview: in.IsPublicPreview,
		})
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(&files).Error; err != nil {
			return err
		}
		// Changing the file set of rejected work reopens it as a draft,
		// same as editing its fields.
		if design.Status == models.DesignStatusRejected {
			return tx.Model(design).Update("status", models.DesignStatusDraft).Error
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Internal("failed to attach files", err)
	}

	return files, nil
}

func (s *DesignService) RemoveFile(designID, fileID uuid.UUID, actor Identity) error {
	design, err := s.loadOwned(designID, actor)
	if err != nil {
		return err
	}

	if !design.Editable() {
		return apperrors.StateConflict("design", string(design.Status), RequiredStates(ActionUpdate))
	}

	var file models.DesignFile
	if err := s.db.First(&file, "id = ? AND design_id = ?", fileID, design.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("file")
		}
		return apperrors.Internal("failed to load file", err)
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Delete(&file).Error; err != nil {
			return err
		}
		if design.Status == models.DesignStatusRejected {
			return tx.Model(design).Update("status", models.DesignStatusDraft).Error
		}
		return nil
	})
	if err != nil {
		return apperrors.Internal("failed to remove file", err)
	}

	if err := s.storageService.DeleteFile(file.StorageKey); err != nil {
		logrus.WithError(err).WithField("storage_key", file.StorageKey).Warn("Failed to delete stored file")
	}

	return nil
}

// loadOwned resolves a design and enforces architect ownership. Ownership is
// checked before state so a stranger probing someone else's draft learns
// nothing about its lifecycle.
func (s *DesignService) loadOwned(id uuid.UUID, actor Identity) (*models.Design, error) {
	design, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if design.ArchitectID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("design belongs to a different architect")
	}
	return design, nil
}

func (s *DesignService) load(id uuid.UUID) (*models.Design, error) {
	var design models.Design
	if err := s.db.First(&design, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("design")
		}
		return nil, apperrors.Internal("failed to load design", err)
	}
	return &design, nil
}

func (s *DesignService) reload(id uuid.UUID) (*models.Design, error) {
	var design models.Design
	if err := s.db.Preload("Architect").Preload("Files").First(&design, "id = ?", id).Error; err != nil {
		return nil, apperrors.Internal("failed to reload design", err)
	}
	return &design, nil
}

func (s *DesignService) incrementViewCount(id uuid.UUID) {
	s.db.Model(&models.Design{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
}

func orderClause(sortBy, sortDir string) string {
	column := "published_at"
	switch sortBy {
	case "price":
		column = "price"
	case "rating":
		column = "average_rating"
	case "created_at":
		column = "created_at"
	case "views":
		column = "view_count"
	}
	dir := "DESC"
	if strings.EqualFold(sortDir, "asc") {
		dir = "ASC"
	}
	return column + " " + dir + " NULLS LAST"
}
