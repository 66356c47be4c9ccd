// internal/services/access_service.go
package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/models"
)

// AccessGrant says how a file may be served to a requester.
type AccessGrant int

const (
	// AccessDenied withholds the file entirely.
	AccessDenied AccessGrant = iota
	// AccessOriginal serves the stored bytes unmodified.
	AccessOriginal
	// AccessWatermarked serves a watermarked derivative.
	AccessWatermarked
)

// AccessService is the single gate in front of stored design files. All
// download paths go through Authorize; nothing serves storage keys directly.
type AccessService struct {
	db               *gorm.DB
	storageService   *StorageService
	watermarkService *WatermarkService
	auditService     *AuditService
}

// FileDownload is an authorized, fully materialized download.
type FileDownload struct {
	FileName    string
	MimeType    string
	Content     []byte
	Watermarked bool
}

func NewAccessService(db *gorm.DB, storageService *StorageService, watermarkService *WatermarkService, auditService *AuditService) *AccessService {
	return &AccessService{
		db:               db,
		storageService:   storageService,
		watermarkService: watermarkService,
		auditService:     auditService,
	}
}

// DecideAccess applies the access matrix to already loaded facts. Pure, so
// the matrix is testable without storage or a database. license may be nil.
func DecideAccess(design *models.Design, file *models.DesignFile, requester *Identity, license *models.License) AccessGrant {
	// Owner and admin see everything unmodified.
	if requester != nil {
		if requester.IsAdmin() || requester.UserID == design.ArchitectID {
			return AccessOriginal
		}
	}

	// Public previews on a purchasable design are open.
	if file.IsPublicPreview && design.Purchasable() {
		return AccessOriginal
	}

	if requester == nil || license == nil || !license.Active() {
		return AccessDenied
	}

	// Licensed buyers: previews come through clean, the deliverables
	// depend on the license tier.
	if file.IsPublicPreview || file.FileType == models.FileTypePreviewImage {
		return AccessOriginal
	}
	if license.LicenseType == models.LicenseTypeExclusive {
		return AccessOriginal
	}
	return AccessWatermarked
}

// DownloadFile authorizes and materializes a file download. Denied requests
// read as not-found so probing cannot distinguish "exists but forbidden"
// from "absent".
func (s *AccessService) DownloadFile(designID, fileID uuid.UUID, requester *Identity) (*FileDownload, error) {
	var design models.Design
	if err := s.db.Preload("Architect").First(&design, "id = ?", designID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("design")
		}
		return nil, apperrors.Internal("failed to load design", err)
	}

	var file models.DesignFile
	if err := s.db.First(&file, "id = ? AND design_id = ?", fileID, designID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("file")
		}
		return nil, apperrors.Internal("failed to load file", err)
	}

	var license *models.License
	if requester != nil {
		var l models.License
		err := s.db.Where("buyer_id = ? AND design_id = ? AND status = ?",
			requester.UserID, designID, models.LicenseStatusActive).First(&l).Error
		if err == nil {
			license = &l
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Internal("failed to check license", err)
		}
	}

	grant := DecideAccess(&design, &file, requester, license)
	if grant == AccessDenied {
		return nil, apperrors.NotFound("file")
	}

	content, err := s.storageService.DownloadFile(file.StorageKey)
	if err != nil {
		return nil, apperrors.External("fetch stored file", err)
	}

	download := &FileDownload{
		FileName: file.OriginalName,
		MimeType: file.MimeType,
		Content:  content,
	}

	if grant == AccessWatermarked {
		attribution := fmt.Sprintf("Licensed to buyer %s - %s - planmarket", requester.UserID, design.Architect.Username)
		marked, err := s.watermarkService.Apply(content, file.MimeType, file.OriginalName, attribution)
		if err != nil {
			return nil, apperrors.Internal("failed to watermark file", err)
		}
		download.Content = marked
		download.Watermarked = true
		download.FileName = watermarkedName(file.OriginalName)
	}

	if requester != nil {
		meta := models.JSONB{
			"file_id":   file.ID.String(),
			"design_id": design.ID.String(),
			"file_name": file.OriginalName,
			"size":      file.Size,
		}
		if license != nil {
			meta["license_id"] = license.ID.String()
			meta["license_type"] = string(license.LicenseType)
		}
		s.auditService.Record(&requester.UserID, "file_downloaded", "design_file", &file.ID, meta)
	}

	return download, nil
}

func watermarkedName(original string) string {
	ext := filepath.Ext(original)
	return strings.TrimSuffix(original, ext) + "_licensed" + ext
}
