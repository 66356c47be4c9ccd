// internal/handlers/design.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/services"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

type DesignHandler struct {
	designService  *services.DesignService
	accessService  *services.AccessService
	storageService *services.StorageService
}

func NewDesignHandler(designService *services.DesignService, accessService *services.AccessService, storageService *services.StorageService) *DesignHandler {
	return &DesignHandler{
		designService:  designService,
		accessService:  accessService,
		storageService: storageService,
	}
}

// GET /designs
func (h *DesignHandler) ListDesigns(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.DesignSearchParams{PaginationParams: params}
	if licenseType := c.Query("license_type"); licenseType != "" {
		lt := models.LicenseType(licenseType)
		searchParams.LicenseType = &lt
	}
	if priceMin := c.Query("price_min"); priceMin != "" {
		if v, err := decimal.NewFromString(priceMin); err == nil {
			searchParams.PriceMin = &v
		}
	}
	if priceMax := c.Query("price_max"); priceMax != "" {
		if v, err := decimal.NewFromString(priceMax); err == nil {
			searchParams.PriceMax = &v
		}
	}
	if tags := c.Query("tags"); tags != "" {
		searchParams.Tags = strings.Split(tags, ",")
	}

	designs, total, err := h.designService.SearchDesigns(searchParams)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(designs, total, params))
}

// GET /designs/:id
//
// Accepts a design id or slug.
func (h *DesignHandler) GetDesign(c *gin.Context) {
	viewer := optionalIdentity(c)

	raw := c.Param("id")
	if id, err := uuid.Parse(raw); err == nil {
		design, derr := h.designService.GetDesign(id, viewer)
		if derr != nil {
			utils.RespondError(c, derr)
			return
		}
		utils.SuccessResponse(c, design)
		return
	}

	design, err := h.designService.GetDesignBySlug(raw, viewer)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, design)
}

// GET /architect/designs
func (h *DesignHandler) GetMyDesigns(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	params := utils.GetPaginationParams(c)
	designs, total, err := h.designService.GetArchitectDesigns(identity.UserID, params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(designs, total, params))
}

// POST /architect/designs
func (h *DesignHandler) CreateDesign(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	var req services.CreateDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	design, err := h.designService.CreateDesign(identity.UserID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, design)
}

// PUT /architect/designs/:id
func (h *DesignHandler) UpdateDesign(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	design, err := h.designService.UpdateDesign(id, identity, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, design)
}

// POST /architect/designs/:id/submit
func (h *DesignHandler) SubmitDesign(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SubmitDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	design, err := h.designService.SubmitDesign(id, identity, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, design)
}

// DELETE /architect/designs/:id
func (h *DesignHandler) DeleteDesign(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.designService.DeleteDesign(id, identity); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// POST /architect/designs/:id/files
//
// Multipart upload, one or more files under the "files" field, with a
// file_type field applying to the batch.
func (h *DesignHandler) UploadFiles(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	designID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", err.Error())
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		utils.BadRequestResponse(c, "No files provided", nil)
		return
	}

	fileType := models.FileType(c.PostForm("file_type"))
	switch fileType {
	case models.FileTypeMainPackage, models.FileTypePreviewImage, models.FileTypeCAD, models.FileTypeBIM, models.FileTypeOther:
	default:
		utils.BadRequestResponse(c, "Unknown file_type", nil)
		return
	}

	options := h.storageService.UploadOptionsForFileType(fileType)
	inputs := make([]services.DesignFileInput, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			utils.BadRequestResponse(c, "Failed to read uploaded file", err.Error())
			return
		}

		if fileType == models.FileTypePreviewImage {
			if err := h.storageService.ValidateImage(file); err != nil {
				file.Close()
				utils.BadRequestResponse(c, "Invalid preview image", err.Error())
				return
			}
		}

		result, err := h.storageService.UploadFile(file, header, options)
		file.Close()
		if err != nil {
			utils.BadRequestResponse(c, "Upload failed", err.Error())
			return
		}

		inputs = append(inputs, services.DesignFileInput{
			FileType:        fileType,
			StorageKey:      result.Key,
			OriginalName:    header.Filename,
			Size:            result.Size,
			MimeType:        result.MimeType,
			IsPublicPreview: fileType == models.FileTypePreviewImage,
		})
	}

	files, err := h.designService.AddFiles(designID, identity, inputs)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, files)
}

// DELETE /architect/designs/:id/files/:fileId
func (h *DesignHandler) DeleteFile(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	designID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseUUIDParam(c, "fileId")
	if !ok {
		return
	}

	if err := h.designService.RemoveFile(designID, fileID, identity); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// GET /designs/:id/files/:fileId/download
func (h *DesignHandler) DownloadFile(c *gin.Context) {
	designID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseUUIDParam(c, "fileId")
	if !ok {
		return
	}

	download, err := h.accessService.DownloadFile(designID, fileID, optionalIdentity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+download.FileName+`"`)
	c.Data(http.StatusOK, download.MimeType, download.Content)
}
