// internal/handlers/modification.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/planmarket/planmarket-backend/internal/services"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

type ModificationHandler struct {
	modificationService *services.ModificationService
}

func NewModificationHandler(modificationService *services.ModificationService) *ModificationHandler {
	return &ModificationHandler{modificationService: modificationService}
}

// POST /designs/:id/modifications
func (h *ModificationHandler) RequestModification(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	designID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.RequestModificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	mod, err := h.modificationService.RequestModification(identity, designID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, mod)
}

// GET /modifications
func (h *ModificationHandler) GetModifications(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	params := utils.GetPaginationParams(c)
	mods, total, err := h.modificationService.GetModificationRequests(identity, params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(mods, total, params))
}

// POST /modifications/:id/quote
func (h *ModificationHandler) QuoteModification(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	modID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.QuoteModificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	mod, err := h.modificationService.QuoteModification(modID, identity, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, mod)
}

// POST /modifications/:id/pay
func (h *ModificationHandler) PayModification(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	modID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	checkout, err := h.modificationService.PayModification(modID, identity)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, checkout)
}

// POST /modifications/:id/decline
func (h *ModificationHandler) DeclineModification(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	modID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	mod, err := h.modificationService.DeclineModification(modID, identity)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, mod)
}
