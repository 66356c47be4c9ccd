// internal/handlers/purchase.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/planmarket/planmarket-backend/internal/services"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// GET /designs/:id/availability
func (h *PurchaseHandler) CheckAvailability(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	designID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	availability, err := h.purchaseService.CheckAvailability(designID, identity)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, availability)
}

// POST /designs/:id/checkout
func (h *PurchaseHandler) InitiateCheckout(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	designID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	checkout, err := h.purchaseService.InitiateCheckout(identity, designID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, checkout)
}

// GET /purchases
func (h *PurchaseHandler) GetPurchaseHistory(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.purchaseService.GetPurchaseHistory(identity.UserID, params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(transactions, total, params))
}

// GET /licenses
func (h *PurchaseHandler) GetLicenses(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	params := utils.GetPaginationParams(c)
	licenses, total, err := h.purchaseService.GetLicenses(identity.UserID, params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(licenses, total, params))
}

// GET /architect/earnings
func (h *PurchaseHandler) GetEarnings(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	params := utils.GetPaginationParams(c)
	earnings, total, totals, err := h.purchaseService.GetArchitectEarnings(identity.UserID, params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(earnings, total, params)
	utils.SuccessResponseWithMeta(c, result, gin.H{"totals_cents": totals})
}
