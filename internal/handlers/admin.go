// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/services"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

type AdminHandler struct {
	adminService   *services.AdminService
	designService  *services.DesignService
	paymentService *services.PaymentService
	auditService   *services.AuditService
}

func NewAdminHandler(adminService *services.AdminService, designService *services.DesignService, paymentService *services.PaymentService, auditService *services.AuditService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		designService:  designService,
		paymentService: paymentService,
		auditService:   auditService,
	}
}

// GET /admin/designs/pending
func (h *AdminHandler) GetPendingDesigns(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	designs, total, err := h.designService.ListPendingDesigns(params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(designs, total, params))
}

// POST /admin/designs/:id/approve
func (h *AdminHandler) ApproveDesign(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		AdminNotes string `json:"admin_notes"`
	}
	c.ShouldBindJSON(&req)

	design, err := h.designService.ApproveDesign(id, identity, req.AdminNotes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.auditService.Record(&identity.UserID, "design_approved", "design", &design.ID, models.JSONB{
		"status": string(design.Status),
	})
	utils.SuccessResponse(c, design)
}

// POST /admin/designs/:id/reject
func (h *AdminHandler) RejectDesign(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.RejectDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	design, err := h.designService.RejectDesign(id, identity, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.auditService.Record(&identity.UserID, "design_rejected", "design", &design.ID, models.JSONB{
		"reason": req.Reason,
	})
	utils.SuccessResponse(c, design)
}

// POST /admin/designs/:id/publish
func (h *AdminHandler) PublishDesign(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	design, err := h.designService.PublishDesign(id, identity)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.auditService.Record(&identity.UserID, "design_published", "design", &design.ID, nil)
	utils.SuccessResponse(c, design)
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	users, total, err := h.adminService.ListUsers(params, c.Query("role"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, params))
}

// PUT /admin/users/:id/status
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.UserStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.adminService.SetUserStatus(id, req.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.auditService.Record(&identity.UserID, "user_status_changed", "user", &user.ID, models.JSONB{
		"status": string(req.Status),
	})
	utils.SuccessResponse(c, user)
}

// GET /admin/transactions
func (h *AdminHandler) GetTransactions(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	transactions, total, err := h.adminService.ListTransactions(params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(transactions, total, params))
}

// POST /admin/transactions/:id/refund
func (h *AdminHandler) RefundTransaction(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	transaction, err := h.paymentService.RefundTransaction(id, identity, req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.auditService.Record(&identity.UserID, "transaction_refunded", "transaction", &transaction.ID, models.JSONB{
		"reason": req.Reason,
	})
	utils.SuccessResponse(c, transaction)
}

// GET /admin/webhook-events
func (h *AdminHandler) GetWebhookEvents(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	events, total, err := h.adminService.ListWebhookEvents(params, c.Query("outcome"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(events, total, params))
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	entries, total, err := h.auditService.List(params, c.Query("action"), c.Query("resource_type"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(entries, total, params))
}
