// internal/handlers/webhook.go
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/planmarket/planmarket-backend/internal/services"
)

// Stripe events fit well under a megabyte; anything larger is not a real
// delivery and gets acknowledged without processing so the provider does not
// keep redelivering it.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	settlementService *services.SettlementService
}

func NewWebhookHandler(settlementService *services.SettlementService) *WebhookHandler {
	return &WebhookHandler{settlementService: settlementService}
}

// POST /webhooks/stripe
//
// Always acknowledges with 200 except on signature failure: the provider
// redelivers on any non-2xx, and everything past authentication is handled
// idempotently inside the settlement service.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to read request body"})
		return
	}
	if len(payload) > maxWebhookBody {
		// A truncated body would fail signature verification and trigger an
		// endless redelivery loop. Acknowledge and drop instead.
		logrus.WithField("body_size", len(payload)).Warn("Discarding oversized webhook delivery")
		c.JSON(http.StatusOK, gin.H{"status": "discarded"})
		return
	}

	if err := h.settlementService.ProcessWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
