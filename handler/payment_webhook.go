package handler

import (
	"encoding/json"
	"net/http"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/lifecycle"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/pkg/logger"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/service"
	"github.com/gin-gonic/gin"
)

// PaymentWebhookHandler receives asynchronous confirmations from the payment
// gateway. The endpoint is unauthenticated; authenticity comes from the
// checksum over the payload and the shared webhook secret.
type PaymentWebhookHandler struct {
	payments *service.PaymentService
	lc       *lifecycle.Lifecycle
}

func NewPaymentWebhookHandler(payments *service.PaymentService, lc *lifecycle.Lifecycle) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{payments: payments, lc: lc}
}

// HandleWebhook applies a gateway confirmation to the contract.
func (h *PaymentWebhookHandler) HandleWebhook(c *gin.Context) {
	var req service.WebhookPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.payments.VerifyWebhook(req.Checksum, req.Content) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid checksum"})
		return
	}

	var content service.WebhookContent
	if err := json.Unmarshal([]byte(req.Content), &content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content format"})
		return
	}

	ctx := c.Request.Context()
	switch content.State {
	case "succeeded":
		// The gateway confirms on behalf of the business that started the
		// checkout; the reference keeps replays idempotent.
		caller := lifecycle.Caller{UserID: content.BusinessID, Role: model.RoleBusiness}
		_, err := h.lc.CompletePayment(ctx, caller, content.ContractID, content.MilestoneID, content.Reference)
		if err != nil {
			if lifecycle.IsKind(err, lifecycle.KindAlreadyPaid) {
				// Replayed confirmation: acknowledge so the gateway stops retrying.
				c.JSON(http.StatusOK, gin.H{"message": "Already applied"})
				return
			}
			respondError(c, err)
			return
		}
	case "failed":
		logger.Warn(ctx, "payment failed at gateway",
			"contract_id", content.ContractID,
			"reference", content.Reference,
			"error", content.ErrorMsg,
		)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
}
