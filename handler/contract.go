package handler

import (
	"net/http"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/lifecycle"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/middleware"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/pkg/metrics"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/service"
	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	lc       *lifecycle.Lifecycle
	files    *service.FileService
	payments *service.PaymentService
}

func NewContractHandler(lc *lifecycle.Lifecycle, files *service.FileService, payments *service.PaymentService) *ContractHandler {
	return &ContractHandler{lc: lc, files: files, payments: payments}
}

func callerFrom(c *gin.Context) lifecycle.Caller {
	return lifecycle.Caller{
		UserID: middleware.GetUserID(c),
		Role:   middleware.GetRole(c),
	}
}

// respond writes the outcome of a lifecycle operation and records it.
func respond(c *gin.Context, operation string, status int, contract *model.Contract, err error) {
	if err != nil {
		if kind, ok := lifecycle.KindOf(err); ok {
			metrics.RecordTransition(operation, string(kind))
		} else {
			metrics.RecordTransition(operation, "error")
		}
		respondError(c, err)
		return
	}
	metrics.RecordTransition(operation, "ok")
	c.JSON(status, contract)
}

type CreateContractRequest struct {
	ProposalID string                `json:"proposal_id" binding:"required"`
	Draft      lifecycle.DraftFields `json:"draft" binding:"required"`
}

// Create converts an accepted proposal into a draft contract.
func (h *ContractHandler) Create(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contract, err := h.lc.CreateFromProposal(c.Request.Context(), callerFrom(c), req.ProposalID, req.Draft)
	respond(c, "create", http.StatusCreated, contract, err)
}

// List returns the caller's contracts on either side.
func (h *ContractHandler) List(c *gin.Context) {
	contracts, err := h.lc.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if contracts == nil {
		contracts = []*model.Contract{}
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

// Get returns one contract, visible to its parties and admins.
func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.lc.Get(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// Submit sends a draft to the student for review.
func (h *ContractHandler) Submit(c *gin.Context) {
	contract, err := h.lc.SubmitForReview(c.Request.Context(), callerFrom(c), c.Param("id"))
	respond(c, "submit", http.StatusOK, contract, err)
}

// Accept approves a contract under review.
func (h *ContractHandler) Accept(c *gin.Context) {
	contract, err := h.lc.Accept(c.Request.Context(), callerFrom(c), c.Param("id"))
	respond(c, "accept", http.StatusOK, contract, err)
}

type RequestChangesRequest struct {
	Message string `json:"message"`
}

// RequestChanges sends a contract back to the business with a note.
func (h *ContractHandler) RequestChanges(c *gin.Context) {
	var req RequestChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contract, err := h.lc.RequestChanges(c.Request.Context(), callerFrom(c), c.Param("id"), req.Message)
	respond(c, "request_changes", http.StatusOK, contract, err)
}

// Revise applies edits after changes were requested.
func (h *ContractHandler) Revise(c *gin.Context) {
	var fields lifecycle.DraftFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contract, err := h.lc.ReviseDraft(c.Request.Context(), callerFrom(c), c.Param("id"), fields)
	respond(c, "revise", http.StatusOK, contract, err)
}

type CheckoutRequestBody struct {
	MilestoneID string `json:"milestone_id"`
}

// Checkout registers a pending payment with the gateway and returns the URL
// the business completes it at. The contract itself only changes when the
// gateway confirms, via webhook or the manual capture endpoint.
func (h *ContractHandler) Checkout(c *gin.Context) {
	if h.payments == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment gateway not configured"})
		return
	}

	var req CheckoutRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	caller := callerFrom(c)
	contract, err := h.lc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if contract.BusinessID != caller.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the business party can pay"})
		return
	}
	if contract.Status != model.ContractApproved {
		c.JSON(http.StatusConflict, gin.H{"error": "Contract is not approved for payment", "code": string(lifecycle.KindInvalidTransition)})
		return
	}

	var amount float64
	if req.MilestoneID != "" {
		m := contract.MilestoneByID(req.MilestoneID)
		if m == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Milestone not found"})
			return
		}
		amount = m.Amount
	} else {
		for i := range contract.Milestones {
			if !contract.Milestones[i].Paid {
				amount += contract.Milestones[i].Amount
			}
		}
	}

	checkout, err := h.payments.CreateCheckout(c.Request.Context(), service.CheckoutRequest{
		ContractID:  contract.ID,
		MilestoneID: req.MilestoneID,
		BusinessID:  contract.BusinessID,
		Amount:      amount,
		Currency:    "INR",
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference":    checkout.Data.Reference,
		"checkout_url": checkout.Data.CheckoutURL,
		"amount":       amount,
	})
}

type CompletePaymentRequest struct {
	MilestoneID string `json:"milestone_id"`
	PaymentRef  string `json:"payment_ref" binding:"required"`
}

// CompletePayment records a confirmed payment against the contract.
func (h *ContractHandler) CompletePayment(c *gin.Context) {
	var req CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contract, err := h.lc.CompletePayment(c.Request.Context(), callerFrom(c), c.Param("id"), req.MilestoneID, req.PaymentRef)
	respond(c, "payment", http.StatusOK, contract, err)
}

type SignRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// Sign applies the caller's signature. The signature image arrives either as
// a multipart upload (stored in object storage, the contract keeps the key)
// or as an opaque blob in the JSON body.
func (h *ContractHandler) Sign(c *gin.Context) {
	caller := callerFrom(c)
	contractID := c.Param("id")

	var signatureKey string
	if file, header, err := c.Request.FormFile("signature"); err == nil {
		defer file.Close()
		if h.files == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File storage not configured"})
			return
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/png"
		}
		key, err := h.files.UploadSignature(c.Request.Context(), contractID, string(caller.Role), file, header.Size, contentType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store signature: " + err.Error()})
			return
		}
		signatureKey = key
	} else {
		var req SignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature required"})
			return
		}
		signatureKey = req.Signature
	}

	contract, err := h.lc.Sign(c.Request.Context(), caller, contractID, caller.Role, signatureKey)
	respond(c, "sign", http.StatusOK, contract, err)
}

// SignatureURL returns a short-lived download URL for a stored signature.
func (h *ContractHandler) SignatureURL(c *gin.Context) {
	if h.files == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File storage not configured"})
		return
	}

	contract, err := h.lc.Get(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var key string
	switch model.Role(c.Param("role")) {
	case model.RoleBusiness:
		key = contract.BusinessSignature
	case model.RoleStudent:
		key = contract.StudentSignature
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown signing role"})
		return
	}
	if key == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Signature not found"})
		return
	}

	url, err := h.files.PresignedURL(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate URL"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

type MilestoneStatusRequest struct {
	Status model.MilestoneStatus `json:"status" binding:"required"`
}

// UpdateMilestone advances one milestone's progress.
func (h *ContractHandler) UpdateMilestone(c *gin.Context) {
	var req MilestoneStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contract, err := h.lc.AdvanceMilestone(c.Request.Context(), callerFrom(c), c.Param("id"), c.Param("milestoneId"), req.Status)
	respond(c, "milestone", http.StatusOK, contract, err)
}

// Complete closes out a signed contract with all milestones approved.
func (h *ContractHandler) Complete(c *gin.Context) {
	contract, err := h.lc.Complete(c.Request.Context(), callerFrom(c), c.Param("id"))
	respond(c, "complete", http.StatusOK, contract, err)
}
