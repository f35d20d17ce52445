package handler

import (
	"net/http"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/lifecycle"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/pkg/logger"
	"github.com/gin-gonic/gin"
)

// statusFor maps each lifecycle error kind to a stable HTTP status. Anything
// that isn't a typed lifecycle error is an infrastructure fault and surfaces
// as a 500 without leaking internals.
var statusFor = map[lifecycle.ErrorKind]int{
	lifecycle.KindNotFound:             http.StatusNotFound,
	lifecycle.KindForbidden:            http.StatusForbidden,
	lifecycle.KindValidation:           http.StatusBadRequest,
	lifecycle.KindEmptyMessage:         http.StatusBadRequest,
	lifecycle.KindPaymentRequired:      http.StatusPaymentRequired,
	lifecycle.KindInvalidTransition:    http.StatusConflict,
	lifecycle.KindAlreadySigned:        http.StatusConflict,
	lifecycle.KindAlreadyPaid:          http.StatusConflict,
	lifecycle.KindDuplicateContract:    http.StatusConflict,
	lifecycle.KindVersionConflict:      http.StatusConflict,
	lifecycle.KindInvalidProposalState: http.StatusUnprocessableEntity,
}

// respondError writes the HTTP response for a failed lifecycle operation.
func respondError(c *gin.Context, err error) {
	if le, ok := err.(*lifecycle.Error); ok {
		status, known := statusFor[le.Kind]
		if !known {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": le.Detail, "code": string(le.Kind)})
		return
	}

	logger.Error(c.Request.Context(), "contract operation failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
