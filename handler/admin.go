package handler

import (
	"net/http"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/lifecycle"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes support capabilities. Routes are mounted behind the
// admin role check on top of normal authentication.
type AdminHandler struct {
	lc *lifecycle.Lifecycle
}

func NewAdminHandler(lc *lifecycle.Lifecycle) *AdminHandler {
	return &AdminHandler{lc: lc}
}

// ResetPayment clears milestone payments on an approved contract so support
// can unwind a botched gateway session before anything is signed.
func (h *AdminHandler) ResetPayment(c *gin.Context) {
	contract, err := h.lc.ResetPayment(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}
