package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
)

type processRequest struct {
	Pages              int            `json:"pages"`
	ProcessingRecordID string         `json:"processingRecordId"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

type chargeResponse struct {
	Success bool          `json:"success"`
	Charge  chargePayload `json:"charge"`
}

type chargePayload struct {
	PagesCharged       int     `json:"pagesCharged"`
	FreePagesUsed      int     `json:"freePagesUsed"`
	CreditsCharged     float64 `json:"creditsCharged"`
	NewBalance         float64 `json:"newBalance"`
	FreePagesRemaining int     `json:"freePagesRemaining"`
	PagesUsedTotal     int64   `json:"pagesUsedTotal"`
	EventID            string  `json:"eventId"`
}

// ProcessCharge is the authoritative billing entry point for one
// processing run. The charge either commits fully or not at all.
func (s *Server) ProcessCharge(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Pages <= 0 {
		AbortWithError(c, newValidationError("pages", "invalid_pages", "pages must be a positive integer"))
		return
	}
	if strings.TrimSpace(req.ProcessingRecordID) == "" {
		AbortWithError(c, newValidationError("processingRecordId", "required", "processingRecordId is required"))
		return
	}

	result, err := s.ledgerSvc.Charge(c.Request.Context(), ledgerdomain.ChargeRequest{
		UserID:             currentUserID(c),
		Pages:              req.Pages,
		ProcessingRecordID: strings.TrimSpace(req.ProcessingRecordID),
		ClientIP:           c.ClientIP(),
		ClientUserAgent:    c.Request.UserAgent(),
		Metadata:           req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chargeResponse{
		Success: true,
		Charge: chargePayload{
			PagesCharged:       result.Breakdown.PagesRequested,
			FreePagesUsed:      result.Breakdown.FreePagesUsed,
			CreditsCharged:     result.Breakdown.RequiredCredits.Float64(),
			NewBalance:         result.CreditBalance.Float64(),
			FreePagesRemaining: result.FreePagesRemaining,
			PagesUsedTotal:     result.PagesUsedTotal,
			EventID:            result.Event.ID.String(),
		},
	})
}
