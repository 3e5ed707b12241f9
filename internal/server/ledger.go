package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
)

type ledgerResponse struct {
	UserID             string  `json:"userId"`
	FreePagesRemaining int     `json:"freePagesRemaining"`
	CreditBalance      float64 `json:"creditBalance"`
	PagesUsedTotal     int64   `json:"pagesUsedTotal"`
}

func toLedgerResponse(row *ledgerdomain.UserLedger) ledgerResponse {
	return ledgerResponse{
		UserID:             row.UserID,
		FreePagesRemaining: row.FreePagesRemaining,
		CreditBalance:      row.CreditBalance.Float64(),
		PagesUsedTotal:     row.PagesUsedTotal,
	}
}

func (s *Server) GetLedger(c *gin.Context) {
	row, err := s.ledgerSvc.GetLedger(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLedgerResponse(row))
}

// CreateLedger provisions the trial allowance for a new account. The
// signup collaborator calls this once per user; repeats are no-ops.
func (s *Server) CreateLedger(c *gin.Context) {
	row, err := s.ledgerSvc.CreateLedger(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLedgerResponse(row))
}

type topUpRequest struct {
	Credits float64 `json:"credits"`
	Reason  string  `json:"reason,omitempty"`
}

// TopUpCredits is the entry point for the payment webhook collaborator
// after a successful purchase.
func (s *Server) TopUpCredits(c *gin.Context) {
	var req topUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Credits <= 0 {
		AbortWithError(c, newValidationError("credits", "invalid_amount", "credits must be positive"))
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "credit_purchase"
	}

	row, err := s.ledgerSvc.GrantCredits(
		c.Request.Context(),
		currentUserID(c),
		ledgerdomain.CreditsFromFloat(req.Credits),
		reason,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLedgerResponse(row))
}
