package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
	usagedomain "github.com/paperlane/paperlane/internal/usage/domain"
)

type usageHistoryResponse struct {
	Success    bool                   `json:"success"`
	Data       []usageEventPayload    `json:"data"`
	Pagination usagePaginationPayload `json:"pagination"`
}

type usageEventPayload struct {
	ID                 string  `json:"id"`
	Action             string  `json:"action"`
	PagesCharged       int     `json:"pagesCharged"`
	FreePagesConsumed  int     `json:"freePagesConsumed"`
	CreditsCharged     float64 `json:"creditsCharged"`
	ProcessingRecordID string  `json:"processingRecordId,omitempty"`
	CreatedAt          string  `json:"createdAt"`
}

type usagePaginationPayload struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

func (s *Server) GetUsageHistory(c *gin.Context) {
	page, err := parseOptionalInt(c.Query("page"))
	if err != nil {
		AbortWithError(c, newValidationError("page", "invalid_page", "page must be an integer"))
		return
	}
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be an integer"))
		return
	}

	resp, err := s.usageSvc.List(c.Request.Context(), usagedomain.ListRequest{
		UserID: currentUserID(c),
		Page:   page,
		Limit:  limit,
		Action: c.Query("action"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := make([]usageEventPayload, 0, len(resp.Events))
	for _, event := range resp.Events {
		data = append(data, toUsageEventPayload(event))
	}

	c.JSON(http.StatusOK, usageHistoryResponse{
		Success: true,
		Data:    data,
		Pagination: usagePaginationPayload{
			Page:  resp.Page,
			Limit: resp.Limit,
			Total: resp.Total,
		},
	})
}

func toUsageEventPayload(event ledgerdomain.ChargeEvent) usageEventPayload {
	return usageEventPayload{
		ID:                 event.ID.String(),
		Action:             string(event.Action),
		PagesCharged:       event.PagesCharged,
		FreePagesConsumed:  event.FreePagesConsumed,
		CreditsCharged:     event.CreditsCharged.Float64(),
		ProcessingRecordID: event.ProcessingRecordID,
		CreatedAt:          event.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}
