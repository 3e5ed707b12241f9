// Package domain defines the read model over the charge-event log.
package domain

import (
	"context"
	"errors"

	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrInvalidUser = errors.New("invalid_user")

// ListRequest pages through a user's history. Page and Limit outside
// their ranges are clamped, not rejected; an unrecognized Action is
// ignored rather than erroring.
type ListRequest struct {
	UserID string
	Page   int
	Limit  int
	Action string
}

type ListResponse struct {
	Events []ledgerdomain.ChargeEvent `json:"events"`
	Page   int                        `json:"page"`
	Limit  int                        `json:"limit"`
	Total  int64                      `json:"total"`
}

// Service reads charge events in reverse-chronological order. The log
// is append-only; pages never reorder events relative to commit order.
type Service interface {
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}
