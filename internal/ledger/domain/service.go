package domain

import "context"

// ChargeRequest asks for pages to be debited against one user.
type ChargeRequest struct {
	UserID             string
	Pages              int
	ProcessingRecordID string
	ClientIP           string
	ClientUserAgent    string
	Metadata           map[string]any
}

// ChargeResult reports a committed charge.
type ChargeResult struct {
	Breakdown          Breakdown
	FreePagesRemaining int
	CreditBalance      CreditAmount
	PagesUsedTotal     int64
	Event              ChargeEvent
}

// Service owns every mutation of the user ledger. Charge is the only
// operation that debits; grants arrive from the subscription and
// payment collaborators.
type Service interface {
	// GetLedger returns the current snapshot or ErrUserNotFound.
	GetLedger(ctx context.Context, userID string) (*UserLedger, error)

	// CreateLedger creates the row with the trial allowance. It is
	// idempotent: an existing row is returned unchanged.
	CreateLedger(ctx context.Context, userID string) (*UserLedger, error)

	// Charge re-reads balances, re-evaluates eligibility, and applies
	// the debit plus one charge event in a single transaction.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// GrantCredits tops up the credit balance (purchase webhook).
	GrantCredits(ctx context.Context, userID string, amount CreditAmount, reason string) (*UserLedger, error)

	// GrantFreePages extends the free allowance (administrative).
	GrantFreePages(ctx context.Context, userID string, pages int, reason string) (*UserLedger, error)
}
