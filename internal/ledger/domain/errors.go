package domain

import "errors"

var (
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidPages        = errors.New("invalid_pages")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrUserNotFound        = errors.New("user_not_found")
	ErrInsufficientCredits = errors.New("insufficient_credits")
	ErrStoreUnavailable    = errors.New("store_unavailable")
)

// InsufficientCreditsError rejects a charge while carrying the
// breakdown computed from the balances read inside the transaction.
type InsufficientCreditsError struct {
	Breakdown Breakdown
}

func (e *InsufficientCreditsError) Error() string {
	return ErrInsufficientCredits.Error()
}

func (e *InsufficientCreditsError) Unwrap() error {
	return ErrInsufficientCredits
}
