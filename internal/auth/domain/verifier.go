// Package domain defines the identity contract the API consumes. The
// identity provider itself is an external collaborator; the core only
// verifies bearer tokens it issued.
package domain

import (
	"context"
	"errors"
)

var ErrUnauthorized = errors.New("unauthorized")

// Identity is the verified caller.
type Identity struct {
	UserID           string
	Email            string
	SubscriptionType string
}

// Verifier resolves a bearer token to an identity or fails with
// ErrUnauthorized.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
