// Package jwtverifier verifies HS256 bearer tokens minted by the auth
// collaborator.
package jwtverifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	authdomain "github.com/paperlane/paperlane/internal/auth/domain"
	"github.com/paperlane/paperlane/internal/config"
)

type Verifier struct {
	secret []byte
}

func New(cfg config.Config) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.AuthJWTSecret)
	if secret == "" {
		return nil, errors.New("jwtverifier: AUTH_JWT_SECRET is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

type claims struct {
	Email string `json:"email,omitempty"`
	Plan  string `json:"plan,omitempty"`
	jwt.RegisteredClaims
}

func (v *Verifier) Verify(ctx context.Context, token string) (*authdomain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, authdomain.ErrUnauthorized
	}

	body, ok := parsed.Claims.(*claims)
	if !ok || strings.TrimSpace(body.Subject) == "" {
		return nil, authdomain.ErrUnauthorized
	}

	return &authdomain.Identity{
		UserID:           body.Subject,
		Email:            body.Email,
		SubscriptionType: body.Plan,
	}, nil
}
