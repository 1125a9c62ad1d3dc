// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/models"
)

// minSecretLen is the shortest acceptable HMAC secret. Anything shorter is
// brute-forceable offline once a single token leaks.
const minSecretLen = 32

// defaultTokenTTL applies when the configured lifetime is zero.
const defaultTokenTTL = 12 * time.Hour

// Claims carries the authenticated identity inside a signed token. The user
// id rides in the registered Subject claim; email and role are custom claims
// so the middleware can populate the request context without a user lookup.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim, the account id the token was issued for.
func (c *Claims) UserID() string {
	return c.Subject
}

// JWTManager signs and verifies the HS256 tokens used by the API.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTManager builds a token manager from configuration. The secret must
// be at least 32 characters; there is no insecure fallback.
func NewJWTManager(cfg *config.AuthConfig) (*JWTManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config is required")
	}
	if len(cfg.JWTSecret) < minSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d characters, got %d", minSecretLen, len(cfg.JWTSecret))
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
	}, nil
}

// GenerateToken issues a signed token for a user and returns it with its
// expiry so login responses can tell clients when to refresh.
func (m *JWTManager) GenerateToken(user *models.User) (string, time.Time, error) {
	if user == nil || user.ID == "" {
		return "", time.Time{}, fmt.Errorf("cannot issue token without a user id")
	}

	now := time.Now()
	expiresAt := now.Add(m.ttl)
	claims := &Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies the signature, algorithm and time claims of a token
// and returns its claims. The signing method check rejects algorithm
// confusion attacks (an RS256 or "none" token signed against the HMAC key).
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}
