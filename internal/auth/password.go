// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any email/password mismatch. Login
// never distinguishes an unknown email from a wrong password, so the error
// cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// defaultBcryptCost balances hash strength against login latency.
const defaultBcryptCost = 12

// HashPassword hashes a password with bcrypt at the given cost. A cost of
// zero selects the default.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	if cost <= 0 {
		cost = defaultBcryptCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a stored hash against a candidate password.
// bcrypt's comparison is constant-time over the hash. Returns
// ErrInvalidCredentials on mismatch.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
