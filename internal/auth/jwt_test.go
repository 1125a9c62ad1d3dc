// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager returned error: %v", err)
	}
	return m
}

func testUser() *models.User {
	return &models.User{
		ID:    "5a2f1c3e-0000-4000-8000-123456789abc",
		Email: "reader@example.com",
		Role:  models.RoleReader,
	}
}

func TestNewJWTManagerValidation(t *testing.T) {
	if _, err := NewJWTManager(nil); err == nil {
		t.Error("Expected error for nil config")
	}
	if _, err := NewJWTManager(&config.AuthConfig{JWTSecret: "too-short"}); err == nil {
		t.Error("Expected error for a short secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestJWTManager(t)
	user := testUser()

	token, expiresAt, err := m.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if token == "" {
		t.Fatal("Expected a non-empty token")
	}
	if remaining := time.Until(expiresAt); remaining < 59*time.Minute || remaining > time.Hour {
		t.Errorf("Expected roughly 1h lifetime, got %v", remaining)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if claims.UserID() != user.ID {
		t.Errorf("Expected subject %q, got %q", user.ID, claims.UserID())
	}
	if claims.Email != user.Email {
		t.Errorf("Expected email %q, got %q", user.Email, claims.Email)
	}
	if claims.Role != models.RoleReader {
		t.Errorf("Expected role reader, got %q", claims.Role)
	}
}

func TestGenerateTokenRequiresUser(t *testing.T) {
	m := newTestJWTManager(t)
	if _, _, err := m.GenerateToken(nil); err == nil {
		t.Error("Expected error for nil user")
	}
	if _, _, err := m.GenerateToken(&models.User{Email: "x@example.com"}); err == nil {
		t.Error("Expected error for a user without an id")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	expired := &JWTManager{secret: []byte(testSecret), ttl: -time.Minute}
	token, _, err := expired.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	m := newTestJWTManager(t)
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("Expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	other, err := NewJWTManager(&config.AuthConfig{JWTSecret: strings.Repeat("x", 32), TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager returned error: %v", err)
	}
	token, _, err := other.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	m := newTestJWTManager(t)
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("Expected token signed with a different secret to be rejected")
	}
}

func TestValidateTokenRejectsUnsignedAlgorithm(t *testing.T) {
	claims := &Claims{
		Email: "reader@example.com",
		Role:  models.RoleReader,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString returned error: %v", err)
	}

	m := newTestJWTManager(t)
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("Expected alg=none token to be rejected")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	m := newTestJWTManager(t)
	for _, bad := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.ValidateToken(bad); err == nil {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}
}
