// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/models"
	"github.com/intellweave/intellweave/internal/storage"
)

// UserStore is the slice of the storage layer the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// Service implements account registration, login and the first-boot admin.
type Service struct {
	store      UserStore
	jwt        *JWTManager
	bcryptCost int

	adminEmail    string
	adminPassword string

	// dummyHash absorbs a bcrypt comparison when the email is unknown, so
	// login latency does not reveal whether an account exists.
	dummyHash string

	log zerolog.Logger
}

// NewService wires the auth service. The bcrypt cost and bootstrap admin
// credentials come from configuration.
func NewService(store UserStore, jwtManager *JWTManager, cfg *config.AuthConfig) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if jwtManager == nil {
		return nil, fmt.Errorf("jwt manager is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("auth config is required")
	}

	cost := cfg.BcryptCost
	if cost <= 0 {
		cost = defaultBcryptCost
	}

	dummy, err := HashPassword("intellweave-login-timing-pad", cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Service{
		store:         store,
		jwt:           jwtManager,
		bcryptCost:    cost,
		adminEmail:    strings.TrimSpace(cfg.AdminEmail),
		adminPassword: cfg.AdminPassword,
		dummyHash:     dummy,
		log:           logging.WithComponent("auth"),
	}, nil
}

// Register creates a reader account. Returns storage.ErrEmailTaken when the
// email is already registered.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        req.Email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         models.RoleReader,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("Account registered")
	return user, nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords both return ErrInvalidCredentials after a full bcrypt round.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Burn the same comparison cost as a real account would.
			_ = VerifyPassword(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		s.log.Warn().Str("user_id", user.ID).Msg("Login rejected")
		return nil, err
	}

	token, expiresAt, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("Login succeeded")
	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// CurrentUser loads the account behind a validated token's subject.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// BootstrapAdmin creates the configured admin account when the users table
// is empty. Returns true when an account was created. A missing bootstrap
// configuration is not an error; the deployment simply starts without an
// admin until one is promoted by hand.
func (s *Service) BootstrapAdmin(ctx context.Context) (bool, error) {
	if s.adminEmail == "" || s.adminPassword == "" {
		return false, nil
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := HashPassword(s.adminPassword, s.bcryptCost)
	if err != nil {
		return false, err
	}

	admin := &models.User{
		Email:        s.adminEmail,
		DisplayName:  "Administrator",
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return false, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	s.log.Info().Str("email", admin.Email).Msg("Bootstrap admin created")
	return true, nil
}
