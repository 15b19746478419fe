package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/config"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is an issued access token for a user.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a user account with the default role.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(input.Email))
	if err != nil {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": input.Email})
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": auth.MinPasswordLength})
		}
		return nil, apperrors.NewInternalError(err)
	}

	email := strings.ToLower(addr.Address)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	// Password-less accounts opened by email intake are never claimed here.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		Role:         domain.UserRoleUser,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return s.issue(user)
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthenticated("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthenticated("invalid credentials")
	}
	return s.issue(user)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// EnsureAdmin makes sure an admin account exists for email, creating it or
// promoting the existing user. It is run once at start-up.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}
	if user == nil {
		hash, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		name, _, _ := strings.Cut(email, "@")
		user = &domain.User{Email: email, Name: name, Role: domain.UserRoleAdmin, PasswordHash: hash}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, apperrors.MapError(err)
		}
		return user, nil
	}
	if user.Role == domain.UserRoleAdmin {
		return user, nil
	}
	user.Role = domain.UserRoleAdmin
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
