package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sifan077/LinkPulse/internal/app/auth"
	"github.com/sifan077/LinkPulse/internal/app/model"
	"github.com/sifan077/LinkPulse/internal/app/repository"
	"go.uber.org/zap"
)

// TokenIssuer is implemented by auth.JWTManager.
type TokenIssuer interface {
	GenerateToken(userID, username string) (string, time.Time, error)
	ValidateToken(token string) (*auth.Claims, error)
}

// TokenRevoker is implemented by auth.RevocationStore.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService manages accounts and their access tokens.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	// Authenticate validates a bearer token and rejects revoked ones.
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	RefreshToken(ctx context.Context, claims *auth.Claims) (*Session, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*model.User, error)
	// DeleteUser removes the account and revokes the token used for the call.
	DeleteUser(ctx context.Context, claims *auth.Claims) error
}

type RegisterInput struct {
	Username  string  `json:"username" validate:"required,min=3,max=100"`
	Email     string  `json:"email" validate:"required,email,max=100"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	FirstName string  `json:"first_name" validate:"max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Address   *string `json:"address" validate:"omitempty,max=500"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
}

// UpdateUserInput holds a partial update; nil fields are left alone.
type UpdateUserInput struct {
	Email     *string `json:"email" validate:"omitempty,email,max=100"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=128"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Address   *string `json:"address" validate:"omitempty,max=500"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
}

// Session is a user together with a freshly issued token.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

type authService struct {
	users   repository.UserRepository
	tokens  TokenIssuer
	revoker TokenRevoker
	logger  *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer, revoker TokenRevoker, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{users: users, tokens: tokens, revoker: revoker, logger: logger}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateStruct("invalid registration data", input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Address:      input.Address,
		Gender:       input.Gender,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, invalid("Username and password are required.")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInactiveAccount
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}
	if auth.CheckPassword(user.PasswordHash, password) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
	}
	return claims, nil
}

func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	return s.revoke(ctx, claims)
}

func (s *authService) RefreshToken(ctx context.Context, claims *auth.Claims) (*Session, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.revoke(ctx, claims); err != nil {
		s.logger.Warn("failed to revoke refreshed token", zap.String("user_id", user.ID), zap.Error(err))
	}
	return session, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *authService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*model.User, error) {
	if err := validateStruct("invalid user details", input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Address != nil {
		user.Address = input.Address
	}
	if input.Gender != nil {
		user.Gender = input.Gender
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *authService) DeleteUser(ctx context.Context, claims *auth.Claims) error {
	if err := s.users.Delete(ctx, claims.UserID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.revoke(ctx, claims); err != nil {
		s.logger.Warn("failed to revoke token of deleted user", zap.String("user_id", claims.UserID), zap.Error(err))
	}
	return nil
}

func (s *authService) issue(user *model.User) (*Session, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) revoke(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return ErrUnauthorized
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
