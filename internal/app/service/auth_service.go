package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/internal/app/repository"
	"github.com/lfk/lfk-backend/pkg/logger"
	"github.com/lfk/lfk-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// RegisterInput is a new parent account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthService issues the bearer tokens the cart endpoints require.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, *util.TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
}

type tokenSettings struct {
	secret  string
	access  time.Duration
	refresh time.Duration
}

type authService struct {
	users  repository.UserRepository
	tokens tokenSettings
}

func NewAuthService(users repository.UserRepository, jwtSecret string, accessExpiry, refreshExpiry time.Duration) AuthService {
	return &authService{
		users:  users,
		tokens: tokenSettings{secret: jwtSecret, access: accessExpiry, refresh: refreshExpiry},
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a parent account. Coaches and admins are provisioned
// out of band.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, *util.TokenPair, error) {
	email := normalizeEmail(in.Email)

	switch _, err := s.users.FindByEmail(ctx, email); {
	case err == nil:
		logger.Warn("Registration rejected: email taken", logger.Fields{"email": email})
		return nil, nil, ErrEmailAlreadyExists
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, err
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         model.RoleParent,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}
	return s.session(user, "registered")
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login rejected: bad password", logger.Fields{"user_id": user.ID})
		return nil, nil, ErrInvalidCredentials
	}
	return s.session(user, "logged in")
}

// Refresh trades a refresh token for a new pair. The user is read again so
// a deleted account cannot refresh.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.tokens.secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeRefresh {
		return nil, util.ErrInvalidToken
	}

	user, err := s.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	_, pair, err := s.session(user, "refreshed")
	return pair, err
}

func (s *authService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// session issues a token pair for user and logs the event.
func (s *authService) session(user *model.User, event string) (*model.User, *util.TokenPair, error) {
	pair, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), s.tokens.secret, s.tokens.access, s.tokens.refresh)
	if err != nil {
		logger.Error("Failed to issue tokens", err, logger.Fields{"user_id": user.ID})
		return nil, nil, err
	}
	logger.Info("User "+event, logger.Fields{"user_id": user.ID, "role": user.Role})
	return user, pair, nil
}
