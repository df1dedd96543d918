package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/app/models/dto"
	"github.com/baghban/guardian/internal/pkg/apperrors"
	"github.com/baghban/guardian/internal/pkg/auth"
	"github.com/baghban/guardian/internal/pkg/logger"
)

// UserStore is the user storage surface the auth service needs.
// *repositories.UserRepository satisfies it.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

// TokenStore is the refresh token storage surface.
// *repositories.TokenRepository satisfies it.
type TokenStore interface {
	Store(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID int64) error
}

// AuthService handles registration, login and token rotation.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	users      UserStore
	tokens     TokenStore
	jwtService *auth.JWTService
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens TokenStore, jwtService *auth.JWTService) AuthService {
	return &authService{
		users:      users,
		tokens:     tokens,
		jwtService: jwtService,
	}
}

// Register creates a new account and signs it in.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		RoleType:  req.RoleType,
		IsActive:  true,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("userID", created.ID).Str("role", string(created.RoleType)).Msg("User registered")

	return s.issueTokens(ctx, created)
}

// Login verifies credentials and issues a token pair.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to update last login")
	}

	return s.issueTokens(ctx, user)
}

// RefreshToken rotates a refresh token: the presented token is revoked and a
// fresh pair is issued.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	record, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if record.IsExpired() {
		_ = s.tokens.Delete(ctx, refreshToken)
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to revoke rotated refresh token")
	}

	authResponse, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &authResponse.Token, nil
}

// Logout revokes the presented refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokens.Delete(ctx, refreshToken)
	if errors.Is(err, apperrors.ErrTokenNotFound) {
		// Already revoked, logout is idempotent.
		return nil
	}
	return err
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Store(ctx, user.ID, refreshToken, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           accessToken,
			TokenType:             "Bearer",
			ExpiresIn:             int64(expiresIn),
			RefreshToken:          refreshToken,
			RefreshTokenExpiresIn: int64(refreshExpiresIn),
		},
		User: dto.FromUser(user),
	}, nil
}
