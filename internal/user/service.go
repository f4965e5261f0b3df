package user

import (
	"context"
	"errors"

	"speakbook/internal/auth"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	RegisterClient(ctx context.Context, req RegisterClientRequest) (*User, string, string, error)
	RegisterProvider(ctx context.Context, req RegisterProviderRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

func (s *service) ensureEmailFree(ctx context.Context, email string) error {
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailExists
	}
	return nil
}

func (s *service) issueTokens(u *User) (*User, string, string, error) {
	accessToken, refreshToken, err := auth.GenerateTokens(u.ID, u.Email, u.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}
	return u, accessToken, refreshToken, nil
}

func (s *service) RegisterClient(ctx context.Context, req RegisterClientRequest) (*User, string, string, error) {
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, "", "", err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	u, err := s.repo.CreateClient(ctx, req.Name, req.Email, passwordHash, req.Phone, req.Address)
	if err != nil {
		return nil, "", "", err
	}

	return s.issueTokens(u)
}

func (s *service) RegisterProvider(ctx context.Context, req RegisterProviderRequest) (*User, string, string, error) {
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, "", "", err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	u, err := s.repo.CreateProvider(ctx, req.Name, req.Email, passwordHash, req.Description, req.Address)
	if err != nil {
		return nil, "", "", err
	}

	return s.issueTokens(u)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	return s.issueTokens(u)
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	// Role comes from the stored identity, not from the old token.
	newAccessToken, err := auth.GenerateAccessToken(u.ID, u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, u, nil
}
