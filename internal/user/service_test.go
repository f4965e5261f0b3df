package user

import (
	"context"
	"errors"
	"testing"

	"speakbook/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateClient(ctx context.Context, name, email, passwordHash, phone, address string) (*User, error) {
	args := m.Called(ctx, name, email, passwordHash, phone, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) CreateProvider(ctx context.Context, name, email, passwordHash, description, address string) (*User, error) {
	args := m.Called(ctx, name, email, passwordHash, description, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func TestService_RegisterClient(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(*MockRepository)
		expectedError error
	}{
		{
			name: "successful registration",
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "m@example.com").Return(false, nil)
				m.On("CreateClient", mock.Anything, "Meera", "m@example.com", mock.Anything, "9999", "Pune").
					Return(&User{ID: 1, Name: "Meera", Email: "m@example.com", Role: auth.RoleClient}, nil)
			},
		},
		{
			name: "email already exists",
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "m@example.com").Return(true, nil)
			},
			expectedError: ErrEmailExists,
		},
		{
			name: "repository error",
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "m@example.com").Return(false, errors.New("db down"))
			},
			expectedError: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMock(repo)
			svc := NewService(repo, "test-secret")

			u, access, refresh, err := svc.RegisterClient(context.Background(), RegisterClientRequest{
				Name: "Meera", Email: "m@example.com", Password: "password123", Phone: "9999", Address: "Pune",
			})

			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, auth.RoleClient, u.Role)

			claims, err := auth.ValidateToken(access, "test-secret")
			require.NoError(t, err)
			assert.Equal(t, auth.RoleClient, claims.Role)
			assert.NotEmpty(t, refresh)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_RegisterProvider(t *testing.T) {
	repo := new(MockRepository)
	repo.On("EmailExists", mock.Anything, "a@example.com").Return(false, nil)
	repo.On("CreateProvider", mock.Anything, "Asha", "a@example.com", mock.Anything, "IELTS coach", "Delhi").
		Return(&User{ID: 2, Name: "Asha", Email: "a@example.com", Role: auth.RoleProvider}, nil)

	svc := NewService(repo, "test-secret")
	u, access, _, err := svc.RegisterProvider(context.Background(), RegisterProviderRequest{
		Name: "Asha", Email: "a@example.com", Password: "password123", Description: "IELTS coach", Address: "Delhi",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleProvider, u.Role)

	claims, err := auth.ValidateToken(access, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleProvider, claims.Role)
	repo.AssertExpectations(t)
}

func TestService_Login(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	repo := new(MockRepository)
	repo.On("FindByEmail", mock.Anything, "m@example.com").
		Return(&User{ID: 1, Email: "m@example.com", PasswordHash: hash, Role: auth.RoleClient}, nil)
	repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, ErrUserNotFound)

	svc := NewService(repo, "test-secret")

	u, access, refresh, err := svc.Login(context.Background(), LoginRequest{Email: "m@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	_, _, _, err = svc.Login(context.Background(), LoginRequest{Email: "m@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_RefreshToken(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, 1).Return(&User{ID: 1, Email: "m@example.com", Role: auth.RoleClient}, nil)
	svc := NewService(repo, "test-secret")

	_, refresh, err := auth.GenerateTokens(1, "m@example.com", auth.RoleClient, "test-secret", "test-secret")
	require.NoError(t, err)

	access, u, err := svc.RefreshToken(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)

	claims, err := auth.ValidateToken(access, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "access", claims.TokenType)

	_, _, err = svc.RefreshToken(context.Background(), "garbage")
	assert.Error(t, err)
}
