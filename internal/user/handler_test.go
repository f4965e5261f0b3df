package user

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"speakbook/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) RegisterClient(ctx context.Context, req RegisterClientRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockService) RegisterProvider(ctx context.Context, req RegisterProviderRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockService) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockService) GetByID(ctx context.Context, userID int) (*User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*User), args.Error(2)
}

func setupRouter(svc Service, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.POST("/auth/register/client", h.RegisterClient)
	r.POST("/auth/register/provider", h.RegisterProvider)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.RefreshToken)
	r.GET("/me", func(c *gin.Context) {
		if userID != 0 {
			auth.SetIdentity(c, userID, "m@example.com", auth.RoleClient)
		}
		h.GetMe(c)
	})
	return r
}

func TestRegisterClient_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("RegisterClient", mock.Anything, mock.MatchedBy(func(r RegisterClientRequest) bool { return r.Email == "m@example.com" })).
		Return(&User{ID: 1, Email: "m@example.com", Role: auth.RoleClient}, "access", "refresh", nil)
	svc.On("RegisterClient", mock.Anything, mock.MatchedBy(func(r RegisterClientRequest) bool { return r.Email == "taken@example.com" })).
		Return(nil, "", "", ErrEmailExists)
	router := setupRouter(svc, 0)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"created", `{"name":"Meera","email":"m@example.com","password":"password123","phone":"9999","address":"Pune"}`, http.StatusCreated},
		{"email taken", `{"name":"Meera","email":"taken@example.com","password":"password123","phone":"9999","address":"Pune"}`, http.StatusConflict},
		{"short password", `{"name":"Meera","email":"m@example.com","password":"short","phone":"9999","address":"Pune"}`, http.StatusBadRequest},
		{"malformed", `{"name":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/auth/register/client", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRegisterProvider_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("RegisterProvider", mock.Anything, mock.Anything).
		Return(&User{ID: 2, Email: "a@example.com", Role: auth.RoleProvider}, "access", "refresh", nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/register/provider",
		bytes.NewBufferString(`{"name":"Asha","email":"a@example.com","password":"password123","address":"Delhi"}`))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(svc, 0).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"provider"`)
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestLogin_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("Login", mock.Anything, LoginRequest{Email: "m@example.com", Password: "password123"}).
		Return(&User{ID: 1}, "access", "refresh", nil)
	svc.On("Login", mock.Anything, LoginRequest{Email: "m@example.com", Password: "wrong"}).
		Return(nil, "", "", ErrInvalidCredentials)
	router := setupRouter(svc, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(`{"email":"m@example.com","password":"password123"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"access"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(`{"email":"m@example.com","password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetMe_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("GetByID", mock.Anything, 1).Return(&User{ID: 1, Name: "Meera"}, nil)

	w := httptest.NewRecorder()
	setupRouter(svc, 1).ServeHTTP(w, httptest.NewRequest("GET", "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	setupRouter(svc, 0).ServeHTTP(w, httptest.NewRequest("GET", "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshToken_Handler(t *testing.T) {
	svc := new(MockService)
	svc.On("RefreshToken", mock.Anything, "good").Return("new-access", &User{ID: 1}, nil)
	svc.On("RefreshToken", mock.Anything, "bad").Return("", nil, auth.ErrInvalidToken)
	router := setupRouter(svc, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/auth/refresh", bytes.NewBufferString(`{"refresh_token":"good"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "new-access")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/auth/refresh", bytes.NewBufferString(`{"refresh_token":"bad"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/auth/refresh", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
