package user

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tokenbook/internal/auth"
)

type mockService struct{ mock.Mock }

func (m *mockService) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *mockService) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *mockService) GetByID(ctx context.Context, userID int) (*User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockService) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*User), args.Error(2)
}

func postJSON(h gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/", h)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(*mockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "created",
			body: `{"name":"Sam","email":"sam@example.com","password":"password123","role":"SEEKER","ageVerified":true}`,
			setup: func(m *mockService) {
				m.On("Register", mock.Anything, mock.Anything).
					Return(&User{ID: 1, Email: "sam@example.com", Role: auth.RoleSeeker}, "access", "refresh", nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"accessToken":"access"`,
		},
		{
			name:       "staff role rejected",
			body:       `{"name":"Sam","email":"sam@example.com","password":"password123","role":"ADMIN"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"role":"role must be one of: SEEKER PROVIDER"`,
		},
		{
			name:       "short password",
			body:       `{"name":"Sam","email":"sam@example.com","password":"short","role":"PROVIDER"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"password"`,
		},
		{
			name: "duplicate email",
			body: `{"name":"Sam","email":"sam@example.com","password":"password123","role":"PROVIDER"}`,
			setup: func(m *mockService) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, "", "", ErrEmailExists)
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"code":"EMAIL_EXISTS"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			if tt.setup != nil {
				tt.setup(svc)
			}
			w := postJSON(NewHandler(svc).Register, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	svc := new(mockService)
	svc.On("Login", mock.Anything, LoginRequest{Email: "a@example.com", Password: "x"}).
		Return(nil, "", "", ErrInvalidCredentials)

	w := postJSON(NewHandler(svc).Login, `{"email":"a@example.com","password":"x"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestGetMe_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", NewHandler(new(mockService)).GetMe)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
