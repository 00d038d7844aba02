package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"todo-app/src/handlers"
	"todo-app/src/models"
	"todo-app/src/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	// 本番と同じカスタムバリデーションをbindingエンジンに登録する
	if err := validator.RegisterBindingValidations(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// MockAuthService は service.AuthService のモック実装
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockAuthService) RefreshToken(refreshToken string) (*models.AuthResponse, error) {
	args := m.Called(refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*models.User, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func authResponse() *models.AuthResponse {
	return &models.AuthResponse{
		User:         &models.PublicUser{ID: 1, Username: "alice", Email: "alice@example.com"},
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    86400,
	}
}

func setupAuthRouter(svc *MockAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := handlers.NewAuthHandler(svc)

	r := gin.New()
	r.POST("/api/register", h.Register)
	r.POST("/api/login", h.Login)
	r.POST("/api/refresh", h.RefreshToken)
	return r
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Register", mock.Anything, mock.MatchedBy(func(req *models.RegisterRequest) bool {
			return req.Username == "alice" && req.Email == "alice@example.com"
		})).Return(authResponse(), nil)

		r := setupAuthRouter(svc)

		body := `{"username":"alice","email":"alice@example.com","password":"password123"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("duplicate username", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, errors.New("username already exists"))

		r := setupAuthRouter(svc)

		body := `{"username":"alice","email":"alice@example.com","password":"password123"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unsafe username rejected", func(t *testing.T) {
		svc := new(MockAuthService)
		r := setupAuthRouter(svc)

		body := `{"username":"alice<script>","email":"alice@example.com","password":"password123"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("missing email", func(t *testing.T) {
		svc := new(MockAuthService)
		r := setupAuthRouter(svc)

		body := `{"username":"alice","password":"password123"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("successful login", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.MatchedBy(func(req *models.LoginRequest) bool {
			return req.Username == "alice"
		})).Return(authResponse(), nil)

		r := setupAuthRouter(svc)

		body := `{"username":"alice","password":"password123"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, errors.New("invalid credentials"))

		r := setupAuthRouter(svc)

		body := `{"username":"alice","password":"wrong"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	t.Run("successful refresh", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("RefreshToken", "refresh-token").Return(authResponse(), nil)

		r := setupAuthRouter(svc)

		body := `{"refresh_token":"refresh-token"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/refresh", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("RefreshToken", "bad-token").Return(nil, errors.New("invalid refresh token"))

		r := setupAuthRouter(svc)

		body := `{"refresh_token":"bad-token"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/refresh", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
