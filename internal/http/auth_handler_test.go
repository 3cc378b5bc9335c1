package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"crowd-sim/internal/domain"
	"crowd-sim/internal/service"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	userSvc := service.NewUserService(zap.NewNop(), newMockUserRepo())
	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	h := NewAuthHandler(zap.NewNop(), userSvc, jwtSvc)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.RefreshToken)
	r.POST("/auth/logout", h.Logout)
	return r
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandlerRegister_Success(t *testing.T) {
	r := setupAuthRouter()

	rec := performRequest(r, http.MethodPost, "/auth/register", map[string]string{
		"email":        "user@example.com",
		"display_name": "Test",
		"password":     "super-secreta",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var resp struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatal("expected tokens in register response")
	}
}

func TestAuthHandlerRegister_WeakPassword(t *testing.T) {
	r := setupAuthRouter()

	rec := performRequest(r, http.MethodPost, "/auth/register", map[string]string{
		"email":    "user@example.com",
		"password": "corta",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestAuthHandlerLogin_InvalidCredentials(t *testing.T) {
	r := setupAuthRouter()

	rec := performRequest(r, http.MethodPost, "/auth/register", map[string]string{
		"email":    "user@example.com",
		"password": "super-secreta",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "otra-clave",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthHandlerLoginAndRefresh(t *testing.T) {
	r := setupAuthRouter()

	rec := performRequest(r, http.MethodPost, "/auth/register", map[string]string{
		"email":    "user@example.com",
		"password": "super-secreta",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "super-secreta",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	rec = performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": resp.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	// El refresh token ya rotado no se puede reusar.
	rec = performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": resp.Tokens.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}
