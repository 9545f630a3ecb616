package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/xbcsmith/xzepr/internal/auth"
	"github.com/xbcsmith/xzepr/internal/domain"
)

func newTestServerWithAuth(users *fakeUserRepo) *Server {
	_, receivers, events, groups, _, publisher := newTestServer()
	_ = publisher
	s := NewServer(ServerDeps{
		Receivers: receivers, Events: events, Groups: groups, Users: users,
		AuthCfg: auth.Config{
			HMACSecret: []byte("test-secret-at-least-32-bytes-long"),
			Issuer:     "xzepr", Audience: "xzepr",
			AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour,
		},
	})
	return s
}

func TestLogin_WrongPasswordReturnsInvalidToken(t *testing.T) {
	users := newFakeUserRepo()
	hash, err := auth.HashPassword("correct-horse", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	u, err := domain.NewUser(domain.NewUserParams{
		Username: "alice", Email: "alice@example.com", PasswordHash: hash,
		Provider: domain.ProviderLocal, Roles: []domain.Role{domain.RoleUser},
	}, time.Now())
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}
	if err := users.Save(nil, u); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	s := newTestServerWithAuth(users)
	router := newTestRouter(http.MethodPost, "/api/v1/auth/login", "", s.Login)

	body, _ := json.Marshal(loginRequest{Username: "alice", Password: "wrong"})
	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", body)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; body=%s", w.Code, w.Body.String())
	}
}

func TestLogin_CorrectPasswordIssuesTokens(t *testing.T) {
	users := newFakeUserRepo()
	hash, err := auth.HashPassword("correct-horse", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	u, err := domain.NewUser(domain.NewUserParams{
		Username: "alice", Email: "alice@example.com", PasswordHash: hash,
		Provider: domain.ProviderLocal, Roles: []domain.Role{domain.RoleUser},
	}, time.Now())
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}
	if err := users.Save(nil, u); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	s := newTestServerWithAuth(users)
	router := newTestRouter(http.MethodPost, "/api/v1/auth/login", "", s.Login)

	body, _ := json.Marshal(loginRequest{Username: "alice", Password: "correct-horse"})
	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data tokenResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.AccessToken == "" || resp.Data.RefreshToken == "" {
		t.Error("expected non-empty access and refresh tokens")
	}
}

func TestOIDCLogin_NotConfiguredReturns404(t *testing.T) {
	s := newTestServerWithAuth(newFakeUserRepo())
	router := newTestRouter(http.MethodGet, "/api/v1/auth/oidc/login", "", s.OIDCLogin)

	w := doRequest(router, http.MethodGet, "/api/v1/auth/oidc/login", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body=%s", w.Code, w.Body.String())
	}
}
