package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xbcsmith/xzepr/internal/domain"
)

func testConfig() Config {
	return Config{
		HMACSecret:      []byte("01234567890123456789012345678901"),
		Issuer:          "xzepr",
		Audience:        "xzepr-api",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func TestIssueAndValidate_RoundTrip(t *testing.T) {
	cfg := testConfig()
	pair, err := Issue(cfg, domain.UserID("01ARZ3NDEKTSV4RRFFQ69G5FAV"), []domain.Role{domain.RoleEventManager}, []string{"events:write"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := Validate(context.Background(), cfg, pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Subject != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Errorf("Subject = %q, want the issued user id", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != string(domain.RoleEventManager) {
		t.Errorf("Roles = %v, want [event_manager]", claims.Roles)
	}
}

func TestValidate_RejectsWrongSecret(t *testing.T) {
	cfg := testConfig()
	pair, err := Issue(cfg, domain.UserID("U1"), nil, nil)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	other := cfg
	other.HMACSecret = []byte("different-secret-different-secret")
	if _, err := Validate(context.Background(), other, pair.AccessToken); err == nil {
		t.Fatal("Validate() with wrong secret expected error, got nil")
	}
}

type memRevocation struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMemRevocation() *memRevocation { return &memRevocation{revoked: map[string]bool{}} }

func (m *memRevocation) IsRevoked(_ context.Context, subject, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[subject+"|"+tokenID], nil
}

func (m *memRevocation) Revoke(_ context.Context, subject, tokenID string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[subject+"|"+tokenID] = true
	return nil
}

func TestRevoke_MakesTokenFailValidate(t *testing.T) {
	cfg := testConfig()
	cfg.Revocation = newMemRevocation()

	pair, err := Issue(cfg, domain.UserID("U1"), nil, nil)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := Validate(context.Background(), cfg, pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate() before revoke error = %v", err)
	}

	if err := Revoke(context.Background(), cfg, claims); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	if _, err := Validate(context.Background(), cfg, pair.AccessToken); err != ErrTokenRevoked {
		t.Errorf("Validate() after revoke = %v, want ErrTokenRevoked", err)
	}
}

func TestValidate_RejectsExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -1 * time.Minute

	pair, err := Issue(cfg, domain.UserID("U1"), nil, nil)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := Validate(context.Background(), cfg, pair.AccessToken); err == nil {
		t.Fatal("Validate() with expired token expected error, got nil")
	}
}
