package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRevocationChecker_RevokedTokenReportsTrueUntilExpiry(t *testing.T) {
	checker := NewMemoryRevocationChecker()
	ctx := context.Background()

	revoked, err := checker.IsRevoked(ctx, "user-1", "tok-1")
	if err != nil || revoked {
		t.Fatalf("IsRevoked() = %v, %v, want false, nil before any revocation", revoked, err)
	}

	if err := checker.Revoke(ctx, "user-1", "tok-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	revoked, err = checker.IsRevoked(ctx, "user-1", "tok-1")
	if err != nil || !revoked {
		t.Fatalf("IsRevoked() = %v, %v, want true, nil after revocation", revoked, err)
	}

	revoked, err = checker.IsRevoked(ctx, "user-1", "tok-2")
	if err != nil || revoked {
		t.Fatalf("IsRevoked() for a different token id = %v, %v, want false, nil", revoked, err)
	}
}

func TestMemoryRevocationChecker_ExpiredRevocationStopsReportingRevoked(t *testing.T) {
	checker := NewMemoryRevocationChecker()
	ctx := context.Background()

	if err := checker.Revoke(ctx, "user-1", "tok-1", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	revoked, err := checker.IsRevoked(ctx, "user-1", "tok-1")
	if err != nil || revoked {
		t.Fatalf("IsRevoked() = %v, %v, want false once expiresAt is in the past", revoked, err)
	}
}
