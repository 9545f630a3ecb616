package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/riverqueue/river"

	"github.com/xbcsmith/xzepr/internal/auth"
)

func TestBlacklistPruneArgsKind(t *testing.T) {
	t.Parallel()

	if got := (BlacklistPruneArgs{}).Kind(); got != "jwt_blacklist_prune" {
		t.Fatalf("Kind() = %q, want %q", got, "jwt_blacklist_prune")
	}
}

func TestBlacklistPruneArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (BlacklistPruneArgs{}).InsertOpts()
	if opts.Queue != river.QueueDefault {
		t.Fatalf("Queue = %q, want %q", opts.Queue, river.QueueDefault)
	}
	if opts.MaxAttempts != 1 {
		t.Fatalf("MaxAttempts = %d, want 1", opts.MaxAttempts)
	}
}

func TestBlacklistPruneWorkerWork_NilChecker(t *testing.T) {
	t.Parallel()

	w := NewBlacklistPruneWorker(nil)
	if err := w.Work(context.Background(), nil); err != nil {
		t.Fatalf("Work() error = %v, want nil", err)
	}
}

func TestBlacklistPruneWorkerWork_RemovesExpired(t *testing.T) {
	t.Parallel()

	checker := auth.NewMemoryRevocationChecker()
	if err := checker.Revoke(context.Background(), "user-1", "jti-1", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	w := NewBlacklistPruneWorker(checker)
	if err := w.Work(context.Background(), nil); err != nil {
		t.Fatalf("Work() error = %v", err)
	}

	revoked, err := checker.IsRevoked(context.Background(), "user-1", "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked() error = %v", err)
	}
	if revoked {
		t.Error("expected entry to be pruned, but IsRevoked still reports true")
	}
}
