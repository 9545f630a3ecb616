package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/riverqueue/river"

	"github.com/xbcsmith/xzepr/internal/authz"
)

func TestCacheEvictionArgsKind(t *testing.T) {
	t.Parallel()

	if got := (CacheEvictionArgs{}).Kind(); got != "authz_cache_eviction" {
		t.Fatalf("Kind() = %q, want %q", got, "authz_cache_eviction")
	}
}

func TestCacheEvictionArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (CacheEvictionArgs{}).InsertOpts()
	if opts.Queue != river.QueueDefault {
		t.Fatalf("Queue = %q, want %q", opts.Queue, river.QueueDefault)
	}
	if opts.MaxAttempts != 1 {
		t.Fatalf("MaxAttempts = %d, want 1", opts.MaxAttempts)
	}
	if opts.UniqueOpts.ByPeriod != time.Minute {
		t.Fatalf("UniqueOpts.ByPeriod = %s, want %s", opts.UniqueOpts.ByPeriod, time.Minute)
	}
}

func TestCacheEvictionWorkerWork_NilCache(t *testing.T) {
	t.Parallel()

	w := NewCacheEvictionWorker(nil)
	if err := w.Work(context.Background(), nil); err != nil {
		t.Fatalf("Work() error = %v, want nil", err)
	}
}

func TestCacheEvictionWorkerWork_EvictsExpired(t *testing.T) {
	t.Parallel()

	cache := authz.NewCache(time.Millisecond, 10)
	req := authz.Request{
		Principal: authz.Principal{UserID: "u1"},
		Action:    authz.ActionRead,
		Resource:  authz.Resource{Type: "receiver", ID: "r1"},
	}
	cache.Put(req, &authz.Decision{Allow: true})
	time.Sleep(5 * time.Millisecond)

	w := NewCacheEvictionWorker(cache)
	if err := w.Work(context.Background(), nil); err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d, want 0 after eviction", cache.Len())
	}
}
