package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xbcsmith/xzepr/internal/domain"
)

func TestEvaluateLegacyRBAC_AdminAlwaysAllowed(t *testing.T) {
	req := Request{
		Principal: Principal{UserID: "U2", Roles: []string{"admin"}},
		Action:    ActionDelete,
		Resource:  Resource{Type: "receiver", ID: "R1", OwnerID: "U1"},
	}
	d := EvaluateLegacyRBAC(req)
	if !d.Allow || d.Reason != "admin" {
		t.Errorf("EvaluateLegacyRBAC() = %+v, want allow=true reason=admin", d)
	}
}

func TestEvaluateLegacyRBAC_OwnerAllowed(t *testing.T) {
	req := Request{
		Principal: Principal{UserID: "U1"},
		Action:    ActionUpdate,
		Resource:  Resource{Type: "receiver", ID: "R1", OwnerID: "U1"},
	}
	d := EvaluateLegacyRBAC(req)
	if !d.Allow || d.Reason != "owner" {
		t.Errorf("EvaluateLegacyRBAC() = %+v, want allow=true reason=owner", d)
	}
}

func TestEvaluateLegacyRBAC_NonOwnerDenied(t *testing.T) {
	req := Request{
		Principal: Principal{UserID: "U2"},
		Action:    ActionUpdate,
		Resource:  Resource{Type: "receiver", ID: "R1", OwnerID: "U1"},
	}
	d := EvaluateLegacyRBAC(req)
	if d.Allow || d.Reason != "not_owner" {
		t.Errorf("EvaluateLegacyRBAC() = %+v, want allow=false reason=not_owner", d)
	}
}

func TestEvaluateLegacyRBAC_GroupMemberReadOnly(t *testing.T) {
	resource := Resource{Type: "group", ID: "G1", OwnerID: "U1", Members: []domain.UserID{"U3"}}

	readReq := Request{Principal: Principal{UserID: "U3"}, Action: ActionRead, Resource: resource}
	if d := EvaluateLegacyRBAC(readReq); !d.Allow {
		t.Errorf("member read: expected allow, got %+v", d)
	}

	writeReq := Request{Principal: Principal{UserID: "U3"}, Action: ActionUpdate, Resource: resource}
	if d := EvaluateLegacyRBAC(writeReq); d.Allow {
		t.Errorf("member write: expected deny, got %+v", d)
	}
}

func TestEvaluateLegacyRBAC_ExplicitPermission(t *testing.T) {
	req := Request{
		Principal: Principal{UserID: "U2", Permissions: []string{"receiver:create"}},
		Action:    ActionCreate,
		Resource:  Resource{Type: "receiver", ID: ""},
	}
	d := EvaluateLegacyRBAC(req)
	if !d.Allow {
		t.Errorf("EvaluateLegacyRBAC() = %+v, want allow via explicit permission", d)
	}
}

func TestCache_InvalidateDropsEntryRegardlessOfVersionSuffix(t *testing.T) {
	c := NewCache(time.Minute, 0)
	req := Request{
		Principal: Principal{UserID: "U1"},
		Action:    ActionRead,
		Resource:  Resource{Type: "receiver", ID: "R1", ResourceVersion: 1},
	}
	c.Put(req, allow("owner", false))

	if _, ok := c.Get(req); !ok {
		t.Fatal("expected cache hit before invalidation")
	}

	c.Invalidate("R1")

	if _, ok := c.Get(req); ok {
		t.Fatal("expected cache miss after invalidation")
	}
}

func TestCache_ExpiresEntriesAfterTTL(t *testing.T) {
	c := NewCache(time.Nanosecond, 0)
	req := Request{Principal: Principal{UserID: "U1"}, Action: ActionRead, Resource: Resource{Type: "receiver", ID: "R1"}}
	c.Put(req, allow("owner", false))

	time.Sleep(time.Millisecond)

	if _, ok := c.Get(req); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestCache_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c := NewCache(time.Minute, 1)
	req1 := Request{Principal: Principal{UserID: "U1"}, Action: ActionRead, Resource: Resource{Type: "receiver", ID: "R1"}}
	req2 := Request{Principal: Principal{UserID: "U1"}, Action: ActionRead, Resource: Resource{Type: "receiver", ID: "R2"}}

	c.Put(req1, allow("owner", false))
	c.Put(req2, allow("owner", false))

	if _, ok := c.Get(req1); ok {
		t.Error("expected req1 evicted once capacity exceeded")
	}
	if _, ok := c.Get(req2); !ok {
		t.Error("expected req2 still cached")
	}
}

func TestPolicyClient_FallsBackWhenNoEngineConfigured(t *testing.T) {
	client := NewPolicyClient(PolicyClientConfig{})
	req := Request{
		Principal: Principal{UserID: "U1"},
		Action:    ActionUpdate,
		Resource:  Resource{Type: "receiver", ID: "R1", OwnerID: "U1"},
	}
	d := client.Evaluate(context.Background(), req)
	if !d.Allow || !d.FallbackUsed {
		t.Errorf("Evaluate() = %+v, want fallback allow for owner", d)
	}
}

func TestPolicyClient_CachesRemoteDecision(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"allow": true, "reason": "policy_allow"},
		})
	}))
	defer server.Close()

	client := NewPolicyClient(PolicyClientConfig{URL: server.URL, CacheTTL: time.Minute})
	req := Request{
		Principal: Principal{UserID: "U1"},
		Action:    ActionRead,
		Resource:  Resource{Type: "receiver", ID: "R1", ResourceVersion: 1},
	}

	d1 := client.Evaluate(context.Background(), req)
	d2 := client.Evaluate(context.Background(), req)

	if !d1.Allow || !d2.Allow {
		t.Fatalf("expected both decisions to allow, got %+v / %+v", d1, d2)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (second call should hit cache)", calls)
	}
}

func TestPolicyClient_OpensBreakerAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewPolicyClient(PolicyClientConfig{URL: server.URL, BreakerMaxFailures: 2, BreakerCooldown: time.Hour})
	req := Request{
		Principal: Principal{UserID: "U1"},
		Action:    ActionUpdate,
		Resource:  Resource{Type: "receiver", ID: "R1", OwnerID: "U1"},
	}

	for i := 0; i < 3; i++ {
		d := client.Evaluate(context.Background(), req)
		if !d.FallbackUsed {
			t.Fatalf("iteration %d: expected fallback after engine failure, got %+v", i, d)
		}
	}

	if client.breaker.state() != stateOpen {
		t.Errorf("breaker state = %v, want open after %d consecutive failures", client.breaker.state(), 2)
	}
}
