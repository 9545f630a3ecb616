package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/xbcsmith/xzepr/internal/domain"
)

// policyRequestBody is the JSON body posted to the policy engine, matching
// the `input` shape an OPA-style engine expects (spec.md §4.9).
type policyRequestBody struct {
	Input policyInput `json:"input"`
}

type policyInput struct {
	User     policyUser     `json:"user"`
	Action   string         `json:"action"`
	Resource policyResource `json:"resource"`
}

type policyUser struct {
	ID          string   `json:"id"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

type policyResource struct {
	Type            string   `json:"type"`
	ID              string   `json:"id"`
	OwnerID         string   `json:"owner_id"`
	GroupID         string   `json:"group_id,omitempty"`
	Members         []string `json:"members,omitempty"`
	ResourceVersion int64    `json:"resource_version"`
}

// policyResponseBody is the engine's response envelope.
type policyResponseBody struct {
	Result struct {
		Allow         bool   `json:"allow"`
		Reason        string `json:"reason"`
		PolicyVersion string `json:"policy_version"`
	} `json:"result"`
}

// PolicyClient evaluates authorization requests against an external HTTP
// policy engine, guarded by a circuit breaker and a decision cache.
type PolicyClient struct {
	httpClient *http.Client
	url        string
	cache      *Cache
	breaker    *circuitBreaker
}

// PolicyClientConfig configures a PolicyClient.
type PolicyClientConfig struct {
	URL                string
	Timeout            time.Duration
	CacheTTL           time.Duration
	CacheMaxEntries    int
	BreakerMaxFailures int
	BreakerCooldown    time.Duration
	BreakerHalfOpenProbes int
}

// NewPolicyClient builds a PolicyClient. A zero-value URL means no engine is
// configured: Evaluate always falls back to legacy RBAC.
func NewPolicyClient(cfg PolicyClientConfig) *PolicyClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PolicyClient{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.URL,
		cache:      NewCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		breaker:    newCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerCooldown, cfg.BreakerHalfOpenProbes),
	}
}

// Cache exposes the underlying decision cache so write paths can invalidate
// it (spec.md §4.10).
func (c *PolicyClient) Cache() *Cache { return c.cache }

// Evaluate returns a decision for req, trying cache then the engine (guarded
// by the circuit breaker), and falling back to legacy RBAC on any engine
// failure (spec.md §4.9 points 1-4).
func (c *PolicyClient) Evaluate(ctx context.Context, req Request) *Decision {
	if decision, ok := c.cache.Get(req); ok {
		return decision
	}

	if c.url == "" {
		decision := EvaluateLegacyRBAC(req)
		return decision
	}

	decision, err := c.breaker.execute(ctx, func() (*Decision, error) {
		return c.evaluateRemote(ctx, req)
	})
	if err != nil {
		return EvaluateLegacyRBAC(req)
	}

	c.cache.Put(req, decision)
	return decision
}

func (c *PolicyClient) evaluateRemote(ctx context.Context, req Request) (*Decision, error) {
	body := policyRequestBody{Input: policyInput{
		User: policyUser{
			ID:          string(req.Principal.UserID),
			Roles:       req.Principal.Roles,
			Permissions: req.Principal.Permissions,
		},
		Action: string(req.Action),
		Resource: policyResource{
			Type:            req.Resource.Type,
			ID:              req.Resource.ID,
			OwnerID:         string(req.Resource.OwnerID),
			GroupID:         req.Resource.GroupID,
			Members:         userIDsToStrings(req.Resource.Members),
			ResourceVersion: req.Resource.ResourceVersion,
		},
	}}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal policy request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build policy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call policy engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("policy engine returned status %d", resp.StatusCode)
	}

	var decoded policyResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode policy response: %w", err)
	}

	if decoded.Result.Allow {
		return allow(decoded.Result.Reason, false), nil
	}
	d := deny(decoded.Result.Reason, false)
	d.PolicyVersion = decoded.Result.PolicyVersion
	return d, nil
}

func userIDsToStrings(ids []domain.UserID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
