package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/xbcsmith/xzepr/internal/domain"
)

// OIDCConfig describes the upstream identity provider (spec.md §4.8).
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// RoleMapping maps an upstream claim value (e.g. a group name) to a
	// local Role, applied at provisioning time.
	RoleMapping map[string]domain.Role

	SessionTTL time.Duration
}

func (c OIDCConfig) oauth2Config(authURL, tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}
}

// IDTokenClaims is the subset of an OIDC ID token this provisioner reads.
type IDTokenClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Groups        []string
}

// IDTokenVerifier validates an ID token's signature against the provider's
// JWKS and returns its claims. The concrete verifier (JWKS fetch + RS256
// verification) is JWKSVerifier in oidc_verifier.go, built by
// internal/app's buildOIDCFlow; it is kept as an interface here so the
// provisioning flow is independently testable.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*IDTokenClaims, error)
}

// PendingAuth is the server-side state bound to an in-flight authorization
// code flow (spec.md §4.8: PKCE + state + nonce).
type PendingAuth struct {
	State        string
	Nonce        string
	CodeVerifier string
	CreatedAt    time.Time
}

// SessionStore persists PendingAuth records across the redirect round trip.
// The in-process implementation below is sufficient for a single instance;
// a Redis-backed implementation is required for a multi-instance deployment
// (spec.md §4.8, see DESIGN.md).
type SessionStore interface {
	Put(ctx context.Context, key string, p PendingAuth, ttl time.Duration) error
	Take(ctx context.Context, key string) (PendingAuth, bool, error)
}

// MemorySessionStore is an in-process SessionStore guarded by a mutex,
// sufficient for single-instance deployments or tests.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	auth    PendingAuth
	expires time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{entries: make(map[string]memoryEntry)}
}

func (s *MemorySessionStore) Put(_ context.Context, key string, p PendingAuth, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{auth: p, expires: p.CreatedAt.Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Take(_ context.Context, key string) (PendingAuth, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	delete(s.entries, key)
	if !ok {
		return PendingAuth{}, false, nil
	}
	if time.Now().After(e.expires) {
		return PendingAuth{}, false, nil
	}
	return e.auth, true, nil
}

var (
	ErrStateMismatch = errors.New("oidc: state not found or expired")
	ErrNonceMismatch = errors.New("oidc: id token nonce does not match request")
)

// Flow drives the OIDC authorization code + PKCE handshake.
type Flow struct {
	cfg      OIDCConfig
	oauth    *oauth2.Config
	verifier IDTokenVerifier
	store    SessionStore
}

func NewFlow(cfg OIDCConfig, authURL, tokenURL string, verifier IDTokenVerifier, store SessionStore) *Flow {
	return &Flow{cfg: cfg, oauth: cfg.oauth2Config(authURL, tokenURL), verifier: verifier, store: store}
}

// BeginAuthorization mints state/nonce/PKCE verifier, stores them keyed by
// state, and returns the URL the caller should redirect the user-agent to.
func (f *Flow) BeginAuthorization(ctx context.Context) (redirectURL string, state string, err error) {
	state, err = randomToken(32)
	if err != nil {
		return "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken(32)
	if err != nil {
		return "", "", fmt.Errorf("generate nonce: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	ttl := f.cfg.SessionTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	pending := PendingAuth{State: state, Nonce: nonce, CodeVerifier: verifier, CreatedAt: time.Now()}
	if err := f.store.Put(ctx, state, pending, ttl); err != nil {
		return "", "", fmt.Errorf("store pending auth: %w", err)
	}

	url := f.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("nonce", nonce),
	)
	return url, state, nil
}

// ProvisioningResult is the outcome of a completed callback, ready for the
// caller to map onto a domain.User (create-on-first-login or update).
type ProvisioningResult struct {
	ProviderSubject string
	Email           string
	Roles           []domain.Role
}

// Complete exchanges the authorization code, verifies the ID token, and
// derives the roles to provision from RoleMapping (spec.md §4.8).
func (f *Flow) Complete(ctx context.Context, state, code string) (*ProvisioningResult, error) {
	pending, ok, err := f.store.Take(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("load pending auth: %w", err)
	}
	if !ok {
		return nil, ErrStateMismatch
	}

	token, err := f.oauth.Exchange(ctx, code, oauth2.VerifierOption(pending.CodeVerifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("oidc: token response missing id_token")
	}

	claims, err := f.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	roles := make([]domain.Role, 0, len(claims.Groups))
	seen := map[domain.Role]struct{}{}
	for _, g := range claims.Groups {
		if role, ok := f.cfg.RoleMapping[g]; ok {
			if _, dup := seen[role]; !dup {
				roles = append(roles, role)
				seen[role] = struct{}{}
			}
		}
	}
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}

	return &ProvisioningResult{
		ProviderSubject: claims.Subject,
		Email:           claims.Email,
		Roles:           roles,
	}, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
