// Package auth implements JWT issuance/validation (spec.md §4.7) and OIDC
// provisioning (spec.md §4.8), generalizing the token-claim/middleware
// contract the teacher's internal/api/middleware/jwt.go already defines.
package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/xbcsmith/xzepr/internal/domain"
)

// Claims is the JWT claim set (spec.md §4.7): sub, roles, permissions, iss,
// aud, iat, exp, plus a jti used for blacklisting.
type Claims struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

const defaultLeeway = 30 * time.Second

var (
	ErrSigningKeyMissing = errors.New("jwt: no signing key configured")
	ErrTokenRevoked      = errors.New("jwt: token revoked")
	ErrTokenIDRequired   = errors.New("jwt: token id required for revocation check")
)

// RevocationChecker checks whether a (sub, jti) pair has been blacklisted
// prior to expiry (spec.md §4.7: "Tokens may be blacklisted by sub + jti").
type RevocationChecker interface {
	IsRevoked(ctx context.Context, subject, tokenID string) (bool, error)
	Revoke(ctx context.Context, subject, tokenID string, expiresAt time.Time) error
}

// Config holds token issuance/verification settings.
type Config struct {
	// HMACSecret signs/verifies with HS256 when set.
	HMACSecret []byte
	// RSAPrivateKey/RSAPublicKey sign/verify with RS256 when set. Either
	// the HMAC secret or the RSA keypair must be configured, never both.
	RSAPrivateKey *rsa.PrivateKey
	RSAPublicKey  *rsa.PublicKey

	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Leeway          time.Duration

	Revocation RevocationChecker
}

func (c Config) signingMethod() jwt.SigningMethod {
	if c.RSAPrivateKey != nil {
		return jwt.SigningMethodRS256
	}
	return jwt.SigningMethodHS256
}

func (c Config) signingKey() (any, error) {
	if c.RSAPrivateKey != nil {
		return c.RSAPrivateKey, nil
	}
	if len(c.HMACSecret) > 0 {
		return c.HMACSecret, nil
	}
	return nil, ErrSigningKeyMissing
}

func (c Config) verificationKey(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA:
		if c.RSAPublicKey == nil {
			return nil, ErrSigningKeyMissing
		}
		return c.RSAPublicKey, nil
	case *jwt.SigningMethodHMAC:
		if len(c.HMACSecret) == 0 {
			return nil, ErrSigningKeyMissing
		}
		return c.HMACSecret, nil
	default:
		return nil, fmt.Errorf("jwt: unexpected signing method %v", token.Header["alg"])
	}
}

// TokenPair is the result of issuing a fresh access+refresh token set.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// Issue mints an access token and a refresh token for the given user.
// Permissions are derived from roles at issuance time (spec.md §4.7).
func Issue(cfg Config, userID domain.UserID, roles []domain.Role, permissions []string) (*TokenPair, error) {
	access, accessExp, err := sign(cfg, userID, roles, permissions, cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := sign(cfg, userID, roles, permissions, cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken: access, AccessTokenExpiresAt: accessExp,
		RefreshToken: refresh, RefreshTokenExpiresAt: refreshExp,
	}, nil
}

func sign(cfg Config, userID domain.UserID, roles []domain.Role, permissions []string, ttl time.Duration) (string, time.Time, error) {
	key, err := cfg.signingKey()
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	roleStrings := make([]string, len(roles))
	for i, r := range roles {
		roleStrings[i] = string(r)
	}

	claims := Claims{
		Roles:       roleStrings,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			Subject:   string(userID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	token := jwt.NewWithClaims(cfg.signingMethod(), claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (cfg Config) parserOptions() []jwt.ParserOption {
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return opts
}

// Validate parses and verifies tokenString, checking the revocation store
// when one is configured (spec.md §4.7 middleware contract).
func Validate(ctx context.Context, cfg Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, cfg.verificationKey, cfg.parserOptions()...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	if cfg.Revocation != nil {
		if claims.ID == "" {
			return nil, ErrTokenIDRequired
		}
		revoked, err := cfg.Revocation.IsRevoked(ctx, claims.Subject, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// Revoke blacklists the token described by claims (its jti) ahead of its natural
// expiry, without re-verifying its signature's freshness (a caller
// revoking their own still-unexpired token has already authenticated).
func Revoke(ctx context.Context, cfg Config, claims *Claims) error {
	if cfg.Revocation == nil {
		return nil
	}
	if claims.ID == "" {
		return ErrTokenIDRequired
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	} else {
		exp = time.Now().Add(cfg.RefreshTokenTTL)
	}
	return cfg.Revocation.Revoke(ctx, claims.Subject, claims.ID, exp)
}
