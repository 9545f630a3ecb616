package handlers

import (
	"errors"
	"maps"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xbcsmith/xzepr/internal/auth"
	"github.com/xbcsmith/xzepr/internal/domain"
	apperrors "github.com/xbcsmith/xzepr/internal/pkg/errors"
)

// permissionsForRoles derives the explicit permission strings the legacy
// RBAC fallback checks (authz.EvaluateLegacyRBAC: "<resource>:<action>"),
// kept here since issuance is the one place that needs to flatten a user's
// role set into the claim the fallback path later reads (spec.md §4.9).
func permissionsForRoles(roles []domain.Role) []string {
	resources := []string{"receiver", "event", "group"}
	var perms []string
	for _, r := range roles {
		switch r {
		case domain.RoleAdmin:
			for _, res := range resources {
				perms = append(perms, res+":create", res+":read", res+":update", res+":delete")
			}
		case domain.RoleEventManager:
			for _, res := range resources {
				perms = append(perms, res+":create", res+":read", res+":update")
			}
		case domain.RoleEventViewer:
			for _, res := range resources {
				perms = append(perms, res+":read")
			}
		case domain.RoleUser:
			// no blanket permissions; ownership grants access to own resources
		}
	}
	return perms
}

type tokenResponse struct {
	AccessToken           string `json:"access_token"`
	AccessTokenExpiresAt  string `json:"access_token_expires_at"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresAt string `json:"refresh_token_expires_at"`
}

func newTokenResponse(pair *auth.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:           pair.AccessToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt.Format(timeLayout),
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt.Format(timeLayout),
	}
}

func (s *Server) issueTokens(c *gin.Context, u *domain.User) {
	pair, err := auth.Issue(s.authCfg, u.ID, u.RoleList(), permissionsForRoles(u.RoleList()))
	if err != nil {
		_ = c.Error(apperrors.StorageErrorf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newTokenResponse(pair)})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login, the local-provider username and
// password flow (spec.md §4.7, §6).
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationErrorf("", "request body must be valid JSON"))
		return
	}

	u, err := s.users.FindByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = c.Error(apperrors.AuthErrorf(apperrors.CodeInvalidToken, "invalid username or password"))
			return
		}
		_ = c.Error(apperrors.StorageErrorf(err))
		return
	}

	if u.Provider != domain.ProviderLocal {
		_ = c.Error(apperrors.AuthErrorf(apperrors.CodeInvalidToken, "invalid username or password"))
		return
	}

	if err := auth.ComparePassword(u.PasswordHash, req.Password); err != nil {
		_ = c.Error(apperrors.AuthErrorf(apperrors.CodeInvalidToken, "invalid username or password"))
		return
	}

	s.issueTokens(c, u)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /api/v1/auth/refresh: validates the presented refresh
// token, revokes it, and issues a fresh pair (spec.md §4.7 rotation).
func (s *Server) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationErrorf("", "request body must be valid JSON"))
		return
	}

	claims, err := auth.Validate(c.Request.Context(), s.authCfg, req.RefreshToken)
	if err != nil {
		_ = c.Error(apperrors.AuthErrorf(apperrors.CodeInvalidToken, "invalid or expired refresh token"))
		return
	}

	userID, err := domain.ParseUserID(claims.Subject)
	if err != nil {
		_ = c.Error(apperrors.AuthErrorf(apperrors.CodeInvalidToken, "invalid token subject"))
		return
	}

	u, err := s.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeUserNotFound, "user"))
		return
	}

	if err := auth.Revoke(c.Request.Context(), s.authCfg, claims); err != nil {
		_ = c.Error(apperrors.StorageErrorf(err))
		return
	}

	s.issueTokens(c, u)
}

// OIDCLogin handles GET /api/v1/auth/oidc/login by redirecting to the
// upstream identity provider's authorization endpoint (spec.md §4.8).
func (s *Server) OIDCLogin(c *gin.Context) {
	if s.oidcFlow == nil {
		_ = c.Error(apperrors.New(apperrors.CodeValidationFailed, "oidc is not configured", http.StatusNotFound))
		return
	}

	redirectURL, _, err := s.oidcFlow.BeginAuthorization(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.StorageErrorf(err))
		return
	}

	c.Redirect(http.StatusFound, redirectURL)
}

// OIDCCallback handles GET /api/v1/auth/oidc/callback, completing the
// authorization code exchange, provisioning the local user record on first
// login and updating its email and roles on a later login when the provider
// reports different ones (spec.md §4.8).
func (s *Server) OIDCCallback(c *gin.Context) {
	if s.oidcFlow == nil {
		_ = c.Error(apperrors.New(apperrors.CodeValidationFailed, "oidc is not configured", http.StatusNotFound))
		return
	}

	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		_ = c.Error(apperrors.ValidationErrorf("state", "state and code query parameters are required"))
		return
	}

	result, err := s.oidcFlow.Complete(c.Request.Context(), state, code)
	if err != nil {
		_ = c.Error(apperrors.AuthErrorf(apperrors.CodeInvalidToken, "oidc exchange failed: "+err.Error()))
		return
	}

	u, err := s.users.FindByProviderSubject(c.Request.Context(), domain.ProviderOidc, result.ProviderSubject)
	if errors.Is(err, domain.ErrNotFound) {
		u, err = domain.NewUser(domain.NewUserParams{
			Username: result.ProviderSubject, Email: result.Email,
			Provider: domain.ProviderOidc, ProviderSubject: result.ProviderSubject,
			Roles: result.Roles,
		}, time.Now())
		if err != nil {
			_ = c.Error(mapDomainError(err, "", ""))
			return
		}
		if err := s.users.Save(c.Request.Context(), u); err != nil {
			_ = c.Error(apperrors.StorageErrorf(err))
			return
		}
	} else if err != nil {
		_ = c.Error(apperrors.StorageErrorf(err))
		return
	} else {
		roles := make(map[domain.Role]struct{}, len(result.Roles))
		for _, r := range result.Roles {
			roles[r] = struct{}{}
		}
		if u.Email != result.Email || !maps.Equal(u.Roles, roles) {
			u.Email, u.Roles, u.UpdatedAt = result.Email, roles, time.Now().UTC()
			if err := s.users.Update(c.Request.Context(), u); err != nil {
				_ = c.Error(apperrors.StorageErrorf(err))
				return
			}
		}
	}

	s.issueTokens(c, u)
}
