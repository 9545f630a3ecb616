package domain

import "time"

// Provider is the authentication source for a User.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderOidc   Provider = "oidc"
	ProviderAPIKey Provider = "api_key"
)

// Role is a named permission bundle assigned to a User.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleEventManager Role = "event_manager"
	RoleEventViewer  Role = "event_viewer"
	RoleUser         Role = "user"
)

// User is an authentication principal (spec.md §3).
type User struct {
	ID              UserID
	Username        string
	Email           string
	PasswordHash    string
	Provider        Provider
	ProviderSubject string
	Roles           map[Role]struct{}
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewUserParams carries the caller-supplied fields for construction.
type NewUserParams struct {
	Username        string
	Email           string
	PasswordHash    string
	Provider        Provider
	ProviderSubject string
	Roles           []Role
}

// NewUser validates params and returns a fresh User.
//
// Local users MUST carry a non-empty PasswordHash: the source this system
// is modeled on permits an empty hash under some code paths, apparently as
// a migration seam, but spec.md's Open Questions resolve this ambiguity by
// treating an empty hash as invalid (see DESIGN.md). Oidc users MUST NOT
// carry a password hash.
func NewUser(p NewUserParams, now time.Time) (*User, error) {
	if p.Username == "" {
		return nil, NewValidationError("username", "must not be empty")
	}
	if p.Email == "" {
		return nil, NewValidationError("email", "must not be empty")
	}
	switch p.Provider {
	case ProviderLocal:
		if p.PasswordHash == "" {
			return nil, NewValidationError("password_hash", "local users must have a password hash")
		}
	case ProviderOidc:
		if p.PasswordHash != "" {
			return nil, NewValidationError("password_hash", "oidc users must not have a password hash")
		}
		if p.ProviderSubject == "" {
			return nil, NewValidationError("provider_subject", "must not be empty for oidc users")
		}
	case ProviderAPIKey:
		// no password hash requirement either way
	default:
		return nil, NewValidationError("provider", "must be one of local, oidc, api_key")
	}
	if len(p.Roles) == 0 {
		return nil, NewValidationError("roles", "must be non-empty")
	}

	roles := make(map[Role]struct{}, len(p.Roles))
	for _, r := range p.Roles {
		roles[r] = struct{}{}
	}

	ts := now.UTC()
	return &User{
		ID:              NewUserID(),
		Username:        p.Username,
		Email:           p.Email,
		PasswordHash:    p.PasswordHash,
		Provider:        p.Provider,
		ProviderSubject: p.ProviderSubject,
		Roles:           roles,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}, nil
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(r Role) bool {
	_, ok := u.Roles[r]
	return ok
}

// RoleList returns the user's roles as a slice, in no particular order.
func (u *User) RoleList() []Role {
	out := make([]Role, 0, len(u.Roles))
	for r := range u.Roles {
		out = append(out, r)
	}
	return out
}
