package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xbcsmith/xzepr/internal/domain"
)

// UserRepository implements domain.UserRepository.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userSelect = `
	SELECT id, username, email, password_hash, provider, provider_subject, roles, created_at, updated_at
	FROM users`

func (r *UserRepository) Save(ctx context.Context, u *domain.User) error {
	const q = `
		INSERT INTO users (id, username, email, password_hash, provider, provider_subject, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, q,
		string(u.ID), u.Username, u.Email, u.PasswordHash, string(u.Provider), u.ProviderSubject,
		rolesToStrings(u.RoleList()), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	const q = userSelect + ` WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, string(id)))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	const q = userSelect + ` WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, q, username))
}

func (r *UserRepository) FindByProviderSubject(ctx context.Context, provider domain.Provider, subject string) (*domain.User, error) {
	const q = userSelect + ` WHERE provider = $1 AND provider_subject = $2`
	return scanUser(r.pool.QueryRow(ctx, q, string(provider), subject))
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	const q = `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, provider = $4,
		    provider_subject = $5, roles = $6, updated_at = $7
		WHERE id = $8`
	tag, err := r.pool.Exec(ctx, q,
		u.Username, u.Email, u.PasswordHash, string(u.Provider), u.ProviderSubject,
		rolesToStrings(u.RoleList()), u.UpdatedAt, string(u.ID),
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var id, provider string
	var roles []string
	err := row.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &provider, &u.ProviderSubject, &roles, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = domain.UserID(id)
	u.Provider = domain.Provider(provider)
	u.Roles = make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		u.Roles[domain.Role(role)] = struct{}{}
	}
	return &u, nil
}
