// Package repository implements domain's persistence ports directly against
// pgx/v5 (spec.md §4.3). There is no ORM layer: the teacher's ent-generated
// client requires code generation this repository does not run, so queries
// are hand-written SQL against the pool infrastructure.NewDatabaseClients
// builds.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xbcsmith/xzepr/internal/domain"
)

// EventReceiverRepository implements domain.EventReceiverRepository.
type EventReceiverRepository struct {
	pool *pgxpool.Pool
}

func NewEventReceiverRepository(pool *pgxpool.Pool) *EventReceiverRepository {
	return &EventReceiverRepository{pool: pool}
}

// Save is an idempotent upsert on fingerprint: a conflicting fingerprint
// returns the already-stored id rather than erroring (spec.md §3, §4.3).
func (r *EventReceiverRepository) Save(ctx context.Context, e *domain.EventReceiver) (domain.EventReceiverID, error) {
	schema, err := json.Marshal(e.Schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	const q = `
		INSERT INTO event_receivers (id, name, type, version, description, schema, fingerprint, owner_id, resource_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (fingerprint) DO NOTHING
		RETURNING id`

	var insertedID string
	err = r.pool.QueryRow(ctx, q,
		string(e.ID), e.Name, e.Type, e.Version, e.Description, schema,
		string(e.Fingerprint), string(e.OwnerID), e.ResourceVersion, e.CreatedAt,
	).Scan(&insertedID)
	if err == nil {
		return domain.EventReceiverID(insertedID), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("insert event receiver: %w", err)
	}

	existing, err := r.FindByFingerprint(ctx, e.Fingerprint)
	if err != nil {
		return "", fmt.Errorf("load existing receiver after conflict: %w", err)
	}
	return existing.ID, nil
}

func (r *EventReceiverRepository) FindByID(ctx context.Context, id domain.EventReceiverID) (*domain.EventReceiver, error) {
	const q = `
		SELECT id, name, type, version, description, schema, fingerprint, owner_id, resource_version, created_at
		FROM event_receivers WHERE id = $1`
	return scanEventReceiver(r.pool.QueryRow(ctx, q, string(id)))
}

func (r *EventReceiverRepository) FindByFingerprint(ctx context.Context, fp domain.Fingerprint) (*domain.EventReceiver, error) {
	const q = `
		SELECT id, name, type, version, description, schema, fingerprint, owner_id, resource_version, created_at
		FROM event_receivers WHERE fingerprint = $1`
	return scanEventReceiver(r.pool.QueryRow(ctx, q, string(fp)))
}

func (r *EventReceiverRepository) FindByOwner(ctx context.Context, ownerID domain.UserID, limit, offset int) ([]*domain.EventReceiver, error) {
	const q = `
		SELECT id, name, type, version, description, schema, fingerprint, owner_id, resource_version, created_at
		FROM event_receivers WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, string(ownerID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query event receivers by owner: %w", err)
	}
	defer rows.Close()
	return collectEventReceivers(rows)
}

func (r *EventReceiverRepository) IsOwner(ctx context.Context, id domain.EventReceiverID, userID domain.UserID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM event_receivers WHERE id = $1 AND owner_id = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, string(id), string(userID)).Scan(&ok); err != nil {
		return false, fmt.Errorf("check event receiver owner: %w", err)
	}
	return ok, nil
}

func (r *EventReceiverRepository) GetResourceVersion(ctx context.Context, id domain.EventReceiverID) (int64, error) {
	const q = `SELECT resource_version FROM event_receivers WHERE id = $1`
	var v int64
	err := r.pool.QueryRow(ctx, q, string(id)).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get resource version: %w", err)
	}
	return v, nil
}

// Update writes name/type/version/description/schema, bumping
// resource_version only when a fingerprint-contributing field actually
// changed (spec.md §3). It fails with *domain.ConflictError when
// expectedVersion no longer matches the stored row.
func (r *EventReceiverRepository) Update(ctx context.Context, e *domain.EventReceiver, expectedVersion int64) error {
	schema, err := json.Marshal(e.Schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	// resource_version only bumps when the stored fingerprint actually
	// changes; the CASE compares against the row's pre-update fingerprint,
	// so a description-only edit (identical fingerprint) keeps the version.
	const q = `
		UPDATE event_receivers
		SET name = $1, type = $2, version = $3, description = $4, schema = $5,
		    resource_version = CASE WHEN fingerprint = $6 THEN resource_version ELSE $7 END,
		    fingerprint = $6
		WHERE id = $8 AND resource_version = $9
		RETURNING resource_version`
	var newVersion int64
	err = r.pool.QueryRow(ctx, q,
		e.Name, e.Type, e.Version, e.Description, schema,
		string(e.Fingerprint), expectedVersion+1, string(e.ID), expectedVersion,
	).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewConflictError("event receiver was modified by another request")
	}
	if err != nil {
		return fmt.Errorf("update event receiver: %w", err)
	}
	e.ResourceVersion = newVersion
	return nil
}

func (r *EventReceiverRepository) Delete(ctx context.Context, id domain.EventReceiverID) error {
	const q = `DELETE FROM event_receivers WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, string(id))
	if err != nil {
		return fmt.Errorf("delete event receiver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EventReceiverRepository) List(ctx context.Context, limit, offset int) ([]*domain.EventReceiver, error) {
	const q = `
		SELECT id, name, type, version, description, schema, fingerprint, owner_id, resource_version, created_at
		FROM event_receivers
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list event receivers: %w", err)
	}
	defer rows.Close()
	return collectEventReceivers(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEventReceiver(row rowScanner) (*domain.EventReceiver, error) {
	var e domain.EventReceiver
	var id, fingerprint, ownerID string
	var schema []byte
	err := row.Scan(&id, &e.Name, &e.Type, &e.Version, &e.Description, &schema, &fingerprint, &ownerID, &e.ResourceVersion, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan event receiver: %w", err)
	}
	e.ID = domain.EventReceiverID(id)
	e.Fingerprint = domain.Fingerprint(fingerprint)
	e.OwnerID = domain.UserID(ownerID)
	if err := json.Unmarshal(schema, &e.Schema); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return &e, nil
}

func collectEventReceivers(rows pgx.Rows) ([]*domain.EventReceiver, error) {
	var out []*domain.EventReceiver
	for rows.Next() {
		e, err := scanEventReceiver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event receivers: %w", err)
	}
	return out, nil
}
