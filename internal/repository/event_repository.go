package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xbcsmith/xzepr/internal/domain"
)

// EventRepository implements domain.EventRepository. Events are immutable:
// there is no Update method (spec.md §3).
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Save(ctx context.Context, e *domain.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	const q = `
		INSERT INTO events (id, name, version, release, platform_id, package, description, payload, success, event_receiver_id, owner_id, resource_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.pool.Exec(ctx, q,
		string(e.ID), e.Name, e.Version, e.Release, e.PlatformID, e.Package, e.Description,
		payload, e.Success, string(e.EventReceiverID), string(e.OwnerID), e.ResourceVersion, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id domain.EventID) (*domain.Event, error) {
	const q = eventSelect + ` WHERE id = $1`
	return scanEvent(r.pool.QueryRow(ctx, q, string(id)))
}

func (r *EventRepository) FindByOwner(ctx context.Context, ownerID domain.UserID, limit, offset int) ([]*domain.Event, error) {
	const q = eventSelect + ` WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, string(ownerID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query events by owner: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *EventRepository) FindByReceiverID(ctx context.Context, receiverID domain.EventReceiverID, limit, offset int) ([]*domain.Event, error) {
	const q = eventSelect + ` WHERE event_receiver_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, string(receiverID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query events by receiver: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *EventRepository) FindByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*domain.Event, error) {
	const q = eventSelect + ` WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, q, start.UTC(), end.UTC(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query events by time range: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// FindByCriteria builds a dynamic WHERE clause over the optional filters in
// criteria (spec.md §4.3 find_by_criteria).
func (r *EventRepository) FindByCriteria(ctx context.Context, criteria domain.EventCriteria) ([]*domain.Event, error) {
	var clauses []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if criteria.Name != nil {
		clauses = append(clauses, "name = "+arg(*criteria.Name))
	}
	if criteria.ReceiverID != nil {
		clauses = append(clauses, "event_receiver_id = "+arg(string(*criteria.ReceiverID)))
	}
	if criteria.PlatformID != nil {
		clauses = append(clauses, "platform_id = "+arg(*criteria.PlatformID))
	}
	if criteria.Success != nil {
		clauses = append(clauses, "success = "+arg(*criteria.Success))
	}

	q := eventSelect
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT " + arg(criteria.Limit) + " OFFSET " + arg(criteria.Offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events by criteria: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *EventRepository) IsOwner(ctx context.Context, id domain.EventID, userID domain.UserID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1 AND owner_id = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, string(id), string(userID)).Scan(&ok); err != nil {
		return false, fmt.Errorf("check event owner: %w", err)
	}
	return ok, nil
}

func (r *EventRepository) GetResourceVersion(ctx context.Context, id domain.EventID) (int64, error) {
	const q = `SELECT resource_version FROM events WHERE id = $1`
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

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM events`
	var n int64
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (r *EventRepository) CountByReceiverID(ctx context.Context, receiverID domain.EventReceiverID) (int64, error) {
	const q = `SELECT COUNT(*) FROM events WHERE event_receiver_id = $1`
	var n int64
	if err := r.pool.QueryRow(ctx, q, string(receiverID)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events by receiver: %w", err)
	}
	return n, nil
}

const eventSelect = `
	SELECT id, name, version, release, platform_id, package, description, payload, success, event_receiver_id, owner_id, resource_version, created_at
	FROM events`

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var id, receiverID, ownerID string
	var payload []byte
	err := row.Scan(&id, &e.Name, &e.Version, &e.Release, &e.PlatformID, &e.Package, &e.Description,
		&payload, &e.Success, &receiverID, &ownerID, &e.ResourceVersion, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	e.ID = domain.EventID(id)
	e.EventReceiverID = domain.EventReceiverID(receiverID)
	e.OwnerID = domain.UserID(ownerID)
	if err := json.Unmarshal(payload, &e.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var out []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
