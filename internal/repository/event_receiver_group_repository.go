package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xbcsmith/xzepr/internal/domain"
)

// EventReceiverGroupRepository implements domain.EventReceiverGroupRepository,
// including the group_memberships junction table.
type EventReceiverGroupRepository struct {
	pool *pgxpool.Pool
}

func NewEventReceiverGroupRepository(pool *pgxpool.Pool) *EventReceiverGroupRepository {
	return &EventReceiverGroupRepository{pool: pool}
}

const groupSelect = `
	SELECT id, name, type, version, description, enabled, event_receiver_ids, owner_id, resource_version, created_at, updated_at
	FROM event_receiver_groups`

func (r *EventReceiverGroupRepository) Save(ctx context.Context, g *domain.EventReceiverGroup) error {
	const q = `
		INSERT INTO event_receiver_groups (id, name, type, version, description, enabled, event_receiver_ids, owner_id, resource_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.pool.Exec(ctx, q,
		string(g.ID), g.Name, g.Type, g.Version, g.Description, g.Enabled,
		receiverIDsToStrings(g.EventReceiverIDs), string(g.OwnerID), g.ResourceVersion, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event receiver group: %w", err)
	}
	return nil
}

func (r *EventReceiverGroupRepository) FindByID(ctx context.Context, id domain.EventReceiverGroupID) (*domain.EventReceiverGroup, error) {
	const q = groupSelect + ` WHERE id = $1`
	return scanGroup(r.pool.QueryRow(ctx, q, string(id)))
}

func (r *EventReceiverGroupRepository) FindByOwner(ctx context.Context, ownerID domain.UserID, limit, offset int) ([]*domain.EventReceiverGroup, error) {
	const q = groupSelect + ` WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, string(ownerID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query groups by owner: %w", err)
	}
	defer rows.Close()
	return collectGroups(rows)
}

func (r *EventReceiverGroupRepository) IsOwner(ctx context.Context, id domain.EventReceiverGroupID, userID domain.UserID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM event_receiver_groups WHERE id = $1 AND owner_id = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, string(id), string(userID)).Scan(&ok); err != nil {
		return false, fmt.Errorf("check group owner: %w", err)
	}
	return ok, nil
}

func (r *EventReceiverGroupRepository) GetResourceVersion(ctx context.Context, id domain.EventReceiverGroupID) (int64, error) {
	const q = `SELECT resource_version FROM event_receiver_groups WHERE id = $1`
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

func (r *EventReceiverGroupRepository) Update(ctx context.Context, g *domain.EventReceiverGroup, expectedVersion int64) error {
	newVersion := expectedVersion + 1
	const q = `
		UPDATE event_receiver_groups
		SET name = $1, type = $2, version = $3, description = $4, enabled = $5,
		    event_receiver_ids = $6, resource_version = $7, updated_at = $8
		WHERE id = $9 AND resource_version = $10`
	tag, err := r.pool.Exec(ctx, q,
		g.Name, g.Type, g.Version, g.Description, g.Enabled,
		receiverIDsToStrings(g.EventReceiverIDs), newVersion, g.UpdatedAt, string(g.ID), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update event receiver group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewConflictError("event receiver group was modified by another request")
	}
	g.ResourceVersion = newVersion
	return nil
}

func (r *EventReceiverGroupRepository) Delete(ctx context.Context, id domain.EventReceiverGroupID) error {
	const q = `DELETE FROM event_receiver_groups WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, string(id))
	if err != nil {
		return fmt.Errorf("delete event receiver group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EventReceiverGroupRepository) List(ctx context.Context, limit, offset int) ([]*domain.EventReceiverGroup, error) {
	const q = groupSelect + ` ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list event receiver groups: %w", err)
	}
	defer rows.Close()
	return collectGroups(rows)
}

func (r *EventReceiverGroupRepository) IsMember(ctx context.Context, groupID domain.EventReceiverGroupID, userID domain.UserID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM group_memberships WHERE group_id = $1 AND user_id = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, string(groupID), string(userID)).Scan(&ok); err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}
	return ok, nil
}

func (r *EventReceiverGroupRepository) GetMembers(ctx context.Context, groupID domain.EventReceiverGroupID) ([]*domain.GroupMembership, error) {
	const q = `SELECT group_id, user_id, added_by, added_at FROM group_memberships WHERE group_id = $1 ORDER BY added_at ASC`
	rows, err := r.pool.Query(ctx, q, string(groupID))
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	var out []*domain.GroupMembership
	for rows.Next() {
		var m domain.GroupMembership
		var gid, uid, addedBy string
		if err := rows.Scan(&gid, &uid, &addedBy, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("scan group membership: %w", err)
		}
		m.GroupID = domain.EventReceiverGroupID(gid)
		m.UserID = domain.UserID(uid)
		m.AddedBy = domain.UserID(addedBy)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group members: %w", err)
	}
	return out, nil
}

// AddMember fails with *domain.ConflictError when the user is already a
// member (spec.md §4.11 duplicate-member rejection).
func (r *EventReceiverGroupRepository) AddMember(ctx context.Context, m *domain.GroupMembership) error {
	const q = `
		WITH ins AS (
			INSERT INTO group_memberships (group_id, user_id, added_by, added_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (group_id, user_id) DO NOTHING
			RETURNING group_id
		)
		UPDATE event_receiver_groups SET resource_version = resource_version + 1
		WHERE id IN (SELECT group_id FROM ins)`
	tag, err := r.pool.Exec(ctx, q, string(m.GroupID), string(m.UserID), string(m.AddedBy), m.AddedAt)
	if err != nil {
		return fmt.Errorf("add group member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewConflictError("user is already a member of this group")
	}
	return nil
}

func (r *EventReceiverGroupRepository) RemoveMember(ctx context.Context, groupID domain.EventReceiverGroupID, userID domain.UserID) error {
	const q = `
		WITH del AS (
			DELETE FROM group_memberships WHERE group_id = $1 AND user_id = $2
			RETURNING group_id
		)
		UPDATE event_receiver_groups SET resource_version = resource_version + 1
		WHERE id IN (SELECT group_id FROM del)`
	tag, err := r.pool.Exec(ctx, q, string(groupID), string(userID))
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EventReceiverGroupRepository) FindGroupsForUser(ctx context.Context, userID domain.UserID) ([]*domain.EventReceiverGroup, error) {
	q := groupSelect + ` WHERE id IN (SELECT group_id FROM group_memberships WHERE user_id = $1) ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, q, string(userID))
	if err != nil {
		return nil, fmt.Errorf("query groups for user: %w", err)
	}
	defer rows.Close()
	return collectGroups(rows)
}

func receiverIDsToStrings(ids []domain.EventReceiverID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func scanGroup(row rowScanner) (*domain.EventReceiverGroup, error) {
	var g domain.EventReceiverGroup
	var id, ownerID string
	var receiverIDs []string
	err := row.Scan(&id, &g.Name, &g.Type, &g.Version, &g.Description, &g.Enabled,
		&receiverIDs, &ownerID, &g.ResourceVersion, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan event receiver group: %w", err)
	}
	g.ID = domain.EventReceiverGroupID(id)
	g.OwnerID = domain.UserID(ownerID)
	g.EventReceiverIDs = make([]domain.EventReceiverID, len(receiverIDs))
	for i, rid := range receiverIDs {
		g.EventReceiverIDs[i] = domain.EventReceiverID(rid)
	}
	return &g, nil
}

func collectGroups(rows pgx.Rows) ([]*domain.EventReceiverGroup, error) {
	var out []*domain.EventReceiverGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event receiver groups: %w", err)
	}
	return out, nil
}
