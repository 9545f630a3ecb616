package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/xbcsmith/xzepr/internal/pkg/logger"
)

// AuditRecord is one audit-logged authorization decision (spec.md §4.9
// point 5: "{user_id, action, resource, decision, fallback_used,
// duration_ms, policy_version?, denial_reason?}").
type AuditRecord struct {
	ID            string
	UserID        string
	Action        string
	ResourceType  string
	ResourceID    string
	Decision      bool
	FallbackUsed  bool
	DurationMS    int64
	PolicyVersion string
	DenialReason  string
	CreatedAt     time.Time
}

// AuditSink persists authorization decisions. Audit logs are append-only
// compliance records; there is no update or delete path.
type AuditSink interface {
	Record(ctx context.Context, rec AuditRecord) error
}

// PGAuditSink writes audit records to Postgres via the shared pool.
type PGAuditSink struct {
	pool *pgxpool.Pool
}

func NewPGAuditSink(pool *pgxpool.Pool) *PGAuditSink {
	return &PGAuditSink{pool: pool}
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS authz_audit_log (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	action TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	decision BOOLEAN NOT NULL,
	fallback_used BOOLEAN NOT NULL,
	duration_ms BIGINT NOT NULL,
	policy_version TEXT NOT NULL DEFAULT '',
	denial_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_authz_audit_resource ON authz_audit_log(resource_type, resource_id, created_at DESC);
`

// Migrate applies the audit table DDL; dev/test use only, same as
// infrastructure.DatabaseClients.Migrate.
func (s *PGAuditSink) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, auditSchema)
	if err != nil {
		return fmt.Errorf("apply authz audit schema: %w", err)
	}
	return nil
}

func (s *PGAuditSink) Record(ctx context.Context, rec AuditRecord) error {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	const q = `
		INSERT INTO authz_audit_log (id, user_id, action, resource_type, resource_id, decision, fallback_used, duration_ms, policy_version, denial_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.pool.Exec(ctx, q,
		rec.ID, rec.UserID, rec.Action, rec.ResourceType, rec.ResourceID,
		rec.Decision, rec.FallbackUsed, rec.DurationMS, rec.PolicyVersion, rec.DenialReason, rec.CreatedAt,
	)
	if err != nil {
		logger.Error("failed to write authz audit record",
			zap.String("action", rec.Action),
			zap.String("resource_type", rec.ResourceType),
			zap.String("resource_id", rec.ResourceID),
			zap.Error(err),
		)
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}
