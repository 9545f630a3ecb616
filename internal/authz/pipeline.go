package authz

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Authorization decisions by allow/deny outcome.",
	}, []string{"allow"})

	fallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authz_fallback_total",
		Help: "Authorization decisions resolved via the legacy RBAC fallback.",
	})
)

func init() {
	prometheus.MustRegister(decisionsTotal, fallbackTotal)
}

// ResourceContextBuilder loads the Resource fields a particular resource
// type needs for an authorization check: owner, group, and member list
// (spec.md §4.9: "pluggable per resource type ... MAY issue one repository
// lookup for the resource and (if the resource carries a group reference)
// one for group members"). A missing resource is not an error: builders
// return ok=false and the pipeline denies with reason resource_not_found.
type ResourceContextBuilder interface {
	Build(ctx context.Context, resourceID string) (Resource, bool, error)
}

// ResourceContextBuilderFunc adapts a function to a ResourceContextBuilder.
type ResourceContextBuilderFunc func(ctx context.Context, resourceID string) (Resource, bool, error)

func (f ResourceContextBuilderFunc) Build(ctx context.Context, resourceID string) (Resource, bool, error) {
	return f(ctx, resourceID)
}

// Pipeline wires the policy client, audit sink, and resource-context
// builders into the single entry point handlers/middleware call.
type Pipeline struct {
	client   *PolicyClient
	audit    AuditSink
	builders map[string]ResourceContextBuilder
}

func NewPipeline(client *PolicyClient, audit AuditSink) *Pipeline {
	return &Pipeline{client: client, audit: audit, builders: make(map[string]ResourceContextBuilder)}
}

// RegisterResourceType wires a ResourceContextBuilder for a resource type.
func (p *Pipeline) RegisterResourceType(resourceType string, builder ResourceContextBuilder) {
	p.builders[resourceType] = builder
}

// Authorize builds the resource context (if a builder is registered and a
// resourceID was supplied), evaluates the request, and audit-logs the
// outcome before returning the decision.
func (p *Pipeline) Authorize(ctx context.Context, principal Principal, action Action, resourceType, resourceID string) (*Decision, error) {
	start := time.Now()

	resource := Resource{Type: resourceType, ID: resourceID}
	if resourceID != "" {
		if builder, ok := p.builders[resourceType]; ok {
			built, found, err := builder.Build(ctx, resourceID)
			if err != nil {
				return nil, err
			}
			if !found {
				decision := deny("resource_not_found", false)
				p.auditDecision(ctx, principal, action, resource, decision, start)
				return decision, nil
			}
			resource = built
		}
	}

	req := Request{Principal: principal, Action: action, Resource: resource}
	decision := p.client.Evaluate(ctx, req)

	p.auditDecision(ctx, principal, action, resource, decision, start)
	return decision, nil
}

func (p *Pipeline) auditDecision(ctx context.Context, principal Principal, action Action, resource Resource, decision *Decision, start time.Time) {
	allowLabel := "false"
	if decision.Allow {
		allowLabel = "true"
	}
	decisionsTotal.WithLabelValues(allowLabel).Inc()
	if decision.FallbackUsed {
		fallbackTotal.Inc()
	}

	if p.audit == nil {
		return
	}

	denialReason := ""
	if !decision.Allow {
		denialReason = decision.Reason
	}

	_ = p.audit.Record(ctx, AuditRecord{
		UserID:        string(principal.UserID),
		Action:        string(action),
		ResourceType:  resource.Type,
		ResourceID:    resource.ID,
		Decision:      decision.Allow,
		FallbackUsed:  decision.FallbackUsed,
		DurationMS:    time.Since(start).Milliseconds(),
		PolicyVersion: decision.PolicyVersion,
		DenialReason:  denialReason,
	})
}
