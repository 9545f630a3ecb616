package graphqlapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/xbcsmith/xzepr/internal/api/middleware"
	"github.com/xbcsmith/xzepr/internal/authz"
	"github.com/xbcsmith/xzepr/internal/domain"
	"github.com/xbcsmith/xzepr/internal/ingest"
)

type fakeReceiverRepo struct {
	byID map[domain.EventReceiverID]*domain.EventReceiver
}

func newFakeReceiverRepo() *fakeReceiverRepo {
	return &fakeReceiverRepo{byID: map[domain.EventReceiverID]*domain.EventReceiver{}}
}

func (f *fakeReceiverRepo) Save(_ context.Context, r *domain.EventReceiver) (domain.EventReceiverID, error) {
	for _, existing := range f.byID {
		if existing.Fingerprint == r.Fingerprint {
			return existing.ID, nil
		}
	}
	f.byID[r.ID] = r
	return r.ID, nil
}
func (f *fakeReceiverRepo) FindByID(_ context.Context, id domain.EventReceiverID) (*domain.EventReceiver, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}
func (f *fakeReceiverRepo) FindByFingerprint(context.Context, domain.Fingerprint) (*domain.EventReceiver, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeReceiverRepo) FindByOwner(context.Context, domain.UserID, int, int) ([]*domain.EventReceiver, error) {
	return nil, nil
}
func (f *fakeReceiverRepo) IsOwner(_ context.Context, id domain.EventReceiverID, userID domain.UserID) (bool, error) {
	r, ok := f.byID[id]
	return ok && r.OwnerID == userID, nil
}
func (f *fakeReceiverRepo) GetResourceVersion(_ context.Context, id domain.EventReceiverID) (int64, error) {
	r, ok := f.byID[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return r.ResourceVersion, nil
}
func (f *fakeReceiverRepo) Update(_ context.Context, r *domain.EventReceiver, expectedVersion int64) error {
	existing, ok := f.byID[r.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.ResourceVersion != expectedVersion {
		return domain.NewConflictError("resource was modified by another request")
	}
	r.ResourceVersion = expectedVersion + 1
	f.byID[r.ID] = r
	return nil
}
func (f *fakeReceiverRepo) Delete(_ context.Context, id domain.EventReceiverID) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}
func (f *fakeReceiverRepo) List(context.Context, int, int) ([]*domain.EventReceiver, error) {
	out := make([]*domain.EventReceiver, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, r)
	}
	return out, nil
}

type noopAuditSink struct{}

func (noopAuditSink) Record(context.Context, authz.AuditRecord) error { return nil }

// newTestSchema wires a schema against fake repositories and a policy
// pipeline with no engine URL, so authorization decisions fall back to
// legacy RBAC deterministically (internal/authz.PolicyClient.Evaluate). The
// receiver resource builder mirrors handlers.buildReceiverResource so owner
// checks resolve the same way they do against the real pipeline.
func newTestSchema(t *testing.T, receivers *fakeReceiverRepo) graphql.Schema {
	t.Helper()
	policyClient := authz.NewPolicyClient(authz.PolicyClientConfig{})
	pipeline := authz.NewPipeline(policyClient, noopAuditSink{})
	pipeline.RegisterResourceType("receiver", authz.ResourceContextBuilderFunc(
		func(ctx context.Context, resourceID string) (authz.Resource, bool, error) {
			id, err := domain.ParseEventReceiverID(resourceID)
			if err != nil {
				return authz.Resource{}, false, nil
			}
			r, err := receivers.FindByID(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return authz.Resource{}, false, nil
			}
			if err != nil {
				return authz.Resource{}, false, err
			}
			return authz.Resource{Type: "receiver", ID: resourceID, OwnerID: r.OwnerID, ResourceVersion: r.ResourceVersion}, true, nil
		},
	))

	deps := Deps{
		Receivers:       receivers,
		ReceiverHandler: ingest.NewReceiverHandler(receivers, nil),
		Pipeline:        pipeline,
	}
	schema, err := NewSchema(deps)
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	return schema
}

// authedCtx carries only the caller's identity, exercising the owner and
// deny-by-default branches of the legacy RBAC fallback. adminCtx additionally
// grants the admin role, exercising actions (like create) that have no
// owner yet to check against.
func authedCtx(userID domain.UserID) context.Context {
	return middleware.SetUserContext(context.Background(), string(userID), nil, nil)
}

func adminCtx(userID domain.UserID) context.Context {
	return middleware.SetUserContext(context.Background(), string(userID), []string{"admin"}, nil)
}

func TestCreateReceiver_ThenQuery(t *testing.T) {
	receivers := newFakeReceiverRepo()
	schema := newTestSchema(t, receivers)

	mutation := `mutation {
		createReceiver(name: "build", type: "ci", version: "1.0", schema: "{}") {
			id
			name
		}
	}`
	result := graphql.Do(graphql.Params{Schema: schema, RequestString: mutation, Context: adminCtx("U1")})
	if len(result.Errors) > 0 {
		t.Fatalf("createReceiver mutation errors: %v", result.Errors)
	}

	data, ok := result.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected result data shape: %#v", result.Data)
	}
	created, ok := data["createReceiver"].(map[string]any)
	if !ok || created["name"] != "build" {
		t.Fatalf("createReceiver returned = %#v", data["createReceiver"])
	}

	query := `query { receivers(limit: 10) { id name } }`
	result = graphql.Do(graphql.Params{Schema: schema, RequestString: query, Context: adminCtx("U1")})
	if len(result.Errors) > 0 {
		t.Fatalf("receivers query errors: %v", result.Errors)
	}
}

func TestReceiverQuery_DeniesUnauthenticatedCaller(t *testing.T) {
	receivers := newFakeReceiverRepo()
	schema := newTestSchema(t, receivers)

	query := `query { receivers(limit: 10) { id } }`
	result := graphql.Do(graphql.Params{Schema: schema, RequestString: query, Context: context.Background()})
	if len(result.Errors) == 0 {
		t.Fatal("expected an authentication error with no principal on the context")
	}
}

func TestDeleteReceiver_OwnerAllowedNonOwnerDenied(t *testing.T) {
	receivers := newFakeReceiverRepo()
	r, err := domain.NewEventReceiver(domain.NewEventReceiverParams{
		Name: "build", Type: "ci", Version: "1.0", Schema: map[string]any{}, OwnerID: "U1",
	}, time.Now())
	if err != nil {
		t.Fatalf("NewEventReceiver() error = %v", err)
	}
	if _, err := receivers.Save(context.Background(), r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	schema := newTestSchema(t, receivers)

	mutation := `mutation($id: ID!) { deleteReceiver(id: $id) }`
	variables := map[string]any{"id": string(r.ID)}

	denied := graphql.Do(graphql.Params{Schema: schema, RequestString: mutation, VariableValues: variables, Context: authedCtx("U2")})
	if len(denied.Errors) == 0 {
		t.Fatal("expected non-owner deleteReceiver to be denied")
	}

	allowed := graphql.Do(graphql.Params{Schema: schema, RequestString: mutation, VariableValues: variables, Context: authedCtx("U1")})
	if len(allowed.Errors) > 0 {
		t.Fatalf("expected owner deleteReceiver to succeed, got errors: %v", allowed.Errors)
	}
}
