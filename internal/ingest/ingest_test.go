package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xbcsmith/xzepr/internal/domain"
)

type fakeReceiverRepo struct {
	mu          sync.Mutex
	byID        map[domain.EventReceiverID]*domain.EventReceiver
	byFingerprint map[domain.Fingerprint]domain.EventReceiverID
}

func newFakeReceiverRepo() *fakeReceiverRepo {
	return &fakeReceiverRepo{byID: map[domain.EventReceiverID]*domain.EventReceiver{}, byFingerprint: map[domain.Fingerprint]domain.EventReceiverID{}}
}

func (f *fakeReceiverRepo) Save(_ context.Context, r *domain.EventReceiver) (domain.EventReceiverID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byFingerprint[r.Fingerprint]; ok {
		return existing, nil
	}
	f.byID[r.ID] = r
	f.byFingerprint[r.Fingerprint] = r.ID
	return r.ID, nil
}
func (f *fakeReceiverRepo) FindByID(_ context.Context, id domain.EventReceiverID) (*domain.EventReceiver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}
func (f *fakeReceiverRepo) FindByFingerprint(_ context.Context, fp domain.Fingerprint) (*domain.EventReceiver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byFingerprint[fp]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f.byID[id], nil
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
func (f *fakeReceiverRepo) Update(context.Context, *domain.EventReceiver, int64) error { return nil }
func (f *fakeReceiverRepo) Delete(context.Context, domain.EventReceiverID) error       { return nil }
func (f *fakeReceiverRepo) List(context.Context, int, int) ([]*domain.EventReceiver, error) {
	return nil, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	saved  []*domain.Event
	failFK bool
}

func (f *fakeEventRepo) Save(_ context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFK {
		return fkViolationError{}
	}
	f.saved = append(f.saved, e)
	return nil
}
func (f *fakeEventRepo) FindByID(context.Context, domain.EventID) (*domain.Event, error) { return nil, nil }
func (f *fakeEventRepo) FindByOwner(context.Context, domain.UserID, int, int) ([]*domain.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) FindByReceiverID(context.Context, domain.EventReceiverID, int, int) ([]*domain.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) FindByTimeRange(context.Context, time.Time, time.Time, int, int) ([]*domain.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) FindByCriteria(context.Context, domain.EventCriteria) ([]*domain.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) IsOwner(context.Context, domain.EventID, domain.UserID) (bool, error) {
	return false, nil
}
func (f *fakeEventRepo) GetResourceVersion(context.Context, domain.EventID) (int64, error) {
	return 0, nil
}
func (f *fakeEventRepo) Count(context.Context) (int64, error)                               { return 0, nil }
func (f *fakeEventRepo) CountByReceiverID(context.Context, domain.EventReceiverID) (int64, error) { return 0, nil }

type fkViolationError struct{}

func (fkViolationError) Error() string { return "fk violation" }

type passValidator struct{ err error }

func (v passValidator) Validate(context.Context, any, any) error { return v.err }

// fakePublisher records published keys. Publish is called from the
// goroutine the handler detaches its publish work onto, so tests wait on
// notify rather than asserting len(keys) immediately after the handler call
// returns.
type fakePublisher struct {
	mu     sync.Mutex
	keys   []string
	notify chan string
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{notify: make(chan string, 8)}
}

func (p *fakePublisher) Publish(_ context.Context, key string, _ []byte) error {
	p.mu.Lock()
	p.keys = append(p.keys, key)
	p.mu.Unlock()
	p.notify <- key
	return nil
}

func (p *fakePublisher) waitForPublishes(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.notify:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for publish %d/%d", i+1, n)
		}
	}
}

func testSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []any{"name"},
	}
}

func TestCreateEvent_PublishesCloudEventKeyedByEventID(t *testing.T) {
	receivers := newFakeReceiverRepo()
	owner := domain.UserID("U1")
	receiver, err := domain.NewEventReceiver(domain.NewEventReceiverParams{
		Name: "foobar", Type: "foo.bar", Version: "1.1.3", Schema: testSchema(), OwnerID: owner,
	}, time.Now())
	if err != nil {
		t.Fatalf("NewEventReceiver() error = %v", err)
	}
	if _, err := receivers.Save(context.Background(), receiver); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	events := &fakeEventRepo{}
	publisher := newFakePublisher()
	handler := NewEventHandler(receivers, events, passValidator{}, publisher)

	id, err := handler.CreateEvent(context.Background(), CreateEventParams{
		Name: "magnificent", Version: "1.0.0", EventReceiverID: string(receiver.ID),
		Payload: map[string]any{"name": "joe"}, Success: true, CallerUserID: owner,
	})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if len(events.saved) != 1 {
		t.Fatalf("expected 1 event persisted, got %d", len(events.saved))
	}
	if string(id) != string(events.saved[0].ID) {
		t.Errorf("returned id %q does not match persisted event id %q", id, events.saved[0].ID)
	}
	publisher.waitForPublishes(t, 1)
	if len(publisher.keys) != 1 || publisher.keys[0] != string(id) {
		t.Errorf("publisher.keys = %v, want [%s]", publisher.keys, id)
	}
}

func TestCreateEvent_MissingReceiverReturnsNotFound(t *testing.T) {
	receivers := newFakeReceiverRepo()
	events := &fakeEventRepo{}
	handler := NewEventHandler(receivers, events, passValidator{}, nil)

	_, err := handler.CreateEvent(context.Background(), CreateEventParams{
		Name: "n", Version: "v", EventReceiverID: string(domain.NewEventReceiverID()),
		Payload: map[string]any{}, CallerUserID: "U1",
	})
	if err != domain.ErrNotFound {
		t.Errorf("CreateEvent() error = %v, want domain.ErrNotFound", err)
	}
}

func TestCreateEvent_SchemaValidationFailureReturnsWithoutPersisting(t *testing.T) {
	receivers := newFakeReceiverRepo()
	owner := domain.UserID("U1")
	receiver, _ := domain.NewEventReceiver(domain.NewEventReceiverParams{
		Name: "foobar", Type: "foo.bar", Version: "1.1.3", Schema: testSchema(), OwnerID: owner,
	}, time.Now())
	_, _ = receivers.Save(context.Background(), receiver)

	events := &fakeEventRepo{}
	validationErr := &domain.SchemaError{Path: "/name", Message: "name is required"}
	handler := NewEventHandler(receivers, events, passValidator{err: validationErr}, nil)

	_, err := handler.CreateEvent(context.Background(), CreateEventParams{
		Name: "n", Version: "v", EventReceiverID: string(receiver.ID), Payload: map[string]any{}, CallerUserID: owner,
	})
	if err != validationErr {
		t.Errorf("CreateEvent() error = %v, want the schema error", err)
	}
	if len(events.saved) != 0 {
		t.Error("expected no event persisted on schema validation failure")
	}
}

func TestReceiverHandler_CreateTwiceReturnsSameID(t *testing.T) {
	receivers := newFakeReceiverRepo()
	publisher := newFakePublisher()
	handler := NewReceiverHandler(receivers, publisher)

	params := CreateReceiverParams{Name: "foobar", Type: "foo.bar", Version: "1.1.3", Schema: testSchema(), CallerUserID: "U1"}

	id1, err := handler.CreateReceiver(context.Background(), params)
	if err != nil {
		t.Fatalf("CreateReceiver() error = %v", err)
	}
	id2, err := handler.CreateReceiver(context.Background(), params)
	if err != nil {
		t.Fatalf("CreateReceiver() second call error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("id1=%q id2=%q, want same id for matching fingerprint", id1, id2)
	}
	publisher.waitForPublishes(t, 1)
	if len(publisher.keys) != 1 {
		t.Errorf("expected exactly one system event published, got %d", len(publisher.keys))
	}
}

type fakeGroupRepo struct {
	saved *domain.EventReceiverGroup
}

func (f *fakeGroupRepo) Save(_ context.Context, g *domain.EventReceiverGroup) error {
	f.saved = g
	return nil
}
func (f *fakeGroupRepo) FindByID(context.Context, domain.EventReceiverGroupID) (*domain.EventReceiverGroup, error) {
	return nil, nil
}
func (f *fakeGroupRepo) FindByOwner(context.Context, domain.UserID, int, int) ([]*domain.EventReceiverGroup, error) {
	return nil, nil
}
func (f *fakeGroupRepo) IsOwner(context.Context, domain.EventReceiverGroupID, domain.UserID) (bool, error) {
	return false, nil
}
func (f *fakeGroupRepo) GetResourceVersion(context.Context, domain.EventReceiverGroupID) (int64, error) {
	return 0, nil
}
func (f *fakeGroupRepo) Update(context.Context, *domain.EventReceiverGroup, int64) error { return nil }
func (f *fakeGroupRepo) Delete(context.Context, domain.EventReceiverGroupID) error       { return nil }
func (f *fakeGroupRepo) List(context.Context, int, int) ([]*domain.EventReceiverGroup, error) {
	return nil, nil
}
func (f *fakeGroupRepo) IsMember(context.Context, domain.EventReceiverGroupID, domain.UserID) (bool, error) {
	return false, nil
}
func (f *fakeGroupRepo) GetMembers(context.Context, domain.EventReceiverGroupID) ([]*domain.GroupMembership, error) {
	return nil, nil
}
func (f *fakeGroupRepo) AddMember(context.Context, *domain.GroupMembership) error { return nil }
func (f *fakeGroupRepo) RemoveMember(context.Context, domain.EventReceiverGroupID, domain.UserID) error {
	return nil
}
func (f *fakeGroupRepo) FindGroupsForUser(context.Context, domain.UserID) ([]*domain.EventReceiverGroup, error) {
	return nil, nil
}

func TestGroupHandler_ZeroReceiverGroupPublishesSystemEvent(t *testing.T) {
	groups := &fakeGroupRepo{}
	publisher := newFakePublisher()
	handler := NewGroupHandler(groups, publisher)

	id, err := handler.CreateGroup(context.Background(), CreateGroupParams{
		Name: "on-call", Type: "alerting", Version: "1.0.0", CallerUserID: "U1",
	})
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if groups.saved.ID != id {
		t.Fatalf("saved group id mismatch")
	}
	publisher.waitForPublishes(t, 1)
	if len(publisher.keys) != 1 {
		t.Fatalf("expected one system event published, got %d", len(publisher.keys))
	}
}
