package handlers

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xbcsmith/xzepr/internal/api/middleware"
	"github.com/xbcsmith/xzepr/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withActor injects an authenticated principal onto the request context the
// way middleware.RequireAuth does in production, ahead of the actual route
// handler under test.
func withActor(userID domain.UserID) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := middleware.SetUserContext(c.Request.Context(), string(userID), nil, nil)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// newTestRouter wires a single route behind middleware.ErrorHandler and an
// authenticated actor, matching the production middleware chain closely
// enough that a handler's c.Error(...) calls render through the same
// envelope (internal/api/middleware/error_handler_test.go's pattern).
func newTestRouter(method, path string, userID domain.UserID, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(withActor(userID))
	router.Handle(method, path, handler)
	return router
}

func doRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var reqBody *bytes.Reader
	if body == nil {
		reqBody = bytes.NewReader(nil)
	} else {
		reqBody = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

type fakeReceiverRepo struct {
	byID map[domain.EventReceiverID]*domain.EventReceiver
}

func newFakeReceiverRepo() *fakeReceiverRepo {
	return &fakeReceiverRepo{byID: map[domain.EventReceiverID]*domain.EventReceiver{}}
}

func (f *fakeReceiverRepo) Save(_ context.Context, r *domain.EventReceiver) (domain.EventReceiverID, error) {
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

type fakeEventRepo struct {
	byID map[domain.EventID]*domain.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: map[domain.EventID]*domain.Event{}}
}

func (f *fakeEventRepo) Save(_ context.Context, e *domain.Event) error {
	f.byID[e.ID] = e
	return nil
}
func (f *fakeEventRepo) FindByID(_ context.Context, id domain.EventID) (*domain.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}
func (f *fakeEventRepo) FindByOwner(context.Context, domain.UserID, int, int) ([]*domain.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) FindByReceiverID(context.Context, domain.EventReceiverID, int, int) ([]*domain.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) FindByTimeRange(context.Context, time.Time, time.Time, int, int) ([]*domain.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) FindByCriteria(_ context.Context, criteria domain.EventCriteria) ([]*domain.Event, error) {
	out := make([]*domain.Event, 0, len(f.byID))
	for _, e := range f.byID {
		if criteria.ReceiverID != nil && e.EventReceiverID != *criteria.ReceiverID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
func (f *fakeEventRepo) IsOwner(context.Context, domain.EventID, domain.UserID) (bool, error) {
	return false, nil
}
func (f *fakeEventRepo) GetResourceVersion(context.Context, domain.EventID) (int64, error) {
	return 0, nil
}
func (f *fakeEventRepo) Count(context.Context) (int64, error) { return int64(len(f.byID)), nil }
func (f *fakeEventRepo) CountByReceiverID(context.Context, domain.EventReceiverID) (int64, error) {
	return 0, nil
}

type fakeGroupRepo struct {
	byID    map[domain.EventReceiverGroupID]*domain.EventReceiverGroup
	members map[domain.EventReceiverGroupID][]*domain.GroupMembership
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		byID:    map[domain.EventReceiverGroupID]*domain.EventReceiverGroup{},
		members: map[domain.EventReceiverGroupID][]*domain.GroupMembership{},
	}
}

func (f *fakeGroupRepo) Save(_ context.Context, g *domain.EventReceiverGroup) error {
	f.byID[g.ID] = g
	return nil
}
func (f *fakeGroupRepo) FindByID(_ context.Context, id domain.EventReceiverGroupID) (*domain.EventReceiverGroup, error) {
	g, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return g, nil
}
func (f *fakeGroupRepo) FindByOwner(context.Context, domain.UserID, int, int) ([]*domain.EventReceiverGroup, error) {
	return nil, nil
}
func (f *fakeGroupRepo) IsOwner(_ context.Context, id domain.EventReceiverGroupID, userID domain.UserID) (bool, error) {
	g, ok := f.byID[id]
	return ok && g.OwnerID == userID, nil
}
func (f *fakeGroupRepo) GetResourceVersion(_ context.Context, id domain.EventReceiverGroupID) (int64, error) {
	g, ok := f.byID[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return g.ResourceVersion, nil
}
func (f *fakeGroupRepo) Update(_ context.Context, g *domain.EventReceiverGroup, expectedVersion int64) error {
	existing, ok := f.byID[g.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.ResourceVersion != expectedVersion {
		return domain.NewConflictError("event receiver group was modified by another request")
	}
	g.ResourceVersion = expectedVersion + 1
	f.byID[g.ID] = g
	return nil
}
func (f *fakeGroupRepo) Delete(_ context.Context, id domain.EventReceiverGroupID) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}
func (f *fakeGroupRepo) List(context.Context, int, int) ([]*domain.EventReceiverGroup, error) {
	out := make([]*domain.EventReceiverGroup, 0, len(f.byID))
	for _, g := range f.byID {
		out = append(out, g)
	}
	return out, nil
}
func (f *fakeGroupRepo) IsMember(_ context.Context, groupID domain.EventReceiverGroupID, userID domain.UserID) (bool, error) {
	for _, m := range f.members[groupID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeGroupRepo) GetMembers(_ context.Context, groupID domain.EventReceiverGroupID) ([]*domain.GroupMembership, error) {
	return f.members[groupID], nil
}
func (f *fakeGroupRepo) AddMember(_ context.Context, m *domain.GroupMembership) error {
	for _, existing := range f.members[m.GroupID] {
		if existing.UserID == m.UserID {
			return domain.NewConflictError("user is already a member of this group")
		}
	}
	f.members[m.GroupID] = append(f.members[m.GroupID], m)
	return nil
}
func (f *fakeGroupRepo) RemoveMember(_ context.Context, groupID domain.EventReceiverGroupID, userID domain.UserID) error {
	members := f.members[groupID]
	for i, m := range members {
		if m.UserID == userID {
			f.members[groupID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
func (f *fakeGroupRepo) FindGroupsForUser(context.Context, domain.UserID) ([]*domain.EventReceiverGroup, error) {
	return nil, nil
}

type fakeUserRepo struct {
	byID             map[domain.UserID]*domain.User
	byUsername       map[string]*domain.User
	byProviderSubKey map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID: map[domain.UserID]*domain.User{}, byUsername: map[string]*domain.User{},
		byProviderSubKey: map[string]*domain.User{},
	}
}

func (f *fakeUserRepo) Save(_ context.Context, u *domain.User) error {
	f.byID[u.ID] = u
	f.byUsername[u.Username] = u
	f.byProviderSubKey[string(u.Provider)+"|"+u.ProviderSubject] = u
	return nil
}
func (f *fakeUserRepo) FindByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}
func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}
func (f *fakeUserRepo) FindByProviderSubject(_ context.Context, provider domain.Provider, subject string) (*domain.User, error) {
	u, ok := f.byProviderSubKey[string(provider)+"|"+subject]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}
func (f *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[u.ID] = u
	return nil
}

type fakePublisher struct{ keys []string }

func (p *fakePublisher) Publish(_ context.Context, key string, _ []byte) error {
	p.keys = append(p.keys, key)
	return nil
}
