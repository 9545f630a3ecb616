package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/xbcsmith/xzepr/internal/domain"
	"github.com/xbcsmith/xzepr/internal/ingest"
)

func testSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []any{"name"},
	}
}

type passValidator struct{ err error }

func (v passValidator) Validate(context.Context, any, any) error { return v.err }

func newTestServer() (*Server, *fakeReceiverRepo, *fakeEventRepo, *fakeGroupRepo, *fakeUserRepo, *fakePublisher) {
	receivers := newFakeReceiverRepo()
	events := newFakeEventRepo()
	groups := newFakeGroupRepo()
	users := newFakeUserRepo()
	publisher := &fakePublisher{}

	s := NewServer(ServerDeps{
		Receivers:       receivers,
		Events:          events,
		Groups:          groups,
		Users:           users,
		ReceiverHandler: ingest.NewReceiverHandler(receivers, publisher),
		EventHandler:    ingest.NewEventHandler(receivers, events, passValidator{}, publisher),
		GroupHandler:    ingest.NewGroupHandler(groups, publisher),
	})
	return s, receivers, events, groups, users, publisher
}

func TestCreateReceiver_ReturnsCreatedWithID(t *testing.T) {
	s, _, _, _, _, _ := newTestServer()
	router := newTestRouter(http.MethodPost, "/api/v1/receivers", "U1", s.CreateReceiver)

	body, _ := json.Marshal(createReceiverRequest{
		Name: "foobar", Type: "foo.bar", Version: "1.1.3", Schema: testSchema(),
	})
	w := doRequest(router, http.MethodPost, "/api/v1/receivers", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data == "" {
		t.Error("expected non-empty receiver id in response")
	}
}

func TestGetReceiver_NotFoundMapsTo404(t *testing.T) {
	s, _, _, _, _, _ := newTestServer()
	router := newTestRouter(http.MethodGet, "/api/v1/receivers/:id", "U1", s.GetReceiver)

	w := doRequest(router, http.MethodGet, "/api/v1/receivers/"+string(domain.NewEventReceiverID()), nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateReceiver_VersionMismatchMapsToConflict(t *testing.T) {
	s, receivers, _, _, _, _ := newTestServer()
	router := newTestRouter(http.MethodPut, "/api/v1/receivers/:id", "U1", s.UpdateReceiver)

	owner := domain.UserID("U1")
	r, err := domain.NewEventReceiver(domain.NewEventReceiverParams{
		Name: "foobar", Type: "foo.bar", Version: "1.1.3", Schema: testSchema(), OwnerID: owner,
	}, time.Now())
	if err != nil {
		t.Fatalf("NewEventReceiver() error = %v", err)
	}
	if _, err := receivers.Save(nil, r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	body, _ := json.Marshal(updateReceiverRequest{
		Name: "foobar", Type: "foo.bar", Version: "2.0.0", Schema: testSchema(), ResourceVersion: 99,
	})
	w := doRequest(router, http.MethodPut, "/api/v1/receivers/"+string(r.ID), body)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteReceiver_NoContent(t *testing.T) {
	s, receivers, _, _, _, _ := newTestServer()
	router := newTestRouter(http.MethodDelete, "/api/v1/receivers/:id", "U1", s.DeleteReceiver)

	owner := domain.UserID("U1")
	r, _ := domain.NewEventReceiver(domain.NewEventReceiverParams{
		Name: "foobar", Type: "foo.bar", Version: "1.1.3", Schema: testSchema(), OwnerID: owner,
	}, time.Now())
	_, _ = receivers.Save(nil, r)

	w := doRequest(router, http.MethodDelete, "/api/v1/receivers/"+string(r.ID), nil)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204; body=%s", w.Code, w.Body.String())
	}
}

func TestListReceivers_RejectsLimitAboveBound(t *testing.T) {
	s, _, _, _, _, _ := newTestServer()
	router := newTestRouter(http.MethodGet, "/api/v1/receivers", "U1", s.ListReceivers)

	w := doRequest(router, http.MethodGet, "/api/v1/receivers?limit=5000", nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", w.Code, w.Body.String())
	}
}
