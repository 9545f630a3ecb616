package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/xbcsmith/xzepr/internal/domain"
)

func TestCreateEvent_MissingReceiverReturns404(t *testing.T) {
	s, _, _, _, _, _ := newTestServer()
	router := newTestRouter(http.MethodPost, "/api/v1/events", "U1", s.CreateEvent)

	body, _ := json.Marshal(createEventRequest{
		Name: "n", Version: "v", EventReceiverID: string(domain.NewEventReceiverID()),
		Payload: map[string]any{"name": "joe"},
	})
	w := doRequest(router, http.MethodPost, "/api/v1/events", body)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body=%s", w.Code, w.Body.String())
	}
}

func TestCreateEvent_ThenGetEventRoundTrips(t *testing.T) {
	s, receivers, _, _, _, _ := newTestServer()
	createRouter := newTestRouter(http.MethodPost, "/api/v1/events", "U1", s.CreateEvent)
	getRouter := newTestRouter(http.MethodGet, "/api/v1/events/:id", "U1", s.GetEvent)

	owner := domain.UserID("U1")
	receiver, err := domain.NewEventReceiver(domain.NewEventReceiverParams{
		Name: "foobar", Type: "foo.bar", Version: "1.1.3", Schema: testSchema(), OwnerID: owner,
	}, time.Now())
	if err != nil {
		t.Fatalf("NewEventReceiver() error = %v", err)
	}
	if _, err := receivers.Save(nil, receiver); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	body, _ := json.Marshal(createEventRequest{
		Name: "magnificent", Version: "1.0.0", EventReceiverID: string(receiver.ID),
		Payload: map[string]any{"name": "joe"}, Success: true,
	})
	createW := doRequest(createRouter, http.MethodPost, "/api/v1/events", body)
	if createW.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201; body=%s", createW.Code, createW.Body.String())
	}
	var created struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(createW.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal create response: %v", err)
	}

	getW := doRequest(getRouter, http.MethodGet, "/api/v1/events/"+created.Data, nil)
	if getW.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200; body=%s", getW.Code, getW.Body.String())
	}

	var fetched struct {
		Data eventResponse `json:"data"`
	}
	if err := json.Unmarshal(getW.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("unmarshal get response: %v", err)
	}
	if fetched.Data.Name != "magnificent" {
		t.Errorf("Name = %q, want magnificent", fetched.Data.Name)
	}
}

func TestListEvents_FiltersByReceiverID(t *testing.T) {
	s, receivers, _, _, _, _ := newTestServer()
	createRouter := newTestRouter(http.MethodPost, "/api/v1/events", "U1", s.CreateEvent)
	listRouter := newTestRouter(http.MethodGet, "/api/v1/events", "U1", s.ListEvents)

	owner := domain.UserID("U1")
	receiver, _ := domain.NewEventReceiver(domain.NewEventReceiverParams{
		Name: "foobar", Type: "foo.bar", Version: "1.1.3", Schema: testSchema(), OwnerID: owner,
	}, time.Now())
	_, _ = receivers.Save(nil, receiver)

	body, _ := json.Marshal(createEventRequest{
		Name: "n", Version: "v", EventReceiverID: string(receiver.ID), Payload: map[string]any{"name": "a"},
	})
	doRequest(createRouter, http.MethodPost, "/api/v1/events", body)

	w := doRequest(listRouter, http.MethodGet, "/api/v1/events?event_receiver_id="+string(receiver.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []eventResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("len(resp.Data) = %d, want 1", len(resp.Data))
	}
}
