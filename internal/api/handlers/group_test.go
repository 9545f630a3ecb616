package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/xbcsmith/xzepr/internal/domain"
)

func TestCreateGroup_ZeroReceiversReturnsCreated(t *testing.T) {
	s, _, _, _, _, _ := newTestServer()
	router := newTestRouter(http.MethodPost, "/api/v1/groups", "U1", s.CreateGroup)

	body, _ := json.Marshal(createGroupRequest{Name: "on-call", Type: "alerting", Version: "1.0.0"})
	w := doRequest(router, http.MethodPost, "/api/v1/groups", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", w.Code, w.Body.String())
	}
}

func TestAddMember_DuplicateReturnsConflictWithDuplicateMemberCode(t *testing.T) {
	s, _, _, groups, _, _ := newTestServer()
	owner := domain.NewUserID()
	router := newTestRouter(http.MethodPost, "/api/v1/groups/:id/members", owner, s.AddMember)

	group, err := domain.NewEventReceiverGroup(domain.NewEventReceiverGroupParams{
		Name: "on-call", Type: "alerting", Version: "1.0.0", OwnerID: owner,
	}, time.Now())
	if err != nil {
		t.Fatalf("NewEventReceiverGroup() error = %v", err)
	}
	if err := groups.Save(nil, group); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	body, _ := json.Marshal(addMemberRequest{UserID: string(domain.NewUserID())})
	w1 := doRequest(router, http.MethodPost, "/api/v1/groups/"+string(group.ID)+"/members", body)
	if w1.Code != http.StatusCreated {
		t.Fatalf("first add status = %d, want 201; body=%s", w1.Code, w1.Body.String())
	}

	w2 := doRequest(router, http.MethodPost, "/api/v1/groups/"+string(group.ID)+"/members", body)
	if w2.Code != http.StatusConflict {
		t.Fatalf("second add status = %d, want 409; body=%s", w2.Code, w2.Body.String())
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error != "duplicate_member" {
		t.Errorf("error = %q, want duplicate_member", resp.Error)
	}
}

func TestAddMember_SelfAddRejected(t *testing.T) {
	s, _, _, groups, _, _ := newTestServer()
	owner := domain.NewUserID()
	router := newTestRouter(http.MethodPost, "/api/v1/groups/:id/members", owner, s.AddMember)

	group, _ := domain.NewEventReceiverGroup(domain.NewEventReceiverGroupParams{
		Name: "on-call", Type: "alerting", Version: "1.0.0", OwnerID: owner,
	}, time.Now())
	_ = groups.Save(nil, group)

	body, _ := json.Marshal(addMemberRequest{UserID: string(owner)})
	w := doRequest(router, http.MethodPost, "/api/v1/groups/"+string(group.ID)+"/members", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", w.Code, w.Body.String())
	}
}

func TestRemoveMember_NotFoundMapsToMembershipNotFound(t *testing.T) {
	s, _, _, groups, _, _ := newTestServer()
	owner := domain.NewUserID()
	router := newTestRouter(http.MethodDelete, "/api/v1/groups/:id/members", owner, s.RemoveMember)

	group, _ := domain.NewEventReceiverGroup(domain.NewEventReceiverGroupParams{
		Name: "on-call", Type: "alerting", Version: "1.0.0", OwnerID: owner,
	}, time.Now())
	_ = groups.Save(nil, group)

	body, _ := json.Marshal(removeMemberRequest{UserID: string(domain.NewUserID())})
	w := doRequest(router, http.MethodDelete, "/api/v1/groups/"+string(group.ID)+"/members", body)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body=%s", w.Code, w.Body.String())
	}
}

func TestListMembers_ReturnsAddedMembers(t *testing.T) {
	s, _, _, groups, _, _ := newTestServer()
	owner := domain.NewUserID()
	member := domain.NewUserID()
	addRouter := newTestRouter(http.MethodPost, "/api/v1/groups/:id/members", owner, s.AddMember)
	listRouter := newTestRouter(http.MethodGet, "/api/v1/groups/:id/members", owner, s.ListMembers)

	group, _ := domain.NewEventReceiverGroup(domain.NewEventReceiverGroupParams{
		Name: "on-call", Type: "alerting", Version: "1.0.0", OwnerID: owner,
	}, time.Now())
	_ = groups.Save(nil, group)

	body, _ := json.Marshal(addMemberRequest{UserID: string(member)})
	doRequest(addRouter, http.MethodPost, "/api/v1/groups/"+string(group.ID)+"/members", body)

	w := doRequest(listRouter, http.MethodGet, "/api/v1/groups/"+string(group.ID)+"/members", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []membershipResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].UserID != string(member) {
		t.Fatalf("resp.Data = %+v, want one membership for %s", resp.Data, member)
	}
}
