package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xbcsmith/xzepr/internal/domain"
	"github.com/xbcsmith/xzepr/internal/ingest"
	apperrors "github.com/xbcsmith/xzepr/internal/pkg/errors"
)

// groupResponse is the wire shape for an EventReceiverGroup (spec.md §6).
type groupResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Version          string   `json:"version"`
	Description      string   `json:"description"`
	Enabled          bool     `json:"enabled"`
	EventReceiverIDs []string `json:"event_receiver_ids"`
	OwnerID          string   `json:"owner_id"`
	ResourceVersion  int64    `json:"resource_version"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

func newGroupResponse(g *domain.EventReceiverGroup) groupResponse {
	ids := make([]string, len(g.EventReceiverIDs))
	for i, id := range g.EventReceiverIDs {
		ids[i] = string(id)
	}
	return groupResponse{
		ID: string(g.ID), Name: g.Name, Type: g.Type, Version: g.Version,
		Description: g.Description, Enabled: g.Enabled, EventReceiverIDs: ids,
		OwnerID: string(g.OwnerID), ResourceVersion: g.ResourceVersion,
		CreatedAt: g.CreatedAt.Format(timeLayout), UpdatedAt: g.UpdatedAt.Format(timeLayout),
	}
}

type membershipResponse struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
	AddedBy string `json:"added_by"`
	AddedAt string `json:"added_at"`
}

func newMembershipResponse(m *domain.GroupMembership) membershipResponse {
	return membershipResponse{
		GroupID: string(m.GroupID), UserID: string(m.UserID), AddedBy: string(m.AddedBy),
		AddedAt: m.AddedAt.Format(timeLayout),
	}
}

type createGroupRequest struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Version          string   `json:"version"`
	Description      string   `json:"description"`
	Enabled          bool     `json:"enabled"`
	EventReceiverIDs []string `json:"event_receiver_ids"`
}

// CreateGroup handles POST /api/v1/groups (spec.md §6).
func (s *Server) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationErrorf("", "request body must be valid JSON"))
		return
	}

	receiverIDs := make([]domain.EventReceiverID, len(req.EventReceiverIDs))
	for i, raw := range req.EventReceiverIDs {
		id, err := domain.ParseEventReceiverID(raw)
		if err != nil {
			_ = c.Error(apperrors.ValidationErrorf("event_receiver_ids", "must all be well-formed ids"))
			return
		}
		receiverIDs[i] = id
	}

	id, err := s.groupHandler.CreateGroup(c.Request.Context(), ingest.CreateGroupParams{
		Name: req.Name, Type: req.Type, Version: req.Version, Description: req.Description,
		Enabled: req.Enabled, EventReceiverIDs: receiverIDs, CallerUserID: actorFromCtx(c),
	})
	if err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeGroupNotFound, "group"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": string(id)})
}

// GetGroup handles GET /api/v1/groups/{id}.
func (s *Server) GetGroup(c *gin.Context) {
	id, err := domain.ParseEventReceiverGroupID(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.CodeInvalidID, "malformed group id", http.StatusBadRequest))
		return
	}

	g, err := s.groups.FindByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeGroupNotFound, "group"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newGroupResponse(g)})
}

// ListGroups handles GET /api/v1/groups.
func (s *Server) ListGroups(c *gin.Context) {
	limit, offset := pageParams(c)
	if err := domain.ValidateLimit(limit); err != nil {
		_ = c.Error(mapDomainError(err, "", ""))
		return
	}

	groups, err := s.groups.List(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(apperrors.StorageErrorf(err))
		return
	}

	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = newGroupResponse(g)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

type updateGroupRequest struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Version          string   `json:"version"`
	Description      string   `json:"description"`
	Enabled          bool     `json:"enabled"`
	EventReceiverIDs []string `json:"event_receiver_ids"`
	ResourceVersion  int64    `json:"resource_version"`
}

// UpdateGroup handles PUT /api/v1/groups/{id}. Only the owner may reach this
// handler (enforced by the policy authorization middleware stage).
func (s *Server) UpdateGroup(c *gin.Context) {
	id, err := domain.ParseEventReceiverGroupID(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.CodeInvalidID, "malformed group id", http.StatusBadRequest))
		return
	}

	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationErrorf("", "request body must be valid JSON"))
		return
	}

	existing, err := s.groups.FindByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeGroupNotFound, "group"))
		return
	}

	receiverIDs := make([]domain.EventReceiverID, len(req.EventReceiverIDs))
	for i, raw := range req.EventReceiverIDs {
		rid, err := domain.ParseEventReceiverID(raw)
		if err != nil {
			_ = c.Error(apperrors.ValidationErrorf("event_receiver_ids", "must all be well-formed ids"))
			return
		}
		receiverIDs[i] = rid
	}

	updated := *existing
	updated.Name, updated.Type, updated.Version = req.Name, req.Type, req.Version
	updated.Description, updated.Enabled = req.Description, req.Enabled
	updated.EventReceiverIDs = receiverIDs
	updated.ResourceVersion = req.ResourceVersion

	if err := s.groups.Update(c.Request.Context(), &updated, req.ResourceVersion); err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeGroupNotFound, "group"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newGroupResponse(&updated)})
}

// DeleteGroup handles DELETE /api/v1/groups/{id}.
func (s *Server) DeleteGroup(c *gin.Context) {
	id, err := domain.ParseEventReceiverGroupID(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.CodeInvalidID, "malformed group id", http.StatusBadRequest))
		return
	}

	if err := s.groups.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeGroupNotFound, "group"))
		return
	}

	c.Status(http.StatusNoContent)
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

// AddMember handles POST /api/v1/groups/{id}/members. Only the group owner
// may reach this handler; a user_id matching the caller is rejected since
// domain.NewGroupMembership forbids self-add (spec.md §3).
func (s *Server) AddMember(c *gin.Context) {
	groupID, err := domain.ParseEventReceiverGroupID(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.CodeInvalidID, "malformed group id", http.StatusBadRequest))
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationErrorf("", "request body must be valid JSON"))
		return
	}

	userID, err := domain.ParseUserID(req.UserID)
	if err != nil {
		_ = c.Error(apperrors.ValidationErrorf("user_id", "must be a well-formed id"))
		return
	}

	membership, err := domain.NewGroupMembership(groupID, userID, actorFromCtx(c), time.Now())
	if err != nil {
		_ = c.Error(mapDomainError(err, "", ""))
		return
	}

	if err := s.groups.AddMember(c.Request.Context(), membership); err != nil {
		_ = c.Error(mapMembershipError(err, apperrors.CodeGroupNotFound, "group"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newMembershipResponse(membership)})
}

type removeMemberRequest struct {
	UserID string `json:"user_id"`
}

// RemoveMember handles DELETE /api/v1/groups/{id}/members (spec.md §6: the
// target user travels in the body, not the path).
func (s *Server) RemoveMember(c *gin.Context) {
	groupID, err := domain.ParseEventReceiverGroupID(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.CodeInvalidID, "malformed group id", http.StatusBadRequest))
		return
	}

	var req removeMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationErrorf("", "request body must be valid JSON"))
		return
	}

	userID, err := domain.ParseUserID(req.UserID)
	if err != nil {
		_ = c.Error(apperrors.ValidationErrorf("user_id", "must be a well-formed id"))
		return
	}

	if err := s.groups.RemoveMember(c.Request.Context(), groupID, userID); err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeMembershipNotFound, "membership"))
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMembers handles GET /api/v1/groups/{id}/members. Requires the caller
// be the owner or a member (spec.md §4.9 point 4).
func (s *Server) ListMembers(c *gin.Context) {
	groupID, err := domain.ParseEventReceiverGroupID(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.CodeInvalidID, "malformed group id", http.StatusBadRequest))
		return
	}

	members, err := s.groups.GetMembers(c.Request.Context(), groupID)
	if err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeGroupNotFound, "group"))
		return
	}

	out := make([]membershipResponse, len(members))
	for i, m := range members {
		out[i] = newMembershipResponse(m)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
