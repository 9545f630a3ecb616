package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xbcsmith/xzepr/internal/domain"
	"github.com/xbcsmith/xzepr/internal/ingest"
	apperrors "github.com/xbcsmith/xzepr/internal/pkg/errors"
)

// eventResponse is the wire shape for an Event (spec.md §6). Events are
// immutable once created, so unlike receiverResponse there is no update path.
type eventResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Version         string `json:"version"`
	Release         string `json:"release"`
	PlatformID      string `json:"platform_id"`
	Package         string `json:"package"`
	Description     string `json:"description"`
	Payload         any    `json:"payload"`
	Success         bool   `json:"success"`
	EventReceiverID string `json:"event_receiver_id"`
	OwnerID         string `json:"owner_id"`
	ResourceVersion int64  `json:"resource_version"`
	CreatedAt       string `json:"created_at"`
}

func newEventResponse(e *domain.Event) eventResponse {
	return eventResponse{
		ID: string(e.ID), Name: e.Name, Version: e.Version, Release: e.Release,
		PlatformID: e.PlatformID, Package: e.Package, Description: e.Description,
		Payload: e.Payload, Success: e.Success, EventReceiverID: string(e.EventReceiverID),
		OwnerID: string(e.OwnerID), ResourceVersion: e.ResourceVersion,
		CreatedAt: e.CreatedAt.Format(timeLayout),
	}
}

type createEventRequest struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Release         string `json:"release"`
	PlatformID      string `json:"platform_id"`
	Package         string `json:"package"`
	Description     string `json:"description"`
	Payload         any    `json:"payload"`
	Success         bool   `json:"success"`
	EventReceiverID string `json:"event_receiver_id"`
}

// CreateEvent handles POST /api/v1/events (spec.md §6).
func (s *Server) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationErrorf("", "request body must be valid JSON"))
		return
	}

	id, err := s.eventHandler.CreateEvent(c.Request.Context(), ingest.CreateEventParams{
		Name: req.Name, Version: req.Version, Release: req.Release, PlatformID: req.PlatformID,
		Package: req.Package, Description: req.Description, Payload: req.Payload, Success: req.Success,
		EventReceiverID: req.EventReceiverID, CallerUserID: actorFromCtx(c),
	})
	if err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeReceiverNotFound, "event receiver"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": string(id)})
}

// GetEvent handles GET /api/v1/events/{id}.
func (s *Server) GetEvent(c *gin.Context) {
	id, err := domain.ParseEventID(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.CodeInvalidID, "malformed event id", http.StatusBadRequest))
		return
	}

	e, err := s.events.FindByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeEventNotFound, "event"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newEventResponse(e)})
}

// ListEvents handles GET /api/v1/events, filterable by event_receiver_id
// (spec.md §4.3 list contract).
func (s *Server) ListEvents(c *gin.Context) {
	limit, offset := pageParams(c)
	if err := domain.ValidateLimit(limit); err != nil {
		_ = c.Error(mapDomainError(err, "", ""))
		return
	}

	criteria := domain.EventCriteria{Limit: limit, Offset: offset}
	if raw := c.Query("event_receiver_id"); raw != "" {
		receiverID, err := domain.ParseEventReceiverID(raw)
		if err != nil {
			_ = c.Error(apperrors.ValidationErrorf("event_receiver_id", "must be a well-formed id"))
			return
		}
		criteria.ReceiverID = &receiverID
	}

	events, err := s.events.FindByCriteria(c.Request.Context(), criteria)
	if err != nil {
		_ = c.Error(apperrors.StorageErrorf(err))
		return
	}

	out := make([]eventResponse, len(events))
	for i, e := range events {
		out[i] = newEventResponse(e)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
