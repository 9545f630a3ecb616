package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xbcsmith/xzepr/internal/domain"
	"github.com/xbcsmith/xzepr/internal/ingest"
	apperrors "github.com/xbcsmith/xzepr/internal/pkg/errors"
)

// receiverResponse is the wire shape for an EventReceiver (spec.md §6).
type receiverResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Version         string `json:"version"`
	Description     string `json:"description"`
	Schema          any    `json:"schema"`
	OwnerID         string `json:"owner_id"`
	ResourceVersion int64  `json:"resource_version"`
	CreatedAt       string `json:"created_at"`
}

func newReceiverResponse(r *domain.EventReceiver) receiverResponse {
	return receiverResponse{
		ID: string(r.ID), Name: r.Name, Type: r.Type, Version: r.Version,
		Description: r.Description, Schema: r.Schema, OwnerID: string(r.OwnerID),
		ResourceVersion: r.ResourceVersion, CreatedAt: r.CreatedAt.Format(timeLayout),
	}
}

const timeLayout = "2006-01-02T15:04:05.000000Z"

type createReceiverRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Schema      any    `json:"schema"`
}

// CreateReceiver handles POST /api/v1/receivers (spec.md §6).
func (s *Server) CreateReceiver(c *gin.Context) {
	var req createReceiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationErrorf("", "request body must be valid JSON"))
		return
	}

	id, err := s.receiverHandler.CreateReceiver(c.Request.Context(), ingest.CreateReceiverParams{
		Name: req.Name, Type: req.Type, Version: req.Version, Description: req.Description,
		Schema: req.Schema, CallerUserID: actorFromCtx(c),
	})
	if err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeReceiverNotFound, "receiver"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": string(id)})
}

// GetReceiver handles GET /api/v1/receivers/{id}.
func (s *Server) GetReceiver(c *gin.Context) {
	id, err := domain.ParseEventReceiverID(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.CodeInvalidID, "malformed receiver id", http.StatusBadRequest))
		return
	}

	r, err := s.receivers.FindByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeReceiverNotFound, "receiver"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newReceiverResponse(r)})
}

// ListReceivers handles GET /api/v1/receivers.
func (s *Server) ListReceivers(c *gin.Context) {
	limit, offset := pageParams(c)
	if err := domain.ValidateLimit(limit); err != nil {
		_ = c.Error(mapDomainError(err, "", ""))
		return
	}

	receivers, err := s.receivers.List(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(apperrors.StorageErrorf(err))
		return
	}

	out := make([]receiverResponse, len(receivers))
	for i, r := range receivers {
		out[i] = newReceiverResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

type updateReceiverRequest struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	Version         string `json:"version"`
	Description     string `json:"description"`
	Schema          any    `json:"schema"`
	ResourceVersion int64  `json:"resource_version"`
}

// UpdateReceiver handles PUT /api/v1/receivers/{id}. Only the owner or an
// admin may reach this handler (enforced by the policy authorization
// middleware stage); the resource_version bump follows the fingerprint
// contributing-fields rule the repository layer already implements
// (spec.md §3).
func (s *Server) UpdateReceiver(c *gin.Context) {
	id, err := domain.ParseEventReceiverID(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.CodeInvalidID, "malformed receiver id", http.StatusBadRequest))
		return
	}

	var req updateReceiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationErrorf("", "request body must be valid JSON"))
		return
	}

	existing, err := s.receivers.FindByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeReceiverNotFound, "receiver"))
		return
	}

	fp, err := domain.ComputeFingerprint(req.Name, req.Type, req.Version, req.Schema)
	if err != nil {
		_ = c.Error(apperrors.ValidationErrorf("schema", "could not canonicalize: "+err.Error()))
		return
	}

	updated := *existing
	updated.Name, updated.Type, updated.Version = req.Name, req.Type, req.Version
	updated.Description, updated.Schema, updated.Fingerprint = req.Description, req.Schema, fp

	// Update reports back the row's actual resource_version, which only
	// moves past req.ResourceVersion when the fingerprint itself changed.
	if err := s.receivers.Update(c.Request.Context(), &updated, req.ResourceVersion); err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeReceiverNotFound, "receiver"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newReceiverResponse(&updated)})
}

// DeleteReceiver handles DELETE /api/v1/receivers/{id}.
func (s *Server) DeleteReceiver(c *gin.Context) {
	id, err := domain.ParseEventReceiverID(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.CodeInvalidID, "malformed receiver id", http.StatusBadRequest))
		return
	}

	if err := s.receivers.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(mapDomainError(err, apperrors.CodeReceiverNotFound, "receiver"))
		return
	}

	c.Status(http.StatusNoContent)
}
