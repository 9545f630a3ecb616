package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xbcsmith/xzepr/internal/cloudevents"
	"github.com/xbcsmith/xzepr/internal/domain"
	"github.com/xbcsmith/xzepr/internal/pkg/logger"
)

// ReceiverHandler implements create_event_receiver (spec.md §4.4).
type ReceiverHandler struct {
	receivers domain.EventReceiverRepository
	publisher Publisher
}

func NewReceiverHandler(receivers domain.EventReceiverRepository, publisher Publisher) *ReceiverHandler {
	return &ReceiverHandler{receivers: receivers, publisher: publisher}
}

// CreateReceiverParams carries the caller-supplied receiver fields.
type CreateReceiverParams struct {
	Name         string
	Type         string
	Version      string
	Description  string
	Schema       any
	CallerUserID domain.UserID
}

// CreateReceiver persists a new EventReceiver, or returns the id of an
// existing one with a matching fingerprint (spec.md §3 idempotent-creation
// invariant), and emits a system event only for a genuinely new row.
func (h *ReceiverHandler) CreateReceiver(ctx context.Context, p CreateReceiverParams) (domain.EventReceiverID, error) {
	candidate, err := domain.NewEventReceiver(domain.NewEventReceiverParams{
		Name: p.Name, Type: p.Type, Version: p.Version, Description: p.Description,
		Schema: p.Schema, OwnerID: p.CallerUserID,
	}, time.Now())
	if err != nil {
		return "", err
	}

	storedID, err := h.receivers.Save(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("persist event receiver: %w", err)
	}

	if storedID != candidate.ID {
		// An existing receiver already carries this fingerprint; no new row,
		// no system event (spec.md §3, §4.4).
		return storedID, nil
	}

	h.publishSystemEvent(cloudevents.SystemEventReceiverCreated, string(storedID), candidate.CreatedAt,
		map[string]any{"id": string(storedID), "name": candidate.Name, "type": candidate.Type, "version": candidate.Version})

	return storedID, nil
}

// publishSystemEvent runs asynchronously on a context detached from the
// request (spec.md §4.4 point 6) so a client disconnect can't abort a
// publish for a row that's already committed.
func (h *ReceiverHandler) publishSystemEvent(typ cloudevents.SystemEventType, eventReceiverID string, createdAt time.Time, payload any) {
	if h.publisher == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(context.Background()), 5*time.Second)
		defer cancel()

		envelope := cloudevents.BuildSystemEvent(string(domain.NewEventID()), typ, eventReceiverID, createdAt, payload)
		data, err := envelope.Marshal()
		if err != nil {
			logger.Error("failed to marshal system event envelope", zap.String("type", string(typ)), zap.Error(err))
			publicationFailures.Inc()
			return
		}

		if err := h.publisher.Publish(ctx, envelope.ID, data); err != nil {
			logger.Error("failed to publish system event", zap.String("type", string(typ)), zap.Error(err))
			publicationFailures.Inc()
		}
	}()
}
