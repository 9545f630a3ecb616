// Package ingest orchestrates the validate-persist-publish sequence for
// incoming events, receivers, and receiver groups (spec.md §4.4). This is
// the application layer: it depends on domain and the infrastructure ports
// (repositories, validator, publisher) but has no knowledge of HTTP or
// GraphQL transport.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xbcsmith/xzepr/internal/cloudevents"
	"github.com/xbcsmith/xzepr/internal/domain"
	"github.com/xbcsmith/xzepr/internal/pkg/logger"
)

// Publisher is the subset of broker.Publisher the ingestion handler needs,
// kept as an interface so handler tests do not require a live Kafka broker.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// EventHandler implements create_event (spec.md §4.4).
type EventHandler struct {
	receivers domain.EventReceiverRepository
	events    domain.EventRepository
	validator domain.SchemaValidator
	publisher Publisher
}

func NewEventHandler(receivers domain.EventReceiverRepository, events domain.EventRepository, validator domain.SchemaValidator, publisher Publisher) *EventHandler {
	return &EventHandler{receivers: receivers, events: events, validator: validator, publisher: publisher}
}

// CreateEventParams carries the caller-supplied event fields.
type CreateEventParams struct {
	Name            string
	Version         string
	Release         string
	PlatformID      string
	Package         string
	Description     string
	Payload         any
	Success         bool
	EventReceiverID string
	CallerUserID    domain.UserID
}

// CreateEvent implements spec.md §4.4's create_event steps 1-7.
func (h *EventHandler) CreateEvent(ctx context.Context, p CreateEventParams) (domain.EventID, error) {
	receiverID, err := domain.ParseEventReceiverID(p.EventReceiverID)
	if err != nil {
		return "", domain.NewValidationError("event_receiver_id", "must be a well-formed id")
	}

	receiver, err := h.receivers.FindByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("load event receiver: %w", err)
	}

	if err := h.validator.Validate(ctx, receiver.Schema, p.Payload); err != nil {
		return "", err
	}

	event, err := domain.NewEvent(domain.NewEventParams{
		Name: p.Name, Version: p.Version, Release: p.Release, PlatformID: p.PlatformID,
		Package: p.Package, Description: p.Description, Payload: p.Payload, Success: p.Success,
		EventReceiverID: receiverID, OwnerID: p.CallerUserID,
	}, time.Now())
	if err != nil {
		return "", err
	}

	if err := h.events.Save(ctx, event); err != nil {
		if isForeignKeyViolation(err) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("persist event: %w", err)
	}

	h.publish(event)

	return event.ID, nil
}

// publish hands the already-committed event to the broker asynchronously,
// on a context detached from the request so a client disconnect can't abort
// the publish (spec.md §4.4 point 6: "asynchronously ... hand the Event
// off"; §5's at-least-once intent depends on the commit surviving the
// request). Failures never fail the request (§4.6).
func (h *EventHandler) publish(event *domain.Event) {
	if h.publisher == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(context.Background()), 5*time.Second)
		defer cancel()

		envelope := cloudevents.BuildForEvent(event)
		payload, err := envelope.Marshal()
		if err != nil {
			logger.Error("failed to marshal cloudevents envelope", zap.String("event_id", string(event.ID)), zap.Error(err))
			publicationFailures.Inc()
			return
		}

		if err := h.publisher.Publish(ctx, string(event.ID), payload); err != nil {
			logger.Error("failed to publish event", zap.String("event_id", string(event.ID)), zap.Error(err))
			publicationFailures.Inc()
			return
		}
	}()
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503" // foreign_key_violation
	}
	return false
}
