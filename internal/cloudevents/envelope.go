// Package cloudevents builds the CloudEvents 1.0.1 envelope XZepr
// publishes as the Kafka message value (spec.md §4.5).
//
// Header-constant naming follows the Ce-* convention used by CloudEvents
// HTTP bindings in the reference pack's OpenTelemetry collector exporter,
// adapted here to name the JSON attributes of the message-mode envelope.
package cloudevents

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xbcsmith/xzepr/internal/domain"
)

const specVersion = "1.0.1"

// Attribute name constants for the envelope's required/extension fields.
const (
	AttrID          = "id"
	AttrSpecVersion = "specversion"
	AttrType        = "type"
	AttrSource      = "source"
	AttrSuccess     = "success"
	AttrAPIVersion  = "api_version"
	AttrName        = "name"
	AttrVersion     = "version"
	AttrRelease     = "release"
	AttrPlatformID  = "platform_id"
	AttrPackage     = "package"
	AttrData        = "data"

	apiVersionV1 = "v1"
)

// Data is the envelope's `data` object (spec.md §4.5).
type Data struct {
	Description     string `json:"description"`
	EventReceiverID string `json:"event_receiver_id"`
	CreatedAt       string `json:"created_at"`
	Payload         any    `json:"payload"`
}

// Envelope is the full CloudEvents 1.0.1 JSON object XZepr emits.
type Envelope struct {
	ID          string `json:"id"`
	SpecVersion string `json:"specversion"`
	Type        string `json:"type"`
	Source      string `json:"source"`

	Success    bool   `json:"success"`
	APIVersion string `json:"api_version"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	Release    string `json:"release"`
	PlatformID string `json:"platform_id"`
	Package    string `json:"package"`

	Data Data `json:"data"`
}

// BuildForEvent constructs the envelope for an ingested Event (spec.md
// §4.5). The builder is pure: it reads only its arguments.
func BuildForEvent(e *domain.Event) Envelope {
	return Envelope{
		ID:          string(e.ID),
		SpecVersion: specVersion,
		Type:        e.Name,
		Source:      fmt.Sprintf("xzepr.event.receiver.%s", e.EventReceiverID),

		Success:    e.Success,
		APIVersion: apiVersionV1,
		Name:       e.Name,
		Version:    e.Version,
		Release:    e.Release,
		PlatformID: e.PlatformID,
		Package:    e.Package,

		Data: Data{
			Description:     e.Description,
			EventReceiverID: string(e.EventReceiverID),
			CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339Nano),
			Payload:         e.Payload,
		},
	}
}

// SystemEventType names the two system events spec.md §4.4 requires.
type SystemEventType string

const (
	SystemEventReceiverCreated      SystemEventType = "xzepr.event.receiver.created"
	SystemEventReceiverGroupCreated SystemEventType = "xzepr.event.receiver.group.created"
)

// BuildSystemEvent constructs the envelope for a receiver/group creation
// notification. eventReceiverID is the receiver the system event is
// attributed to; for a zero-receiver group, callers pass the group's own
// id as a documented synthetic receiver reference (spec.md §4.4, Open
// Questions; see DESIGN.md).
func BuildSystemEvent(id string, typ SystemEventType, eventReceiverID string, createdAt time.Time, payload any) Envelope {
	return Envelope{
		ID:          id,
		SpecVersion: specVersion,
		Type:        string(typ),
		Source:      fmt.Sprintf("xzepr.event.receiver.%s", eventReceiverID),
		Success:     true,
		APIVersion:  apiVersionV1,
		Name:        string(typ),
		Data: Data{
			EventReceiverID: eventReceiverID,
			CreatedAt:       createdAt.UTC().Format(time.RFC3339Nano),
			Payload:         payload,
		},
	}
}

// Marshal serializes the envelope to the JSON bytes that become the Kafka
// message value.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
