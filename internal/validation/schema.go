// Package validation implements the JSON-Schema validation port
// (spec.md §4.2) with github.com/xeipuuv/gojsonschema.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/xbcsmith/xzepr/internal/domain"
)

// Validator implements domain.SchemaValidator and caches compiled schemas
// keyed by their JSON encoding so repeated ingestion against the same
// receiver does not recompile the schema on every call — modeled on the
// SchemaCache pattern used by production JSON-Schema-gated event
// processors in the reference pack.
type Validator struct {
	mu    sync.RWMutex
	cache map[domain.Fingerprint]*gojsonschema.Schema
}

// NewValidator constructs an empty, ready-to-use Validator.
func NewValidator() *Validator {
	return &Validator{cache: make(map[domain.Fingerprint]*gojsonschema.Schema)}
}

// Validate checks payload against schema. schema/payload are the decoded
// JSON values (map[string]any, []any, or primitives) as stored/received.
// The schema is compiled from its in-memory encoding; remote $ref targets
// are not blocked, and gojsonschema's default loader fetches them when the
// schema is compiled.
func (v *Validator) Validate(ctx context.Context, schema, payload any) error {
	compiled, err := v.compile(schema)
	if err != nil {
		return domain.NewValidationError("schema", "invalid JSON Schema document: "+err.Error())
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return domain.NewValidationError("payload", "payload is not valid JSON: "+err.Error())
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(payloadBytes))
	if err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) == 0 {
			return &domain.SchemaError{Path: "/", Message: "payload does not match schema"}
		}
		first := errs[0]
		return &domain.SchemaError{
			Path:    "/" + first.Field(),
			Message: first.Description(),
		}
	}
	return nil
}

// compile memoizes the gojsonschema.Schema by the schema document's JSON
// encoding so concurrent requests against the same receiver share one
// compiled schema.
func (v *Validator) compile(schema any) (*gojsonschema.Schema, error) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	key := domain.Fingerprint(schemaBytes)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.cache[key] = compiled
	v.mu.Unlock()

	return compiled, nil
}

// Invalidate drops a cached compiled schema. Nothing in the service calls
// it; a changed schema document encodes to a different key, so it is
// compiled afresh, and the old entry stays cached.
func (v *Validator) Invalidate(schema any) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return
	}
	key := domain.Fingerprint(schemaBytes)
	v.mu.Lock()
	delete(v.cache, key)
	v.mu.Unlock()
}
