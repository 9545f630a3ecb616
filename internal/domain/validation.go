package domain

import "context"

// SchemaError reports a JSON-Schema validation failure at a JSON-pointer
// path (spec.md §4.2).
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string { return e.Path + ": " + e.Message }

// SchemaValidator is the validation port: "validate(schema, payload) → Ok |
// SchemaError{path, message}" (spec.md §4.2). Implementations must support
// at minimum draft-07 object/array/string/number types and the `required`
// keyword.
type SchemaValidator interface {
	Validate(ctx context.Context, schema, payload any) error
}
