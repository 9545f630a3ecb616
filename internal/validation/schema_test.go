package validation

import (
	"context"
	"testing"
)

func TestValidator_ValidPayload(t *testing.T) {
	v := NewValidator()
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []any{"name"},
	}

	if err := v.Validate(context.Background(), schema, map[string]any{"name": "joe"}); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidator_MissingRequiredField(t *testing.T) {
	v := NewValidator()
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []any{"name"},
	}

	err := v.Validate(context.Background(), schema, map[string]any{})
	if err == nil {
		t.Fatal("Validate() expected error for missing required field, got nil")
	}
}

func TestValidator_CachesCompiledSchema(t *testing.T) {
	v := NewValidator()
	schema := map[string]any{"type": "object"}

	_ = v.Validate(context.Background(), schema, map[string]any{})
	v.mu.RLock()
	cacheSize := len(v.cache)
	v.mu.RUnlock()
	if cacheSize != 1 {
		t.Errorf("cache size = %d, want 1", cacheSize)
	}

	_ = v.Validate(context.Background(), schema, map[string]any{})
	v.mu.RLock()
	cacheSize = len(v.cache)
	v.mu.RUnlock()
	if cacheSize != 1 {
		t.Errorf("cache size after repeat validate = %d, want 1 (should reuse compiled schema)", cacheSize)
	}
}
