package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Fingerprint is the hex-encoded SHA-256 digest over the canonical encoding
// of an EventReceiver's (name, type, version, schema) — spec.md §3.
type Fingerprint string

// ComputeFingerprint hashes the canonical JSON encoding of the receiver's
// identifying fields. Canonicalization sorts object keys recursively and
// uses Go's default float formatting (encoding/json already serializes
// numbers deterministically for a given decoded value), satisfying spec.md
// §4.1's "canonicalization MUST sort object keys and use a fixed number
// representation".
func ComputeFingerprint(name, typ, version string, schema any) (Fingerprint, error) {
	canonical, err := canonicalize(map[string]any{
		"name":    name,
		"type":    typ,
		"version": version,
		"schema":  schema,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return Fingerprint(hex.EncodeToString(sum[:])), nil
}

// canonicalize produces a deterministic JSON encoding of v: object keys are
// sorted, and nested maps/slices are walked recursively so the same
// logical document always yields the same byte string regardless of
// construction order.
func canonicalize(v any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// normalize round-trips v through encoding/json to obtain a tree of
// map[string]any/[]any/primitives, then replaces every map with an
// orderedMap so json.Marshal emits keys in sorted order.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return normalizeDecoded(decoded), nil
}

func normalizeDecoded(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		om := orderedMap{keys: keys, values: make(map[string]any, len(t))}
		for _, k := range keys {
			om.values[k] = normalizeDecoded(t[k])
		}
		return om
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeDecoded(e)
		}
		return out
	default:
		return t
	}
}

// orderedMap implements json.Marshaler to emit keys in the sorted order
// captured at normalize time, independent of Go map iteration order.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func (m orderedMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range m.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}
