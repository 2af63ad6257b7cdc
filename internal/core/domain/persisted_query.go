package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// PersistedQueryExtensionKey is the extensions key carrying APQ metadata.
const PersistedQueryExtensionKey = "persistedQuery"

// PersistedQuery is the parsed extensions.persistedQuery object.
type PersistedQuery struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

// ParsePersistedQuery extracts the persistedQuery extension. present is false
// when the key is absent. A present but malformed value returns an error and
// present=true so callers can reject it rather than ignore it.
func ParsePersistedQuery(extensions map[string]any) (pq PersistedQuery, present bool, err error) {
	raw, ok := extensions[PersistedQueryExtensionKey]
	if !ok || raw == nil {
		return PersistedQuery{}, false, nil
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return PersistedQuery{}, true, fmt.Errorf("persistedQuery must be an object, got %T", raw)
	}

	version, err := intValue(obj["version"])
	if err != nil {
		return PersistedQuery{}, true, fmt.Errorf("persistedQuery.version: %w", err)
	}
	pq.Version = version

	// A missing or non-string hash never matches anything; leave it empty.
	if h, ok := obj["sha256Hash"].(string); ok {
		pq.SHA256Hash = h
	}

	return pq, true, nil
}

func intValue(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing")
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("not an integer: %s", n)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
