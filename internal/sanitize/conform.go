package sanitize

import (
	"encoding/json"
	"fmt"
)

// Conform is the structural-clone gate: it verifies that v can be serialized
// into the outbox payload column. Values that survive [Sanitize] normally
// pass, but edge cases remain (NaN floats, custom marshalers that error).
func Conform(v any) error {
	if _, err := json.Marshal(v); err != nil {
		return fmt.Errorf("value is not clone-safe: %w", err)
	}
	return nil
}

// Prune makes tree conform by removing offending subtrees bottom-up: the
// whole tree is tried first, then each failing field, recursing into failing
// maps and lists, so a single bad leaf costs only that leaf rather than the
// whole mutation. The tree is modified in place and also returned.
func Prune(tree map[string]any) map[string]any {
	if tree == nil || Conform(tree) == nil {
		return tree
	}

	for key, value := range tree {
		if Conform(value) == nil {
			continue
		}
		if replacement, ok := pruneValue(value); ok {
			tree[key] = replacement
		} else {
			delete(tree, key)
		}
	}
	return tree
}

// pruneValue attempts to salvage a non-conforming value. It returns the
// salvaged replacement and true, or false when the value must be removed.
func pruneValue(v any) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return Prune(t), true
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			if Conform(item) == nil {
				out = append(out, item)
				continue
			}
			if replacement, ok := pruneValue(item); ok {
				out = append(out, replacement)
			} else {
				out = append(out, nil)
			}
		}
		return out, true
	default:
		// scalar that cannot serialize (NaN, failing marshaler) — remove
		return nil, false
	}
}
