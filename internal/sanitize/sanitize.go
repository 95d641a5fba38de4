// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package sanitize

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// maxDepth bounds recursion; subtrees beyond it are truncated whole rather
// than left half-processed.
const maxDepth = 32

// Markers substituted for values that cannot be persisted.
const (
	CycleMarker     = "[cycle]"
	TruncatedMarker = "[truncated]"
)

// Deferred is a pending asynchronous result embedded in a payload. Values
// implementing it are resolved before inspection; everything else that is
// callable is dropped without being invoked.
type Deferred interface {
	Resolve(ctx context.Context) (any, error)
}

// Warning records a non-fatal drop or substitution made during sanitization.
type Warning struct {
	// Path locates the affected node, e.g. "customer.contacts[2]".
	Path string
	// Reason says what was removed and why.
	Reason string
}

func (w Warning) String() string {
	return w.Path + ": " + w.Reason
}

// dropped is the internal sentinel distinguishing "value removed" from a
// legitimate nil.
type droppedValue struct{}

var dropped = droppedValue{}

// Sanitize normalizes v into a tree containing only persistence-safe values:
// nil, booleans, numbers, strings, time.Time, []byte, []any, and
// map[string]any. Deferred values are resolved first; callables are dropped
// uninvoked; cycles become CycleMarker; depth overruns become
// TruncatedMarker. Returns nil when nothing safe remains.
//
// Sanitize never returns an error: every problem degrades to a drop plus a
// Warning.
func Sanitize(ctx context.Context, v any) (any, []Warning) {
	w := &walker{ctx: ctx, seen: make(map[uintptr]struct{})}
	out := w.walk(v, "$", 0)
	if out == dropped {
		return nil, w.warnings
	}
	return out, w.warnings
}

// Describe is the safe-placeholder variant of Sanitize: values that Sanitize
// would drop are replaced with descriptive string markers instead, so the
// result stays serializable while showing a human what was removed.
func Describe(ctx context.Context, v any) any {
	w := &walker{ctx: ctx, seen: make(map[uintptr]struct{}), placeholders: true}
	out := w.walk(v, "$", 0)
	if out == dropped {
		return "[unserializable value]"
	}
	return out
}

type walker struct {
	ctx          context.Context
	placeholders bool
	seen         map[uintptr]struct{}
	warnings     []Warning
}

func (w *walker) drop(path, reason, marker string) any {
	w.warnings = append(w.warnings, Warning{Path: path, Reason: reason})
	if w.placeholders {
		return marker
	}
	return dropped
}

func (w *walker) walk(v any, path string, depth int) any {
	if v == nil {
		return nil
	}
	if depth > maxDepth {
		w.warnings = append(w.warnings, Warning{Path: path, Reason: "max depth exceeded"})
		return TruncatedMarker
	}

	// Pending async handles are resolved before any structural inspection.
	if d, ok := v.(Deferred); ok {
		resolved, err := d.Resolve(w.ctx)
		if err != nil {
			return w.drop(path, fmt.Sprintf("deferred value rejected: %v", err),
				fmt.Sprintf("[unresolved deferred: %v]", err))
		}
		return w.walk(resolved, path, depth+1)
	}

	switch t := v.(type) {
	case time.Time:
		return t
	case []byte:
		return t
	case error:
		// errors are not clonable but their text is worth keeping
		return t.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return rv.Interface()

	case reflect.Func:
		return w.drop(path, "callable value dropped", "[func]")

	case reflect.Chan:
		return w.drop(path, "channel dropped", "[chan]")

	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if _, ok := w.seen[ptr]; ok {
			w.warnings = append(w.warnings, Warning{Path: path, Reason: "cyclic reference replaced"})
			return CycleMarker
		}
		w.seen[ptr] = struct{}{}
		out := w.walk(rv.Elem().Interface(), path, depth+1)
		delete(w.seen, ptr)
		return out

	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return w.walk(rv.Elem().Interface(), path, depth+1)

	case reflect.Map:
		return w.walkMap(rv, path, depth)

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		return w.walkList(rv, path, depth, true)

	case reflect.Array:
		return w.walkList(rv, path, depth, false)

	case reflect.Struct:
		return w.walkStruct(rv, path, depth)

	default:
		return w.drop(path, fmt.Sprintf("unsupported kind %s dropped", rv.Kind()),
			fmt.Sprintf("[unsupported: %s]", rv.Kind()))
	}
}

func (w *walker) walkMap(rv reflect.Value, path string, depth int) any {
	if rv.IsNil() {
		return nil
	}

	ptr := rv.Pointer()
	if _, ok := w.seen[ptr]; ok {
		w.warnings = append(w.warnings, Warning{Path: path, Reason: "cyclic reference replaced"})
		return CycleMarker
	}
	w.seen[ptr] = struct{}{}
	defer delete(w.seen, ptr)

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := fmt.Sprint(iter.Key().Interface())
		child := w.walk(iter.Value().Interface(), path+"."+key, depth+1)
		if child == dropped {
			continue
		}
		out[key] = child
	}
	return out
}

func (w *walker) walkList(rv reflect.Value, path string, depth int, cyclable bool) any {
	if cyclable {
		ptr := rv.Pointer()
		if _, ok := w.seen[ptr]; ok {
			w.warnings = append(w.warnings, Warning{Path: path, Reason: "cyclic reference replaced"})
			return CycleMarker
		}
		w.seen[ptr] = struct{}{}
		defer delete(w.seen, ptr)
	}

	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		child := w.walk(rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i), depth+1)
		if child == dropped {
			// dropped elements become nil to preserve positions
			child = nil
		}
		out = append(out, child)
	}
	return out
}

func (w *walker) walkStruct(rv reflect.Value, path string, depth int) any {
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, include := jsonFieldName(field)
		if !include {
			continue
		}
		child := w.walk(rv.Field(i).Interface(), path+"."+name, depth+1)
		if child == dropped {
			continue
		}
		out[name] = child
	}
	return out
}

// jsonFieldName resolves the persisted key for a struct field, honoring the
// json tag the same way the store's column serialization does.
func jsonFieldName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name := field.Name
	if tag != "" {
		for i := 0; i < len(tag); i++ {
			if tag[i] == ',' {
				tag = tag[:i]
				break
			}
		}
		if tag != "" {
			name = tag
		}
	}
	return name, true
}
