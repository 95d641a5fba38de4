// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package sanitize

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDeferred struct {
	value any
	err   error
}

func (d stubDeferred) Resolve(context.Context) (any, error) {
	return d.value, d.err
}

// ── Sanitize: pass-through ───────────────────────────────────────────────────

func TestSanitize_ScalarsPassThrough(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"bool", true},
		{"int", 42},
		{"float", 99.5},
		{"string", "invoice"},
		{"date", now},
		{"blob", []byte{0x1, 0x2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, warnings := Sanitize(ctx, tt.in)
			assert.Equal(t, tt.in, out)
			assert.Empty(t, warnings)
		})
	}
}

func TestSanitize_MapTree(t *testing.T) {
	out, warnings := Sanitize(context.Background(), map[string]any{
		"total":    100,
		"currency": "EUR",
		"lines":    []any{map[string]any{"qty": 2}},
	})

	require.Empty(t, warnings)
	tree, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 100, tree["total"])
	assert.Equal(t, "EUR", tree["currency"])
}

func TestSanitize_StructFlattensWithJSONTags(t *testing.T) {
	type payload struct {
		Total    int    `json:"total"`
		Currency string `json:"currency"`
		Internal string `json:"-"`
		hidden   int
	}
	_ = payload{}.hidden

	out, warnings := Sanitize(context.Background(), payload{Total: 100, Currency: "EUR", Internal: "x"})

	require.Empty(t, warnings)
	tree, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"total": 100, "currency": "EUR"}, tree)
}

// ── Sanitize: hostile inputs ─────────────────────────────────────────────────

func TestSanitize_DropsFunctionsWithoutInvoking(t *testing.T) {
	invoked := false
	in := map[string]any{
		"total":    100,
		"callback": func() { invoked = true },
	}

	out, warnings := Sanitize(context.Background(), in)

	tree := out.(map[string]any)
	assert.False(t, invoked, "callable must never be invoked")
	assert.NotContains(t, tree, "callback")
	assert.Equal(t, 100, tree["total"])
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Reason, "callable")
}

func TestSanitize_DropsChannels(t *testing.T) {
	out, warnings := Sanitize(context.Background(), map[string]any{"ch": make(chan int)})

	assert.NotContains(t, out.(map[string]any), "ch")
	require.Len(t, warnings, 1)
}

func TestSanitize_SelfReferentialMapTerminates(t *testing.T) {
	a := map[string]any{"name": "a"}
	a["self"] = a

	out, warnings := Sanitize(context.Background(), a)

	tree := out.(map[string]any)
	assert.Equal(t, "a", tree["name"])
	assert.Equal(t, CycleMarker, tree["self"])
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0].Reason, "cyclic")
}

func TestSanitize_PointerCycleTerminates(t *testing.T) {
	type node struct {
		Name string `json:"name"`
		Next *node  `json:"next"`
	}
	n := &node{Name: "head"}
	n.Next = n

	out, _ := Sanitize(context.Background(), n)

	tree := out.(map[string]any)
	assert.Equal(t, "head", tree["name"])
	assert.Equal(t, CycleMarker, tree["next"])
}

func TestSanitize_SharedSubtreeIsNotACycle(t *testing.T) {
	shared := map[string]any{"kind": "shared"}
	in := map[string]any{"a": shared, "b": shared}

	out, warnings := Sanitize(context.Background(), in)

	tree := out.(map[string]any)
	assert.Empty(t, warnings, "a DAG is not a cycle")
	assert.Equal(t, map[string]any{"kind": "shared"}, tree["a"])
	assert.Equal(t, map[string]any{"kind": "shared"}, tree["b"])
}

func TestSanitize_DepthBounded(t *testing.T) {
	// build nesting twice the bound; each level is a fresh map, so no
	// cycle detection can save the walk
	leaf := map[string]any{"v": 1}
	root := leaf
	for i := 0; i < maxDepth*2; i++ {
		root = map[string]any{"child": root}
	}

	out, warnings := Sanitize(context.Background(), root)

	require.NotNil(t, out)
	assert.NotEmpty(t, warnings)

	depth := 0
	node := out
	for {
		m, ok := node.(map[string]any)
		if !ok {
			assert.Equal(t, TruncatedMarker, node)
			break
		}
		node = m["child"]
		depth++
		require.LessOrEqual(t, depth, maxDepth+1)
	}
}

// ── Sanitize: deferred values ────────────────────────────────────────────────

func TestSanitize_ResolvesDeferred(t *testing.T) {
	in := map[string]any{
		"ocr": stubDeferred{value: map[string]any{"amount": 1250}},
	}

	out, warnings := Sanitize(context.Background(), in)

	require.Empty(t, warnings)
	tree := out.(map[string]any)
	assert.Equal(t, map[string]any{"amount": 1250}, tree["ocr"])
}

func TestSanitize_RejectedDeferredDropsFieldOnly(t *testing.T) {
	in := map[string]any{
		"total": 100,
		"ocr":   stubDeferred{err: errors.New("scan failed")},
	}

	out, warnings := Sanitize(context.Background(), in)

	tree := out.(map[string]any)
	assert.Equal(t, 100, tree["total"], "sibling fields survive a rejection")
	assert.NotContains(t, tree, "ocr")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Reason, "rejected")
}

func TestSanitize_NothingSafeRemains(t *testing.T) {
	out, warnings := Sanitize(context.Background(), func() {})

	assert.Nil(t, out)
	require.Len(t, warnings, 1)
}

// ── Describe ─────────────────────────────────────────────────────────────────

func TestDescribe_SubstitutesMarkers(t *testing.T) {
	in := map[string]any{
		"callback": func() {},
		"ocr":      stubDeferred{err: errors.New("boom")},
		"total":    100,
	}

	out := Describe(context.Background(), in)

	tree := out.(map[string]any)
	assert.Equal(t, "[func]", tree["callback"])
	assert.Contains(t, tree["ocr"], "unresolved deferred")
	assert.Equal(t, 100, tree["total"])
	require.NoError(t, Conform(tree), "described tree must stay serializable")
}

// ── Conform / Prune ──────────────────────────────────────────────────────────

func TestConform(t *testing.T) {
	assert.NoError(t, Conform(map[string]any{"ok": 1}))
	assert.Error(t, Conform(map[string]any{"bad": math.NaN()}))
	assert.Error(t, Conform(make(chan int)))
}

func TestPrune_RemovesOnlyOffendingField(t *testing.T) {
	tree := map[string]any{
		"total": 100,
		"rate":  math.NaN(),
	}

	out := Prune(tree)

	require.NoError(t, Conform(out))
	assert.Equal(t, 100, out["total"])
	assert.NotContains(t, out, "rate")
}

func TestPrune_RecursesIntoNestedTrees(t *testing.T) {
	tree := map[string]any{
		"invoice": map[string]any{
			"total": 100,
			"rate":  math.Inf(1),
		},
		"lines": []any{1.0, math.NaN(), 3.0},
	}

	out := Prune(tree)

	require.NoError(t, Conform(out))
	nested := out["invoice"].(map[string]any)
	assert.Equal(t, 100, nested["total"])
	assert.NotContains(t, nested, "rate")

	lines := out["lines"].([]any)
	assert.Equal(t, []any{1.0, nil, 3.0}, lines, "bad list items become nil to keep positions")
}

func TestPrune_ConformingTreeUntouched(t *testing.T) {
	tree := map[string]any{"total": 100}
	assert.Equal(t, tree, Prune(tree))
}
