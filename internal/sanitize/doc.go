// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

// Package sanitize normalizes arbitrary mutation payloads into value trees
// that are safe to persist in the outbox.
//
// UI code hands the queue whatever it has: structs, maps built ad hoc,
// values that still carry callbacks, deferred results, or even cyclic
// references. [Sanitize] reduces such a tree to persistence-safe primitives
// (scalars, time.Time, []byte, plain slices and string-keyed maps), dropping
// what cannot be kept and reporting each drop as a [Warning]. [Describe] is
// the diagnostic variant that substitutes descriptive string markers instead
// of dropping, so a human can inspect what was removed.
//
// [Conform] is the structural-clone gate the outbox column requires, and
// [Prune] removes offending subtrees bottom-up when a tree still fails the
// gate after normalization. Sanitization itself never fails: only the final
// durable write can.
package sanitize
