// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

// Package client implements the interactive client application runtime.
//
// It wires the terminal UI, sync services, and background workers into a
// single process lifecycle.
package client
