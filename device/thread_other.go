// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package device

// threadID is not available; owners are never bound.
func threadID() int { return 0 }
