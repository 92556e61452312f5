// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package device

import "golang.org/x/sys/unix"

func threadID() int { return unix.Gettid() }
