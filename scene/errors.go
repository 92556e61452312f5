// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRoot is returned by Load when the root node is not a visual
	// item.
	ErrInvalidRoot = errors.New("scene: root is not a visual item")

	// ErrEngineClosed is returned by operations on a closed engine.
	ErrEngineClosed = errors.New("scene: engine closed")
)

// CompileError describes a problem in a scene description.
type CompileError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *CompileError) Error() string {
	file := e.File
	if file == "" {
		file = "<scene>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", file, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", file, e.Message)
}
