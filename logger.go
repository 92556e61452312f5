// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sceneframe

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/sceneframe/coordinator"
	"github.com/gogpu/sceneframe/device/halgpu"
	"github.com/gogpu/sceneframe/render"
	"github.com/gogpu/sceneframe/scene"
	"github.com/gogpu/sceneframe/session"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for sceneframe and all its sub-packages.
// By default, sceneframe produces no log output.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by sceneframe:
//   - [slog.LevelDebug]: per-frame diagnostics (render cycles, targets, clock steps,
//     shader fallbacks)
//   - [slog.LevelInfo]: lifecycle events (session opened, backend selected)
//   - [slog.LevelWarn]: scene engine warnings (failed property bindings)
//   - [slog.LevelError]: render context activation failures
//
// Example:
//
//	sceneframe.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	scene.SetLogger(l)
	coordinator.SetLogger(l)
	session.SetLogger(l)
	halgpu.SetLogger(l)
	render.SetLogger(l)
}

// Logger returns the current logger used by sceneframe.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
