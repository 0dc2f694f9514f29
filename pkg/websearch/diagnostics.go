// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"log/slog"
)

// DiagnosticKind classifies a failure swallowed at the provider boundary.
type DiagnosticKind string

const (
	KindTransport   DiagnosticKind = "transport"
	KindBackend     DiagnosticKind = "backend"
	KindUnsupported DiagnosticKind = "unsupported"
)

// Diagnostic describes a failure that was downgraded to an empty result.
type Diagnostic struct {
	Provider string
	Op       string
	Kind     DiagnosticKind
	Status   int // HTTP status for backend failures, 0 otherwise
	Err      error
}

// DiagnosticSink receives provider diagnostics.
type DiagnosticSink interface {
	Report(ctx context.Context, d Diagnostic)
}

// DiagnosticFunc adapts a function to DiagnosticSink.
type DiagnosticFunc func(ctx context.Context, d Diagnostic)

func (f DiagnosticFunc) Report(ctx context.Context, d Diagnostic) { f(ctx, d) }

// LogSink writes diagnostics as structured log records.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Report(ctx context.Context, d Diagnostic) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []slog.Attr{
		slog.String("provider", d.Provider),
		slog.String("op", d.Op),
		slog.String("kind", string(d.Kind)),
	}
	if d.Status != 0 {
		attrs = append(attrs, slog.Int("status", d.Status))
	}
	if d.Err != nil {
		attrs = append(attrs, slog.String("error", d.Err.Error()))
	}
	logger.LogAttrs(ctx, slog.LevelError, "Web search failed", attrs...)
}
