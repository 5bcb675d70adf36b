package statusview

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	LoggerContextKey          ContextKey = "logger"
	WorkflowContextContextKey ContextKey = "workflow_context"
)

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

func WithWorkflowContext(ctx context.Context, wc WorkflowContext) context.Context {
	return context.WithValue(ctx, WorkflowContextContextKey, wc)
}

// LoggerFrom returns the logger stored in ctx, or a logger that discards
// everything.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return discardLogger()
}

// WorkflowContextFrom returns the workflow context stored in ctx, or the
// defaults when none was stored.
func WorkflowContextFrom(ctx context.Context) WorkflowContext {
	if wc, ok := ctx.Value(WorkflowContextContextKey).(WorkflowContext); ok {
		if wc.Refresh == nil {
			wc.Refresh = func() {}
		}
		return wc
	}
	return DefaultWorkflowContext()
}
