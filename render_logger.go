package statusview

import (
	"context"
	"time"
)

// RenderLogEntry records one failed render pass.
type RenderLogEntry struct {
	DiagramID   string    `json:"diagram_id"`
	Description string    `json:"description"`
	ErrorType   string    `json:"error_type"`
	Error       string    `json:"error"`
	Time        time.Time `json:"time"`
	Duration    float64   `json:"duration"`
}

// RenderLogger keeps a history of render failures for operators.
type RenderLogger interface {
	// LogRender records a failed render
	LogRender(ctx context.Context, entry *RenderLogEntry) error

	// RenderHistory retrieves the recorded failures for a diagram
	RenderHistory(ctx context.Context, diagramID string) ([]*RenderLogEntry, error)
}
