package statusview

import "context"

// NullRenderLogger is a no-op implementation of RenderLogger.
type NullRenderLogger struct{}

func NewNullRenderLogger() *NullRenderLogger {
	return &NullRenderLogger{}
}

func (l *NullRenderLogger) LogRender(ctx context.Context, entry *RenderLogEntry) error {
	return nil
}

func (l *NullRenderLogger) RenderHistory(ctx context.Context, diagramID string) ([]*RenderLogEntry, error) {
	return nil, nil
}
