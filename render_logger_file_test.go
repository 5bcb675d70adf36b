package statusview

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileRenderLogger(t *testing.T) {
	ctx := context.Background()
	logger := NewFileRenderLogger(filepath.Join(t.TempDir(), "renders"))

	history, err := logger.RenderHistory(ctx, "diag_1")
	require.NoError(t, err)
	require.Empty(t, history)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, logger.LogRender(ctx, &RenderLogEntry{
		DiagramID:   "diag_1",
		Description: "gantt\nbroken",
		ErrorType:   ErrorTypeRenderFailed,
		Error:       "Parse error on line 2",
		Time:        now,
		Duration:    0.25,
	}))
	require.NoError(t, logger.LogRender(ctx, &RenderLogEntry{
		DiagramID: "diag_1",
		ErrorType: ErrorTypeTimeout,
		Error:     "context deadline exceeded",
		Time:      now.Add(time.Second),
	}))
	require.NoError(t, logger.LogRender(ctx, &RenderLogEntry{DiagramID: "diag_2", ErrorType: ErrorTypeTooLarge}))

	history, err = logger.RenderHistory(ctx, "diag_1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "gantt\nbroken", history[0].Description)
	require.True(t, now.Equal(history[0].Time))
	require.Equal(t, 0.25, history[0].Duration)
	require.Equal(t, ErrorTypeTimeout, history[1].ErrorType)

	history, err = logger.RenderHistory(ctx, "diag_2")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestNullRenderLogger(t *testing.T) {
	ctx := context.Background()
	logger := NewNullRenderLogger()
	require.NoError(t, logger.LogRender(ctx, &RenderLogEntry{DiagramID: "x"}))
	history, err := logger.RenderHistory(ctx, "x")
	require.NoError(t, err)
	require.Empty(t, history)
}
