package renderers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/deepnoodle-ai/statusview"
	"github.com/stretchr/testify/require"
)

func TestBrowserRenderer(t *testing.T) {
	if os.Getenv("STATUSVIEW_BROWSER_TESTS") == "" {
		t.Skip("set STATUSVIEW_BROWSER_TESTS to run against a headless browser")
	}
	ctx := context.Background()
	r, err := NewBrowserRenderer(ctx, BrowserOptions{
		Config:   statusview.DefaultRenderConfig(),
		Headless: true,
		Timeout:  time.Minute,
	})
	require.NoError(t, err)
	defer r.Close()

	rendered, err := r.Render(ctx, "diag_browser", "gantt\ndateFormat YYYY-MM-DD HH:mm:ss\nbuild : 2024-01-01 00:00:05,2024-01-01 00:00:20")
	require.NoError(t, err)
	require.Contains(t, string(rendered.Markup), "<svg")
	require.Nil(t, rendered.Bind)

	_, err = r.Render(ctx, "diag_browser", "gantt\nthis is : not valid : at all")
	require.Error(t, err)
}
