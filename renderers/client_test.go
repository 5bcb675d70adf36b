package renderers

import (
	"context"
	"html/template"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/statusview"
	"github.com/stretchr/testify/require"
)

func TestClientRendererMarkup(t *testing.T) {
	r, err := NewClientRenderer(ClientOptions{Config: statusview.DefaultRenderConfig()})
	require.NoError(t, err)

	rendered, err := r.Render(context.Background(), "diag_1", "gantt\nbuild <x> : 2024-01-01 00:00:05,2024-01-01 00:00:20")
	require.NoError(t, err)
	require.Equal(t, "diag_1", rendered.ID)
	require.Equal(t,
		template.HTML(`<pre class="mermaid" id="diag_1">gantt
build &lt;x&gt; : 2024-01-01 00:00:05,2024-01-01 00:00:20</pre>`),
		rendered.Markup)
	require.NotNil(t, rendered.Bind)

	surface := statusview.NewPageSurface()
	require.NoError(t, surface.Mount(rendered.Markup))
	require.NoError(t, rendered.Bind(surface))

	scripts := surface.Scripts()
	require.Len(t, scripts, 1)
	script := string(scripts[0])
	require.Contains(t, script, DefaultScriptURL)
	require.Contains(t, script, `"securityLevel":"loose"`)
	require.Contains(t, script, `"maxTextSize":99999999`)
	require.Contains(t, script, `"flowchart":{"useMaxWidth":false,"htmlLabels":true}`)
	require.Contains(t, script, `document.getElementById("diag_1")`)
}

func TestClientRendererRejectsInvalidDescription(t *testing.T) {
	r, err := NewClientRenderer(ClientOptions{Config: statusview.DefaultRenderConfig()})
	require.NoError(t, err)

	_, err = r.Render(context.Background(), "diag_1", "not a diagram")
	require.Error(t, err)
	require.True(t, statusview.MatchesErrorType(err, statusview.ErrorTypeInvalidDiagram))
}

func TestClientRendererHonorsCanceledContext(t *testing.T) {
	r, err := NewClientRenderer(ClientOptions{Config: statusview.DefaultRenderConfig()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, "diag_1", "gantt")
	require.ErrorIs(t, err, context.Canceled)
}

func TestClientRendererInDiagram(t *testing.T) {
	r, err := NewClientRenderer(ClientOptions{Config: statusview.DefaultRenderConfig()})
	require.NoError(t, err)

	d := statusview.NewDiagram(r, statusview.DiagramOptions{ID: "diag_2"})
	require.True(t, d.Update(context.Background(), "gantt\ntitle Finished timeline"))
	require.False(t, d.Update(context.Background(), "broken"))

	html, err := d.HTML()
	require.NoError(t, err)
	require.Contains(t, string(html), `<div class="diagram" id="diag_2-container"><pre class="mermaid" id="diag_2">gantt`)
	require.Equal(t, 1, strings.Count(string(html), `class="mermaid"`))
	require.Contains(t, string(html), `<script type="module">`)
	require.Equal(t, 1, d.Failures())
}
