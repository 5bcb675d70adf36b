package renderers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/deepnoodle-ai/statusview"
	"github.com/goccy/go-json"
)

// DefaultScriptURL is the mermaid ES module loaded by rendered pages.
const DefaultScriptURL = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs"

var clientMarkup = template.Must(template.New("client").Parse(
	`<pre class="mermaid" id="{{.ID}}">{{.Description}}</pre>`))

// ClientOptions configures a ClientRenderer.
type ClientOptions struct {
	Config    statusview.RenderConfig
	ScriptURL string
}

// ClientRenderer leaves drawing to mermaid running in the viewer's browser.
// Its markup carries the escaped description, and its bind step attaches the
// script that initializes mermaid and draws the element.
type ClientRenderer struct {
	config     statusview.RenderConfig
	configJSON []byte
	scriptURL  string
}

// NewClientRenderer returns a renderer configured once with opts.
func NewClientRenderer(opts ClientOptions) (*ClientRenderer, error) {
	if opts.ScriptURL == "" {
		opts.ScriptURL = DefaultScriptURL
	}
	configJSON, err := opts.Config.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode render config: %w", err)
	}
	return &ClientRenderer{
		config:     opts.Config,
		configJSON: configJSON,
		scriptURL:  opts.ScriptURL,
	}, nil
}

func (r *ClientRenderer) Render(ctx context.Context, id, description string) (*statusview.Rendered, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := Validate(r.config, description); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	data := struct{ ID, Description string }{id, description}
	if err := clientMarkup.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render markup: %w", err)
	}

	script, err := r.script(id)
	if err != nil {
		return nil, err
	}
	return &statusview.Rendered{
		ID:     id,
		Markup: template.HTML(buf.String()),
		Source: true,
		Bind: func(surface statusview.Surface) error {
			return surface.AttachScript(script)
		},
	}, nil
}

func (r *ClientRenderer) script(id string) (template.JS, error) {
	url, err := json.Marshal(r.scriptURL)
	if err != nil {
		return "", err
	}
	elementID, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return template.JS(fmt.Sprintf(
		"import mermaid from %s;\nmermaid.initialize(%s);\nawait mermaid.run({nodes: [document.getElementById(%s)]});",
		url, r.configJSON, elementID,
	)), nil
}
