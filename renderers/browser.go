package renderers

import (
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/deepnoodle-ai/statusview"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/goccy/go-json"
)

// BrowserOptions configures a BrowserRenderer.
type BrowserOptions struct {
	Config    statusview.RenderConfig
	ScriptURL string
	// ControlURL connects to an already running browser instead of
	// launching one.
	ControlURL string
	// Bin is the browser binary to launch. Found or downloaded when empty.
	Bin      string
	Headless bool
	Timeout  time.Duration
}

// BrowserRenderer draws diagrams to SVG on the server with mermaid running
// in a headless browser. One page is loaded at construction and reused; calls
// to Render are serialized.
type BrowserRenderer struct {
	config  statusview.RenderConfig
	timeout time.Duration

	mutex    sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewBrowserRenderer starts or connects to a browser and loads mermaid
// configured with opts.Config.
func NewBrowserRenderer(ctx context.Context, opts BrowserOptions) (*BrowserRenderer, error) {
	if opts.ScriptURL == "" {
		opts.ScriptURL = DefaultScriptURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	r := &BrowserRenderer{config: opts.Config, timeout: opts.Timeout}

	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(opts.Headless)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		url, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		r.launcher = l
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		r.cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	r.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		r.cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	r.page = page

	document, err := hostDocument(opts.ScriptURL, opts.Config)
	if err != nil {
		r.cleanup()
		return nil, err
	}
	if err := page.SetDocumentContent(document); err != nil {
		r.cleanup()
		return nil, fmt.Errorf("failed to load host page: %w", err)
	}
	if err := page.Timeout(opts.Timeout).Wait(rod.Eval(`() => window.mermaidReady === true`)); err != nil {
		r.cleanup()
		return nil, fmt.Errorf("failed to load mermaid from %s: %w", opts.ScriptURL, err)
	}
	return r, nil
}

func hostDocument(scriptURL string, cfg statusview.RenderConfig) (string, error) {
	url, err := json.Marshal(scriptURL)
	if err != nil {
		return "", err
	}
	configJSON, err := cfg.JSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode render config: %w", err)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<script type="module">
import mermaid from %s;
mermaid.initialize(%s);
window.mermaid = mermaid;
window.mermaidReady = true;
</script>
</body></html>`, url, configJSON), nil
}

func (r *BrowserRenderer) Render(ctx context.Context, id, description string) (*statusview.Rendered, error) {
	if err := Validate(r.config, description); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.page == nil {
		return nil, statusview.NewRenderError(statusview.ErrorTypeRenderFailed, "renderer is closed")
	}
	res, err := r.page.Context(ctx).Timeout(r.timeout).Evaluate(
		rod.Eval(`async (id, text) => (await window.mermaid.render(id, text)).svg`, id, description).ByPromise())
	if err != nil {
		renderErr := statusview.ClassifyRenderError(err)
		return nil, &statusview.RenderError{
			Type:    renderErr.Type,
			Cause:   err.Error(),
			Wrapped: err,
		}
	}
	return &statusview.Rendered{
		ID:     id,
		Markup: template.HTML(res.Value.Str()),
	}, nil
}

// Close shuts down the page and any browser started by the renderer.
func (r *BrowserRenderer) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.cleanup()
}

func (r *BrowserRenderer) cleanup() error {
	var err error
	if r.page != nil {
		_ = r.page.Close()
		r.page = nil
	}
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher.Cleanup()
		r.launcher = nil
	}
	return err
}
