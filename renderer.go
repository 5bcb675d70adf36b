package statusview

import (
	"context"
	"html/template"
	"sync"

	"github.com/goccy/go-json"
)

// FlowchartConfig holds the flowchart options passed to the rendering engine.
type FlowchartConfig struct {
	UseMaxWidth bool `json:"useMaxWidth" yaml:"use_max_width"`
	HTMLLabels  bool `json:"htmlLabels" yaml:"html_labels"`
}

// RenderConfig is the fixed configuration a rendering engine is initialized
// with.
type RenderConfig struct {
	// SecurityLevel "loose" permits inline script and style in the markup.
	SecurityLevel string `json:"securityLevel" yaml:"security_level"`
	// StartOnLoad makes a browser-side engine scan the page on load.
	StartOnLoad bool `json:"startOnLoad" yaml:"start_on_load"`
	// MaxTextSize is the largest description the engine accepts.
	MaxTextSize int             `json:"maxTextSize" yaml:"max_text_size"`
	Flowchart   FlowchartConfig `json:"flowchart" yaml:"flowchart"`
}

// DefaultRenderConfig returns the configuration used by the dashboard.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		SecurityLevel: "loose",
		StartOnLoad:   true,
		MaxTextSize:   99999999,
		Flowchart: FlowchartConfig{
			UseMaxWidth: false,
			HTMLLabels:  true,
		},
	}
}

// JSON encodes the configuration in the shape expected by mermaid.initialize.
func (c RenderConfig) JSON() ([]byte, error) {
	return json.Marshal(c)
}

// Surface is the display surface rendered markup is mounted on. It is the
// one place where output bypasses the page templates.
type Surface interface {
	Mount(markup template.HTML) error
	AttachScript(script template.JS) error
}

// Rendered is the result of one render pass.
type Rendered struct {
	ID     string
	Markup template.HTML
	// Bind attaches interactive behavior once Markup is mounted. May be nil.
	Bind func(surface Surface) error
	// Source is set when Markup is the element the engine itself draws
	// into, rather than finished output.
	Source bool
}

// Renderer turns a diagram description into markup. Implementations are
// configured once at construction and may be shared between diagrams.
type Renderer interface {
	Render(ctx context.Context, id, description string) (*Rendered, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, id, description string) (*Rendered, error)

func (f RendererFunc) Render(ctx context.Context, id, description string) (*Rendered, error) {
	return f(ctx, id, description)
}

// PageSurface collects mounted markup and scripts so they can be emitted by
// an HTML page. Each Mount replaces the markup and clears scripts bound to
// the previous markup.
type PageSurface struct {
	mutex   sync.RWMutex
	markup  template.HTML
	scripts []template.JS
}

// NewPageSurface returns an empty surface.
func NewPageSurface() *PageSurface {
	return &PageSurface{}
}

func (s *PageSurface) Mount(markup template.HTML) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.markup = markup
	s.scripts = nil
	return nil
}

func (s *PageSurface) AttachScript(script template.JS) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.scripts = append(s.scripts, script)
	return nil
}

// Markup returns the currently mounted markup.
func (s *PageSurface) Markup() template.HTML {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.markup
}

// Scripts returns the scripts bound to the current markup.
func (s *PageSurface) Scripts() []template.JS {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return append([]template.JS(nil), s.scripts...)
}
