package statusview

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"
)

// DiagramOptions configures a Diagram.
type DiagramOptions struct {
	// ID is the element ID handed to the renderer. Generated when empty.
	ID string
	// Style is applied to the element holding the rendered markup.
	Style template.CSS
	// Logger receives render failures. Discarded when nil.
	Logger *slog.Logger
	// RenderLog records render failures for later inspection.
	RenderLog RenderLogger
	// Surface receives the markup. A new PageSurface is used when nil.
	Surface Surface
}

// Diagram displays the markup for the most recent diagram description. A
// failed render leaves the previously mounted markup in place.
type Diagram struct {
	id        string
	style     template.CSS
	renderer  Renderer
	logger    *slog.Logger
	renderLog RenderLogger
	surface   Surface

	mutex       sync.Mutex
	description string
	attempted   bool
	generation  uint64
	markup      template.HTML
	source      bool
	failures    int
}

// NewDiagram returns a diagram drawing through renderer, which must already
// be configured.
func NewDiagram(renderer Renderer, opts DiagramOptions) *Diagram {
	if opts.ID == "" {
		opts.ID = NewDiagramID()
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.RenderLog == nil {
		opts.RenderLog = NewNullRenderLogger()
	}
	if opts.Surface == nil {
		opts.Surface = NewPageSurface()
	}
	return &Diagram{
		id:        opts.ID,
		style:     opts.Style,
		renderer:  renderer,
		logger:    opts.Logger,
		renderLog: opts.RenderLog,
		surface:   opts.Surface,
	}
}

// ID returns the element ID of the diagram.
func (d *Diagram) ID() string {
	return d.id
}

// Update renders description when it differs from the last description seen.
// It reports whether new markup was mounted. Render failures are logged and
// never returned.
func (d *Diagram) Update(ctx context.Context, description string) bool {
	d.mutex.Lock()
	if d.attempted && description == d.description {
		d.mutex.Unlock()
		return false
	}
	d.attempted = true
	d.description = description
	d.generation++
	generation := d.generation
	d.mutex.Unlock()

	started := time.Now()
	rendered, err := d.render(ctx, description)
	if err != nil {
		d.recordFailure(ctx, description, err, time.Since(started))
		return false
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if generation != d.generation {
		d.logger.Debug("discarding stale render", "diagram", d.id)
		return false
	}
	if err := d.surface.Mount(rendered.Markup); err != nil {
		d.logger.Error("failed to mount diagram", "diagram", d.id, "error", err)
		return false
	}
	d.markup = rendered.Markup
	d.source = rendered.Source
	if rendered.Bind != nil {
		if err := rendered.Bind(d.surface); err != nil {
			d.logger.Warn("failed to bind diagram", "diagram", d.id, "error", err)
		}
	}
	return true
}

func (d *Diagram) render(ctx context.Context, description string) (rendered *Rendered, err error) {
	defer func() {
		if r := recover(); r != nil {
			rendered, err = nil, NewRenderError(ErrorTypeRenderFailed, fmt.Sprint(r))
		}
	}()
	rendered, err = d.renderer.Render(ctx, d.id, description)
	if err == nil && rendered == nil {
		err = NewRenderError(ErrorTypeRenderFailed, "renderer returned no output")
	}
	return rendered, err
}

func (d *Diagram) recordFailure(ctx context.Context, description string, err error, elapsed time.Duration) {
	renderErr := ClassifyRenderError(err)
	d.logger.Error("failed to render diagram",
		"diagram", d.id,
		"error", err,
		"error_type", renderErr.Type,
		"description", description,
	)
	d.mutex.Lock()
	d.failures++
	d.mutex.Unlock()

	entry := &RenderLogEntry{
		DiagramID:   d.id,
		Description: description,
		ErrorType:   renderErr.Type,
		Error:       err.Error(),
		Time:        time.Now(),
		Duration:    elapsed.Seconds(),
	}
	if err := d.renderLog.LogRender(ctx, entry); err != nil {
		d.logger.Warn("failed to record render failure", "diagram", d.id, "error", err)
	}
}

// Markup returns the markup currently displayed.
func (d *Diagram) Markup() template.HTML {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.markup
}

// Failures returns the number of failed render passes.
func (d *Diagram) Failures() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.failures
}

// HTML returns the diagram wrapped in its horizontally scrollable container,
// followed by any scripts bound to a PageSurface. The container carries the
// mermaid class unless the markup is an engine source element of its own.
func (d *Diagram) HTML() (template.HTML, error) {
	d.mutex.Lock()
	data := struct {
		ID      string
		Style   template.CSS
		Markup  template.HTML
		Source  bool
		Scripts []template.JS
	}{
		ID:     d.id,
		Style:  d.style,
		Markup: d.markup,
		Source: d.source,
	}
	if page, ok := d.surface.(interface{ Scripts() []template.JS }); ok {
		data.Scripts = page.Scripts()
	}
	d.mutex.Unlock()

	return executeTemplate("diagram", data)
}
