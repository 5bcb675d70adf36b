package renderers

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/statusview"
)

var diagramTypes = map[string]bool{
	"gantt":              true,
	"flowchart":          true,
	"graph":              true,
	"sequenceDiagram":    true,
	"classDiagram":       true,
	"classDiagram-v2":    true,
	"stateDiagram":       true,
	"stateDiagram-v2":    true,
	"erDiagram":          true,
	"journey":            true,
	"pie":                true,
	"gitGraph":           true,
	"mindmap":            true,
	"timeline":           true,
	"quadrantChart":      true,
	"requirementDiagram": true,
	"C4Context":          true,
	"sankey-beta":        true,
	"xychart-beta":       true,
	"block-beta":         true,
	"flowchart-elk":      true,
	"zenuml":             true,
	"C4Container":        true,
	"C4Component":        true,
	"C4Dynamic":          true,
	"C4Deployment":       true,
	"packet-beta":        true,
	"architecture-beta":  true,
	"kanban":             true,
	"info":               true,
}

// ParseDiagramType returns the keyword that opens a diagram description,
// skipping blank lines, %% comments and a leading --- front matter block.
func ParseDiagramType(description string) (string, error) {
	lines := strings.Split(description, "\n")
	inFrontMatter := false
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "---" && (i == 0 || inFrontMatter) {
			inFrontMatter = !inFrontMatter
			continue
		}
		if inFrontMatter || line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		keyword := strings.Fields(line)[0]
		if !diagramTypes[keyword] {
			return "", statusview.NewRenderError(statusview.ErrorTypeInvalidDiagram,
				fmt.Sprintf("no diagram type detected for %q", keyword))
		}
		return keyword, nil
	}
	return "", statusview.NewRenderError(statusview.ErrorTypeInvalidDiagram, "empty diagram description")
}

// Validate checks a description against the limits of cfg before it is sent
// to a rendering engine.
func Validate(cfg statusview.RenderConfig, description string) error {
	if cfg.MaxTextSize > 0 && len(description) > cfg.MaxTextSize {
		return statusview.NewRenderError(statusview.ErrorTypeTooLarge,
			fmt.Sprintf("description is %d bytes, maximum is %d", len(description), cfg.MaxTextSize))
	}
	_, err := ParseDiagramType(description)
	return err
}
