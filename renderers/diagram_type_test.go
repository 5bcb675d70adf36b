package renderers

import (
	"strings"
	"testing"

	"github.com/deepnoodle-ai/statusview"
	"github.com/stretchr/testify/require"
)

func TestParseDiagramType(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
		wantErr     bool
	}{
		{name: "gantt", description: "gantt\ntitle x", want: "gantt"},
		{name: "leading blank and comment", description: "\n%% generated\nflowchart LR\nA-->B", want: "flowchart"},
		{name: "front matter", description: "---\ntitle: x\n---\nsequenceDiagram\nA->>B: hi", want: "sequenceDiagram"},
		{name: "c4 container", description: "C4Container\ntitle x", want: "C4Container"},
		{name: "elk flowchart", description: "flowchart-elk TD\nA-->B", want: "flowchart-elk"},
		{name: "kanban", description: "kanban\n  todo\n    task", want: "kanban"},
		{name: "architecture", description: "architecture-beta\n  service db(database)[DB]", want: "architecture-beta"},
		{name: "unknown keyword", description: "ganttt\nfoo", wantErr: true},
		{name: "empty", description: "  \n\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDiagramType(tt.description)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, statusview.MatchesErrorType(err, statusview.ErrorTypeInvalidDiagram))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidateMaxTextSize(t *testing.T) {
	cfg := statusview.DefaultRenderConfig()
	cfg.MaxTextSize = 10

	err := Validate(cfg, "gantt\n"+strings.Repeat("x", 10))
	require.Error(t, err)
	require.True(t, statusview.MatchesErrorType(err, statusview.ErrorTypeTooLarge))

	require.NoError(t, Validate(cfg, "gantt"))
}
