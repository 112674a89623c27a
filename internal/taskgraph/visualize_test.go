package taskgraph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func legacyPlan(t *testing.T) *Plan {
	t.Helper()
	g := New()
	g.Task("clean", noop)
	g.Task("css:fonts", noop).After("clean")
	g.Task("css:styles", noop).After("clean")
	g.Group("css", "css:fonts", "css:styles")
	g.Task("js", noop).After("clean")
	g.Group("build", "css", "js")
	p, err := g.Plan()
	require.NoError(t, err)
	return p
}

func TestVisualizeText(t *testing.T) {
	out, err := Visualize(legacyPlan(t), "legacy", FormatText)
	require.NoError(t, err)
	require.Contains(t, out, "legacy\n======\n")
	require.Contains(t, out, "┌─ Level 0\n│ └── [clean]\n")
	require.Contains(t, out, "[css (group)]")
	require.Contains(t, out, "⤷ after: css:fonts, css:styles")
	require.Contains(t, out, "Total: 6 tasks across 4 levels")
}

func TestVisualizeMermaid(t *testing.T) {
	out, err := Visualize(legacyPlan(t), "legacy", FormatMermaid)
	require.NoError(t, err)
	require.Contains(t, out, "```mermaid\ngraph TD\n")
	require.Contains(t, out, `    css_fonts["css:fonts"]`)
	require.Contains(t, out, `    build(["build"])`)
	require.Contains(t, out, "    clean --> css_fonts\n")
	require.Contains(t, out, "    js --> build\n")
}

func TestVisualizeDOT(t *testing.T) {
	out, err := Visualize(legacyPlan(t), "legacy", FormatDOT)
	require.NoError(t, err)
	require.Contains(t, out, "digraph \"legacy\" {\n")
	require.Contains(t, out, "    \"css\" [shape=ellipse];\n")
	require.Contains(t, out, "    \"clean\" -> \"js\";\n")
}

func TestVisualizeJSON(t *testing.T) {
	out, err := Visualize(legacyPlan(t), "legacy", FormatJSON)
	require.NoError(t, err)

	var doc struct {
		Name  string     `json:"name"`
		Tasks []jsonTask `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, "legacy", doc.Name)
	require.Len(t, doc.Tasks, 6)
	require.Equal(t, jsonTask{Name: "build", Group: true, Depth: 3, After: []string{"css", "js"}}, doc.Tasks[5])
}

func TestVisualizeUnknownFormat(t *testing.T) {
	_, err := Visualize(legacyPlan(t), "legacy", Format("svg"))
	require.Error(t, err)
}
