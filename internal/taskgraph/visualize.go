package taskgraph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format is an output format for Visualize.
type Format string

const (
	FormatText    Format = "text"
	FormatMermaid Format = "mermaid"
	FormatDOT     Format = "dot"
	FormatJSON    Format = "json"
)

// Formats lists the supported visualization formats.
var Formats = []Format{FormatText, FormatMermaid, FormatDOT, FormatJSON}

// Visualize renders the plan. Tasks are grouped into levels by depth; group
// nodes (tasks without a body) are marked.
func Visualize(p *Plan, title string, format Format) (string, error) {
	switch format {
	case FormatText:
		return visualizeText(p, title), nil
	case FormatMermaid:
		return visualizeMermaid(p), nil
	case FormatDOT:
		return visualizeDOT(p, title), nil
	case FormatJSON:
		return visualizeJSON(p, title)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// levels returns task indexes bucketed by depth, each bucket in topological order.
func (p *Plan) levels() [][]int {
	var out [][]int
	for _, idx := range p.order {
		d := p.depth[idx]
		for len(out) <= d {
			out = append(out, nil)
		}
		out[d] = append(out[d], idx)
	}
	return out
}

func (p *Plan) isGroup(idx int) bool { return p.tasks[idx].Run == nil }

func visualizeText(p *Plan, title string) string {
	var sb strings.Builder
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", len(title)) + "\n\n")

	levels := p.levels()
	for i, level := range levels {
		fmt.Fprintf(&sb, "┌─ Level %d\n", i)
		for j, idx := range level {
			prefix := "├──"
			connector := "│   "
			if j == len(level)-1 {
				prefix = "└──"
				connector = "    "
			}
			name := p.tasks[idx].Name
			if p.isGroup(idx) {
				name += " (group)"
			}
			fmt.Fprintf(&sb, "│ %s [%s]\n", prefix, name)
			if deps := p.namesByRank(p.incoming[idx]); len(deps) > 0 {
				fmt.Fprintf(&sb, "│ %s   ⤷ after: %s\n", connector, strings.Join(deps, ", "))
			}
		}
		if i < len(levels)-1 {
			sb.WriteString("│\n↓\n")
		}
	}
	fmt.Fprintf(&sb, "\nTotal: %d tasks across %d levels\n", len(p.tasks), len(levels))
	return sb.String()
}

func mermaidID(name string) string {
	r := strings.NewReplacer(":", "_", "-", "_", ".", "_", " ", "_")
	return r.Replace(name)
}

func visualizeMermaid(p *Plan) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")
	for _, idx := range p.order {
		name := p.tasks[idx].Name
		if p.isGroup(idx) {
			fmt.Fprintf(&sb, "    %s([\"%s\"])\n", mermaidID(name), name)
			continue
		}
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", mermaidID(name), name)
	}
	sb.WriteString("\n")
	for _, e := range p.Edges() {
		fmt.Fprintf(&sb, "    %s --> %s\n", mermaidID(e.From), mermaidID(e.To))
	}
	sb.WriteString("```\n")
	return sb.String()
}

func visualizeDOT(p *Plan, title string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %q {\n", title)
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n\n")
	for _, idx := range p.order {
		if p.isGroup(idx) {
			fmt.Fprintf(&sb, "    %q [shape=ellipse];\n", p.tasks[idx].Name)
			continue
		}
		fmt.Fprintf(&sb, "    %q;\n", p.tasks[idx].Name)
	}
	sb.WriteString("\n")
	for _, e := range p.Edges() {
		fmt.Fprintf(&sb, "    %q -> %q;\n", e.From, e.To)
	}
	sb.WriteString("}\n")
	return sb.String()
}

type jsonTask struct {
	Name  string   `json:"name"`
	Group bool     `json:"group,omitempty"`
	Depth int      `json:"depth"`
	After []string `json:"after,omitempty"`
}

func visualizeJSON(p *Plan, title string) (string, error) {
	doc := struct {
		Name  string     `json:"name"`
		Tasks []jsonTask `json:"tasks"`
	}{Name: title}
	for _, idx := range p.order {
		doc.Tasks = append(doc.Tasks, jsonTask{
			Name:  p.tasks[idx].Name,
			Group: p.isGroup(idx),
			Depth: p.depth[idx],
			After: p.namesByRank(p.incoming[idx]),
		})
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw) + "\n", nil
}
