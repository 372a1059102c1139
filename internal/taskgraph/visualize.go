package taskgraph

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// VisualizationFormat represents the output format for graph visualization.
type VisualizationFormat string

const (
	FormatText    VisualizationFormat = "text"
	FormatMermaid VisualizationFormat = "mermaid"
	FormatDOT     VisualizationFormat = "dot"
	FormatJSON    VisualizationFormat = "json"
)

// Visualize renders n in format.
func Visualize(n *Node, format VisualizationFormat) (string, error) {
	if n == nil {
		return "", fmt.Errorf("nothing to visualize")
	}
	switch format {
	case FormatText:
		return visualizeText(n), nil
	case FormatMermaid:
		return visualizeMermaid(n), nil
	case FormatDOT:
		return visualizeDOT(n), nil
	case FormatJSON:
		return visualizeJSON(n), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func label(n *Node) string {
	if n.Kind == KindLeaf {
		return n.Name
	}
	return fmt.Sprintf("%s (%s)", n.Name, n.Kind)
}

// visualizeText draws the graph as an indented tree.
func visualizeText(n *Node) string {
	var sb strings.Builder
	sb.WriteString(label(n))
	sb.WriteString("\n")
	writeTextChildren(&sb, n, "")
	return sb.String()
}

func writeTextChildren(sb *strings.Builder, n *Node, indent string) {
	for i, c := range n.Children {
		last := i == len(n.Children)-1
		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}
		step := ""
		if n.Kind == KindSeries {
			step = fmt.Sprintf("%d. ", i+1)
		}
		fmt.Fprintf(sb, "%s%s%s%s\n", indent, branch, step, label(c))
		writeTextChildren(sb, c, indent+next)
	}
}

// ids assigns stable identifiers in depth first order.
func ids(root *Node) map[*Node]string {
	out := make(map[*Node]string)
	root.walk(func(c *Node) {
		out[c] = fmt.Sprintf("n%d", len(out))
	})
	return out
}

// visualizeMermaid draws groups as subgraphs and series order as edges.
func visualizeMermaid(root *Node) string {
	id := ids(root)
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")

	var nodes func(n *Node, indent string)
	nodes = func(n *Node, indent string) {
		if n.Kind == KindLeaf {
			fmt.Fprintf(&sb, "%s%s[\"%s\"]\n", indent, id[n], n.Name)
			return
		}
		fmt.Fprintf(&sb, "%ssubgraph %s[\"%s\"]\n", indent, id[n], label(n))
		for _, c := range n.Children {
			nodes(c, indent+"    ")
		}
		fmt.Fprintf(&sb, "%send\n", indent)
	}
	nodes(root, "    ")

	root.walk(func(n *Node) {
		if n.Kind != KindSeries {
			return
		}
		for i := 1; i < len(n.Children); i++ {
			fmt.Fprintf(&sb, "    %s --> %s\n", id[n.Children[i-1]], id[n.Children[i]])
		}
	})

	sb.WriteString("```\n")
	return sb.String()
}

// visualizeDOT draws groups as clusters and series order as edges.
func visualizeDOT(root *Node) string {
	id := ids(root)
	var sb strings.Builder
	sb.WriteString("digraph TaskGraph {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n\n")

	var nodes func(n *Node, indent string)
	nodes = func(n *Node, indent string) {
		if n.Kind == KindLeaf {
			fmt.Fprintf(&sb, "%s%s [label=%q];\n", indent, id[n], n.Name)
			return
		}
		fmt.Fprintf(&sb, "%ssubgraph cluster_%s {\n", indent, id[n])
		fmt.Fprintf(&sb, "%s    label=%q;\n", indent, label(n))
		for _, c := range n.Children {
			nodes(c, indent+"    ")
		}
		fmt.Fprintf(&sb, "%s}\n", indent)
	}
	nodes(root, "    ")

	root.walk(func(n *Node) {
		if n.Kind != KindSeries {
			return
		}
		for i := 1; i < len(n.Children); i++ {
			fmt.Fprintf(&sb, "    %s -> %s;\n", anchor(n.Children[i-1], id), anchor(n.Children[i], id))
		}
	})

	sb.WriteString("}\n")
	return sb.String()
}

// anchor picks a leaf to attach cluster edges to.
func anchor(n *Node, id map[*Node]string) string {
	for n.Kind != KindLeaf && len(n.Children) > 0 {
		n = n.Children[0]
	}
	return id[n]
}

func visualizeJSON(root *Node) string {
	var tree func(n *Node) map[string]any
	tree = func(n *Node) map[string]any {
		m := map[string]any{"name": n.Name, "kind": n.Kind.String()}
		if len(n.Children) > 0 {
			children := make([]any, len(n.Children))
			for i, c := range n.Children {
				children[i] = tree(c)
			}
			m["children"] = children
		}
		return m
	}
	return oj.JSON(tree(root), &ojg.Options{Indent: 2, Sort: true}) + "\n"
}

// GetSupportedFormats returns a list of supported visualization formats.
func GetSupportedFormats() []VisualizationFormat {
	return []VisualizationFormat{FormatText, FormatMermaid, FormatDOT, FormatJSON}
}

// GetFormatDescription returns a description of a visualization format.
func GetFormatDescription(format VisualizationFormat) string {
	descriptions := map[VisualizationFormat]string{
		FormatText:    "Human-readable tree",
		FormatMermaid: "Mermaid diagram (for GitHub, GitLab, etc.)",
		FormatDOT:     "Graphviz DOT format (render with `dot -Tpng graph.dot -o graph.png`)",
		FormatJSON:    "Structured JSON representation",
	}
	return descriptions[format]
}
