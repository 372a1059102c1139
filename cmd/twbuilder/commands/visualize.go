package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/twbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/taskgraph"
	"git.home.luguber.info/inful/twbuilder/internal/tasks"
)

// VisualizeCmd implements the 'visualize' command.
type VisualizeCmd struct {
	Graph  string `short:"g" help:"Graph to render: build, buildWithAssembly, default, dev, watch" default:"build" enum:"build,buildWithAssembly,default,dev,watch"`
	Format string `short:"f" help:"Output format: text, mermaid, dot, json" default:"text" enum:"text,mermaid,dot,json"`
	Output string `short:"o" help:"Output file path (optional, prints to stdout if not specified)"`
	List   bool   `short:"l" help:"List available formats and exit"`
}

// Run executes the visualize command.
func (cmd *VisualizeCmd) Run(_ *Global, root *CLI) error {
	if cmd.List {
		return listFormats(os.Stdout)
	}

	cfg, err := root.LoadConfig()
	if foundationerrors.HasCategory(err, foundationerrors.CategoryNotFound) {
		// The graph shape does not depend on the plugin identity.
		placeholder := *root
		placeholder.Author, placeholder.Plugin = "author", "plugin"
		cfg, err = placeholder.LoadConfig()
	}
	if err != nil {
		return err
	}

	output, err := RenderGraph(cfg, cmd.Graph, taskgraph.VisualizationFormat(cmd.Format))
	if err != nil {
		return err
	}

	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte(output), 0o644); err != nil { //nolint:gosec // rendered graphs are not secret
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write output file").
				WithContext("path", cmd.Output).
				Build()
		}
		slog.Info("Graph visualization written", "file", cmd.Output, "format", cmd.Format)
		return nil
	}
	fmt.Print(output)
	return nil
}

// RenderGraph renders one of the named graphs of the plugin described by cfg.
func RenderGraph(cfg *config.Config, graph string, format taskgraph.VisualizationFormat) (string, error) {
	b, err := tasks.New(cfg, tasks.Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		return "", err
	}
	var node *taskgraph.Node
	switch graph {
	case tasks.GraphDev:
		node = b.DevGroup()
	default:
		node, err = b.Task(graph)
		if err != nil {
			return "", err
		}
	}
	out, err := taskgraph.Visualize(node, format)
	if err != nil {
		return "", foundationerrors.ValidationError("failed to visualize graph").
			WithCause(err).
			WithContext("format", string(format)).
			Build()
	}
	return out, nil
}

func listFormats(w io.Writer) error {
	_, _ = fmt.Fprintln(w, "Available visualization formats:")
	_, _ = fmt.Fprintln(w)
	for _, format := range taskgraph.GetSupportedFormats() {
		_, _ = fmt.Fprintf(w, "  %-10s %s\n", format, taskgraph.GetFormatDescription(format))
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage examples:")
	_, _ = fmt.Fprintln(w, "  twbuilder visualize                      # Build graph as text")
	_, _ = fmt.Fprintln(w, "  twbuilder visualize -g watch -f mermaid  # Watch graph as Mermaid")
	_, _ = fmt.Fprintln(w, "  twbuilder visualize -f dot -o build.dot  # DOT format to file")
	return nil
}
