package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/twbuilder/internal/taskgraph"
	"git.home.luguber.info/inful/twbuilder/internal/tasks"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	return runNamed(g, root, func(e *env) *taskgraph.Node { return e.builder.BuildGraph() })
}

// AssembleCmd implements the 'assemble' command.
type AssembleCmd struct{}

func (a *AssembleCmd) Run(g *Global, root *CLI) error {
	return runNamed(g, root, func(e *env) *taskgraph.Node { return e.builder.BuildWithAssemblyGraph() })
}

// DefaultCmd implements the 'default' command.
type DefaultCmd struct{}

func (d *DefaultCmd) Run(g *Global, root *CLI) error {
	return runNamed(g, root, func(e *env) *taskgraph.Node { return e.builder.DefaultTask() })
}

// TaskCmd implements the 'task' command.
type TaskCmd struct {
	Name string `arg:"" help:"Task or graph name (tiddlers, sass, javascript, processHtml, pluginInfo, metaBundle, originCopy, assemble, default, build, buildWithAssembly)"`
}

func (t *TaskCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := root.setup(ctx, g, nil, true)
	if err != nil {
		return err
	}
	node, err := e.builder.Task(t.Name)
	if err != nil {
		return err
	}
	if node.Name == tasks.GraphWatch {
		// The watch graph leaves a server behind; it belongs to the watch command.
		defer func() { _ = e.server.StopAnyRunningServer(context.Background()) }()
	}
	return e.run(ctx, node)
}

func runNamed(g *Global, root *CLI, pick func(*env) *taskgraph.Node) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := root.setup(ctx, g, nil, true)
	if err != nil {
		return err
	}
	return e.run(ctx, pick(e))
}
