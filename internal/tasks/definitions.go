package tasks

import (
	"context"
	"sort"

	"git.home.luguber.info/inful/twbuilder/internal/annotate"
	"git.home.luguber.info/inful/twbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/manifest"
	"git.home.luguber.info/inful/twbuilder/internal/stream"
	"git.home.luguber.info/inful/twbuilder/internal/stylec"
	"git.home.luguber.info/inful/twbuilder/internal/taskgraph"
	"git.home.luguber.info/inful/twbuilder/internal/tiddlywiki"
)

// Task and graph names. They double as CLI task names.
const (
	TaskTiddlers   = "tiddlers"
	TaskSass       = "sass"
	TaskJavaScript = "javascript"
	TaskHTML       = "processHtml"
	TaskPluginInfo = "pluginInfo"
	TaskMetaBundle = "metaBundle"
	TaskOriginCopy = "originCopy"
	TaskStopServer = "stopAnyRunningServer"
	TaskServe      = "serve"
	TaskAssemble   = "assemble"

	GraphDefault           = "default"
	GraphDev               = "dev"
	GraphBuild             = "build"
	GraphBuildWithAssembly = "buildWithAssembly"
	GraphWatch             = "watch"
)

var aliases = map[string]string{
	"documents": TaskTiddlers,
	"script":    TaskJavaScript,
	"html":      TaskHTML,
}

func (b *Builder) leaf(p stream.Pipeline) *taskgraph.Node {
	return taskgraph.Leaf(p.Name, func(ctx context.Context) error {
		return p.Run(ctx, b.fs, b.options(p.Name))
	})
}

// Tiddlers copies tiddler files, merging any shadow metadata.
func (b *Builder) Tiddlers() *taskgraph.Node {
	return b.leaf(b.pipeline(TaskTiddlers, config.KindTiddlers, b.bundler.Stage()))
}

// Sass compiles stylesheets in style and tags them as global stylesheets.
func (b *Builder) Sass(style stylec.OutputStyle) *taskgraph.Node {
	return b.leaf(b.pipeline(TaskSass, config.KindSass,
		stylec.Stage(b.compiler(style), b.logger),
		annotate.Style(b.id),
	))
}

// JavaScript rewrites the plugin alias and adds module headers.
func (b *Builder) JavaScript() *taskgraph.Node {
	return b.leaf(b.pipeline(TaskJavaScript, config.KindScript, annotate.Script(b.id)))
}

// ProcessHTML marks HTML templates with the plugin identity.
func (b *Builder) ProcessHTML() *taskgraph.Node {
	return b.leaf(b.pipeline(TaskHTML, config.KindHTML, annotate.HTML(b.id)))
}

// PluginInfo fills, checks and normalizes the plugin manifest.
func (b *Builder) PluginInfo() *taskgraph.Node {
	return b.leaf(b.pipeline(TaskPluginInfo, config.KindPluginInfo,
		manifest.Annotate(b.id, b.commit),
		tiddlywiki.PluginInfo(),
		manifest.Serializer(),
	))
}

// MetaBundle turns assets with shadow metadata into tiddlers.
func (b *Builder) MetaBundle() *taskgraph.Node {
	return b.leaf(b.pipeline(TaskMetaBundle, config.KindMetaBundle,
		b.bundler.Stage(),
		annotate.Document(b.id),
	))
}

// OriginCopy copies binary assets verbatim.
func (b *Builder) OriginCopy() *taskgraph.Node {
	return b.leaf(b.pipeline(TaskOriginCopy, config.KindOriginCopy))
}

func (b *Builder) kindGroup(name string, style stylec.OutputStyle) *taskgraph.Node {
	return taskgraph.Parallel(name,
		b.Tiddlers(),
		b.JavaScript(),
		b.Sass(style),
		b.ProcessHTML(),
		b.PluginInfo(),
		b.MetaBundle(),
	)
}

// DefaultTask runs every per-kind task except the verbatim copy, concurrently.
func (b *Builder) DefaultTask() *taskgraph.Node {
	return b.kindGroup(GraphDefault, stylec.StyleCompressed)
}

// DevGroup is DefaultTask with readable, uncompressed stylesheets.
func (b *Builder) DevGroup() *taskgraph.Node {
	return b.kindGroup(GraphDev, stylec.StyleExpanded)
}

// BuildGraph is the one-shot build.
func (b *Builder) BuildGraph() *taskgraph.Node {
	return taskgraph.Series(GraphBuild, b.DefaultTask(), b.OriginCopy())
}

// BuildWithAssemblyGraph builds the plugin and then the wiki.
func (b *Builder) BuildWithAssemblyGraph() *taskgraph.Node {
	return taskgraph.Series(GraphBuildWithAssembly, b.BuildGraph(), b.Assemble())
}

// Assemble runs the wiki build.
func (b *Builder) Assemble() *taskgraph.Node {
	return taskgraph.Leaf(TaskAssemble, func(ctx context.Context) error {
		if b.assemble == nil {
			return foundationerrors.InternalError("no assembler configured").Build()
		}
		return b.assemble.Build(ctx)
	})
}

// StopServer stops the development server if one runs.
func (b *Builder) StopServer() *taskgraph.Node {
	return taskgraph.Leaf(TaskStopServer, func(ctx context.Context) error {
		if b.server == nil {
			return nil
		}
		return b.server.StopAnyRunningServer(ctx)
	})
}

// Serve starts the development server.
func (b *Builder) Serve() *taskgraph.Node {
	return taskgraph.Leaf(TaskServe, func(ctx context.Context) error {
		if b.server == nil {
			return foundationerrors.InternalError("no server configured").Build()
		}
		return b.server.Serve(ctx)
	})
}

// WatchRun is executed on every change while watching. The server is restarted only
// after the plugin built successfully.
func (b *Builder) WatchRun() *taskgraph.Node {
	return taskgraph.Series(GraphWatch, b.DevGroup(), b.OriginCopy(), b.StopServer(), b.Serve())
}

// Task resolves a task or graph by name or alias.
func (b *Builder) Task(name string) (*taskgraph.Node, error) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	switch name {
	case TaskTiddlers:
		return b.Tiddlers(), nil
	case TaskSass:
		return b.Sass(stylec.StyleCompressed), nil
	case TaskJavaScript:
		return b.JavaScript(), nil
	case TaskHTML:
		return b.ProcessHTML(), nil
	case TaskPluginInfo:
		return b.PluginInfo(), nil
	case TaskMetaBundle:
		return b.MetaBundle(), nil
	case TaskOriginCopy:
		return b.OriginCopy(), nil
	case TaskAssemble:
		return b.Assemble(), nil
	case GraphDefault:
		return b.DefaultTask(), nil
	case GraphBuild:
		return b.BuildGraph(), nil
	case GraphBuildWithAssembly:
		return b.BuildWithAssemblyGraph(), nil
	case GraphWatch:
		return b.WatchRun(), nil
	}
	return nil, foundationerrors.NewError(foundationerrors.CategoryNotFound, "unknown task").
		WithContext("task", name).
		WithContext("available", TaskNames()).
		Build()
}

// TaskNames lists every name Task accepts, aliases included.
func TaskNames() []string {
	names := []string{
		TaskTiddlers, TaskSass, TaskJavaScript, TaskHTML, TaskPluginInfo, TaskMetaBundle, TaskOriginCopy,
		TaskAssemble, GraphDefault, GraphBuild, GraphBuildWithAssembly, GraphWatch,
	}
	for alias := range aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}
