package commands

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/taskgraph"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestCLI_ParsesCommands(t *testing.T) {
	tests := []struct {
		args    []string
		command string
	}{
		{[]string{"build"}, "build"},
		{[]string{"assemble"}, "assemble"},
		{[]string{"default"}, "default"},
		{[]string{"task", "metaBundle"}, "task <name>"},
		{[]string{"watch", "--debounce", "1s"}, "watch"},
		{[]string{"serve"}, "serve"},
		{[]string{"init", "--force"}, "init"},
		{[]string{"visualize", "-g", "watch", "-f", "mermaid"}, "visualize"},
		{[]string{"--author", "me", "--plugin", "p", "build"}, "build"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			var cli CLI
			parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Bind(&Global{}))
			require.NoError(t, err)
			ctx, err := parser.Parse(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.command, ctx.Command())
			assert.Equal(t, "twbuilder.yaml", cli.Config)
		})
	}
}

func TestCLI_RejectsUnknownGraph(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Bind(&Global{}))
	require.NoError(t, err)
	_, err = parser.Parse([]string{"visualize", "-g", "nope"})
	require.Error(t, err)
}

func TestLoadConfig_MissingFileWithFlags(t *testing.T) {
	dir := t.TempDir()
	cli := &CLI{Config: filepath.Join(dir, "twbuilder.yaml"), Author: "me", Plugin: "demo"}

	cfg, err := cli.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "me", cfg.Author)
	assert.Equal(t, "demo", cfg.PluginName)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.SourceDir)
	assert.Equal(t, filepath.Join(dir, "plugins", "me", "demo"), cfg.Sources.Output)
}

func TestLoadConfig_MissingFileWithoutFlags(t *testing.T) {
	cli := &CLI{Config: filepath.Join(t.TempDir(), "twbuilder.yaml")}
	_, err := cli.LoadConfig()
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryNotFound))
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "twbuilder.yaml")
	writeFile(t, path, "author: filed\nplugin_name: fromfile\n")

	cfg, err := (&CLI{Config: path, Plugin: "flagged"}).LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "filed", cfg.Author)
	assert.Equal(t, "flagged", cfg.PluginName)
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twbuilder.yaml")
	require.NoError(t, RunInit(path, false))
	assert.FileExists(t, path)

	err := RunInit(path, false)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
	require.NoError(t, RunInit(path, true))
}

func TestRenderGraph(t *testing.T) {
	cfg, err := (&CLI{Config: filepath.Join(t.TempDir(), "x.yaml"), Author: "a", Plugin: "p"}).LoadConfig()
	require.NoError(t, err)

	out, err := RenderGraph(cfg, "watch", taskgraph.FormatText)
	require.NoError(t, err)
	for _, name := range []string{"watch", "dev", "originCopy", "stopAnyRunningServer", "serve"} {
		assert.Contains(t, out, name)
	}

	out, err = RenderGraph(cfg, "build", taskgraph.FormatMermaid)
	require.NoError(t, err)
	assert.Contains(t, out, "graph")

	_, err = RenderGraph(cfg, "nope", taskgraph.FormatText)
	require.Error(t, err)
}

func TestBuildCmd_WritesPlugin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "twbuilder.yaml")
	writeFile(t, path, "author: me\nplugin_name: demo\n")
	writeFile(t, filepath.Join(dir, "src", "note.tid"), "text")
	writeFile(t, filepath.Join(dir, "src", "note.tid.meta"), "title: Note")
	writeFile(t, filepath.Join(dir, "src", "img", "logo.png"), "png")

	require.NoError(t, (&BuildCmd{}).Run(&Global{}, &CLI{Config: path}))

	out := filepath.Join(dir, "plugins", "me", "demo")
	got, err := os.ReadFile(filepath.Join(out, "note.tid.tid"))
	require.NoError(t, err)
	assert.Equal(t, "title: Note\n\ntext\n", string(got))
	assert.FileExists(t, filepath.Join(out, "img", "logo.png"))
}

func TestServeCmd_ReportsEarlyExit(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "twbuilder.yaml")
	writeFile(t, path, "author: me\nplugin_name: demo\ntiddlywiki:\n  command: [sh, -c, 'exit 3', sh]\n")

	errc := make(chan error, 1)
	go func() { errc <- (&ServeCmd{}).Run(&Global{}, &CLI{Config: path}) }()

	select {
	case err := <-errc:
		require.Error(t, err)
		assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryServer))
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not report the exited server")
	}
}

func TestTaskCmd_UnknownTask(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "twbuilder.yaml")
	writeFile(t, path, "author: me\nplugin_name: demo\n")

	err := (&TaskCmd{Name: "nope"}).Run(&Global{}, &CLI{Config: path})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryNotFound))
}

func TestEnvRun_WrapsFailureAsTask(t *testing.T) {
	dir := t.TempDir()
	e, err := (&CLI{Config: filepath.Join(dir, "twbuilder.yaml"), Author: "a", Plugin: "p"}).
		setup(context.Background(), &Global{}, nil, false)
	require.NoError(t, err)

	err = e.run(context.Background(), taskgraph.Leaf("boom", func(context.Context) error {
		return assert.AnError
	}))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryTask))
	assert.ErrorIs(t, err, assert.AnError)
}
