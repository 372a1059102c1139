package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeSources(t *testing.T) {
	defaults := DefaultSources("src", "plugins", "alice", "demo")

	t.Run("empty overrides keep defaults", func(t *testing.T) {
		assert.Equal(t, defaults, MergeSources(defaults, SourceSet{}))
	})

	t.Run("non-empty override wins", func(t *testing.T) {
		merged := MergeSources(defaults, SourceSet{Sass: "styles/*.scss", Output: "out"})
		assert.Equal(t, "styles/*.scss", merged.Sass)
		assert.Equal(t, "out", merged.Output)
		assert.Equal(t, defaults.Script, merged.Script)
	})

	t.Run("documents alias folds into tiddlers", func(t *testing.T) {
		merged := MergeSources(defaults, SourceSet{Documents: "docs/*.tid"})
		assert.Equal(t, "docs/*.tid", merged.Tiddlers)
		assert.Empty(t, merged.Documents)
	})

	t.Run("inputs are not modified", func(t *testing.T) {
		overrides := SourceSet{HTML: "x/*.html"}
		before := defaults
		_ = MergeSources(defaults, overrides)
		assert.Equal(t, before, defaults)
		assert.Equal(t, SourceSet{HTML: "x/*.html"}, overrides)
	})
}

func TestDefaultSources(t *testing.T) {
	s := DefaultSources("src", "plugins", "alice", "demo")
	assert.Equal(t, "src/plugin.info", s.PluginInfo)
	assert.Equal(t, "plugins/alice/demo", s.Output)
	for _, k := range Kinds() {
		assert.NotEmpty(t, s.Pattern(k), k)
	}
	assert.NoError(t, s.Validate())
}

func TestSourceSet_Resolve(t *testing.T) {
	s := SourceSet{Sass: "src/*.scss", Script: "/abs/*.js", Output: "out"}.Resolve("/root")
	assert.Equal(t, "/root/src/*.scss", s.Sass)
	assert.Equal(t, "/abs/*.js", s.Script)
	assert.Equal(t, "/root/out", s.Output)
	assert.Empty(t, s.HTML)
}

func TestSourceSet_LogValue(t *testing.T) {
	v := DefaultSources("src", "plugins", "a", "p").LogValue()
	assert.Equal(t, slog.KindGroup, v.Kind())
	assert.Len(t, v.Group(), len(Kinds())+1)
}
