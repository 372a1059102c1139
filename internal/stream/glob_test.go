package stream

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobBase(t *testing.T) {
	assert.Equal(t, "/src", GlobBase("/src/**/*.tid"))
	assert.Equal(t, "/src/styles", GlobBase("/src/styles/*.{scss,css}"))
	assert.Equal(t, "/src", GlobBase("/src/plugin.info"))
}

func TestGlob(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/a.tid", []byte("a"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/src/docs/b.tid", []byte("b"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/src/docs/b.tid.meta", []byte("m"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/src/img/c.png", []byte("c"), 0o644))

	recs, err := Glob(fs, "/src/**/*.tid")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a.tid", recs[0].RelativePath)
	assert.Equal(t, "docs/b.tid", recs[1].RelativePath)
	assert.Equal(t, "b", string(recs[1].Content))
	assert.Equal(t, "/src", recs[1].Base)

	recs, err = Glob(fs, "/src/**/*.{png,jpg}")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "img/c.png", recs[0].RelativePath)
}

func TestGlob_MissingBase(t *testing.T) {
	recs, err := Glob(memfs.New(), "/nowhere/**/*.js")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGlob_SingleFile(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/plugin.info", []byte("{}"), 0o644))

	recs, err := Glob(fs, "/src/plugin.info")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "plugin.info", recs[0].RelativePath)
}
