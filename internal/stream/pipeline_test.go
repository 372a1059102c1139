package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
)

func TestPipeline_WritesMirroredTree(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/x/a.js", []byte("a"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/src/b.js", []byte("b"), 0o644))

	p := Pipeline{Name: "javascript", Pattern: "/src/**/*.js", Stages: []Stage{upper()}, Output: "/out/me/demo"}
	require.NoError(t, p.Run(context.Background(), fs, Options{}))

	got, err := util.ReadFile(fs, "/out/me/demo/x/a.js")
	require.NoError(t, err)
	assert.Equal(t, "A", string(got))
	got, err = util.ReadFile(fs, "/out/me/demo/b.js")
	require.NoError(t, err)
	assert.Equal(t, "B", string(got))
}

func TestPipeline_PartialFailureStillWritesSiblings(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/good.js", []byte("g"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/src/bad.js", []byte("b"), 0o644))

	failBad := Transform("check", func(_ context.Context, c []byte, rec *FileRecord) Result {
		if rec.BaseName == "bad.js" {
			return Fail(errors.New("syntax"))
		}
		return Ok(c)
	})
	p := Pipeline{Name: "javascript", Pattern: "/src/*.js", Stages: []Stage{failBad}, Output: "/out"}

	err := p.Run(context.Background(), fs, Options{})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryTransform))
	require.Len(t, RecordErrors(err), 1)

	_, statErr := fs.Stat("/out/good.js")
	require.NoError(t, statErr)
	_, statErr = fs.Stat("/out/bad.js")
	assert.Error(t, statErr)
}
