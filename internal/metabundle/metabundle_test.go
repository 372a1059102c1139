package metabundle

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/stream"
)

func newTestBundler(fs billy.Filesystem) (*Bundler, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(fs, logger), &buf
}

func record(path, rel string, content string) *stream.FileRecord {
	return &stream.FileRecord{Path: path, Base: "/src", RelativePath: rel, BaseName: rel[strings.LastIndex(rel, "/")+1:], Content: []byte(content)}
}

func run(b *Bundler, rec *stream.FileRecord) stream.Result {
	return b.Stage().Fn(context.Background(), rec.Content, rec)
}

func TestBundle_MergesShadowFile(t *testing.T) {
	cases := []struct{ meta, content string }{
		{"title: Note", "hello"},
		{"title: Empty\ntags: x", ""},
		{"", "body only"},
		{"title: trailing\n", "line1\nline2\n"},
	}
	for _, tc := range cases {
		fs := memfs.New()
		require.NoError(t, util.WriteFile(fs, "/src/docs/note.md.meta", []byte(tc.meta), 0o644))
		b, logs := newTestBundler(fs)

		rec := record("/src/docs/note.md", "docs/note.md", tc.content)
		res := run(b, rec)

		require.NoError(t, res.Err)
		assert.Equal(t, tc.meta+"\n\n"+tc.content+"\n", string(res.Content))
		assert.Equal(t, "note.md.tid", rec.BaseName)
		assert.Equal(t, "docs/note.md", rec.RelativePath)
		assert.Equal(t, 1, strings.Count(logs.String(), "Adding meta header"))
		assert.Contains(t, logs.String(), "file=docs/note.md")
	}
}

func TestBundle_MissingShadowPassesThrough(t *testing.T) {
	b, logs := newTestBundler(memfs.New())

	rec := record("/src/orphan.tid", "orphan.tid", "untouched\n")
	res := run(b, rec)

	require.NoError(t, res.Err)
	assert.False(t, res.Dropped)
	assert.Equal(t, "untouched\n", string(res.Content))
	assert.Equal(t, "orphan.tid", rec.BaseName)
	assert.Equal(t, 1, strings.Count(logs.String(), "File has no meta file"))
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "file=orphan.tid")
}

func TestBundle_IdempotentOnBundledOutput(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/note.md.meta", []byte("title: Note"), 0o644))
	b, logs := newTestBundler(fs)

	first := record("/src/note.md", "note.md", "C")
	res := run(b, first)
	require.NoError(t, res.Err)
	require.NoError(t, util.WriteFile(fs, "/out/note.md.tid", res.Content, 0o644))

	second := record("/out/note.md.tid", "note.md.tid", string(res.Content))
	again := run(b, second)
	require.NoError(t, again.Err)
	assert.Equal(t, res.Content, again.Content)
	assert.Equal(t, "note.md.tid", second.BaseName)
	assert.Contains(t, logs.String(), "File has no meta file")
}

// unreadableFS reports every shadow file as present but fails to open it.
type unreadableFS struct {
	billy.Filesystem
}

func (u unreadableFS) Open(name string) (billy.File, error) {
	if strings.HasSuffix(name, ShadowSuffix) {
		return nil, os.ErrPermission
	}
	return u.Filesystem.Open(name)
}

func (u unreadableFS) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	if strings.HasSuffix(name, ShadowSuffix) {
		return nil, os.ErrPermission
	}
	return u.Filesystem.OpenFile(name, flag, perm)
}

func TestBundle_ShadowReadFailure(t *testing.T) {
	base := memfs.New()
	require.NoError(t, util.WriteFile(base, "/src/a.txt.meta", []byte("title: A"), 0o644))
	b, logs := newTestBundler(unreadableFS{base})

	rec := record("/src/a.txt", "a.txt", "body")
	res := run(b, rec)

	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, ErrShadowRead))
	assert.True(t, foundationerrors.HasCategory(res.Err, foundationerrors.CategoryFileSystem))
	assert.Equal(t, "a.txt", rec.BaseName)
	assert.NotContains(t, logs.String(), "File has no meta file")
}

func TestBundle_InPipeline(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/note.tid", []byte("text"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/src/note.tid.meta", []byte("title: Note"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/src/orphan.tid", []byte("plain"), 0o644))
	b, _ := newTestBundler(fs)

	p := stream.Pipeline{Name: "metaBundle", Pattern: "/src/*.tid", Stages: []stream.Stage{b.Stage()}, Output: "/out"}
	require.NoError(t, p.Run(context.Background(), fs, stream.Options{}))

	got, err := util.ReadFile(fs, "/out/note.tid.tid")
	require.NoError(t, err)
	assert.Equal(t, "title: Note\n\ntext\n", string(got))
	got, err = util.ReadFile(fs, "/out/orphan.tid")
	require.NoError(t, err)
	assert.Equal(t, "plain", string(got))
}

func TestMerge(t *testing.T) {
	assert.Equal(t, "M\n\nC\n", string(Merge([]byte("M"), []byte("C"))))
	assert.Equal(t, "/a/b.css.meta", ShadowPath("/a/b.css"))
}
