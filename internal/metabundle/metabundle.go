// Package metabundle merges sibling ".meta" files into their assets.
//
// For an asset at P the shadow file lives at P + ".meta". When it exists its content
// becomes the header of the asset, which is then renamed to a tiddler. Assets without
// a shadow file pass through untouched with a warning.
package metabundle

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/logfields"
	"git.home.luguber.info/inful/twbuilder/internal/stream"
)

const (
	// ShadowSuffix is appended to an asset path to locate its metadata.
	ShadowSuffix = ".meta"
	// UnitExt marks a bundled file as a recognized content unit.
	UnitExt = ".tid"
)

// ErrShadowRead reports a shadow file that existed but could not be read.
var ErrShadowRead = errors.New("shadow meta file could not be read")

// ShadowPath returns the metadata path for the asset at path.
func ShadowPath(path string) string { return path + ShadowSuffix }

// Merge joins header and content the way the bundler writes them.
func Merge(header, content []byte) []byte {
	out := make([]byte, 0, len(header)+len(content)+3)
	out = append(out, header...)
	out = append(out, "\n\n"...)
	out = append(out, content...)
	return append(out, '\n')
}

// Bundler is the meta bundling stage.
type Bundler struct {
	fs     billy.Filesystem
	logger *slog.Logger
}

// New returns a Bundler reading shadow files from fsys.
func New(fsys billy.Filesystem, logger *slog.Logger) *Bundler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bundler{fs: fsys, logger: logger}
}

// Stage exposes the bundler as a stream stage.
func (b *Bundler) Stage() stream.Stage {
	return stream.Transform("metaBundle", b.bundle)
}

func (b *Bundler) bundle(_ context.Context, content []byte, rec *stream.FileRecord) stream.Result {
	shadow := ShadowPath(rec.Path)

	if _, err := b.fs.Stat(shadow); err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			b.logger.Warn("File has no meta file", logfields.File(rec.RelativePath))
			return stream.Ok(content)
		}
		return stream.Fail(b.readFailure(shadow, err))
	}

	// Existence and read are not atomic; a file removed in between is a read failure.
	header, err := util.ReadFile(b.fs, shadow)
	if err != nil {
		return stream.Fail(b.readFailure(shadow, err))
	}

	rec.BaseName += UnitExt
	b.logger.Info("Adding meta header", logfields.File(rec.RelativePath))
	return stream.Ok(Merge(header, content))
}

func (b *Bundler) readFailure(shadow string, cause error) error {
	return foundationerrors.WrapError(errors.Join(ErrShadowRead, cause), foundationerrors.CategoryFileSystem, "failed to read meta file").
		WithContext("path", shadow).
		Build()
}
