package stream

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Dest writes records below outRoot at their OutputPath, creating directories.
// It stops at the first write failure.
func Dest(fsys billy.Filesystem, outRoot string, records []*FileRecord) error {
	for _, r := range records {
		target := filepath.Join(outRoot, filepath.FromSlash(r.OutputPath()))
		if err := fsys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := util.WriteFile(fsys, target, r.Content, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}
