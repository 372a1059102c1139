package stream

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// GlobBase returns the directory part of pattern that contains no meta characters.
// RelativePath of every matched record is relative to it.
func GlobBase(pattern string) string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return filepath.FromSlash(base)
}

// Glob walks the static base of pattern on fsys and reads every regular file that
// matches. A missing base yields no records. Symlinks are not followed.
func Glob(fsys billy.Filesystem, pattern string) ([]*FileRecord, error) {
	paths, err := Match(fsys, pattern)
	if err != nil {
		return nil, err
	}
	base := GlobBase(pattern)
	records := make([]*FileRecord, 0, len(paths))
	for _, p := range paths {
		content, err := util.ReadFile(fsys, p)
		if err != nil {
			return nil, err
		}
		r, err := NewFileRecord(base, p, content)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Match lists the paths of regular files on fsys matching pattern, sorted.
func Match(fsys billy.Filesystem, pattern string) ([]string, error) {
	slashed := filepath.ToSlash(pattern)
	base := GlobBase(pattern)

	if _, err := fsys.Lstat(base); err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var matches []string
	err := util.Walk(fsys, base, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		ok, err := doublestar.Match(slashed, filepath.ToSlash(p))
		if err != nil {
			return err
		}
		if ok {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
