package stream

import (
	"path"
	"path/filepath"
)

// FileRecord is one file in flight through a pipeline.
//
// RelativePath is fixed for the lifetime of a run. Stages may rewrite only
// BaseName and Content.
type FileRecord struct {
	// Path is the absolute location of the source file.
	Path string
	// Base is the glob base RelativePath is relative to.
	Base string
	// RelativePath locates the source file below Base, slash separated.
	RelativePath string
	// BaseName is the output file name.
	BaseName string
	Content  []byte
}

// NewFileRecord builds a record for the file at p below base.
func NewFileRecord(base, p string, content []byte) (*FileRecord, error) {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)
	return &FileRecord{
		Path:         p,
		Base:         base,
		RelativePath: rel,
		BaseName:     path.Base(rel),
		Content:      content,
	}, nil
}

// OutputPath is the slash separated path the record is written to below the output root.
func (r *FileRecord) OutputPath() string {
	dir := path.Dir(r.RelativePath)
	if dir == "." {
		return r.BaseName
	}
	return path.Join(dir, r.BaseName)
}

// Ext returns the extension of the current base name.
func (r *FileRecord) Ext() string {
	return path.Ext(r.BaseName)
}

// Clone returns a deep copy so a timed-out stage cannot mutate a record that moved on.
func (r *FileRecord) Clone() *FileRecord {
	c := *r
	c.Content = append([]byte(nil), r.Content...)
	return &c
}
