package stream

import (
	"context"
	"errors"
	"fmt"
)

// ErrRecordTimeout reports a stage that did not produce a result within Options.RecordTimeout.
var ErrRecordTimeout = errors.New("stage did not return a result in time")

// Result is the outcome of one stage for one record.
type Result struct {
	Content []byte
	Err     error
	Dropped bool
	Reason  string
}

// Ok forwards the record with content.
func Ok(content []byte) Result { return Result{Content: content} }

// Fail drops the record and fails the owning task.
func Fail(err error) Result { return Result{Err: err} }

// Drop removes the record from the stream without failing the task.
func Drop(reason string) Result { return Result{Dropped: true, Reason: reason} }

// TransformFunc processes one record. It may rename rec.BaseName and must not touch
// rec.RelativePath.
type TransformFunc func(ctx context.Context, content []byte, rec *FileRecord) Result

// Stage is a named TransformFunc.
type Stage struct {
	Name string
	Fn   TransformFunc
}

// Transform names fn as a stage.
func Transform(name string, fn TransformFunc) Stage {
	return Stage{Name: name, Fn: fn}
}

// RecordError is a stage failure for one file.
type RecordError struct {
	Stage        string
	RelativePath string
	Err          error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.RelativePath, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
