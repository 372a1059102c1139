package taskgraph

import (
	"fmt"
	"strings"
)

// TaskError is a failed leaf.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string { return fmt.Sprintf("task %s: %v", e.Task, e.Err) }

func (e *TaskError) Unwrap() error { return e.Err }

// GroupError collects every failed member of a parallel group.
type GroupError struct {
	Group  string
	Errors []error
}

func (e *GroupError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("group %s: %d failed: %s", e.Group, len(e.Errors), strings.Join(msgs, "; "))
}

func (e *GroupError) Unwrap() []error { return e.Errors }

// SeriesAbortError reports the step that stopped a chain and the steps that never ran.
type SeriesAbortError struct {
	Chain   string
	Step    string
	Skipped []string
	Err     error
}

func (e *SeriesAbortError) Error() string {
	if len(e.Skipped) == 0 {
		return fmt.Sprintf("series %s aborted at %s: %v", e.Chain, e.Step, e.Err)
	}
	return fmt.Sprintf("series %s aborted at %s (skipped %s): %v", e.Chain, e.Step, strings.Join(e.Skipped, ", "), e.Err)
}

func (e *SeriesAbortError) Unwrap() error { return e.Err }
