package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("missing author").Build(), expected: 7},
		{name: "filesystem", err: FileSystemError("read failed").Build(), expected: 11},
		{name: "task wrapped", err: fmt.Errorf("build: %w", TaskError("series aborted").Build()), expected: 11},
		{name: "server", err: ServerError("start failed").Build(), expected: 12},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified", err: errors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	cause := errors.New("exit status 1")
	err := WrapError(cause, CategoryServer, "start dev server").Build()

	if got := quiet.FormatError(err); got != "Error: start dev server: exit status 1" {
		t.Errorf("unexpected quiet format: %q", got)
	}
	if got := verbose.FormatError(err); !strings.Contains(got, "[server:error]") {
		t.Errorf("expected verbose format to include classification, got %q", got)
	}
	if got := quiet.FormatError(InternalError("nil graph").Build()); !strings.Contains(got, "use -v") {
		t.Errorf("expected internal errors to be hidden, got %q", got)
	}
	if got := quiet.FormatError(errors.New("plain")); got != "Error: plain" {
		t.Errorf("unexpected unclassified format: %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, stderr bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.stderr = &stderr
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("author is required").WithContext("field", "author").Build())

	if code != 7 {
		t.Errorf("expected exit code 7, got %d", code)
	}
	if !strings.Contains(stderr.String(), "author is required") {
		t.Errorf("expected message on stderr, got %q", stderr.String())
	}
	if !strings.Contains(logs.String(), "field=author") {
		t.Errorf("expected context in log output, got %q", logs.String())
	}

	code = -1
	adapter.HandleError(nil)
	if code != -1 {
		t.Error("expected nil error to not exit")
	}
}
