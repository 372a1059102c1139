package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Task", KeyTask, "sass", Task("sass")},
		{"Node", KeyNode, "build", Node("build")},
		{"Kind", KeyKind, "metaBundle", Kind("metaBundle")},
		{"File", KeyFile, "note.tid", File("note.tid")},
		{"Stage", KeyStage, "annotateScript", Stage("annotateScript")},
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Plugin", KeyPlugin, "$:/plugins/a/b", Plugin("$:/plugins/a/b")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Reason", KeyReason, "partial", Reason("partial")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Fatalf("%s key mismatch: got %s want %s", c.name, c.attr.Key, c.attrKey)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Fatalf("%s value mismatch: got %s want %s", c.name, c.attr.Value.String(), c.attrVal)
		}
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil); got.Key != KeyError || got.Value.String() != "" {
		t.Fatalf("unexpected nil error attr: %v", got)
	}
	if got := Error(errors.New("boom")); got.Value.String() != "boom" {
		t.Fatalf("unexpected error attr value: %v", got.Value)
	}
	if got := DurationMS(12.5); got.Value.Float64() != 12.5 {
		t.Fatalf("unexpected duration attr: %v", got.Value)
	}
}
