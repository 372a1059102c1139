package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTask       = "task"
	KeyNode       = "node"
	KeyKind       = "kind"
	KeyFile       = "file"
	KeyStage      = "stage"
	KeyRunID      = "run_id"
	KeyPlugin     = "plugin"
	KeyPath       = "path"
	KeyReason     = "reason"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func Node(name string) slog.Attr      { return slog.String(KeyNode, name) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func File(rel string) slog.Attr       { return slog.String(KeyFile, rel) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Plugin(id string) slog.Attr      { return slog.String(KeyPlugin, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
