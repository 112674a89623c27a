package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPipeline   = "pipeline"
	KeyTarget     = "target"
	KeyTask       = "task"
	KeyState      = "state"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyOutput     = "output"
	KeyTransform  = "transform"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Pipeline(p string) slog.Attr     { return slog.String(KeyPipeline, p) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Output(o string) slog.Attr       { return slog.String(KeyOutput, o) }
func Transform(t string) slog.Attr    { return slog.String(KeyTransform, t) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
