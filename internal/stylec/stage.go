package stylec

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/twbuilder/internal/logfields"
	"git.home.luguber.info/inful/twbuilder/internal/stream"
)

// Stage compiles every record with c and renames it to .css.
//
// Partials (files starting with "_") are only imported by other stylesheets and are
// dropped. A compile error is logged and drops the record without failing the task.
func Stage(c Compiler, logger *slog.Logger) stream.Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return stream.Transform("sass", func(ctx context.Context, content []byte, rec *stream.FileRecord) stream.Result {
		if strings.HasPrefix(rec.BaseName, "_") {
			return stream.Drop("partial")
		}
		css, err := c.Compile(ctx, content, filepath.Dir(rec.Path))
		if err != nil {
			logger.Error("Failed to compile stylesheet", logfields.File(rec.RelativePath), logfields.Error(err))
			return stream.Drop("compile error")
		}
		rec.BaseName = strings.TrimSuffix(rec.BaseName, filepath.Ext(rec.BaseName)) + ".css"
		return stream.Ok(css)
	})
}
