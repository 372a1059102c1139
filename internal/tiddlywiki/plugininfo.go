package tiddlywiki

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/twbuilder/internal/manifest"
	"git.home.luguber.info/inful/twbuilder/internal/stream"
)

// PluginInfo checks that a manifest declares the fields TiddlyWiki needs to load it.
func PluginInfo() stream.Stage {
	return stream.Transform("pluginInfo", func(_ context.Context, content []byte, rec *stream.FileRecord) stream.Result {
		m, err := manifest.Parse(content)
		if err != nil {
			return stream.Fail(err)
		}
		for _, field := range []string{manifest.FieldTitle, manifest.FieldPluginType} {
			if manifest.Get(m, field) == "" {
				return stream.Fail(fmt.Errorf("%s: missing %q", rec.RelativePath, field))
			}
		}
		return stream.Ok(content)
	})
}
