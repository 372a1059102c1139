package annotate

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"git.home.luguber.info/inful/twbuilder/internal/stream"
)

// PluginAlias is the import alias rewritten to the plugin root.
const PluginAlias = "@plugin"

var aliasPattern = regexp.MustCompile("([\"'`])" + regexp.QuoteMeta(PluginAlias) + "([/\"'`])")

var moduleHeaderStart = []byte(`/*\`)

// RewriteAlias replaces quoted "@plugin" prefixes with the plugin root.
func RewriteAlias(src []byte, id Identity) []byte {
	root := []byte(id.Root())
	// ReplaceAllFunc keeps "$" in the root literal.
	return aliasPattern.ReplaceAllFunc(src, func(m []byte) []byte {
		out := make([]byte, 0, len(root)+2)
		out = append(out, m[0])
		out = append(out, root...)
		return append(out, m[len(m)-1])
	})
}

// Script rewrites the plugin alias and adds a TiddlyWiki module header.
func Script(id Identity) stream.Stage {
	return stream.Transform("script", func(_ context.Context, content []byte, rec *stream.FileRecord) stream.Result {
		out := RewriteAlias(content, id)
		if bytes.HasPrefix(bytes.TrimLeft(out, " \t\r\n"), moduleHeaderStart) {
			return stream.Ok(out)
		}
		header := fmt.Sprintf("/*\\\ntitle: %s\ntype: application/javascript\nmodule-type: library\n\\*/\n", id.Title(rec.OutputPath()))
		return stream.Ok(append([]byte(header), out...))
	})
}
