package annotate

import (
	"bytes"
	"context"
	"fmt"

	"git.home.luguber.info/inful/twbuilder/internal/stream"
)

// StylesheetTag makes TiddlyWiki apply a tiddler as a global stylesheet.
const StylesheetTag = "$:/tags/Stylesheet"

// Style adds a stylesheet header naming the tiddler and its tag.
func Style(id Identity) stream.Stage {
	return stream.Transform("style", func(_ context.Context, content []byte, rec *stream.FileRecord) stream.Result {
		if bytes.HasPrefix(bytes.TrimLeft(content, " \t\r\n"), moduleHeaderStart) {
			return stream.Ok(content)
		}
		header := fmt.Sprintf("/*\\\ntitle: %s\ntype: text/css\ntags: [[%s]]\n\\*/\n", id.Title(rec.OutputPath()), StylesheetTag)
		return stream.Ok(append([]byte(header), content...))
	})
}
