package annotate

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/twbuilder/internal/stream"
)

// PluginAttr is set on top-level elements of annotated HTML.
const PluginAttr = "data-tw-plugin"

// HTML marks the top-level elements of a fragment with the plugin identity. A complete
// document gets the attribute on its <html> element.
func HTML(id Identity) stream.Stage {
	return stream.Transform("html", func(_ context.Context, content []byte, _ *stream.FileRecord) stream.Result {
		out, err := AnnotateHTML(content, id.Root())
		if err != nil {
			return stream.Fail(err)
		}
		return stream.Ok(out)
	})
}

// AnnotateHTML sets PluginAttr to value on the top-level elements of src.
func AnnotateHTML(src []byte, value string) ([]byte, error) {
	if isDocument(src) {
		doc, err := html.Parse(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		for n := doc.FirstChild; n != nil; n = n.NextSibling {
			if n.Type == html.ElementNode && n.DataAtom == atom.Html {
				setAttr(n, PluginAttr, value)
			}
		}
		var buf bytes.Buffer
		if err := html.Render(&buf, doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(src), body)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			setAttr(n, PluginAttr, value)
		}
		if err := html.Render(&buf, n); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func isDocument(src []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(src[:min(len(src), 512)])))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

func setAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}
