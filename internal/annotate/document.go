package annotate

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/twbuilder/internal/stream"
)

// MarkdownType is the tiddler type for markdown bodies.
const MarkdownType = "text/x-markdown"

// Tiddler is a parsed .tid file: "name: value" fields, a blank line, then the body.
type Tiddler struct {
	Fields []Field
	Body   []byte
	// HasBody is false for field-only files without a blank separator line.
	HasBody bool
}

// Field is one header line.
type Field struct {
	Name  string
	Value string
}

// ParseTiddler splits a .tid file into fields and body.
func ParseTiddler(src []byte) Tiddler {
	var t Tiddler
	head := src
	if i := bytes.Index(src, []byte("\n\n")); i >= 0 {
		head, t.Body, t.HasBody = src[:i], src[i+2:], true
	}
	for _, line := range strings.Split(string(head), "\n") {
		line = strings.TrimRight(line, "\r")
		name, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		t.Fields = append(t.Fields, Field{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return t
}

// Get returns the value of field name.
func (t Tiddler) Get(name string) (string, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Bytes renders the tiddler back to .tid format.
func (t Tiddler) Bytes() []byte {
	var buf bytes.Buffer
	for i, f := range t.Fields {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(f.Name)
		buf.WriteString(": ")
		buf.WriteString(f.Value)
	}
	if t.HasBody {
		buf.WriteString("\n\n")
		buf.Write(t.Body)
	}
	return buf.Bytes()
}

// Document qualifies the title of a tiddler and captions markdown tiddlers.
//
// A missing title becomes the plugin root plus the file path without ".tid". A markdown
// tiddler without a caption gets its first heading, or the title cased file name.
// Records that are not tiddlers pass through.
func Document(id Identity) stream.Stage {
	return stream.Transform("document", func(_ context.Context, content []byte, rec *stream.FileRecord) stream.Result {
		if rec.Ext() != ".tid" {
			return stream.Ok(content)
		}
		t := ParseTiddler(content)
		changed := false
		name := strings.TrimSuffix(rec.OutputPath(), ".tid")

		if _, ok := t.Get("title"); !ok {
			t.Fields = append([]Field{{Name: "title", Value: id.Title(name)}}, t.Fields...)
			changed = true
		}
		if typ, _ := t.Get("type"); typ == MarkdownType {
			if _, ok := t.Get("caption"); !ok {
				caption := FirstHeading(t.Body)
				if caption == "" {
					caption = TitleCase(path.Base(name))
				}
				t.Fields = append(t.Fields, Field{Name: "caption", Value: caption})
				changed = true
			}
		}
		if !changed {
			return stream.Ok(content)
		}
		return stream.Ok(t.Bytes())
	})
}

// FirstHeading returns the plain text of the first markdown heading in src.
func FirstHeading(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	var heading string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		heading = strings.TrimSpace(inlineText(h, src))
		return ast.WalkStop, nil
	})
	return heading
}

func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// TitleCase turns a file name such as "getting-started" into "Getting Started".
func TitleCase(name string) string {
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Title(language.English).String(strings.Join(strings.Fields(name), " "))
}
