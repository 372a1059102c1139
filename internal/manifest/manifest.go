// Package manifest fills and normalizes the plugin.info manifest.
package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"git.home.luguber.info/inful/twbuilder/internal/annotate"
	"git.home.luguber.info/inful/twbuilder/internal/stream"
)

// Manifest field names.
const (
	FieldTitle        = "title"
	FieldAuthor       = "author"
	FieldPluginType   = "plugin-type"
	FieldSourceCommit = "source-commit"
)

// DefaultPluginType is used when the manifest does not declare one.
const DefaultPluginType = "plugin"

var serializeOptions = ojg.Options{Indent: 4, Sort: true}

// Parse decodes a manifest. The document must be a JSON object.
func Parse(src []byte) (map[string]any, error) {
	v, err := oj.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid plugin manifest: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("invalid plugin manifest: top level is not an object")
	}
	return m, nil
}

// Get returns the string value of field, empty when missing or not a string.
func Get(m map[string]any, field string) string {
	s, _ := jp.C(field).First(m).(string)
	return s
}

// Annotate fills title, author and plugin-type when missing. A non-empty commit is
// always written to source-commit.
func Annotate(id annotate.Identity, commit string) stream.Stage {
	return stream.Transform("manifest", func(_ context.Context, content []byte, _ *stream.FileRecord) stream.Result {
		m, err := Parse(content)
		if err != nil {
			return stream.Fail(err)
		}
		defaults := []struct{ field, value string }{
			{FieldTitle, id.Root()},
			{FieldAuthor, id.Author},
			{FieldPluginType, DefaultPluginType},
		}
		for _, d := range defaults {
			if Get(m, d.field) != "" {
				continue
			}
			if err := jp.C(d.field).Set(m, d.value); err != nil {
				return stream.Fail(err)
			}
		}
		if commit != "" {
			if err := jp.C(FieldSourceCommit).Set(m, commit); err != nil {
				return stream.Fail(err)
			}
		}
		return stream.Ok([]byte(oj.JSON(m, &serializeOptions)))
	})
}

// Serializer re-emits the manifest with sorted keys, four space indent and a final newline.
func Serializer() stream.Stage {
	return stream.Transform("serialize", func(_ context.Context, content []byte, _ *stream.FileRecord) stream.Result {
		m, err := Parse(content)
		if err != nil {
			return stream.Fail(err)
		}
		return stream.Ok([]byte(oj.JSON(m, &serializeOptions) + "\n"))
	})
}

// SourceCommit returns the HEAD commit of the repository containing dir, or an empty
// string when dir is not inside a repository or HEAD is unborn.
func SourceCommit(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", err
	}
	return head.Hash().String(), nil
}
