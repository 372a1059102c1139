package tasks

import (
	"context"

	"git.home.luguber.info/inful/twbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/stream"
)

// CheckDisjoint globs every kind and fails when one source file is matched by two kinds.
// Every kind writes into the same output tree, so an overlap would race on one file.
func (b *Builder) CheckDisjoint(ctx context.Context) error {
	owner := make(map[string]config.Kind)
	for _, kind := range config.Kinds() {
		if err := ctx.Err(); err != nil {
			return err
		}
		paths, err := stream.Match(b.fs, b.cfg.Sources.Pattern(kind))
		if err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to glob sources").
				WithContext("kind", string(kind)).
				Build()
		}
		for _, p := range paths {
			if other, taken := owner[p]; taken {
				return foundationerrors.ValidationError("source file matched by more than one kind").
					WithContext("path", p).
					WithContext("kind", string(kind)).
					WithContext("other", string(other)).
					Build()
			}
			owner[p] = kind
		}
	}
	return nil
}
