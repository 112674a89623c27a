package site

import (
	"context"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// passthrough copies every passthrough file verbatim. Transforms never run
// on passthrough output.
func (b *Builder) passthrough(ctx context.Context) error {
	for _, c := range b.manifest.Passthrough {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.out.CopyFile(c.Source, c.Output); err != nil {
			return fsError("copy", c.Source, err)
		}
	}
	b.logger.Info("Passthrough copied", logfields.Count(len(b.manifest.Passthrough)))
	return nil
}
