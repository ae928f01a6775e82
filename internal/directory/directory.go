// Package directory owns the immutable, load-once club directory: reading raw
// records from a source, normalizing them, and rendering the compact text
// block that is sent to the language model.
package directory

import (
	"context"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mission-control/internal/model"
)

// Directory is the normalized club list. It is built once and never changes,
// so it is safe for any number of concurrent readers.
type Directory struct {
	clubs []model.Club

	contextOnce sync.Once
	context     string
}

// New normalizes raw records, preserving their order.
func New(raws []model.RawClub) *Directory {
	return &Directory{clubs: model.NormalizeAll(raws)}
}

// Load reads every record from src and builds a Directory.
func Load(ctx context.Context, src Source) (*Directory, error) {
	raws, err := src.Load(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "directory: load from %s", src.Name())
	}
	d := New(raws)
	zap.L().Info("directory: loaded clubs",
		zap.String("source", src.Name()),
		zap.Int("clubs", d.Len()),
	)
	return d, nil
}

// Len returns the number of clubs.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.clubs)
}

// Clubs returns the clubs in directory order. The returned slice is a copy;
// the records' inner slices are shared and must not be modified.
func (d *Directory) Clubs() []model.Club {
	if d == nil {
		return nil
	}
	return slices.Clone(d.clubs)
}

// Context returns the compacted directory text, computed on first use.
func (d *Directory) Context() string {
	if d == nil {
		return ""
	}
	d.contextOnce.Do(func() {
		d.context = Compact(d.clubs)
	})
	return d.context
}
