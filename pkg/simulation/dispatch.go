package simulation

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// Thinker is the read half of an individual's tick.
type Thinker interface {
	EntityID() string
	Think() mgl64.Vec3
}

// Dispatcher runs the read phase of a tick: it returns one heading per
// thinker, in the same order. Implementations may think in parallel but
// must not return before every heading is known.
type Dispatcher interface {
	Dispatch(ctx context.Context, tick uint64, thinkers []Thinker) ([]mgl64.Vec3, error)
}

// PoolDispatcher thinks on a bounded pool of goroutines.
type PoolDispatcher struct {
	Workers int
}

func (p PoolDispatcher) Dispatch(ctx context.Context, _ uint64, thinkers []Thinker) ([]mgl64.Vec3, error) {
	headings := make([]mgl64.Vec3, len(thinkers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Workers, 1))
	for i, t := range thinkers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			headings[i] = t.Think()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return headings, nil
}
