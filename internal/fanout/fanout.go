// Package fanout is the concrete "parallel map" collaborator spec.md §6
// treats as an opaque interface: an indexed parallel map built on
// golang.org/x/sync/errgroup, used for both the endian-mode probe (two
// jobs) and the per-category codec (up to fifteen jobs).
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map runs fn(i) for every index in [0, n) concurrently and returns their
// results in original index order. If any call returns an error, Map
// returns the first one observed (errgroup cancels the shared context, but
// fn implementations here do their own work without needing to watch it).
func Map[T any](ctx context.Context, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	out := make([]T, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			v, err := fn(gctx, i)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
