package driver

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEach runs fn over paths with at most jobs files in flight. Results
// keep the order of paths; the first error cancels the rest.
func forEach[T any](ctx context.Context, paths []string, jobs int, fn func(ctx context.Context, path string) (T, error)) ([]T, error) {
	results := make([]T, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := fn(gctx, path)
			if err != nil {
				return err
			}
			// индекс i уникален для горутины, мьютекс не нужен
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
