package app

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/corey/acmatch/internal/ports"
)

// SearchBatch searches each text with one dictionary on up to workers
// goroutines (workers <= 0 uses GOMAXPROCS). results[i] holds the matches of
// texts[i]. The first error cancels the remaining searches.
func (r *Registry) SearchBatch(ctx context.Context, key string, texts []string, bounded bool, workers int) ([][]ports.Match, error) {
	e, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([][]ports.Match, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			matches, err := collect(e.Searcher, text, bounded, 0)
			if err != nil {
				return err
			}
			results[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
