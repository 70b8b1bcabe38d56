package search

import (
	"context"

	"softcenter/internal/domain"
)

// Result is the outcome of a one-shot search
type Result struct {
	Query    string
	Items    []domain.Item
	Failures []Update
	Done     Update
}

// Collect runs one search on e and gathers its updates until the worker
// finishes or ctx ends, in which case the search is cancelled and the
// partial result is returned with ctx's error. e's updates must not be
// drained by anyone else meanwhile.
func Collect(ctx context.Context, e *Executor, query string) (Result, error) {
	res := Result{Query: query}
	gen := e.Start(query)

	for {
		select {
		case <-ctx.Done():
			e.Cancel()
			return res, ctx.Err()
		case u := <-e.Updates():
			if u.Generation != gen {
				continue
			}
			switch u.Kind {
			case UpdateItem:
				res.Items = append(res.Items, u.Item)
			case UpdatePluginFailed:
				res.Failures = append(res.Failures, u)
			case UpdateDone:
				res.Done = u
				return res, nil
			}
		}
	}
}
