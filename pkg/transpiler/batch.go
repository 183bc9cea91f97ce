package transpiler

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"github.com/spicery/jsconvert/pkg/catalog"
	"github.com/spicery/jsconvert/pkg/engine"
)

type resolved struct {
	catalog catalog.Catalog
	rules   *engine.RuleSet
}

// ConvertBatch converts every request on a pool of workers. Results are in
// request order. Every catalog is resolved first, so an unknown catalog
// fails the call before any file is read. Units fail independently; once ctx
// is canceled the units not yet finished are reported as canceled and
// ctx.Err() is returned alongside the results.
func (t *Transpiler) ConvertBatch(ctx context.Context, reqs []FileRequest, workers int) ([]*Result, error) {
	reqs = slices.Clone(reqs)
	catalogs := map[string]resolved{}
	for i := range reqs {
		if reqs[i].Catalog == "" {
			reqs[i].Catalog = t.defaultCatalog
		}
		name := reqs[i].Catalog
		if _, ok := catalogs[name]; ok {
			continue
		}
		cat, rules, err := t.resolve(name)
		if err != nil {
			return nil, err
		}
		catalogs[name] = resolved{catalog: cat, rules: rules}
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(reqs), 1))

	results := make([]*Result, len(reqs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r := catalogs[reqs[i].Catalog]
				results[i] = t.convertFile(ctx, reqs[i], r.catalog, r.rules)
			}
		}()
	}

	sent := 0
feed:
	for ; sent < len(reqs); sent++ {
		select {
		case jobs <- sent:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for i := sent; i < len(reqs); i++ {
		result := &Result{Name: reqs[i].Input, Input: reqs[i].Input, Output: reqs[i].Output, Catalog: reqs[i].Catalog}
		result.fail(ctx.Err())
		results[i] = result
	}

	summary := Summarize(results)
	t.logger.InfoContext(ctx, "batch finished",
		"units", summary.Total,
		"ok", summary.ByStatus[StatusOK],
		"failed", summary.ByStatus[StatusFailed],
		"skipped", summary.ByStatus[StatusSkipped],
		"unchanged", summary.ByStatus[StatusUnchanged],
		"canceled", summary.ByStatus[StatusCanceled],
	)
	return results, ctx.Err()
}
