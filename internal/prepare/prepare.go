package prepare

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/speechdataset/internal/dataset"
	"github.com/alnah/speechdataset/internal/segment"
)

// Loader reads the raw fields of one item.
type Loader interface {
	Load(ctx context.Context, id dataset.ItemID) (dataset.Item, error)
}

// Saver persists one aligned item.
type Saver interface {
	Save(id dataset.ItemID, it dataset.Item) error
}

// Compile-time interface implementation checks.
var (
	_ Loader = (*Corpus)(nil)
	_ Saver  = (*dataset.Store)(nil)
)

// ProgressFunc is called after each finished item with the number of items
// done so far. Calls are serialized.
type ProgressFunc func(done, total int)

// Options configures Run.
type Options struct {
	Hops      dataset.Hops
	MinLength int
	// Parallel is the number of items processed at once. Values below 1 use
	// one worker per CPU.
	Parallel   int
	OnProgress ProgressFunc
}

// DefaultParallel returns the worker count used when Options.Parallel is unset.
func DefaultParallel() int {
	return runtime.NumCPU()
}

// Align length-matches the fields of one item on their shared timeline.
func Align(it dataset.Item, hops dataset.Hops, minLength int) (dataset.Item, error) {
	set, err := it.WorkingSet(hops)
	if err != nil {
		return dataset.Item{}, err
	}
	out, err := segment.MatchLength(set, minLength)
	if err != nil {
		return dataset.Item{}, err
	}
	return dataset.ItemFromSequences(out)
}

// Run loads, aligns and saves every item with bounded concurrency.
// The first failure cancels the remaining items and is returned.
func Run(ctx context.Context, ids []dataset.ItemID, src Loader, dst Saver, opts Options) error {
	if len(ids) == 0 {
		return ErrNoItems
	}

	parallel := opts.Parallel
	if parallel < 1 {
		parallel = DefaultParallel()
	}

	var (
		mu   sync.Mutex
		done int
	)
	sem := make(chan struct{}, parallel)
	g, ctx := errgroup.WithContext(ctx)

	for _, id := range ids {
		g.Go(func() error {
			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			if err := processItem(ctx, id, src, dst, opts); err != nil {
				return fmt.Errorf("item %s: %w", id, err)
			}

			if opts.OnProgress != nil {
				mu.Lock()
				done++
				opts.OnProgress(done, len(ids))
				mu.Unlock()
			}
			return nil
		})
	}

	return g.Wait()
}

func processItem(ctx context.Context, id dataset.ItemID, src Loader, dst Saver, opts Options) error {
	raw, err := src.Load(ctx, id)
	if err != nil {
		return err
	}
	aligned, err := Align(raw, opts.Hops, opts.MinLength)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return dst.Save(id, aligned)
}
