package dashboard

import (
	"context"
	"sync"
	"sync/atomic"

	"microfinance-backoffice/internal/domain/change"

	"go.uber.org/zap"
)

// generation hands out tokens; only the newest token may publish.
type generation struct{ n atomic.Uint64 }

func (g *generation) next() uint64            { return g.n.Add(1) }
func (g *generation) current(tok uint64) bool { return g.n.Load() == tok }

// Live recomputes a view once at start and again on every change from the
// feed. Computations overlap freely; a result is emitted only if no newer
// computation started meanwhile, so a slow stale result never overwrites a
// fresh one. The channel closes after ctx is done.
func Live[T any](ctx context.Context, sub change.Subscriber, compute func(context.Context) (T, error), log *zap.Logger) (<-chan T, error) {
	changes, err := sub.Subscribe(ctx, change.Wildcard, change.Wildcard)
	if err != nil {
		return nil, err
	}

	out := make(chan T, 1)
	var (
		gen  generation
		wg   sync.WaitGroup
		emit sync.Mutex
	)
	run := func() {
		tok := gen.next()
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := compute(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn("live dashboard recompute", zap.Error(err))
				}
				return
			}
			emit.Lock()
			defer emit.Unlock()
			if !gen.current(tok) {
				return
			}
			select {
			case out <- v:
			case <-ctx.Done():
			}
		}()
	}

	go func() {
		defer close(out)
		run()
		for {
			select {
			case <-ctx.Done():
				wg.Wait()
				return
			case _, ok := <-changes:
				if !ok {
					wg.Wait()
					return
				}
				run()
			}
		}
	}()
	return out, nil
}
