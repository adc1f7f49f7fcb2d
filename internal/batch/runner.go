package batch

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"vawter.tech/stopper"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// Result pairs one request with what came of it. Err is set only when the
// request never produced an outcome: rejected up front or skipped because
// the run was stopped.
type Result struct {
	Host    string
	Service string
	Action  svcaction.Action
	Outcome svcaction.Outcome
	Err     error
}

// Satisfied reports whether the request ran and ended clean.
func (r *Result) Satisfied() bool {
	return r.Err == nil && r.Outcome.Satisfied()
}

// workItem carries a request together with its position in the plan so
// results can be reported in plan order.
type workItem struct {
	idx int
	req svcaction.Request
}

// Runner fans a plan's requests out across worker goroutines. Concurrency
// is bounded, and every request against one (host, service) pair runs
// strictly after the previous one so two actions never race on the same
// service.
type Runner struct {
	logger      *zap.Logger
	engine      *svcaction.Engine
	concurrency int
}

// NewRunner builds a runner over the given engine. Concurrency below one
// is clamped to one.
func NewRunner(logger *zap.Logger, engine *svcaction.Engine, concurrency int) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		logger:      logger,
		engine:      engine,
		concurrency: concurrency,
	}
}

// Run executes every request and returns results in request order. A
// canceled context stops new work; requests already in flight finish on
// their own contexts.
func (r *Runner) Run(ctx context.Context, requests []svcaction.Request) []Result {
	if len(requests) == 0 {
		return nil
	}

	results := make([]Result, len(requests))
	done := make([]bool, len(requests))

	skipped := func(req svcaction.Request) Result {
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		return Result{Host: req.Host, Service: req.Service, Action: req.Action, Err: err}
	}

	// An already-canceled context dispatches nothing.
	if ctx.Err() != nil {
		for i, req := range requests {
			results[i] = skipped(req)
		}
		return results
	}

	// Requests for one (host, service) pair form one group so they run
	// in plan order on a single worker. Service names fold case because
	// the service managers resolve them case-insensitively; a display
	// label alias for a stable name cannot be folded before inspection.
	groups := make(map[string][]workItem)
	var order []string
	for i, req := range requests {
		key := req.Host + "/" + strings.ToLower(req.Service)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], workItem{idx: i, req: req})
	}

	r.logger.Info("Starting batch run",
		zap.Int("targets", len(requests)),
		zap.Int("groups", len(order)),
		zap.Int("concurrency", r.concurrency))

	// The stopper propagates cancellation to the workers; completion of
	// the dispatched groups is tracked separately, because the stopper
	// only releases its waiters after an explicit Stop.
	sem := make(chan struct{}, r.concurrency)
	sctx := stopper.WithContext(ctx)

	var wg sync.WaitGroup
	for _, key := range order {
		items := groups[key]

		wg.Add(1)
		accepted := sctx.Go(func(sctx *stopper.Context) error {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-sctx.Stopping():
				for _, it := range items {
					results[it.idx] = skipped(it.req)
					done[it.idx] = true
				}
				return nil
			}

			for _, it := range items {
				if sctx.IsStopping() {
					results[it.idx] = skipped(it.req)
					done[it.idx] = true
					continue
				}

				outcome, err := r.engine.Apply(ctx, it.req)
				results[it.idx] = Result{
					Host:    it.req.Host,
					Service: it.req.Service,
					Action:  it.req.Action,
					Outcome: outcome,
					Err:     err,
				}
				done[it.idx] = true
			}
			return nil
		})
		// A stopping stopper refuses new goroutines; the final
		// accounting loop records those groups as skipped.
		if !accepted {
			wg.Done()
		}
	}

	wg.Wait()

	// All work is finished; stop so the stopper's watcher goroutine
	// does not outlive the run.
	sctx.Stop(0)

	if ctx.Err() != nil {
		r.logger.Warn("Batch run stopped early", zap.Error(ctx.Err()))
	}

	// Groups the stopper never scheduled still get accounted for.
	for i := range requests {
		if !done[i] {
			results[i] = skipped(requests[i])
		}
	}
	return results
}
