package dispatch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool fans invocations out over a bounded number of workers
type Pool struct {
	Runner  Runner
	Workers int
	// OnOutcome is called once per finished invocation, serialized
	OnOutcome func(Outcome)
}

// RunAll runs every invocation and returns the outcomes in input order.
// A failed invocation never stops the others; cancelling ctx makes the
// remaining ones fail fast.
func (p *Pool) RunAll(ctx context.Context, invs []Invocation) []Outcome {
	outcomes := make([]Outcome, len(invs))
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workers)
	for i, inv := range invs {
		g.Go(func() error {
			out := p.Runner.Run(ctx, inv)
			outcomes[i] = out
			if p.OnOutcome != nil {
				mu.Lock()
				p.OnOutcome(out)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in the outcomes

	return outcomes
}
