package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ppiankov/reasongraph/internal/cache"
	"github.com/ppiankov/reasongraph/internal/model"
)

// step says what to do with a node's parents after it is recomputed
type step int

const (
	stepIfChanged step = iota // recurse only when |delta| >= epsilon
	stepAlways                // recurse even on a zero delta (status changes)
	stepNone                  // caller orders the walk itself (Rescore)
)

// propagation accumulates the trace of a single mutation
type propagation struct {
	p     *Pipeline
	trace model.Trace
}

// mutate runs fn under the write lock and wraps its trace with ids, spans
// and metrics. fn performs the graph write and then the recomputes.
func (p *Pipeline) mutate(ctx context.Context, op, subject string, fn func(*propagation) error) (model.Trace, error) {
	if err := ctx.Err(); err != nil {
		return model.Trace{}, err
	}
	ctx, span := startMutationSpan(ctx, p.topic, op, subject)
	defer span.End()
	start := time.Now()

	p.mu.Lock()
	prop := &propagation{
		p: p,
		trace: model.Trace{
			MutationID: p.newID(),
			Operation:  op,
			Subject:    subject,
			Events:     []model.TraceEvent{},
		},
	}
	err := fn(prop)
	p.mu.Unlock()

	recordMutation(ctx, p.topic, op, prop.trace, time.Since(start), err)
	endMutationSpan(span, prop.trace, err)

	if err != nil {
		p.logger.Debug("mutation rejected", "op", op, "subject", subject, "error", err)
		return model.Trace{}, err
	}
	p.logger.Debug("mutation applied",
		"op", op,
		"subject", subject,
		"mutation_id", prop.trace.MutationID,
		"recomputes", len(prop.trace.Events),
		"depth", prop.trace.MaxDepth(),
	)
	return prop.trace, nil
}

// recompute scores id from its neighbours' stored scores, stores the result,
// logs it to the trace and walks up to the parents if the change is large
// enough and the depth bound allows.
func (pr *propagation) recompute(id string, depth int, next step) error {
	p := pr.p
	prev, ok := p.store.Node(id)
	if !ok {
		return fmt.Errorf("recompute %s: node vanished mid-propagation", id)
	}

	b, err := p.engine.Compute(p.store, id)
	if err != nil {
		return fmt.Errorf("recompute %s: %w", id, err)
	}
	if err := p.store.UpdateNode(withScore(prev, b.Final)); err != nil {
		return fmt.Errorf("recompute %s: %w", id, err)
	}
	p.scores.Set(cache.CacheKey(p.topic, id), b, 0)

	delta := b.Final - prev.Score()
	pr.trace.Events = append(pr.trace.Events, model.TraceEvent{
		NodeID:        id,
		Kind:          prev.Kind(),
		PreviousScore: prev.Score(),
		NewScore:      b.Final,
		Delta:         delta,
		Depth:         depth,
		Dead:          b.Dead,
		Timestamp:     p.now(),
	})

	switch next {
	case stepNone:
		return nil
	case stepIfChanged:
		if math.Abs(delta) < p.config.Propagation.Epsilon {
			return nil
		}
	}

	parents, err := p.store.Parents(id)
	if err != nil {
		return err
	}
	if len(parents) == 0 {
		return nil
	}
	if depth >= p.config.Propagation.MaxDepth {
		pr.trace.Truncated = true
		p.logger.Warn("propagation truncated at max depth",
			"node", id,
			"depth", depth,
			"delta", delta,
			"pending_parents", len(parents),
		)
		return nil
	}

	for _, parent := range parents {
		if err := pr.recompute(parent, depth+1, stepIfChanged); err != nil {
			return err
		}
	}
	return nil
}

// recomputeAll starts an independent walk from each id at depth 0
func (pr *propagation) recomputeAll(ids []string, next step) error {
	for _, id := range ids {
		if _, ok := pr.p.store.Node(id); !ok {
			continue
		}
		if err := pr.recompute(id, 0, next); err != nil {
			return err
		}
	}
	return nil
}

// withScore writes a score back onto whichever node variant n is
func withScore(n model.Node, s float64) model.Node {
	switch v := n.(type) {
	case model.Claim:
		return v.WithScore(s)
	case model.Argument:
		return v.WithScore(s)
	case model.Evidence:
		return v.WithScore(s)
	default:
		return n
	}
}
