package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/reasongraph/internal/cache"
	"github.com/ppiankov/reasongraph/internal/graph"
	"github.com/ppiankov/reasongraph/internal/model"
)

// Operation names as they appear on traces, spans and metrics
const (
	OpAddClaim          = "add_claim"
	OpAddArgument       = "add_argument"
	OpAddEvidence       = "add_evidence"
	OpLinkArgument      = "link_argument"
	OpLinkEvidence      = "link_evidence"
	OpFalsifyEvidence   = "falsify_evidence"
	OpSetEvidenceStatus = "set_evidence_status"
	OpSetRelevance      = "set_relevance"
	OpMarkSimilar       = "mark_similar"
	OpUnlink            = "unlink"
	OpRemoveNode        = "remove_node"
	OpRecompute         = "recompute"
	OpRescore           = "rescore"
)

// AddClaim inserts a claim at the neutral prior. A new node has no parents,
// so the returned trace is empty.
func (p *Pipeline) AddClaim(ctx context.Context, id, statement string) (model.Trace, error) {
	return p.mutate(ctx, OpAddClaim, id, func(pr *propagation) error {
		return p.store.AddNode(model.NewClaim(id, statement))
	})
}

// AddArgument inserts an argument whose score starts at its base impact
func (p *Pipeline) AddArgument(ctx context.Context, id, statement string, typ model.ArgumentType, baseImpact float64) (model.Trace, error) {
	return p.mutate(ctx, OpAddArgument, id, func(pr *propagation) error {
		return p.store.AddNode(model.NewArgument(id, statement, typ, baseImpact))
	})
}

// AddEvidence inserts evidence scored from its verification status
func (p *Pipeline) AddEvidence(ctx context.Context, id, url, description string, status model.VerificationStatus) (model.Trace, error) {
	return p.mutate(ctx, OpAddEvidence, id, func(pr *propagation) error {
		ev := model.NewEvidence(id, url, description, status, p.config.Scoring.UnverifiedEvidenceScore)
		return p.store.AddNode(ev)
	})
}

// LinkArgument inserts a supports or attacks edge from source to target and
// recomputes the target.
func (p *Pipeline) LinkArgument(ctx context.Context, edgeID, source, target string, relation model.EdgeKind, relevance float64) (model.Trace, error) {
	return p.mutate(ctx, OpLinkArgument, edgeID, func(pr *propagation) error {
		var e model.Edge
		switch relation {
		case model.EdgeSupports:
			e = model.Supports{ID: edgeID, Source: source, Target: target, Relevance: relevance}
		case model.EdgeAttacks:
			e = model.Attacks{ID: edgeID, Source: source, Target: target, Relevance: relevance}
		default:
			return fmt.Errorf("link argument %s: %w: relation must be supports or attacks, got %q",
				edgeID, graph.ErrInvalidEdge, relation)
		}
		if err := p.store.AddEdge(e); err != nil {
			return err
		}
		return pr.recompute(target, 0, stepIfChanged)
	})
}

// LinkEvidence cites evidence from an argument and recomputes the argument
func (p *Pipeline) LinkEvidence(ctx context.Context, edgeID, argumentID, evidenceID string) (model.Trace, error) {
	return p.mutate(ctx, OpLinkEvidence, edgeID, func(pr *propagation) error {
		if err := p.store.AddEdge(model.HasEvidence{ID: edgeID, Argument: argumentID, Evidence: evidenceID}); err != nil {
			return err
		}
		return pr.recompute(argumentID, 0, stepIfChanged)
	})
}

// FalsifyEvidence flips evidence to FALSIFIED, which scores it exactly 0,
// then recomputes every argument citing it.
func (p *Pipeline) FalsifyEvidence(ctx context.Context, evidenceID string) (model.Trace, error) {
	return p.mutate(ctx, OpFalsifyEvidence, evidenceID, func(pr *propagation) error {
		return pr.setStatus(evidenceID, model.StatusFalsified)
	})
}

// SetEvidenceStatus moves evidence to any verification status and
// recomputes every argument citing it.
func (p *Pipeline) SetEvidenceStatus(ctx context.Context, evidenceID string, status model.VerificationStatus) (model.Trace, error) {
	return p.mutate(ctx, OpSetEvidenceStatus, evidenceID, func(pr *propagation) error {
		return pr.setStatus(evidenceID, status)
	})
}

func (pr *propagation) setStatus(evidenceID string, status model.VerificationStatus) error {
	n, ok := pr.p.store.Node(evidenceID)
	if !ok {
		return fmt.Errorf("set status of %s: %w", evidenceID, graph.ErrNodeNotFound)
	}
	ev, ok := n.(model.Evidence)
	if !ok {
		return fmt.Errorf("set status of %s: %w: %s is not evidence", evidenceID, graph.ErrKindMismatch, n.Kind())
	}
	ev.Status = status
	if err := pr.p.store.UpdateNode(ev); err != nil {
		return err
	}
	// Citing arguments are always revisited: the status, not the score,
	// is what trips the falsified circuit breaker.
	return pr.recompute(evidenceID, 0, stepAlways)
}

// SetEdgeRelevance changes the relevance of a supports or attacks edge and
// recomputes its target.
func (p *Pipeline) SetEdgeRelevance(ctx context.Context, edgeID string, relevance float64) (model.Trace, error) {
	return p.mutate(ctx, OpSetRelevance, edgeID, func(pr *propagation) error {
		e, ok := p.store.Edge(edgeID)
		if !ok {
			return fmt.Errorf("set relevance of %s: %w", edgeID, graph.ErrEdgeNotFound)
		}
		updated, ok := model.WithRelevance(e, relevance)
		if !ok {
			return fmt.Errorf("set relevance of %s: %w: %s edges carry no relevance", edgeID, graph.ErrInvalidEdge, e.Kind())
		}
		if err := p.store.UpdateEdge(updated); err != nil {
			return err
		}
		_, target := e.Endpoints()
		return pr.recompute(target, 0, stepIfChanged)
	})
}

// MarkSimilar records that two arguments make the same point and
// recomputes both, since the uniqueness penalty applies to each.
func (p *Pipeline) MarkSimilar(ctx context.Context, edgeID, a, b string, similarity float64) (model.Trace, error) {
	return p.mutate(ctx, OpMarkSimilar, edgeID, func(pr *propagation) error {
		if err := p.store.AddEdge(model.SimilarTo{ID: edgeID, Source: a, Target: b, SimilarityScore: similarity}); err != nil {
			return err
		}
		return pr.recomputeAll([]string{a, b}, stepIfChanged)
	})
}

// Unlink removes a single edge and recomputes the node(s) whose score
// depended on it.
func (p *Pipeline) Unlink(ctx context.Context, edgeID string) (model.Trace, error) {
	return p.mutate(ctx, OpUnlink, edgeID, func(pr *propagation) error {
		e, err := p.store.RemoveEdge(edgeID)
		if err != nil {
			return err
		}
		return pr.recomputeAll(affectedBy(e), stepIfChanged)
	})
}

// RemoveNode deletes a node with every edge touching it, then recomputes
// the nodes that lost an input: its former parents and similar peers.
func (p *Pipeline) RemoveNode(ctx context.Context, id string) (model.Trace, error) {
	return p.mutate(ctx, OpRemoveNode, id, func(pr *propagation) error {
		removed, err := p.store.RemoveNode(id)
		if err != nil {
			return err
		}
		p.scores.Delete(cache.CacheKey(p.topic, id))

		seen := make(map[string]bool)
		var affected []string
		for _, e := range removed {
			for _, n := range affectedBy(e) {
				if n != id && !seen[n] {
					seen[n] = true
					affected = append(affected, n)
				}
			}
		}
		return pr.recomputeAll(affected, stepIfChanged)
	})
}

// Recompute re-scores one node and propagates any change. On a consistent
// graph it yields a single event with a zero delta.
func (p *Pipeline) Recompute(ctx context.Context, id string) (model.Trace, error) {
	return p.mutate(ctx, OpRecompute, id, func(pr *propagation) error {
		if _, ok := p.store.Node(id); !ok {
			return fmt.Errorf("recompute %s: %w", id, graph.ErrNodeNotFound)
		}
		return pr.recompute(id, 0, stepIfChanged)
	})
}

// Rescore recomputes every node exactly once, children before parents, so
// each node sees final scores from everything below it.
func (p *Pipeline) Rescore(ctx context.Context) (model.Trace, error) {
	return p.mutate(ctx, OpRescore, p.topic, func(pr *propagation) error {
		return pr.recomputeAll(p.store.TopologicalOrder(), stepNone)
	})
}

// affectedBy returns the nodes whose score reads the given edge
func affectedBy(e model.Edge) []string {
	source, target := e.Endpoints()
	switch e.Kind() {
	case model.EdgeHasEvidence:
		return []string{source}
	case model.EdgeSimilarTo:
		return []string{source, target}
	default:
		return []string{target}
	}
}
