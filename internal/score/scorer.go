package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/reasongraph/internal/graph"
	"github.com/ppiankov/reasongraph/internal/model"
)

// Reader is the read-only view of the graph the engine scores against
type Reader interface {
	Node(id string) (model.Node, bool)
	Supporters(id string) ([]graph.Influence, error)
	Attackers(id string) ([]graph.Influence, error)
	EvidenceFor(argumentID string) ([]model.Evidence, error)
	SimilarArguments(argumentID string) ([]graph.Similarity, error)
}

// Engine computes one node's score from its own attributes and the scores
// already stored on its direct neighbours. It never recurses.
type Engine struct {
	unverified float64
}

// NewEngine creates a scoring engine
func NewEngine(cfg model.ScoringConfig) *Engine {
	return &Engine{unverified: cfg.UnverifiedEvidenceScore}
}

// StatusScore maps a verification status to its evidence score
func (e *Engine) StatusScore(status model.VerificationStatus) float64 {
	return model.StatusScore(status, e.unverified)
}

// Compute calculates the full breakdown for a node
func (e *Engine) Compute(r Reader, id string) (model.Breakdown, error) {
	n, ok := r.Node(id)
	if !ok {
		return model.Breakdown{}, fmt.Errorf("score %s: %w", id, graph.ErrNodeNotFound)
	}

	switch v := n.(type) {
	case model.Evidence:
		return e.computeEvidence(v), nil
	case model.Argument:
		return e.computeArgument(r, v)
	case model.Claim:
		return e.computeClaim(r, v)
	default:
		return model.Breakdown{}, fmt.Errorf("score %s: unsupported node type %T", id, n)
	}
}

// computeEvidence scores a leaf from its status alone; FALSIFIED is exactly 0
func (e *Engine) computeEvidence(ev model.Evidence) model.Breakdown {
	s := Clamp(e.StatusScore(ev.Status))
	return model.Breakdown{
		NodeID:             ev.ID,
		Kind:               model.KindEvidence,
		Intrinsic:          s,
		Uniqueness:         1,
		EvidenceScore:      s,
		Extrinsic:          1,
		SupportRealization: 1,
		AttackDegradation:  1,
		Final:              s,
	}
}

// computeArgument applies uniqueness, evidence, forces and the death match
func (e *Engine) computeArgument(r Reader, arg model.Argument) (model.Breakdown, error) {
	b := model.Breakdown{NodeID: arg.ID, Kind: model.KindArgument}

	// 1. Uniqueness (diminishing returns)
	similar, err := r.SimilarArguments(arg.ID)
	if err != nil {
		return b, err
	}
	scores := make([]float64, len(similar))
	for i, s := range similar {
		scores[i] = s.Edge.SimilarityScore
	}
	b.Uniqueness = Uniqueness(scores)

	// 2. Evidence (truth anchor)
	cited, err := r.EvidenceFor(arg.ID)
	if err != nil {
		return b, err
	}
	b.EvidenceScore = EvidenceAggregate(cited)

	// 3. Intrinsic
	b.Intrinsic = Clamp(arg.BaseImpact * b.Uniqueness * b.EvidenceScore)

	// 4. Extrinsic forces (edge relevance)
	f, err := collectForces(r, arg.ID)
	if err != nil {
		return b, err
	}
	b.SupportingForce = f.support
	b.AttackingForce = f.attack
	b.Contributions = f.contributions

	// 5. Death match: a refuted argument contributes nothing upward
	if IsDead(f.support, f.attack) {
		b.Dead = true
		b.SupportRealization = realization(f)
		b.AttackDegradation = 0
		b.Extrinsic = 0
		b.Final = 0
		return b, nil
	}

	// 6. A node without effective children stands on its intrinsic score
	if f.supportPotential+f.attackPotential == 0 {
		b.SupportRealization = 1
		b.AttackDegradation = 1
		b.Extrinsic = 1
		b.Final = b.Intrinsic
		return b, nil
	}

	b.SupportRealization = realization(f)
	b.AttackDegradation = AttackDegradation(f.support, f.attack)
	b.Extrinsic = Clamp(b.SupportRealization * b.AttackDegradation)
	b.Final = Clamp(b.Intrinsic * b.SupportRealization * b.AttackDegradation)
	return b, nil
}

// computeClaim is a Bayesian update from the neutral prior
func (e *Engine) computeClaim(r Reader, c model.Claim) (model.Breakdown, error) {
	b := model.Breakdown{
		NodeID:             c.ID,
		Kind:               model.KindClaim,
		Uniqueness:         1,
		EvidenceScore:      1,
		SupportRealization: 1,
		AttackDegradation:  1,
	}

	f, err := collectForces(r, c.ID)
	if err != nil {
		return b, err
	}
	b.SupportingForce = f.support
	b.AttackingForce = f.attack
	b.Contributions = f.contributions

	b.Final = ClaimScore(f.support, f.attack, len(f.contributions) > 0)
	b.Extrinsic = b.Final
	return b, nil
}

// forces accumulates what a node's children push into it
type forces struct {
	support          float64
	attack           float64
	supportPotential float64 // Sum of supports relevance: force if every supporter scored 1
	attackPotential  float64
	contributions    []model.Contribution
}

func collectForces(r Reader, id string) (forces, error) {
	var f forces

	supporters, err := r.Supporters(id)
	if err != nil {
		return f, err
	}
	attackers, err := r.Attackers(id)
	if err != nil {
		return f, err
	}

	add := func(in graph.Influence, kind model.EdgeKind) float64 {
		w := in.Weighted()
		f.contributions = append(f.contributions, model.Contribution{
			NodeID:    in.Source.ID,
			EdgeID:    in.Edge.EdgeID(),
			Relation:  kind,
			Score:     in.Source.CurrentScore,
			Relevance: in.Relevance,
			Weighted:  w,
		})
		return w
	}
	for _, in := range supporters {
		f.support += add(in, model.EdgeSupports)
		f.supportPotential += in.Relevance
	}
	for _, in := range attackers {
		f.attack += add(in, model.EdgeAttacks)
		f.attackPotential += in.Relevance
	}

	sort.SliceStable(f.contributions, func(i, j int) bool {
		return f.contributions[i].Weighted > f.contributions[j].Weighted
	})
	return f, nil
}

func realization(f forces) float64 {
	if f.supportPotential == 0 {
		return 1
	}
	return Clamp(f.support / f.supportPotential)
}

// Uniqueness returns 1 / (1 + sum of similarity scores). It is 1 with no
// similar arguments and approaches but never reaches 0.
func Uniqueness(similarities []float64) float64 {
	sum := 0.0
	for _, s := range similarities {
		if s > 0 {
			sum += s
		}
	}
	return 1 / (1 + sum)
}

// EvidenceAggregate returns 1 when nothing is cited, exactly 0 when any
// citation is FALSIFIED, otherwise the mean evidence score.
func EvidenceAggregate(cited []model.Evidence) float64 {
	if len(cited) == 0 {
		return 1
	}
	sum := 0.0
	for _, ev := range cited {
		if ev.Status == model.StatusFalsified {
			return 0
		}
		sum += ev.EvidenceScore
	}
	return Clamp(sum / float64(len(cited)))
}

// IsDead reports the death match outcome. Equal forces under attack are dead.
func IsDead(support, attack float64) bool {
	return attack > 0 && support-attack <= 0
}

// AttackDegradation returns the fraction of supporting force that survives
// the attack: 1 when unattacked, 0 when attacked with no support at all.
func AttackDegradation(support, attack float64) float64 {
	if attack <= 0 {
		return 1
	}
	if support <= 0 {
		return 0
	}
	return math.Max(0, 1-attack/support)
}

// ClaimScore is (support + prior) / (support + attack + 1). A claim with no
// arguments attached stays at the prior.
func ClaimScore(support, attack float64, hasArguments bool) float64 {
	if !hasArguments {
		return model.ClaimPrior
	}
	return Clamp((support + model.ClaimPrior) / (support + attack + 1.0))
}

// Clamp bounds v to [0,1] and maps NaN to 0 so nothing non-finite is stored
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
