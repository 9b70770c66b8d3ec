package model

// NodeKind identifies the variant of a graph node
type NodeKind string

const (
	KindClaim    NodeKind = "claim"    // Contested statement, pure aggregator
	KindArgument NodeKind = "argument" // Reason for or against a claim or argument
	KindEvidence NodeKind = "evidence" // Cited source with a verification status
)

// Node is a vertex of the debate graph. The set of variants is closed:
// Claim, Argument and Evidence are the only implementations.
type Node interface {
	NodeID() string
	Kind() NodeKind
	Score() float64
	isNode()
}

// ClaimPrior is the score of a claim with no arguments attached
const ClaimPrior = 0.5

// Claim represents a contested statement whose score aggregates its arguments
type Claim struct {
	ID         string  `json:"id" yaml:"id"`
	Statement  string  `json:"statement" yaml:"statement"`
	GlobalRank float64 `json:"global_rank" yaml:"global_rank"` // [0,1], starts at ClaimPrior
}

// NewClaim creates a claim at maximum uncertainty
func NewClaim(id, statement string) Claim {
	return Claim{ID: id, Statement: statement, GlobalRank: ClaimPrior}
}

func (c Claim) NodeID() string { return c.ID }
func (c Claim) Kind() NodeKind { return KindClaim }
func (c Claim) Score() float64 { return c.GlobalRank }
func (Claim) isNode()          {}

// WithScore returns a copy of the claim carrying the given score
func (c Claim) WithScore(score float64) Claim {
	c.GlobalRank = score
	return c
}
