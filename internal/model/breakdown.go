package model

// Contribution is one child's share of a parent's supporting or attacking force
type Contribution struct {
	NodeID    string   `json:"node_id"`
	EdgeID    string   `json:"edge_id"`
	Relation  EdgeKind `json:"relation"`
	Score     float64  `json:"score"`     // Child score as stored
	Relevance float64  `json:"relevance"` // Edge weight
	Weighted  float64  `json:"weighted"`  // score * relevance
}

// Breakdown is the full decomposition of a node's score.
// Downstream consumers need the parts, not only Final.
type Breakdown struct {
	NodeID string   `json:"node_id"`
	Kind   NodeKind `json:"kind"`

	Intrinsic     float64 `json:"intrinsic"`      // base_impact * uniqueness * evidence
	Uniqueness    float64 `json:"uniqueness"`     // 1 / (1 + sum similarity)
	EvidenceScore float64 `json:"evidence_score"` // mean of citations, 0 if any falsified
	Extrinsic     float64 `json:"extrinsic"`      // multiplier from children (claims: aggregate)

	SupportingForce    float64 `json:"supporting_force"`
	AttackingForce     float64 `json:"attacking_force"`
	SupportRealization float64 `json:"support_realization"`
	AttackDegradation  float64 `json:"attack_degradation"`

	Final float64 `json:"final"`
	Dead  bool    `json:"dead"` // Net force non-positive while attacked

	Contributions []Contribution `json:"contributions,omitempty"` // Strongest first
}

// NetForce returns supporting minus attacking force
func (b Breakdown) NetForce() float64 {
	return b.SupportingForce - b.AttackingForce
}
