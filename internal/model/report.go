package model

import "time"

// Report is a point-in-time view of one debate graph
type Report struct {
	Topic       string    `json:"topic"`
	GeneratedAt time.Time `json:"generated_at"`

	Claims    []Claim    `json:"claims"`
	Arguments []Argument `json:"arguments"`
	Evidence  []Evidence `json:"evidence"`
	EdgeCount int        `json:"edge_count"`

	Scores      []Breakdown        `json:"scores"`      // One per node, sorted by id
	Leaderboard []LeaderboardEntry `json:"leaderboard"` // Claims ranked by score
	Traces      []Trace            `json:"traces,omitempty"`
}

// LeaderboardEntry ranks a claim against the other claims in the graph
type LeaderboardEntry struct {
	Rank            int     `json:"rank"`
	ClaimID         string  `json:"claim_id"`
	Statement       string  `json:"statement"`
	Score           float64 `json:"score"`
	ProCount        int     `json:"pro_count"`
	ConCount        int     `json:"con_count"`
	SupportingForce float64 `json:"supporting_force"`
	AttackingForce  float64 `json:"attacking_force"`
	Debunked        bool    `json:"debunked"` // Score below the configured threshold
}

// Breakdown returns the score breakdown for a node id
func (r *Report) Breakdown(nodeID string) (Breakdown, bool) {
	for _, b := range r.Scores {
		if b.NodeID == nodeID {
			return b, true
		}
	}
	return Breakdown{}, false
}

// ChangedNodes counts distinct nodes whose score moved across all traces
func (r *Report) ChangedNodes() int {
	seen := make(map[string]bool)
	for _, t := range r.Traces {
		for _, ev := range t.Changed() {
			seen[ev.NodeID] = true
		}
	}
	return len(seen)
}
