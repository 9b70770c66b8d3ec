package graph

import (
	"fmt"
	"sort"

	"github.com/ppiankov/reasongraph/internal/model"
)

// Influence is an incoming supports or attacks edge together with the
// argument on its far end, so the caller sees both score and relevance.
type Influence struct {
	Edge      model.Edge
	Relevance float64
	Source    model.Argument
}

// Weighted returns the force this influence exerts: the source score times
// the edge relevance. Negative source scores never occur in a valid graph;
// they are floored at zero regardless.
func (i Influence) Weighted() float64 {
	score := i.Source.CurrentScore
	if score < 0 {
		score = 0
	}
	return score * i.Relevance
}

// Similarity is a similar-to edge seen from one endpoint.
type Similarity struct {
	Edge  model.SimilarTo
	Other model.Argument
}

// Supporters returns the supports edges pointing at id, in insertion order.
func (s *Store) Supporters(id string) ([]Influence, error) {
	return s.influences(id, model.EdgeSupports)
}

// Attackers returns the attacks edges pointing at id, in insertion order.
func (s *Store) Attackers(id string) ([]Influence, error) {
	return s.influences(id, model.EdgeAttacks)
}

func (s *Store) influences(id string, kind model.EdgeKind) ([]Influence, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, fmt.Errorf("%s of %s: %w", kind, id, ErrNodeNotFound)
	}
	var result []Influence
	for _, edgeID := range s.in[id] {
		e := s.edges[edgeID]
		if e.Kind() != kind {
			continue
		}
		source, _ := e.Endpoints()
		arg, ok := s.nodes[source].(model.Argument)
		if !ok {
			continue
		}
		relevance, _ := model.Relevance(e)
		result = append(result, Influence{Edge: e, Relevance: relevance, Source: arg})
	}
	return result, nil
}

// EvidenceFor returns the evidence cited by an argument, in citation order.
func (s *Store) EvidenceFor(argumentID string) ([]model.Evidence, error) {
	n, ok := s.nodes[argumentID]
	if !ok {
		return nil, fmt.Errorf("evidence for %s: %w", argumentID, ErrNodeNotFound)
	}
	if n.Kind() != model.KindArgument {
		return nil, nil
	}
	var result []model.Evidence
	for _, edgeID := range s.out[argumentID] {
		e, ok := s.edges[edgeID].(model.HasEvidence)
		if !ok {
			continue
		}
		if ev, ok := s.nodes[e.Evidence].(model.Evidence); ok {
			result = append(result, ev)
		}
	}
	return result, nil
}

// SimilarArguments returns every similar-to edge touching argumentID,
// whichever endpoint it was stored under.
func (s *Store) SimilarArguments(argumentID string) ([]Similarity, error) {
	if _, ok := s.nodes[argumentID]; !ok {
		return nil, fmt.Errorf("similar arguments of %s: %w", argumentID, ErrNodeNotFound)
	}
	var result []Similarity
	collect := func(edgeIDs []string) {
		for _, edgeID := range edgeIDs {
			e, ok := s.edges[edgeID].(model.SimilarTo)
			if !ok {
				continue
			}
			if other, ok := s.nodes[e.Other(argumentID)].(model.Argument); ok {
				result = append(result, Similarity{Edge: e, Other: other})
			}
		}
	}
	collect(s.out[argumentID])
	collect(s.in[argumentID])
	return result, nil
}

// Parents returns the ids of the nodes whose score depends on id, sorted.
// An argument feeds the targets it supports or attacks; evidence feeds the
// arguments citing it; a claim feeds nothing.
func (s *Store) Parents(id string) ([]string, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("parents of %s: %w", id, ErrNodeNotFound)
	}
	set := make(map[string]struct{})
	switch n.Kind() {
	case model.KindArgument:
		for _, edgeID := range s.out[id] {
			e := s.edges[edgeID]
			if isInfluence(e.Kind()) {
				_, target := e.Endpoints()
				set[target] = struct{}{}
			}
		}
	case model.KindEvidence:
		for _, edgeID := range s.in[id] {
			e := s.edges[edgeID]
			if e.Kind() == model.EdgeHasEvidence {
				source, _ := e.Endpoints()
				set[source] = struct{}{}
			}
		}
	}
	return sortedKeys(set), nil
}

// Children returns the ids of the nodes id's score is computed from, sorted:
// its supporters and attackers and, for an argument, its cited evidence.
func (s *Store) Children(id string) ([]string, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, fmt.Errorf("children of %s: %w", id, ErrNodeNotFound)
	}
	set := make(map[string]struct{})
	for _, edgeID := range s.in[id] {
		e := s.edges[edgeID]
		if isInfluence(e.Kind()) {
			source, _ := e.Endpoints()
			set[source] = struct{}{}
		}
	}
	for _, edgeID := range s.out[id] {
		if e, ok := s.edges[edgeID].(model.HasEvidence); ok {
			set[e.Evidence] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

// EdgesOf returns every edge touching id, outgoing first, in insertion order.
func (s *Store) EdgesOf(id string) []model.Edge {
	var result []model.Edge
	for _, edgeID := range s.out[id] {
		result = append(result, s.edges[edgeID])
	}
	for _, edgeID := range s.in[id] {
		result = append(result, s.edges[edgeID])
	}
	return result
}

// NodeIDs returns all node ids, sorted.
func (s *Store) NodeIDs() []string {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TopologicalOrder returns every node id ordered so that each node comes
// after all the nodes its score is computed from. Ties are broken by id so
// the order is stable across runs.
func (s *Store) TopologicalOrder() []string {
	pending := make(map[string]int, len(s.nodes))
	for id := range s.nodes {
		children, _ := s.Children(id)
		pending[id] = len(children)
	}

	var ready []string
	for id, n := range pending {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(s.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		parents, _ := s.Parents(id)
		var unlocked []string
		for _, p := range parents {
			pending[p]--
			if pending[p] == 0 {
				unlocked = append(unlocked, p)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}
	return order
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
