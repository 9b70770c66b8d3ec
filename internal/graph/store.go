package graph

import (
	"fmt"
	"math"

	"github.com/ppiankov/reasongraph/internal/model"
)

// Store is the arena of nodes and edges for one debate graph.
type Store struct {
	nodes map[string]model.Node
	edges map[string]model.Edge

	// out and in index edge ids by endpoint, in insertion order.
	// For SimilarTo the stored source/target direction is used.
	out map[string][]string
	in  map[string][]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]model.Node),
		edges: make(map[string]model.Edge),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
	}
}

// Len returns the number of nodes and edges.
func (s *Store) Len() (nodes, edges int) {
	return len(s.nodes), len(s.edges)
}

// Node returns the node with the given id.
func (s *Store) Node(id string) (model.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Edge returns the edge with the given id.
func (s *Store) Edge(id string) (model.Edge, bool) {
	e, ok := s.edges[id]
	return e, ok
}

// AddNode inserts a node after checking its id is unused and its weights
// are in [0,1]
func (s *Store) AddNode(n model.Node) error {
	if n == nil || n.NodeID() == "" {
		return fmt.Errorf("add node: %w: empty id", ErrInvalidNode)
	}
	id := n.NodeID()
	if _, exists := s.nodes[id]; exists {
		return fmt.Errorf("add node %s: %w", id, ErrDuplicateNode)
	}
	if err := validateNode(n); err != nil {
		return fmt.Errorf("add node %s: %w", id, err)
	}
	s.nodes[id] = n
	return nil
}

// AddEdge inserts an edge. Endpoints must exist and fit the edge kind, and
// no edge of the same family may already join them. A supports/attacks edge
// is rejected if its target can already reach its source. Nothing is written
// unless every check passes.
func (s *Store) AddEdge(e model.Edge) error {
	if e == nil || e.EdgeID() == "" {
		return fmt.Errorf("add edge: %w: empty id", ErrInvalidEdge)
	}
	id := e.EdgeID()
	if _, exists := s.edges[id]; exists {
		return fmt.Errorf("add edge %s: %w: id already used", id, ErrDuplicateEdge)
	}

	source, target := e.Endpoints()
	src, ok := s.nodes[source]
	if !ok {
		return fmt.Errorf("add edge %s: %w: source %q", id, ErrMissingEndpoint, source)
	}
	dst, ok := s.nodes[target]
	if !ok {
		return fmt.Errorf("add edge %s: %w: target %q", id, ErrMissingEndpoint, target)
	}

	if err := validateEdge(e, src, dst); err != nil {
		return fmt.Errorf("add edge %s: %w", id, err)
	}
	if existing, dup := s.findRelated(e); dup {
		return fmt.Errorf("add edge %s: %w: %s already relates %s and %s", id, ErrDuplicateEdge, existing, source, target)
	}
	if isInfluence(e.Kind()) && s.reaches(target, source) {
		return fmt.Errorf("add edge %s: %w: %s already reaches %s", id, ErrCycleDetected, target, source)
	}

	s.edges[id] = e
	s.out[source] = append(s.out[source], id)
	s.in[target] = append(s.in[target], id)
	return nil
}

// RemoveNode deletes a node and every edge that references it.
// The removed edges are returned in the order they were dropped.
func (s *Store) RemoveNode(id string) ([]model.Edge, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, fmt.Errorf("remove node %s: %w", id, ErrNodeNotFound)
	}

	var incident []string
	incident = append(incident, s.out[id]...)
	incident = append(incident, s.in[id]...)

	removed := make([]model.Edge, 0, len(incident))
	for _, edgeID := range incident {
		if e, ok := s.edges[edgeID]; ok {
			s.dropEdge(edgeID)
			removed = append(removed, e)
		}
	}

	delete(s.nodes, id)
	delete(s.out, id)
	delete(s.in, id)
	return removed, nil
}

// RemoveEdge deletes a single edge and returns it.
func (s *Store) RemoveEdge(id string) (model.Edge, error) {
	e, ok := s.edges[id]
	if !ok {
		return nil, fmt.Errorf("remove edge %s: %w", id, ErrEdgeNotFound)
	}
	s.dropEdge(id)
	return e, nil
}

// UpdateNode replaces a node in place. The id and kind must not change;
// only attribute fields such as scores and status are patched.
func (s *Store) UpdateNode(n model.Node) error {
	if n == nil {
		return fmt.Errorf("update node: %w: nil", ErrInvalidNode)
	}
	id := n.NodeID()
	current, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("update node %s: %w", id, ErrNodeNotFound)
	}
	if current.Kind() != n.Kind() {
		return fmt.Errorf("update node %s: %w: %s -> %s", id, ErrKindMismatch, current.Kind(), n.Kind())
	}
	if err := validateNode(n); err != nil {
		return fmt.Errorf("update node %s: %w", id, err)
	}
	s.nodes[id] = n
	return nil
}

// UpdateEdge replaces an edge in place. Kind and endpoints are fixed at
// insertion so the acyclicity check can never be bypassed; only weights
// may change.
func (s *Store) UpdateEdge(e model.Edge) error {
	if e == nil {
		return fmt.Errorf("update edge: %w: nil", ErrInvalidEdge)
	}
	id := e.EdgeID()
	current, ok := s.edges[id]
	if !ok {
		return fmt.Errorf("update edge %s: %w", id, ErrEdgeNotFound)
	}
	cs, ct := current.Endpoints()
	ns, nt := e.Endpoints()
	if current.Kind() != e.Kind() || cs != ns || ct != nt {
		return fmt.Errorf("update edge %s: %w", id, ErrKindMismatch)
	}
	if err := validateWeights(e); err != nil {
		return fmt.Errorf("update edge %s: %w", id, err)
	}
	s.edges[id] = e
	return nil
}

func (s *Store) dropEdge(id string) {
	e := s.edges[id]
	source, target := e.Endpoints()
	s.out[source] = without(s.out[source], id)
	s.in[target] = without(s.in[target], id)
	delete(s.edges, id)
}

// findRelated looks for an existing edge of the same family between the
// same endpoints. Supports and attacks share a family; similar-to is
// matched in either direction.
func (s *Store) findRelated(e model.Edge) (string, bool) {
	source, target := e.Endpoints()
	for _, edgeID := range s.out[source] {
		other := s.edges[edgeID]
		if _, t := other.Endpoints(); t == target && sameFamily(e.Kind(), other.Kind()) {
			return edgeID, true
		}
	}
	if e.Kind() == model.EdgeSimilarTo {
		for _, edgeID := range s.out[target] {
			other := s.edges[edgeID]
			if _, t := other.Endpoints(); t == source && other.Kind() == model.EdgeSimilarTo {
				return edgeID, true
			}
		}
	}
	return "", false
}

// reaches reports whether to is reachable from from along supports/attacks
// edges. The visited set bounds the walk at O(nodes + edges).
func (s *Store) reaches(from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, edgeID := range s.out[cur] {
			e := s.edges[edgeID]
			if !isInfluence(e.Kind()) {
				continue
			}
			_, next := e.Endpoints()
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

func validateNode(n model.Node) error {
	switch v := n.(type) {
	case model.Claim:
		return inRange("global_rank", v.GlobalRank)
	case model.Argument:
		if !v.Type.Valid() {
			return fmt.Errorf("%w: unknown argument type %q", ErrInvalidNode, v.Type)
		}
		if err := inRange("base_impact", v.BaseImpact); err != nil {
			return err
		}
		return inRange("current_score", v.CurrentScore)
	case model.Evidence:
		switch v.Status {
		case model.StatusVerified, model.StatusDisputed, model.StatusUnverified, model.StatusFalsified:
		default:
			return fmt.Errorf("%w: unknown verification status %q", ErrInvalidNode, v.Status)
		}
		return inRange("evidence_score", v.EvidenceScore)
	default:
		return fmt.Errorf("%w: unsupported node type %T", ErrInvalidNode, n)
	}
}

func validateEdge(e model.Edge, src, dst model.Node) error {
	source, target := e.Endpoints()
	switch e.(type) {
	case model.Supports, model.Attacks:
		if src.Kind() != model.KindArgument {
			return fmt.Errorf("%w: %s source must be an argument, got %s", ErrInvalidEdge, e.Kind(), src.Kind())
		}
		if dst.Kind() != model.KindClaim && dst.Kind() != model.KindArgument {
			return fmt.Errorf("%w: %s target must be a claim or argument, got %s", ErrInvalidEdge, e.Kind(), dst.Kind())
		}
	case model.HasEvidence:
		if src.Kind() != model.KindArgument || dst.Kind() != model.KindEvidence {
			return fmt.Errorf("%w: has_evidence must link argument to evidence, got %s -> %s", ErrInvalidEdge, src.Kind(), dst.Kind())
		}
	case model.SimilarTo:
		if src.Kind() != model.KindArgument || dst.Kind() != model.KindArgument {
			return fmt.Errorf("%w: similar_to must link two arguments, got %s and %s", ErrInvalidEdge, src.Kind(), dst.Kind())
		}
		if source == target {
			return fmt.Errorf("%w: argument %s cannot be similar to itself", ErrInvalidEdge, source)
		}
	default:
		return fmt.Errorf("%w: unsupported edge type %T", ErrInvalidEdge, e)
	}
	return validateWeights(e)
}

func validateWeights(e model.Edge) error {
	switch v := e.(type) {
	case model.Supports:
		return inRange("relevance", v.Relevance)
	case model.Attacks:
		return inRange("relevance", v.Relevance)
	case model.SimilarTo:
		return inRange("similarity_score", v.SimilarityScore)
	default:
		return nil
	}
}

func inRange(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s = %v", ErrOutOfRange, field, v)
	}
	return nil
}

func isInfluence(k model.EdgeKind) bool {
	return k == model.EdgeSupports || k == model.EdgeAttacks
}

func sameFamily(a, b model.EdgeKind) bool {
	if isInfluence(a) {
		return isInfluence(b)
	}
	return a == b
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
