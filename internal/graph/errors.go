// Package graph holds the in-memory debate graph: typed nodes (claims,
// arguments, evidence) and typed edges (supports, attacks, has-evidence,
// similar-to) stored in flat maps keyed by id, plus per-node edge indexes so
// adjacency queries cost O(local degree).
//
// # Invariants
//
// The store rejects, before committing anything:
//   - edges whose source or target does not exist
//   - supports/attacks edges that would close a directed cycle
//   - edge kinds that do not fit their endpoint kinds
//   - weights outside [0,1]
//
// Removing a node removes every edge that references it.
//
// # Thread Safety
//
// Store is NOT safe for concurrent use. Callers serialise access; the
// pipeline package wraps each Store in a single RWMutex.
package graph

import "errors"

// Sentinel errors for graph operations. Returned errors wrap these with
// context and can be matched with errors.Is.
var (
	// ErrMissingEndpoint is returned when an edge references a node that
	// does not exist.
	ErrMissingEndpoint = errors.New("edge endpoint does not exist")

	// ErrCycleDetected is returned when a supports/attacks edge would let a
	// node directly or transitively support or attack itself.
	ErrCycleDetected = errors.New("edge would create a cycle")

	// ErrNodeNotFound is returned for operations on an unknown node id.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound is returned for operations on an unknown edge id.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrDuplicateNode is returned when a node id is already taken.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrDuplicateEdge is returned when an edge id is already taken or the
	// same endpoints are already related by an edge of the same family.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrInvalidEdge is returned when an edge kind does not fit the kinds
	// of its endpoints, e.g. evidence supporting a claim.
	ErrInvalidEdge = errors.New("invalid edge for node kinds")

	// ErrInvalidNode is returned for nodes with an empty id or unknown fields.
	ErrInvalidNode = errors.New("invalid node")

	// ErrOutOfRange is returned when a weight or score is outside [0,1] or NaN.
	ErrOutOfRange = errors.New("value out of range [0,1]")

	// ErrKindMismatch is returned when an update would change a node's or
	// edge's kind or an edge's endpoints.
	ErrKindMismatch = errors.New("update changes kind or endpoints")
)
