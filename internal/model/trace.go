package model

import "time"

// TraceEvent records a single recomputation during propagation
type TraceEvent struct {
	NodeID        string    `json:"node_id"`
	Kind          NodeKind  `json:"kind"`
	PreviousScore float64   `json:"previous_score"`
	NewScore      float64   `json:"new_score"`
	Delta         float64   `json:"delta"`
	Depth         int       `json:"depth"` // 0 for the node the mutation touched
	Dead          bool      `json:"dead,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Trace is the ordered log of every recomputation one mutation produced
type Trace struct {
	MutationID string       `json:"mutation_id"`
	Operation  string       `json:"operation"`
	Subject    string       `json:"subject"` // Node or edge id the mutation targeted
	Events     []TraceEvent `json:"events"`
	Truncated  bool         `json:"truncated,omitempty"` // Max depth cut off a still-changing path
}

// Changed returns the events whose delta is non-zero
func (t Trace) Changed() []TraceEvent {
	var changed []TraceEvent
	for _, ev := range t.Events {
		if ev.Delta != 0 {
			changed = append(changed, ev)
		}
	}
	return changed
}

// Last returns the most recent event for a node, if any
func (t Trace) Last(nodeID string) (TraceEvent, bool) {
	for i := len(t.Events) - 1; i >= 0; i-- {
		if t.Events[i].NodeID == nodeID {
			return t.Events[i], true
		}
	}
	return TraceEvent{}, false
}

// MaxDepth returns the deepest level reached
func (t Trace) MaxDepth() int {
	depth := 0
	for _, ev := range t.Events {
		if ev.Depth > depth {
			depth = ev.Depth
		}
	}
	return depth
}
