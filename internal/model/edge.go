package model

// EdgeKind identifies the variant of a graph edge
type EdgeKind string

const (
	EdgeSupports    EdgeKind = "supports"     // Argument -> Claim|Argument, weighted by relevance
	EdgeAttacks     EdgeKind = "attacks"      // Argument -> Claim|Argument, weighted by relevance
	EdgeHasEvidence EdgeKind = "has_evidence" // Argument -> Evidence
	EdgeSimilarTo   EdgeKind = "similar_to"   // Argument <-> Argument, symmetric
)

// Edge is a directed relationship between two nodes. Supports, Attacks,
// HasEvidence and SimilarTo are the only implementations.
type Edge interface {
	EdgeID() string
	Kind() EdgeKind
	Endpoints() (source, target string)
	isEdge()
}

// Supports feeds the source argument's score into the target
type Supports struct {
	ID        string  `json:"id" yaml:"id"`
	Source    string  `json:"source" yaml:"source"`
	Target    string  `json:"target" yaml:"target"`
	Relevance float64 `json:"relevance" yaml:"relevance"`
}

func (e Supports) EdgeID() string                     { return e.ID }
func (e Supports) Kind() EdgeKind                     { return EdgeSupports }
func (e Supports) Endpoints() (source, target string) { return e.Source, e.Target }
func (Supports) isEdge()                              {}

// Attacks feeds the source argument's score against the target
type Attacks struct {
	ID        string  `json:"id" yaml:"id"`
	Source    string  `json:"source" yaml:"source"`
	Target    string  `json:"target" yaml:"target"`
	Relevance float64 `json:"relevance" yaml:"relevance"`
}

func (e Attacks) EdgeID() string                     { return e.ID }
func (e Attacks) Kind() EdgeKind                     { return EdgeAttacks }
func (e Attacks) Endpoints() (source, target string) { return e.Source, e.Target }
func (Attacks) isEdge()                              {}

// HasEvidence cites an evidence node from an argument
type HasEvidence struct {
	ID       string `json:"id" yaml:"id"`
	Argument string `json:"argument" yaml:"argument"`
	Evidence string `json:"evidence" yaml:"evidence"`
}

func (e HasEvidence) EdgeID() string                     { return e.ID }
func (e HasEvidence) Kind() EdgeKind                     { return EdgeHasEvidence }
func (e HasEvidence) Endpoints() (source, target string) { return e.Argument, e.Evidence }
func (HasEvidence) isEdge()                              {}

// SimilarTo records that two arguments make the same point.
// It is stored once but applies to both endpoints.
type SimilarTo struct {
	ID              string  `json:"id" yaml:"id"`
	Source          string  `json:"source" yaml:"source"`
	Target          string  `json:"target" yaml:"target"`
	SimilarityScore float64 `json:"similarity_score" yaml:"similarity_score"`
}

func (e SimilarTo) EdgeID() string                     { return e.ID }
func (e SimilarTo) Kind() EdgeKind                     { return EdgeSimilarTo }
func (e SimilarTo) Endpoints() (source, target string) { return e.Source, e.Target }
func (SimilarTo) isEdge()                              {}

// Other returns the endpoint opposite to id
func (e SimilarTo) Other(id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// Relevance returns the weight of a Supports or Attacks edge.
// ok is false for edge kinds that carry no relevance.
func Relevance(e Edge) (relevance float64, ok bool) {
	switch v := e.(type) {
	case Supports:
		return v.Relevance, true
	case Attacks:
		return v.Relevance, true
	default:
		return 0, false
	}
}

// WithRelevance returns a copy of a Supports or Attacks edge carrying the
// given relevance. Other kinds are returned unchanged with ok == false.
func WithRelevance(e Edge, relevance float64) (Edge, bool) {
	switch v := e.(type) {
	case Supports:
		v.Relevance = relevance
		return v, true
	case Attacks:
		v.Relevance = relevance
		return v, true
	default:
		return e, false
	}
}
