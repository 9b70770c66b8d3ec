package model

// ArgumentType tags what dimension an argument speaks to.
// The scoring kernel treats it as informational only.
type ArgumentType string

const (
	ArgumentTruth      ArgumentType = "truth"
	ArgumentImportance ArgumentType = "importance"
	ArgumentRelevance  ArgumentType = "relevance"
)

// Valid reports whether t is a known argument type (empty counts as truth)
func (t ArgumentType) Valid() bool {
	switch t {
	case "", ArgumentTruth, ArgumentImportance, ArgumentRelevance:
		return true
	default:
		return false
	}
}

// Argument is a reason with its own intrinsic strength
type Argument struct {
	ID           string       `json:"id" yaml:"id"`
	Statement    string       `json:"statement" yaml:"statement"`
	Type         ArgumentType `json:"type,omitempty" yaml:"type,omitempty"`
	BaseImpact   float64      `json:"base_impact" yaml:"base_impact"`     // Strength before graph effects
	CurrentScore float64      `json:"current_score" yaml:"current_score"` // Last computed score
}

// NewArgument creates an argument whose score starts at its base impact
func NewArgument(id, statement string, typ ArgumentType, baseImpact float64) Argument {
	if typ == "" {
		typ = ArgumentTruth
	}
	return Argument{
		ID:           id,
		Statement:    statement,
		Type:         typ,
		BaseImpact:   baseImpact,
		CurrentScore: baseImpact,
	}
}

func (a Argument) NodeID() string { return a.ID }
func (a Argument) Kind() NodeKind { return KindArgument }
func (a Argument) Score() float64 { return a.CurrentScore }
func (Argument) isNode()          {}

// WithScore returns a copy of the argument carrying the given score
func (a Argument) WithScore(score float64) Argument {
	a.CurrentScore = score
	return a
}
