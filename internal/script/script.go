// Package script reads YAML mutation scripts and replays them against a
// debate graph.
//
// A script names a topic and lists operations in the order they are
// applied:
//
//	topic: climate
//	operations:
//	  - op: add_claim
//	    id: C
//	    statement: Warming is anthropogenic
//	  - op: add_argument
//	    id: A1
//	    statement: Isotope signatures match fossil carbon
//	    base_impact: 0.9
//	  - op: link_argument
//	    id: s1
//	    source: A1
//	    target: C
//	    relation: supports
//	    relevance: 0.8
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/reasongraph/internal/model"
	"github.com/ppiankov/reasongraph/internal/pipeline"
)

// ErrInvalidScript wraps every parse and validation failure
var ErrInvalidScript = errors.New("invalid script")

// Script is an ordered list of mutations against one topic
type Script struct {
	Topic      string      `yaml:"topic"`
	Operations []Operation `yaml:"operations"`
}

// Operation is a single mutation. Which fields apply depends on Op.
type Operation struct {
	Op string `yaml:"op"`
	ID string `yaml:"id"` // Node id for add/falsify/remove/recompute, edge id for links

	Statement   string   `yaml:"statement,omitempty"`
	Type        string   `yaml:"type,omitempty"`
	BaseImpact  *float64 `yaml:"base_impact,omitempty"`
	URL         string   `yaml:"url,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Status      string   `yaml:"status,omitempty"`

	Source     string   `yaml:"source,omitempty"`
	Target     string   `yaml:"target,omitempty"`
	Relation   string   `yaml:"relation,omitempty"`
	Relevance  *float64 `yaml:"relevance,omitempty"`
	Argument   string   `yaml:"argument,omitempty"`
	Evidence   string   `yaml:"evidence,omitempty"`
	Similarity *float64 `yaml:"similarity,omitempty"`
}

// Mutator is the set of graph mutations a script can drive
type Mutator interface {
	AddClaim(ctx context.Context, id, statement string) (model.Trace, error)
	AddArgument(ctx context.Context, id, statement string, typ model.ArgumentType, baseImpact float64) (model.Trace, error)
	AddEvidence(ctx context.Context, id, url, description string, status model.VerificationStatus) (model.Trace, error)
	LinkArgument(ctx context.Context, edgeID, source, target string, relation model.EdgeKind, relevance float64) (model.Trace, error)
	LinkEvidence(ctx context.Context, edgeID, argumentID, evidenceID string) (model.Trace, error)
	FalsifyEvidence(ctx context.Context, evidenceID string) (model.Trace, error)
	SetEvidenceStatus(ctx context.Context, evidenceID string, status model.VerificationStatus) (model.Trace, error)
	SetEdgeRelevance(ctx context.Context, edgeID string, relevance float64) (model.Trace, error)
	MarkSimilar(ctx context.Context, edgeID, a, b string, similarity float64) (model.Trace, error)
	Unlink(ctx context.Context, edgeID string) (model.Trace, error)
	RemoveNode(ctx context.Context, id string) (model.Trace, error)
	Recompute(ctx context.Context, id string) (model.Trace, error)
	Rescore(ctx context.Context) (model.Trace, error)
}

var _ Mutator = (*pipeline.Pipeline)(nil)

// Parse decodes and validates a script. Unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	s, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads a script file. A script without a topic takes the file name
// (without extension) as its topic.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(s.Topic) == "" {
		s.Topic = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func decode(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScript)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	s.Topic = strings.TrimSpace(s.Topic)
	return &s, nil
}

// Validate checks every operation has the fields its kind requires
func (s *Script) Validate() error {
	if strings.TrimSpace(s.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidScript)
	}
	if len(s.Operations) == 0 {
		return fmt.Errorf("%w: no operations", ErrInvalidScript)
	}
	for i, op := range s.Operations {
		if err := op.validate(); err != nil {
			return fmt.Errorf("%w: operation %d (%s): %v", ErrInvalidScript, i, op.Op, err)
		}
	}
	return nil
}

func (o Operation) validate() error {
	need := func(fields map[string]string) error {
		var missing []string
		for name, v := range fields {
			if strings.TrimSpace(v) == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("missing %s", strings.Join(missing, ", "))
		}
		return nil
	}

	switch o.Op {
	case pipeline.OpAddClaim, pipeline.OpFalsifyEvidence, pipeline.OpUnlink, pipeline.OpRemoveNode, pipeline.OpRecompute:
		return need(map[string]string{"id": o.ID})
	case pipeline.OpAddArgument:
		if o.BaseImpact == nil {
			return fmt.Errorf("missing base_impact")
		}
		if !model.ArgumentType(o.Type).Valid() {
			return fmt.Errorf("unknown argument type %q", o.Type)
		}
		return need(map[string]string{"id": o.ID})
	case pipeline.OpAddEvidence:
		if _, err := model.ParseVerificationStatus(o.Status); err != nil {
			return err
		}
		return need(map[string]string{"id": o.ID})
	case pipeline.OpSetEvidenceStatus:
		if strings.TrimSpace(o.Status) == "" {
			return fmt.Errorf("missing status")
		}
		if _, err := model.ParseVerificationStatus(o.Status); err != nil {
			return err
		}
		return need(map[string]string{"id": o.ID})
	case pipeline.OpLinkArgument:
		if o.Relevance == nil {
			return fmt.Errorf("missing relevance")
		}
		if _, err := parseRelation(o.Relation); err != nil {
			return err
		}
		return need(map[string]string{"id": o.ID, "source": o.Source, "target": o.Target})
	case pipeline.OpLinkEvidence:
		return need(map[string]string{"id": o.ID, "argument": o.Argument, "evidence": o.Evidence})
	case pipeline.OpSetRelevance:
		if o.Relevance == nil {
			return fmt.Errorf("missing relevance")
		}
		return need(map[string]string{"id": o.ID})
	case pipeline.OpMarkSimilar:
		if o.Similarity == nil {
			return fmt.Errorf("missing similarity")
		}
		return need(map[string]string{"id": o.ID, "source": o.Source, "target": o.Target})
	case pipeline.OpRescore:
		return nil
	case "":
		return fmt.Errorf("missing op")
	default:
		return fmt.Errorf("unknown op %q", o.Op)
	}
}

// Gate runs before each operation. A non-nil error stops the script before
// that operation is applied.
type Gate func(ctx context.Context) error

// Apply runs every operation in order and returns one trace per operation.
// The first failure stops the script; the traces of the operations that
// already succeeded are returned with the error.
func (s *Script) Apply(ctx context.Context, m Mutator) ([]model.Trace, error) {
	return s.ApplyWith(ctx, m, nil)
}

// ApplyWith is Apply with gate called before every operation
func (s *Script) ApplyWith(ctx context.Context, m Mutator, gate Gate) ([]model.Trace, error) {
	traces := make([]model.Trace, 0, len(s.Operations))
	for i, op := range s.Operations {
		if gate != nil {
			if err := gate(ctx); err != nil {
				return traces, fmt.Errorf("operation %d (%s %s): %w", i, op.Op, op.ID, err)
			}
		}
		tr, err := op.apply(ctx, m)
		if err != nil {
			return traces, fmt.Errorf("operation %d (%s %s): %w", i, op.Op, op.ID, err)
		}
		traces = append(traces, tr)
	}
	return traces, nil
}

func (o Operation) apply(ctx context.Context, m Mutator) (model.Trace, error) {
	switch o.Op {
	case pipeline.OpAddClaim:
		return m.AddClaim(ctx, o.ID, o.Statement)
	case pipeline.OpAddArgument:
		return m.AddArgument(ctx, o.ID, o.Statement, model.ArgumentType(o.Type), *o.BaseImpact)
	case pipeline.OpAddEvidence:
		status, err := model.ParseVerificationStatus(o.Status)
		if err != nil {
			return model.Trace{}, err
		}
		return m.AddEvidence(ctx, o.ID, o.URL, o.Description, status)
	case pipeline.OpLinkArgument:
		relation, err := parseRelation(o.Relation)
		if err != nil {
			return model.Trace{}, err
		}
		return m.LinkArgument(ctx, o.ID, o.Source, o.Target, relation, *o.Relevance)
	case pipeline.OpLinkEvidence:
		return m.LinkEvidence(ctx, o.ID, o.Argument, o.Evidence)
	case pipeline.OpFalsifyEvidence:
		return m.FalsifyEvidence(ctx, o.ID)
	case pipeline.OpSetEvidenceStatus:
		status, err := model.ParseVerificationStatus(o.Status)
		if err != nil {
			return model.Trace{}, err
		}
		return m.SetEvidenceStatus(ctx, o.ID, status)
	case pipeline.OpSetRelevance:
		return m.SetEdgeRelevance(ctx, o.ID, *o.Relevance)
	case pipeline.OpMarkSimilar:
		return m.MarkSimilar(ctx, o.ID, o.Source, o.Target, *o.Similarity)
	case pipeline.OpUnlink:
		return m.Unlink(ctx, o.ID)
	case pipeline.OpRemoveNode:
		return m.RemoveNode(ctx, o.ID)
	case pipeline.OpRecompute:
		return m.Recompute(ctx, o.ID)
	case pipeline.OpRescore:
		return m.Rescore(ctx)
	default:
		return model.Trace{}, fmt.Errorf("%w: unknown op %q", ErrInvalidScript, o.Op)
	}
}

// parseRelation accepts supports/attacks and the pro/con aliases
func parseRelation(s string) (model.EdgeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "supports", "support", "pro":
		return model.EdgeSupports, nil
	case "attacks", "attack", "con":
		return model.EdgeAttacks, nil
	case "":
		return "", fmt.Errorf("missing relation")
	default:
		return "", fmt.Errorf("unknown relation %q", s)
	}
}
