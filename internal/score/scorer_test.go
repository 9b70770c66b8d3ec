package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/reasongraph/internal/graph"
	"github.com/ppiankov/reasongraph/internal/model"
)

const tol = 1e-9

func newEngine() *Engine {
	return NewEngine(model.DefaultConfig().Scoring)
}

// argWithScore adds an argument whose stored score is already score
func argWithScore(t *testing.T, s *graph.Store, id string, base, score float64) {
	t.Helper()
	a := model.NewArgument(id, id, model.ArgumentTruth, base)
	require.NoError(t, s.AddNode(a.WithScore(score)))
}

func TestEngine_Evidence(t *testing.T) {
	e := newEngine()
	s := graph.NewStore()

	tests := []struct {
		status model.VerificationStatus
		want   float64
	}{
		{model.StatusVerified, 1.0},
		{model.StatusDisputed, 0.5},
		{model.StatusUnverified, model.DefaultUnverifiedScore},
		{model.StatusFalsified, 0.0},
	}
	for _, tt := range tests {
		id := "E-" + string(tt.status)
		require.NoError(t, s.AddNode(model.NewEvidence(id, "https://example.org", "", tt.status, 0.5)))

		b, err := e.Compute(s, id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, b.Final, tt.status)
		assert.Equal(t, model.KindEvidence, b.Kind)
	}
}

func TestEngine_LeafArgumentIsIntrinsic(t *testing.T) {
	e := newEngine()
	s := graph.NewStore()
	argWithScore(t, s, "A", 0.7, 0.7)

	b, err := e.Compute(s, "A")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, b.Intrinsic, tol)
	assert.InDelta(t, 0.7, b.Final, tol)
	assert.Equal(t, 1.0, b.Uniqueness)
	assert.Equal(t, 1.0, b.EvidenceScore, "no citations means nothing contradicts the argument")
	assert.False(t, b.Dead)
}

func TestEngine_EvidenceAggregate(t *testing.T) {
	e := newEngine()
	s := graph.NewStore()
	argWithScore(t, s, "A", 1.0, 1.0)
	require.NoError(t, s.AddNode(model.NewEvidence("E1", "u1", "", model.StatusVerified, 0.5)))
	require.NoError(t, s.AddNode(model.NewEvidence("E2", "u2", "", model.StatusDisputed, 0.5)))
	require.NoError(t, s.AddEdge(model.HasEvidence{ID: "h1", Argument: "A", Evidence: "E1"}))
	require.NoError(t, s.AddEdge(model.HasEvidence{ID: "h2", Argument: "A", Evidence: "E2"}))

	b, err := e.Compute(s, "A")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, b.EvidenceScore, tol)
	assert.InDelta(t, 0.75, b.Final, tol)
}

func TestEngine_FalsifiedCitationKillsBranch(t *testing.T) {
	e := newEngine()
	s := graph.NewStore()
	argWithScore(t, s, "A", 1.0, 1.0)
	argWithScore(t, s, "S", 1.0, 1.0)
	require.NoError(t, s.AddEdge(model.Supports{ID: "e1", Source: "S", Target: "A", Relevance: 1}))

	for i := 0; i < 9; i++ {
		id := string(rune('a' + i))
		require.NoError(t, s.AddNode(model.NewEvidence(id, id, "", model.StatusVerified, 0.5)))
		require.NoError(t, s.AddEdge(model.HasEvidence{ID: "h" + id, Argument: "A", Evidence: id}))
	}
	require.NoError(t, s.AddNode(model.NewEvidence("bad", "bad", "", model.StatusFalsified, 0.5)))
	require.NoError(t, s.AddEdge(model.HasEvidence{ID: "hbad", Argument: "A", Evidence: "bad"}))

	b, err := e.Compute(s, "A")
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.EvidenceScore)
	assert.Equal(t, 0.0, b.Final)
}

func TestEngine_Uniqueness(t *testing.T) {
	assert.Equal(t, 1.0, Uniqueness(nil))
	assert.InDelta(t, 0.5, Uniqueness([]float64{1}), tol)
	assert.InDelta(t, 0.25, Uniqueness([]float64{1, 1, 1}), tol)
	assert.InDelta(t, 1/1.5, Uniqueness([]float64{0.2, 0.3}), tol)

	e := newEngine()
	s := graph.NewStore()
	argWithScore(t, s, "A", 0.8, 0.8)
	argWithScore(t, s, "B", 0.8, 0.8)
	require.NoError(t, s.AddEdge(model.SimilarTo{ID: "s1", Source: "B", Target: "A", SimilarityScore: 1}))

	for _, id := range []string{"A", "B"} {
		b, err := e.Compute(s, id)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, b.Uniqueness, tol, id)
		assert.InDelta(t, 0.4, b.Final, tol, id)
	}
}

func TestEngine_DeathMatch(t *testing.T) {
	e := newEngine()

	t.Run("attacked with no support", func(t *testing.T) {
		s := graph.NewStore()
		argWithScore(t, s, "A", 1.0, 1.0)
		argWithScore(t, s, "B", 1.0, 1.0)
		require.NoError(t, s.AddEdge(model.Attacks{ID: "e", Source: "B", Target: "A", Relevance: 1}))

		b, err := e.Compute(s, "A")
		require.NoError(t, err)
		assert.True(t, b.Dead)
		assert.Equal(t, 0.0, b.Final)
		assert.InDelta(t, 1.0, b.AttackingForce, tol)
	})

	t.Run("equal forces are dead", func(t *testing.T) {
		s := graph.NewStore()
		argWithScore(t, s, "A", 1.0, 1.0)
		argWithScore(t, s, "S", 0.5, 0.5)
		argWithScore(t, s, "B", 0.5, 0.5)
		require.NoError(t, s.AddEdge(model.Supports{ID: "e1", Source: "S", Target: "A", Relevance: 1}))
		require.NoError(t, s.AddEdge(model.Attacks{ID: "e2", Source: "B", Target: "A", Relevance: 1}))

		b, err := e.Compute(s, "A")
		require.NoError(t, err)
		assert.InDelta(t, b.SupportingForce, b.AttackingForce, tol)
		assert.True(t, b.Dead)
		assert.Equal(t, 0.0, b.Final)
		assert.False(t, math.IsNaN(b.AttackDegradation))
	})

	t.Run("support outweighs attack", func(t *testing.T) {
		s := graph.NewStore()
		argWithScore(t, s, "A", 1.0, 1.0)
		argWithScore(t, s, "S", 0.8, 0.8)
		argWithScore(t, s, "B", 0.2, 0.2)
		require.NoError(t, s.AddEdge(model.Supports{ID: "e1", Source: "S", Target: "A", Relevance: 1}))
		require.NoError(t, s.AddEdge(model.Attacks{ID: "e2", Source: "B", Target: "A", Relevance: 1}))

		b, err := e.Compute(s, "A")
		require.NoError(t, err)
		assert.False(t, b.Dead)
		assert.InDelta(t, 0.8, b.SupportRealization, tol)
		assert.InDelta(t, 0.75, b.AttackDegradation, tol)
		assert.InDelta(t, 0.6, b.Final, tol)
	})

	t.Run("dead child contributes zero", func(t *testing.T) {
		s := graph.NewStore()
		argWithScore(t, s, "P", 1.0, 1.0)
		argWithScore(t, s, "D", 1.0, 0.0) // dead: stored at 0
		require.NoError(t, s.AddEdge(model.Attacks{ID: "e1", Source: "D", Target: "P", Relevance: 1}))

		b, err := e.Compute(s, "P")
		require.NoError(t, err)
		assert.Equal(t, 0.0, b.AttackingForce)
		assert.False(t, b.Dead)
		assert.InDelta(t, 1.0, b.Final, tol, "a refuted attacker can only fail to hurt")
	})
}

func TestEngine_RelevanceSevering(t *testing.T) {
	e := newEngine()

	baseline := graph.NewStore()
	argWithScore(t, baseline, "T", 1.0, 1.0)
	argWithScore(t, baseline, "S1", 0.5, 0.5)
	require.NoError(t, baseline.AddEdge(model.Supports{ID: "e1", Source: "S1", Target: "T", Relevance: 1}))
	want, err := e.Compute(baseline, "T")
	require.NoError(t, err)

	for _, kind := range []model.EdgeKind{model.EdgeSupports, model.EdgeAttacks} {
		t.Run(string(kind), func(t *testing.T) {
			s := graph.NewStore()
			argWithScore(t, s, "T", 1.0, 1.0)
			argWithScore(t, s, "S1", 0.5, 0.5)
			argWithScore(t, s, "X", 1.0, 1.0)
			require.NoError(t, s.AddEdge(model.Supports{ID: "e1", Source: "S1", Target: "T", Relevance: 1}))
			if kind == model.EdgeSupports {
				require.NoError(t, s.AddEdge(model.Supports{ID: "e2", Source: "X", Target: "T", Relevance: 0}))
			} else {
				require.NoError(t, s.AddEdge(model.Attacks{ID: "e2", Source: "X", Target: "T", Relevance: 0}))
			}

			got, err := e.Compute(s, "T")
			require.NoError(t, err)
			assert.Equal(t, want.Final, got.Final)
			assert.Equal(t, want.SupportingForce, got.SupportingForce)
			assert.Equal(t, 0.0, got.AttackingForce)
		})
	}

	t.Run("only edge irrelevant", func(t *testing.T) {
		s := graph.NewStore()
		argWithScore(t, s, "T", 0.9, 0.9)
		argWithScore(t, s, "X", 1.0, 1.0)
		require.NoError(t, s.AddEdge(model.Supports{ID: "e", Source: "X", Target: "T", Relevance: 0}))

		got, err := e.Compute(s, "T")
		require.NoError(t, err)
		assert.InDelta(t, 0.9, got.Final, tol, "same as a leaf")
	})
}

func TestEngine_Claim(t *testing.T) {
	e := newEngine()
	s := graph.NewStore()
	require.NoError(t, s.AddNode(model.NewClaim("C", "claim")))

	b, err := e.Compute(s, "C")
	require.NoError(t, err)
	assert.Equal(t, 0.5, b.Final)

	argWithScore(t, s, "A", 1.0, 1.0)
	require.NoError(t, s.AddEdge(model.Supports{ID: "e1", Source: "A", Target: "C", Relevance: 1}))
	b, err = e.Compute(s, "C")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, b.Final, tol)
	assert.Less(t, b.Final, 1.0)

	argWithScore(t, s, "B", 1.0, 1.0)
	require.NoError(t, s.AddEdge(model.Attacks{ID: "e2", Source: "B", Target: "C", Relevance: 0.5}))
	b, err = e.Compute(s, "C")
	require.NoError(t, err)
	assert.InDelta(t, 1.5/2.5, b.Final, tol)
	require.Len(t, b.Contributions, 2)
	assert.Equal(t, "A", b.Contributions[0].NodeID, "strongest contribution first")
}

func TestEngine_UnknownNode(t *testing.T) {
	_, err := newEngine().Compute(graph.NewStore(), "nope")
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(math.NaN()))
	assert.Equal(t, 0.0, Clamp(-3))
	assert.Equal(t, 1.0, Clamp(math.Inf(1)))
	assert.Equal(t, 0.3, Clamp(0.3))

	assert.False(t, IsDead(0, 0))
	assert.True(t, IsDead(0.4, 0.4))
	assert.False(t, IsDead(0.5, 0.4))

	assert.Equal(t, 1.0, AttackDegradation(0, 0))
	assert.Equal(t, 0.0, AttackDegradation(0, 1))
	assert.Equal(t, 0.0, AttackDegradation(1, 2))
	assert.InDelta(t, 0.5, AttackDegradation(1, 0.5), tol)

	assert.Equal(t, 0.5, ClaimScore(0, 0, false))
	assert.Equal(t, 0.5, ClaimScore(0, 0, true))
	assert.InDelta(t, 1.4/1.9, ClaimScore(0.9, 0, true), tol)
}
