package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/reasongraph/internal/cache"
	"github.com/ppiankov/reasongraph/internal/graph"
	"github.com/ppiankov/reasongraph/internal/model"
	"github.com/ppiankov/reasongraph/internal/score"
)

// Pipeline owns one debate graph and orchestrates every mutation: the graph
// write, then recursive re-scoring of the ancestors that depend on it.
//
// Mutations hold the write lock for their whole propagation, so readers
// never observe a half-propagated graph. Independent pipelines share no
// state and can be driven in parallel.
type Pipeline struct {
	mu sync.RWMutex

	topic    string
	store    *graph.Store
	engine   *score.Engine
	scores   cache.Cache[model.Breakdown]
	config   *model.Config
	logger   *slog.Logger
	renderer *Renderer

	now   func() time.Time
	newID func() string
}

// Option customises a Pipeline
type Option func(*Pipeline)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the trace timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTopic names the debate this graph belongs to
func WithTopic(topic string) Option {
	return func(p *Pipeline) { p.topic = topic }
}

// WithCache replaces the breakdown cache
func WithCache(c cache.Cache[model.Breakdown]) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.scores = c
		}
	}
}

// NewPipeline creates a pipeline over an empty graph
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &Pipeline{
		topic:    "default",
		store:    graph.NewStore(),
		engine:   score.NewEngine(cfg.Scoring),
		config:   cfg,
		logger:   slog.Default(),
		renderer: NewRenderer(cfg.Output.IncludeTrace),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	if cfg.Cache.Enabled {
		p.scores = cache.NewMemoryCache[model.Breakdown](cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	} else {
		p.scores = cache.Nop[model.Breakdown]{}
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("topic", p.topic)
	return p, nil
}

// Topic returns the debate topic name
func (p *Pipeline) Topic() string {
	return p.topic
}

// Config returns the configuration the pipeline was built with
func (p *Pipeline) Config() model.Config {
	return *p.config
}

// Score returns the full breakdown of a node's current score
func (p *Pipeline) Score(id string) (model.Breakdown, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.breakdown(id)
}

// breakdown serves the breakdown recorded at the node's last recompute and
// falls back to computing it from the stored neighbour scores.
func (p *Pipeline) breakdown(id string) (model.Breakdown, error) {
	key := cache.CacheKey(p.topic, id)
	if b, ok := p.scores.Get(key); ok {
		return b, nil
	}
	b, err := p.engine.Compute(p.store, id)
	if err != nil {
		return model.Breakdown{}, err
	}
	p.scores.Set(key, b, 0)
	return b, nil
}

// Node returns a copy of a node
func (p *Pipeline) Node(id string) (model.Node, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n, ok := p.store.Node(id)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, graph.ErrNodeNotFound)
	}
	return n, nil
}

// Edge returns a copy of an edge
func (p *Pipeline) Edge(id string) (model.Edge, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.store.Edge(id)
	if !ok {
		return nil, fmt.Errorf("edge %s: %w", id, graph.ErrEdgeNotFound)
	}
	return e, nil
}

// Stats returns the node and edge counts
func (p *Pipeline) Stats() (nodes, edges int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.store.Len()
}

// Leaderboard ranks every claim by score, highest first, ties broken by id
func (p *Pipeline) Leaderboard() ([]model.LeaderboardEntry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.leaderboard()
}

func (p *Pipeline) leaderboard() ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	for _, id := range p.store.NodeIDs() {
		n, _ := p.store.Node(id)
		claim, ok := n.(model.Claim)
		if !ok {
			continue
		}
		b, err := p.breakdown(id)
		if err != nil {
			return nil, err
		}
		pro, con := 0, 0
		for _, c := range b.Contributions {
			// A severed edge counts as absent
			if c.Relevance <= 0 {
				continue
			}
			switch c.Relation {
			case model.EdgeSupports:
				pro++
			case model.EdgeAttacks:
				con++
			}
		}
		entries = append(entries, model.LeaderboardEntry{
			ClaimID:         id,
			Statement:       claim.Statement,
			Score:           claim.GlobalRank,
			ProCount:        pro,
			ConCount:        con,
			SupportingForce: b.SupportingForce,
			AttackingForce:  b.AttackingForce,
			Debunked:        claim.GlobalRank < p.config.Scoring.DebunkedThreshold,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ClaimID < entries[j].ClaimID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Snapshot captures every node, its breakdown and the claim leaderboard
func (p *Pipeline) Snapshot() (*model.Report, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	report := &model.Report{
		Topic:       p.topic,
		GeneratedAt: p.now().UTC(),
	}
	_, report.EdgeCount = p.store.Len()

	for _, id := range p.store.NodeIDs() {
		n, _ := p.store.Node(id)
		switch v := n.(type) {
		case model.Claim:
			report.Claims = append(report.Claims, v)
		case model.Argument:
			report.Arguments = append(report.Arguments, v)
		case model.Evidence:
			report.Evidence = append(report.Evidence, v)
		}
		b, err := p.breakdown(id)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", id, err)
		}
		report.Scores = append(report.Scores, b)
	}

	board, err := p.leaderboard()
	if err != nil {
		return nil, fmt.Errorf("snapshot leaderboard: %w", err)
	}
	report.Leaderboard = board
	return report, nil
}

// RenderReport writes the report to the requested outputs and prints the
// summary to w. Empty paths are skipped.
func (p *Pipeline) RenderReport(w io.Writer, report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Info("wrote report", "format", "json", "path", jsonPath)
	}
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Info("wrote report", "format", "markdown", "path", mdPath)
	}
	p.renderer.RenderSummary(w, report)
	return nil
}
