// Package registry keeps one independent debate graph per topic.
//
// Graphs share nothing, so mutations on different topics run in parallel;
// mutations on the same topic serialise on that topic's pipeline lock and
// each one takes a token from that topic's rate limiter (see Wait).
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/ppiankov/reasongraph/internal/model"
	"github.com/ppiankov/reasongraph/internal/pipeline"
	"github.com/ppiankov/reasongraph/internal/worker"
)

// ErrEmptyTopic is returned when a topic name is blank
var ErrEmptyTopic = errors.New("topic must not be empty")

// Registry maps topics to pipelines, creating them on first use
type Registry struct {
	mu        sync.RWMutex
	pipelines map[string]*pipeline.Pipeline

	config  *model.Config
	limiter *worker.Limiter
	logger  *slog.Logger
	opts    []pipeline.Option
}

// New creates an empty registry. opts are applied to every pipeline it
// creates, after the topic and logger.
func New(cfg *model.Config, logger *slog.Logger, opts ...pipeline.Option) *Registry {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		pipelines: make(map[string]*pipeline.Pipeline),
		config:    cfg,
		limiter:   worker.NewLimiter(cfg.RateLimiting.MutationsPerSecond, cfg.RateLimiting.BurstSize),
		logger:    logger,
		opts:      opts,
	}
}

// Get returns the pipeline for a topic, creating it if needed
func (r *Registry) Get(topic string) (*pipeline.Pipeline, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	r.mu.RLock()
	p, ok := r.pipelines[topic]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pipelines[topic]; ok {
		return p, nil
	}

	opts := append([]pipeline.Option{
		pipeline.WithTopic(topic),
		pipeline.WithLogger(r.logger),
	}, r.opts...)
	p, err := pipeline.NewPipeline(r.config, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pipeline for %s: %w", topic, err)
	}
	r.pipelines[topic] = p
	r.logger.Debug("created topic", "topic", topic)
	return p, nil
}

// Lookup returns an existing pipeline without creating one
func (r *Registry) Lookup(topic string) (*pipeline.Pipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pipelines[strings.TrimSpace(topic)]
	return p, ok
}

// Apply runs fn against the topic's pipeline, creating it if needed.
// Throttling is per mutation, so callers that mutate call Wait before each
// operation.
func (r *Registry) Apply(ctx context.Context, topic string, fn func(*pipeline.Pipeline) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := r.Get(topic)
	if err != nil {
		return err
	}
	return fn(p)
}

// Wait blocks until the topic's limiter grants one mutation
func (r *Registry) Wait(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if err := r.limiter.Wait(ctx, topic); err != nil {
		return fmt.Errorf("rate limit %s: %w", topic, err)
	}
	return nil
}

// Topics returns the known topic names, sorted
func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.pipelines))
	for t := range r.pipelines {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Drop forgets a topic and its graph. It reports whether the topic existed.
func (r *Registry) Drop(topic string) bool {
	topic = strings.TrimSpace(topic)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pipelines[topic]; !ok {
		return false
	}
	delete(r.pipelines, topic)
	r.limiter.Forget(topic)
	return true
}
