package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/reasongraph/internal/model"
	"github.com/ppiankov/reasongraph/internal/pipeline"
)

func newTestRegistry(tweak func(*model.Config)) *Registry {
	cfg := model.DefaultConfig()
	if tweak != nil {
		tweak(cfg)
	}
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGet_CreatesOncePerTopic(t *testing.T) {
	r := newTestRegistry(nil)

	a, err := r.Get("climate")
	require.NoError(t, err)
	b, err := r.Get(" climate ")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "climate", a.Topic())

	_, err = r.Get("economy")
	require.NoError(t, err)
	assert.Equal(t, []string{"climate", "economy"}, r.Topics())
}

func TestGet_EmptyTopic(t *testing.T) {
	r := newTestRegistry(nil)
	_, err := r.Get("  ")
	assert.ErrorIs(t, err, ErrEmptyTopic)
}

func TestGet_InvalidConfig(t *testing.T) {
	r := newTestRegistry(func(c *model.Config) { c.Propagation.MaxDepth = 0 })
	_, err := r.Get("climate")
	assert.Error(t, err)
	assert.Empty(t, r.Topics())
}

func TestLookupAndDrop(t *testing.T) {
	r := newTestRegistry(nil)

	_, ok := r.Lookup("climate")
	assert.False(t, ok)

	_, err := r.Get("climate")
	require.NoError(t, err)
	_, ok = r.Lookup("climate")
	assert.True(t, ok)

	assert.True(t, r.Drop("climate"))
	assert.False(t, r.Drop("climate"))
	assert.Empty(t, r.Topics())
}

func TestApply_TopicsAreIsolated(t *testing.T) {
	r := newTestRegistry(nil)
	ctx := context.Background()

	err := r.Apply(ctx, "climate", func(p *pipeline.Pipeline) error {
		_, err := p.AddClaim(ctx, "C", "Warming is anthropogenic")
		return err
	})
	require.NoError(t, err)

	err = r.Apply(ctx, "economy", func(p *pipeline.Pipeline) error {
		_, err := p.Node("C")
		return err
	})
	assert.Error(t, err, "claim must not leak into another topic")

	// Same ids are fine across topics
	err = r.Apply(ctx, "economy", func(p *pipeline.Pipeline) error {
		_, err := p.AddClaim(ctx, "C", "Tariffs raise prices")
		return err
	})
	assert.NoError(t, err)
}

func TestApply_ConcurrentTopics(t *testing.T) {
	r := newTestRegistry(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		topic := fmt.Sprintf("topic-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Apply(ctx, topic, func(p *pipeline.Pipeline) error {
				if _, err := p.AddClaim(ctx, "C", "claim"); err != nil {
					return err
				}
				if _, err := p.AddArgument(ctx, "A", "reason", "", 1.0); err != nil {
					return err
				}
				_, err := p.LinkArgument(ctx, "s", "A", "C", model.EdgeSupports, 1.0)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, r.Topics(), 8)
	for _, topic := range r.Topics() {
		p, ok := r.Lookup(topic)
		require.True(t, ok)
		b, err := p.Score("C")
		require.NoError(t, err)
		assert.InDelta(t, 0.75, b.Final, 1e-9, topic)
	}
}

func TestWait_RateLimitedPerTopic(t *testing.T) {
	r := newTestRegistry(func(c *model.Config) {
		c.RateLimiting.MutationsPerSecond = 0.01
		c.RateLimiting.BurstSize = 1
	})

	require.NoError(t, r.Wait(context.Background(), "climate"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Wait(ctx, "climate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit climate")

	// Another topic has its own budget
	assert.NoError(t, r.Wait(context.Background(), "economy"))
}

func TestWait_Unlimited(t *testing.T) {
	r := newTestRegistry(nil)
	for i := 0; i < 1000; i++ {
		require.NoError(t, r.Wait(context.Background(), "climate"))
	}
}

func TestApply_DoesNotThrottle(t *testing.T) {
	r := newTestRegistry(func(c *model.Config) {
		c.RateLimiting.MutationsPerSecond = 0.01
		c.RateLimiting.BurstSize = 1
	})

	noop := func(*pipeline.Pipeline) error { return nil }
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	for i := 0; i < 3; i++ {
		assert.NoError(t, r.Apply(ctx, "climate", noop))
	}
}
