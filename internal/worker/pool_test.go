package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/reasongraph/internal/model"
)

// stubRunner returns a one-claim report per script and records how many
// scripts ran at once
type stubRunner struct {
	delay  time.Duration
	fail   map[string]bool
	runs   int32
	active int32

	mu        sync.Mutex
	maxActive int32
	started   chan string
}

func (s *stubRunner) RunScript(ctx context.Context, path string) (*model.Report, error) {
	atomic.AddInt32(&s.runs, 1)
	cur := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)

	s.mu.Lock()
	if cur > s.maxActive {
		s.maxActive = cur
	}
	s.mu.Unlock()

	if s.started != nil {
		s.started <- path
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.fail[path] {
		return nil, fmt.Errorf("%s: unknown op", path)
	}
	return &model.Report{
		Topic:       path,
		Leaderboard: []model.LeaderboardEntry{{Rank: 1, ClaimID: "C", Score: 0.5}},
	}, nil
}

func submitScripts(pool *Pool, runner Runner, n int) {
	for i := 0; i < n; i++ {
		pool.Submit(&ScriptJob{Index: i, Path: fmt.Sprintf("topic-%d.yaml", i), Runner: runner})
	}
}

func TestNewPool(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{5, 5},
		{0, 1},
		{-1, 1},
	}
	for _, tt := range tests {
		if got := NewPool(context.Background(), tt.in).workers; got != tt.want {
			t.Errorf("NewPool(%d): expected %d workers, got %d", tt.in, tt.want, got)
		}
	}
}

func TestPool_RunsEveryScript(t *testing.T) {
	runner := &stubRunner{}
	pool := NewPool(context.Background(), 2)
	pool.Start()

	submitScripts(pool, runner, 10)
	results := pool.Wait()

	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if got := atomic.LoadInt32(&runner.runs); got != 10 {
		t.Errorf("expected 10 script runs, got %d", got)
	}

	seen := make(map[int]bool)
	for _, res := range results {
		sr, ok := res.(*ScriptResult)
		if !ok {
			t.Fatalf("expected *ScriptResult, got %T", res)
		}
		if sr.Error != nil {
			t.Errorf("%s: unexpected error %v", sr.Path, sr.Error)
		}
		if sr.Report == nil || sr.Report.Topic != sr.Path {
			t.Errorf("%s: report does not match its script", sr.Path)
		}
		seen[sr.Index] = true
	}
	if len(seen) != 10 {
		t.Errorf("expected 10 distinct indexes, got %d", len(seen))
	}
}

func TestPool_BoundsConcurrentScripts(t *testing.T) {
	workers := 4
	runner := &stubRunner{delay: 10 * time.Millisecond}
	pool := NewPool(context.Background(), workers)
	pool.Start()

	submitScripts(pool, runner, 40)
	pool.Wait()

	if got := atomic.LoadInt32(&runner.runs); got != 40 {
		t.Errorf("expected 40 script runs, got %d", got)
	}

	runner.mu.Lock()
	max := runner.maxActive
	runner.mu.Unlock()

	if max > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", max, workers)
	}
	if max <= 1 {
		t.Logf("Warning: max concurrency was %d, expected > 1", max)
	}
}

func TestPool_FailedScriptKeepsOthers(t *testing.T) {
	runner := &stubRunner{fail: map[string]bool{"topic-1.yaml": true}}
	pool := NewPool(context.Background(), 2)
	pool.Start()

	submitScripts(pool, runner, 3)
	results := pool.Wait()
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	failed := 0
	for _, res := range results {
		if res.GetError() != nil {
			failed++
			if sr := res.(*ScriptResult); sr.Path != "topic-1.yaml" {
				t.Errorf("unexpected failure for %s", sr.Path)
			}
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed script, got %d", failed)
	}
}

func TestResultCollector(t *testing.T) {
	c := NewResultCollector()
	c.Add(&ScriptResult{Path: "a.yaml"})
	c.Add(&ScriptResult{Path: "b.yaml", Error: errors.New("invalid script")})

	res := c.Results()
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}

	// Results returns a copy
	res[0] = nil
	if c.Results()[0] == nil {
		t.Error("mutating the returned slice changed the collector")
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan struct{})
	go func() {
		submitScripts(pool, &stubRunner{}, 1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ShutdownCancelsRunningScript(t *testing.T) {
	runner := &stubRunner{delay: 10 * time.Second, started: make(chan string, 1)}
	pool := NewPool(context.Background(), 1)
	pool.Start()

	submitScripts(pool, runner, 1)
	<-runner.started

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Shutdown did not cancel the running script")
	}
}

func TestPool_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()
	cancel()

	done := make(chan struct{})
	go func() {
		submitScripts(pool, &stubRunner{}, 1)
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("pool did not stop after parent cancel")
	}
}

func TestPool_ManyJobsBeforeWait(t *testing.T) {
	runner := &stubRunner{}
	pool := NewPool(context.Background(), 2)
	pool.Start()

	submitScripts(pool, runner, 200)

	results := pool.Wait()
	if len(results) != 200 {
		t.Errorf("expected 200 results, got %d", len(results))
	}
}
