package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/reasongraph/internal/model"
)

// mockRunner implements Runner
type mockRunner struct {
	failOn string
	calls  int32
}

func (m *mockRunner) RunScript(ctx context.Context, path string) (*model.Report, error) {
	atomic.AddInt32(&m.calls, 1)
	time.Sleep(5 * time.Millisecond)
	if path == m.failOn {
		return nil, errors.New("script error")
	}
	return &model.Report{Topic: filepath.Base(path)}, nil
}

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scripts.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessScripts(t *testing.T) {
	runner := &mockRunner{}
	processor := NewBatchProcessor(runner, 2)

	paths := []string{"a.yaml", "b.yaml", "c.yaml", "d.yaml"}
	results := processor.ProcessScripts(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("result %d: expected path %s, got %s", i, paths[i], res.Path)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
		if res.Report == nil || res.Report.Topic != paths[i] {
			t.Errorf("expected report for %s", res.Path)
		}
	}
	if atomic.LoadInt32(&runner.calls) != int32(len(paths)) {
		t.Errorf("expected %d runs, got %d", len(paths), runner.calls)
	}
}

func TestBatchProcessor_ProcessScripts_Error(t *testing.T) {
	runner := &mockRunner{failOn: "bad.yaml"}
	processor := NewBatchProcessor(runner, 2)

	results := processor.ProcessScripts(context.Background(), []string{"good.yaml", "bad.yaml"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("good.yaml: unexpected error %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("bad.yaml: expected error, got nil")
	}
	if results[1].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessScripts_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{}, 2)

	results := processor.ProcessScripts(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessScripts_Canceled(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := processor.ProcessScripts(ctx, []string{"a.yaml", "b.yaml", "c.yaml"})
	if len(results) != 3 {
		t.Fatalf("expected a result for every path, got %d", len(results))
	}
	for _, res := range results {
		if res == nil {
			t.Fatal("nil result")
		}
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	list := writeList(t, "a.yaml\nb.yaml\n# comment\n\nc.yaml\n")

	processor := NewBatchProcessor(&mockRunner{}, 2)
	results, err := processor.ProcessFile(context.Background(), list)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{}, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReadPathsFromFile(t *testing.T) {
	list := writeList(t, "a.yaml\n# comment\nb.yaml\n   \n  c.yaml   \na.yaml\n")

	paths, err := ReadPathsFromFile(list)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{"a.yaml", "b.yaml", "c.yaml"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d", len(expected), len(paths))
	}
	for i, p := range paths {
		if p != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, p)
		}
	}
}

func TestScriptResult_GetError(t *testing.T) {
	r1 := &ScriptResult{Path: "a.yaml"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("script failed")
	r2 := &ScriptResult{Path: "a.yaml", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
