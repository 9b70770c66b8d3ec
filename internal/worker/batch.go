package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/reasongraph/internal/model"
)

// Runner applies one mutation script and reports the resulting graph
type Runner interface {
	RunScript(ctx context.Context, path string) (*model.Report, error)
}

// ScriptJob represents one script run
type ScriptJob struct {
	Index  int
	Path   string
	Runner Runner
}

// Execute executes the script job
func (j *ScriptJob) Execute(ctx context.Context) Result {
	report, err := j.Runner.RunScript(ctx, j.Path)
	return &ScriptResult{
		Index:  j.Index,
		Path:   j.Path,
		Report: report,
		Error:  err,
	}
}

// ScriptResult represents the result of a script job
type ScriptResult struct {
	Index  int
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the script result
func (r *ScriptResult) GetError() error {
	return r.Error
}

// BatchProcessor runs many scripts concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessScripts runs every script and returns one result per path, in the
// order the paths were given.
func (b *BatchProcessor) ProcessScripts(ctx context.Context, paths []string) []*ScriptResult {
	if len(paths) == 0 {
		return []*ScriptResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, path := range paths {
		pool.Submit(&ScriptJob{
			Index:  i,
			Path:   path,
			Runner: b.runner,
		})
	}

	results := pool.Wait()

	ordered := make([]*ScriptResult, len(paths))
	for _, result := range results {
		r := result.(*ScriptResult)
		ordered[r.Index] = r
	}
	// Jobs never picked up because ctx ended still get a result
	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("script not run")
			}
			ordered[i] = &ScriptResult{Index: i, Path: paths[i], Error: err}
		}
	}
	return ordered
}

// ProcessFile reads script paths from a list file and runs them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*ScriptResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read script list: %w", err)
	}

	return b.ProcessScripts(ctx, paths), nil
}

// ReadPathsFromFile reads script paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
