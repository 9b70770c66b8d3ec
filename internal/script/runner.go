package script

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/reasongraph/internal/model"
	"github.com/ppiankov/reasongraph/internal/pipeline"
	"github.com/ppiankov/reasongraph/internal/registry"
)

// Runner loads script files and applies them to the matching topic in a
// registry.
type Runner struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// NewRunner creates a runner over reg
func NewRunner(reg *registry.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: reg, logger: logger}
}

// RunScript applies the script at path and snapshots the resulting graph.
// The traces of every applied operation are attached to the report. On a
// failing operation the error is returned and the graph keeps the
// operations applied before it.
func (r *Runner) RunScript(ctx context.Context, path string) (*model.Report, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, s)
}

// Run applies an already parsed script. Every operation waits on the
// topic's mutation rate limit first.
func (r *Runner) Run(ctx context.Context, s *Script) (*model.Report, error) {
	var report *model.Report
	err := r.registry.Apply(ctx, s.Topic, func(p *pipeline.Pipeline) error {
		throttle := func(ctx context.Context) error {
			return r.registry.Wait(ctx, p.Topic())
		}
		traces, err := s.ApplyWith(ctx, p, throttle)
		if err != nil {
			return err
		}
		report, err = p.Snapshot()
		if err != nil {
			return err
		}
		report.Traces = traces
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("topic %s: %w", s.Topic, err)
	}

	r.logger.Info("script applied",
		"topic", s.Topic,
		"operations", len(s.Operations),
		"changed_nodes", report.ChangedNodes(),
	)
	return report, nil
}
