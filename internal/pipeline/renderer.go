package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/reasongraph/internal/model"
)

// Renderer writes reports in JSON, Markdown and terminal summary form
type Renderer struct {
	includeTrace bool
}

// NewRenderer creates a renderer. includeTrace controls whether mutation
// traces are written out alongside the scores.
func NewRenderer(includeTrace bool) *Renderer {
	return &Renderer{includeTrace: includeTrace}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	out := *report
	if !r.includeTrace {
		out.Traces = nil
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown builds the Markdown body of a report
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", report.Topic)
	fmt.Fprintf(&b, "_Generated %s_\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "%d claims, %d arguments, %d evidence, %d edges\n\n",
		len(report.Claims), len(report.Arguments), len(report.Evidence), report.EdgeCount)

	b.WriteString("## Leaderboard\n\n")
	if len(report.Leaderboard) == 0 {
		b.WriteString("No claims.\n\n")
	} else {
		b.WriteString("| # | Claim | Score | Pro | Con | Support | Attack |\n")
		b.WriteString("|---|-------|-------|-----|-----|---------|--------|\n")
		for _, e := range report.Leaderboard {
			statement := e.Statement
			if e.Debunked {
				statement += " **(debunked)**"
			}
			fmt.Fprintf(&b, "| %d | %s | %.4f | %d | %d | %.4f | %.4f |\n",
				e.Rank, escapeCell(statement), e.Score, e.ProCount, e.ConCount, e.SupportingForce, e.AttackingForce)
		}
		b.WriteString("\n")
	}

	if len(report.Arguments) > 0 {
		b.WriteString("## Arguments\n\n")
		b.WriteString("| Argument | Base | Uniqueness | Evidence | Realization | Degradation | Score | State |\n")
		b.WriteString("|----------|------|------------|----------|-------------|-------------|-------|-------|\n")
		for _, a := range report.Arguments {
			bd, _ := report.Breakdown(a.ID)
			state := "alive"
			if bd.Dead {
				state = "dead"
			}
			fmt.Fprintf(&b, "| %s | %.2f | %.4f | %.4f | %.4f | %.4f | %.4f | %s |\n",
				escapeCell(a.ID), a.BaseImpact, bd.Uniqueness, bd.EvidenceScore,
				bd.SupportRealization, bd.AttackDegradation, a.CurrentScore, state)
		}
		b.WriteString("\n")
	}

	if len(report.Evidence) > 0 {
		b.WriteString("## Evidence\n\n")
		for _, ev := range report.Evidence {
			fmt.Fprintf(&b, "- `%s` %s (%s, %.2f)\n", ev.ID, ev.URL, ev.Status, ev.EvidenceScore)
		}
		b.WriteString("\n")
	}

	if r.includeTrace && len(report.Traces) > 0 {
		b.WriteString("## Propagation\n\n")
		for _, t := range report.Traces {
			changed := t.Changed()
			if len(changed) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### %s %s\n\n", t.Operation, t.Subject)
			for _, ev := range changed {
				fmt.Fprintf(&b, "%s- %s: %.4f → %.4f (%+.4f)\n",
					strings.Repeat("  ", ev.Depth), ev.NodeID, ev.PreviousScore, ev.NewScore, ev.Delta)
			}
			if t.Truncated {
				b.WriteString("\n_Propagation stopped at max depth._\n")
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  %s\n", report.Topic)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Nodes:     %d claims, %d arguments, %d evidence\n",
		len(report.Claims), len(report.Arguments), len(report.Evidence))
	fmt.Fprintf(w, "  Edges:     %d\n", report.EdgeCount)
	if len(report.Traces) > 0 {
		fmt.Fprintf(w, "  Mutations: %d (%d nodes changed)\n", len(report.Traces), report.ChangedNodes())
	}
	fmt.Fprintf(w, "\n")

	for _, e := range report.Leaderboard {
		marker := " "
		if e.Debunked {
			marker = "✗"
		}
		fmt.Fprintf(w, "  %s %2d. %.4f  %s\n", marker, e.Rank, e.Score, e.Statement)
	}
	if len(report.Leaderboard) > 0 {
		fmt.Fprintf(w, "\n")
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
