package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/reasongraph/internal/registry"
	"github.com/ppiankov/reasongraph/internal/script"
)

var (
	outJSON    string
	outMD      string
	runTimeout time.Duration
	noTrace    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Apply a mutation script and report the resulting scores",
	Long: `Run replays a YAML mutation script against a fresh debate graph:
- Adds claims, arguments and evidence
- Links supports/attacks and citations
- Falsifies evidence, adjusts relevance, marks duplicate arguments
- Re-scores every affected ancestor after each step

The claim leaderboard is printed; full breakdowns and the propagation trace
of every operation can be written as JSON and Markdown.

Example:
  reasongraph run debate.yaml
  reasongraph run debate.yaml --json report.json --md report.md
  reasongraph run debate.yaml --epsilon 1e-3 --max-depth 8`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	runCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", time.Minute, "overall run timeout")
	runCmd.Flags().BoolVar(&noTrace, "no-trace", false, "omit propagation traces from written reports")
}

func runScript(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if noTrace {
		cfg.Output.IncludeTrace = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Script:    %s\n", path)
		fmt.Fprintf(os.Stderr, "Epsilon:   %g\n", cfg.Propagation.Epsilon)
		fmt.Fprintf(os.Stderr, "Max depth: %d\n", cfg.Propagation.MaxDepth)
		fmt.Fprintln(os.Stderr)
	}

	s, err := script.Load(path)
	if err != nil {
		return err
	}

	reg := registry.New(cfg, logger)
	report, err := script.NewRunner(reg, logger).Run(ctx, s)
	if err != nil {
		return err
	}

	p, _ := reg.Lookup(s.Topic)
	return p.RenderReport(cmd.OutOrStdout(), report, outJSON, outMD)
}
