package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/reasongraph/internal/model"
	"github.com/ppiankov/reasongraph/internal/registry"
	"github.com/ppiankov/reasongraph/internal/script"
)

var explainJSON bool

// explainCmd represents the explain command
var explainCmd = &cobra.Command{
	Use:   "explain <script> <node-id>",
	Short: "Show how a node's score is made up",
	Long: `Explain applies a script, then breaks one node's score into its parts:
uniqueness, evidence, intrinsic score, supporting and attacking forces,
and each child's weighted contribution.

Example:
  reasongraph explain debate.yaml C
  reasongraph explain debate.yaml A1 --json`,
	Args: cobra.ExactArgs(2),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
	explainCmd.Flags().BoolVar(&explainJSON, "json", false, "print the breakdown as JSON")
}

func runExplain(cmd *cobra.Command, args []string) error {
	path, nodeID := args[0], args[1]
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	s, err := script.Load(path)
	if err != nil {
		return err
	}
	reg := registry.New(cfg, logger)
	report, err := script.NewRunner(reg, logger).Run(context.Background(), s)
	if err != nil {
		return err
	}

	b, ok := report.Breakdown(nodeID)
	if !ok {
		return fmt.Errorf("node %q not found in topic %s", nodeID, s.Topic)
	}

	out := cmd.OutOrStdout()
	if explainJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	printBreakdown(out, b)
	return nil
}

func printBreakdown(w io.Writer, b model.Breakdown) {
	fmt.Fprintf(w, "\n%s (%s)\n\n", b.NodeID, b.Kind)

	switch b.Kind {
	case model.KindEvidence:
		fmt.Fprintf(w, "  Evidence score:     %.4f\n", b.Final)
	case model.KindClaim:
		fmt.Fprintf(w, "  Supporting force:   %.4f\n", b.SupportingForce)
		fmt.Fprintf(w, "  Attacking force:    %.4f\n", b.AttackingForce)
		fmt.Fprintf(w, "  Score:              %.4f  = (S + %.1f) / (S + A + 1)\n", b.Final, model.ClaimPrior)
	default:
		fmt.Fprintf(w, "  Uniqueness:         %.4f\n", b.Uniqueness)
		fmt.Fprintf(w, "  Evidence:           %.4f\n", b.EvidenceScore)
		fmt.Fprintf(w, "  Intrinsic:          %.4f\n", b.Intrinsic)
		fmt.Fprintf(w, "  Supporting force:   %.4f\n", b.SupportingForce)
		fmt.Fprintf(w, "  Attacking force:    %.4f\n", b.AttackingForce)
		fmt.Fprintf(w, "  Realization:        %.4f\n", b.SupportRealization)
		fmt.Fprintf(w, "  Degradation:        %.4f\n", b.AttackDegradation)
		fmt.Fprintf(w, "  Score:              %.4f\n", b.Final)
		if b.Dead {
			fmt.Fprintf(w, "\n  DEAD: attack outweighs support (net %.4f); contributes nothing upward\n", b.NetForce())
		}
	}

	if len(b.Contributions) > 0 {
		fmt.Fprintf(w, "\n  Contributions:\n")
		for _, c := range b.Contributions {
			sign := "+"
			if c.Relation == model.EdgeAttacks {
				sign = "-"
			}
			fmt.Fprintf(w, "    %s %-12s %.4f x %.2f = %.4f  (%s)\n",
				sign, c.NodeID, c.Score, c.Relevance, c.Weighted, c.EdgeID)
		}
	}
	fmt.Fprintln(w)
}
