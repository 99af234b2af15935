package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwhswenson/annotated-trajectories/internal/scenario"
)

// #region replay

func newReplayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "replay FIXTURE...",
		Short: "Run scenario fixtures and report where the outcome differs from the expectation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				f, err := scenario.LoadFixture(path)
				if err != nil {
					return err
				}
				outcome := scenario.Run(f)
				diffs := scenario.Compare(f, outcome)
				sum := scenario.Summarize(outcome, diffs)

				status := "PASS"
				if !sum.Passed {
					status = "FAIL"
					failed++
				}
				fmt.Fprintf(out, "%s  %s  (%s)\n", status, path, f.Description)
				fmt.Fprintf(out, "  labels=%d correct=%d fp=%d fn=%d conflicts=%d\n",
					sum.Labels, sum.Correct, sum.FalsePos, sum.FalseNeg, sum.Conflicts)
				for _, d := range diffs {
					fmt.Fprintf(out, "  %s\n", d)
				}
				a.logger.Debug("replayed fixture", "path", path, "mismatches", sum.Mismatches)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d fixtures failed", failed, len(args))
			}
			return nil
		},
	}
}

// #endregion replay
