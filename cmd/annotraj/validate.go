package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
	"github.com/dwhswenson/annotated-trajectories/internal/codec"
	"github.com/dwhswenson/annotated-trajectories/internal/eval"
	"github.com/dwhswenson/annotated-trajectories/internal/logging"
	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
	"github.com/dwhswenson/annotated-trajectories/internal/volume"
)

// errValidationFailed is returned when the definitions do not meet the thresholds.
var errValidationFailed = errors.New("validation failed")

// #region validate

type labelReport struct {
	Label         string  `json:"label"`
	Correct       []int   `json:"correct"`
	FalsePositive []int   `json:"false_positive"`
	FalseNegative []int   `json:"false_negative"`
	Conflicts     []int   `json:"conflicts"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	Passed        bool    `json:"passed"`
}

type validateReport struct {
	Tag    string        `json:"tag"`
	RunID  string        `json:"run_id,omitempty"`
	Labels []labelReport `json:"labels"`
	Passed bool          `json:"passed"`
	Reason string        `json:"reason"`
}

func newValidateCmd(a *app) *cobra.Command {
	var statesPath string
	var remote, noLog, jsonOut bool
	cmd := &cobra.Command{
		Use:   "validate TAG",
		Short: "Check proposed state definitions against a tag's annotations",
		Long: `Checks every annotated label against a proposed state definition.

State definitions come either from a YAML file (--states) or from the remote
classifier at $ANNOTRAJ_CLASSIFIER_ADDR (--remote). Thresholds come from
$ANNOTRAJ_MIN_PRECISION, $ANNOTRAJ_MIN_RECALL and $ANNOTRAJ_MAX_CONFLICTS.
Each run is recorded in the database unless --no-log is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]
			if remote == (statesPath != "") {
				return fmt.Errorf("validate: give exactly one of --states or --remote")
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			at, err := s.LoadTag(tag)
			if err != nil {
				return err
			}

			var vols map[string]volume.Volume
			if remote {
				vols, err = a.remoteVolumes(cmd.Context(), at.StateNames(), at.Trajectory())
			} else {
				vols, err = loadVolumes(statesPath, at.Trajectory())
			}
			if err != nil {
				return err
			}

			results, conflicts, err := at.ValidateStates(vols)
			if err != nil {
				return err
			}
			r := eval.NewEvalHarness(a.cfg.EvalConfig()).Run(results, conflicts)

			report := buildReport(tag, results, conflicts, r)
			if !noLog {
				runID, err := logging.LogRun(s.DB(), tag, results, conflicts, r.Labels)
				if err != nil {
					return err
				}
				report.RunID = runID
			}
			a.logger.Info("validated states", "tag", tag, "labels", len(results), "passed", r.Passed, "run_id", report.RunID)

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := printJSON(out, report); err != nil {
					return err
				}
			} else {
				printReport(out, report, results)
			}
			if !r.Passed {
				return fmt.Errorf("%w: %s", errValidationFailed, r.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&statesPath, "states", "", "YAML state definitions")
	cmd.Flags().BoolVar(&remote, "remote", false, "classify frames with the remote classifier service")
	cmd.Flags().BoolVar(&noLog, "no-log", false, "do not record the run in the validation log")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func loadVolumes(path string, traj *trajectory.Trajectory) (map[string]volume.Volume, error) {
	defs, err := volume.LoadDefinitions(path)
	if err != nil {
		return nil, err
	}
	if err := checkAtoms(defs, traj); err != nil {
		return nil, err
	}
	return defs.Volumes()
}

func checkAtoms(defs *volume.Definitions, traj *trajectory.Trajectory) error {
	if traj.Len() == 0 {
		return nil
	}
	return defs.Check(traj.NAtoms())
}

func (a *app) remoteVolumes(ctx context.Context, labels []string, traj *trajectory.Trajectory) (map[string]volume.Volume, error) {
	if a.cfg.ClassifierAddr == "" {
		return nil, fmt.Errorf("remote classifier: ANNOTRAJ_CLASSIFIER_ADDR is not set")
	}
	client, err := codec.NewClassifierClient(a.cfg.ClassifierAddr)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	client.WithConcurrency(a.cfg.ClassifierConcurrency).WithLogger(a.logger)

	ctx, cancel := context.WithTimeout(ctx, a.cfg.ClassifierTimeout)
	defer cancel()
	return client.Volumes(ctx, labels, traj)
}

func buildReport(tag string, results map[string]annotation.ValidationResult, conflicts map[string][]int, r eval.EvalResult) validateReport {
	labels := make([]string, 0, len(results))
	for l := range results {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	metrics := make(map[string]float64)
	for _, m := range r.Metrics {
		metrics[m.Label+"/"+m.Name] = m.Value
	}

	report := validateReport{Tag: tag, Passed: r.Passed, Reason: r.Reason}
	for _, l := range labels {
		res := results[l]
		report.Labels = append(report.Labels, labelReport{
			Label:         l,
			Correct:       res.CorrectIdxs,
			FalsePositive: res.FalsePositiveIdxs,
			FalseNegative: res.FalseNegativeIdxs,
			Conflicts:     conflicts[l],
			Precision:     metrics[l+"/precision"],
			Recall:        metrics[l+"/recall"],
			Passed:        r.Labels[l],
		})
	}
	return report
}

func printReport(w io.Writer, report validateReport, results map[string]annotation.ValidationResult) {
	for _, l := range report.Labels {
		status := "ok"
		if !l.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s [%s] precision %.3f recall %.3f\n", l.Label, status, l.Precision, l.Recall)
		fmt.Fprintln(w, indent(results[l.Label].String()))
		if len(l.Conflicts) > 0 {
			fmt.Fprintf(w, "  Conflicting frames: %v\n", l.Conflicts)
		}
	}
	fmt.Fprintln(w, report.Reason)
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

// #endregion validate

// #region history

func newHistoryCmd(a *app) *cobra.Command {
	var last int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "history TAG",
		Short: "Show recorded validation runs of a tag, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			entries, err := logging.History(s.DB(), args[0], last)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no validation runs found")
				return nil
			}
			fmt.Fprintf(out, "%-8s  %-16s  %7s  %5s  %5s  %9s  %-6s  %s\n",
				"Run", "Label", "Correct", "FP", "FN", "Conflicts", "Passed", "Time")
			for _, e := range entries {
				fmt.Fprintf(out, "%-8s  %-16s  %7d  %5d  %5d  %9d  %-6t  %s\n",
					short(e.RunID), e.Label, e.Correct, e.FalsePositive, e.FalseNegative, e.Conflicts, e.Passed,
					e.CreatedAt.Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent entries")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion history
