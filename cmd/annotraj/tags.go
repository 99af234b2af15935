package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
)

// #region import
func newImportCmd(a *app) *cobra.Command {
	var trajPath, annPath string
	cmd := &cobra.Command{
		Use:   "import TAG",
		Short: "Store a trajectory and optional interval annotations under a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]
			traj, err := trajectory.ReadJSONFile(trajPath)
			if err != nil {
				return err
			}
			at, err := annotation.New(traj)
			if err != nil {
				return err
			}
			if annPath != "" {
				if err := at.LoadJSONFile(annPath); err != nil {
					return err
				}
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			if err := s.SaveTag(tag, at); err != nil {
				return err
			}
			a.logger.Info("imported trajectory", "tag", tag, "frames", at.Len(), "annotations", len(at.Annotations()))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %d frames, %d annotations\n", tag, at.Len(), len(at.Annotations()))
			return nil
		},
	}
	cmd.Flags().StringVar(&trajPath, "trajectory", "", "trajectory JSON: array of x positions or {\"frames\": [...]}")
	cmd.Flags().StringVar(&annPath, "annotations", "", "interval JSON: [[state, begin, end], ...]")
	_ = cmd.MarkFlagRequired("trajectory")
	return cmd
}

// #endregion import

// #region annotate
func newAnnotateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate TAG STATE BEGIN END",
		Short: "Label frames BEGIN through END (inclusive) of a tagged trajectory",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]
			ann, err := parseAnnotation(args[1], args[2], args[3])
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			at, err := s.LoadTag(tag)
			if err != nil {
				return err
			}
			if err := at.AddAnnotations(ann); err != nil {
				return err
			}
			if err := s.UpdateTag(tag, at); err != nil {
				return err
			}
			a.logger.Info("annotated frames", "tag", tag, "annotation", ann.String())
			fmt.Fprintf(cmd.OutOrStdout(), "%s: added %s\n", tag, ann)
			return nil
		},
	}
}

func parseAnnotation(state, begin, end string) (annotation.Annotation, error) {
	b, err := strconv.Atoi(begin)
	if err != nil {
		return annotation.Annotation{}, fmt.Errorf("begin %q: %w", begin, err)
	}
	e, err := strconv.Atoi(end)
	if err != nil {
		return annotation.Annotation{}, fmt.Errorf("end %q: %w", end, err)
	}
	return annotation.Annotation{State: state, Begin: b, End: e}, nil
}

// #endregion annotate

// #region export
func newExportCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export TAG",
		Short: "Write a tag's annotations as interval JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			at, err := s.LoadTag(args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				return at.WriteJSON(cmd.OutOrStdout())
			}
			if err := at.WriteJSONFile(outPath); err != nil {
				return err
			}
			a.logger.Info("exported annotations", "tag", args[0], "path", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

// #endregion export

// #region inspect

type tagRow struct {
	Name         string `json:"name"`
	TrajectoryID string `json:"trajectory_id"`
	Frames       int    `json:"frames"`
	Annotations  int    `json:"annotations"`
	CreatedAt    string `json:"created_at"`
}

type labelRow struct {
	Label  string             `json:"label"`
	Frames int                `json:"frames"`
	Ranges []annotation.Range `json:"ranges"`
}

type tagDetail struct {
	Name       string     `json:"name"`
	Frames     int        `json:"frames"`
	Labels     []labelRow `json:"labels"`
	Unassigned int        `json:"unassigned"`
}

func newInspectCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "inspect [TAG]",
		Short: "List saved tags, or show the labels of one tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				tags, err := s.ListTags()
				if err != nil {
					return err
				}
				rows := make([]tagRow, len(tags))
				for i, ti := range tags {
					rows[i] = tagRow{
						Name:         ti.Name,
						TrajectoryID: ti.TrajectoryID,
						Frames:       ti.NFrames,
						Annotations:  ti.NAnnotations,
						CreatedAt:    ti.CreatedAt.Format("2006-01-02T15:04:05Z"),
					}
				}
				if jsonOut {
					return printJSON(out, rows)
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), "no tags found")
					return nil
				}
				fmt.Fprintf(out, "%-20s  %8s  %11s  %s\n", "Tag", "Frames", "Annotations", "Time")
				for _, r := range rows {
					fmt.Fprintf(out, "%-20s  %8d  %11d  %s\n", r.Name, r.Frames, r.Annotations, r.CreatedAt)
				}
				return nil
			}

			at, err := s.LoadTag(args[0])
			if err != nil {
				return err
			}
			detail := tagDetail{Name: args[0], Frames: at.Len(), Unassigned: len(at.Unassigned())}
			for _, label := range at.StateNames() {
				ranges := at.Ranges(label)
				n := 0
				for _, r := range ranges {
					n += r.End - r.Begin + 1
				}
				detail.Labels = append(detail.Labels, labelRow{Label: label, Frames: n, Ranges: ranges})
			}
			if jsonOut {
				return printJSON(out, detail)
			}
			fmt.Fprintf(out, "%s: %d frames, %d unassigned\n", detail.Name, detail.Frames, detail.Unassigned)
			for _, l := range detail.Labels {
				parts := make([]string, len(l.Ranges))
				for i, r := range l.Ranges {
					parts[i] = fmt.Sprintf("%d-%d", r.Begin, r.End)
				}
				fmt.Fprintf(out, "  %-16s %6d  %s\n", l.Label, l.Frames, strings.Join(parts, " "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

// #endregion inspect

// #region unassigned
func newUnassignedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unassigned TAG",
		Short: "Print the indices of frames that carry no label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			at, err := s.LoadTag(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), at.Unassigned())
		},
	}
}

// #endregion unassigned
