package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwhswenson/annotated-trajectories/internal/plot"
	"github.com/dwhswenson/annotated-trajectories/internal/volume"
)

// #region plot

func newPlotCmd(a *app) *cobra.Command {
	var statesPath, cvName, outPath string
	var dt float64
	cmd := &cobra.Command{
		Use:   "plot TAG",
		Short: "Write plot series (CV trace, annotations, in-state frames) as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := volume.LoadDefinitions(statesPath)
			if err != nil {
				return err
			}
			if cvName == "" {
				if len(defs.CVs) != 1 {
					return fmt.Errorf("plot: --cv is required when the states file defines %d cvs", len(defs.CVs))
				}
				for name := range defs.CVs {
					cvName = name
				}
			}
			cv, err := defs.CV(cvName)
			if err != nil {
				return err
			}
			vols, err := defs.Volumes()
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			at, err := s.LoadTag(args[0])
			if err != nil {
				return err
			}
			if err := checkAtoms(defs, at.Trajectory()); err != nil {
				return err
			}

			p, err := plot.Build(at, cv, vols, defs.Colors(), dt)
			if err != nil {
				return err
			}
			if outPath == "" {
				return printJSON(cmd.OutOrStdout(), p)
			}
			if err := writeJSONFile(outPath, p); err != nil {
				return err
			}
			a.logger.Info("wrote plot", "tag", args[0], "path", outPath, "series", len(p.Series))
			return nil
		},
	}
	cmd.Flags().StringVar(&statesPath, "states", "", "YAML state definitions (volumes and colors)")
	cmd.Flags().StringVar(&cvName, "cv", "", "collective variable for the y axis")
	cmd.Flags().Float64Var(&dt, "dt", 1.0, "time between frames")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("states")
	return cmd
}

// #endregion plot
