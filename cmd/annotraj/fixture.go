package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwhswenson/annotated-trajectories/internal/scenario"
	"github.com/dwhswenson/annotated-trajectories/internal/volume"
)

// #region fixture-export

func newFixtureCmd(a *app) *cobra.Command {
	var statesPath, outPath, description string
	cmd := &cobra.Command{
		Use:   "fixture TAG",
		Short: "Export a tag and its current validation outcome as a replay fixture",
		Long: `Writes a scenario fixture that records how the states in --states score
against the tag's annotations right now. Replaying it later flags any drift.
Only single-atom trajectories and states on the x coordinate of atom 0 can
be exported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]
			defs, err := volume.LoadDefinitions(statesPath)
			if err != nil {
				return err
			}
			states, err := fixtureStates(defs)
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

			if description == "" {
				description = fmt.Sprintf("Export of tag %s: %d frames, %d annotations", tag, at.Len(), len(at.Annotations()))
			}
			f, err := scenario.Capture(description, at, states, a.cfg.EvalConfig())
			if err != nil {
				return err
			}
			if err := scenario.WriteFixture(f, outPath); err != nil {
				return err
			}
			a.logger.Info("exported fixture", "tag", tag, "path", outPath, "labels", len(f.Expected))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote fixture %s (%d labels)\n", outPath, len(f.Expected))
			return nil
		},
	}
	cmd.Flags().StringVar(&statesPath, "states", "", "YAML state definitions")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output fixture JSON path")
	cmd.Flags().StringVar(&description, "description", "", "fixture description")
	_ = cmd.MarkFlagRequired("states")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// fixtureStates converts YAML state definitions to fixture states, which
// always range over x of atom 0.
func fixtureStates(defs *volume.Definitions) (map[string]scenario.FixtureState, error) {
	out := make(map[string]scenario.FixtureState, len(defs.States))
	for _, label := range defs.Labels() {
		st := defs.States[label]
		cv, ok := defs.CVs[st.CV]
		if !ok {
			return nil, fmt.Errorf("state %q: unknown cv %q", label, st.CV)
		}
		if cv.Atom != 0 || cv.Dim != 0 {
			return nil, fmt.Errorf("state %q: fixtures only support x of atom 0, got atom %d dim %d", label, cv.Atom, cv.Dim)
		}
		out[label] = scenario.FixtureState{Min: st.Min, Max: st.Max}
	}
	return out, nil
}

// #endregion fixture-export
