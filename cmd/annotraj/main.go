package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dwhswenson/annotated-trajectories/internal/config"
	"github.com/dwhswenson/annotated-trajectories/internal/store"
)

// #region main

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region app
// app carries what every subcommand shares. The store is opened on first use
// so commands that never touch the database work without one.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	dbPath string
	store  *store.Store
}

func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.NewStore(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", a.dbPath, err)
	}
	a.store = s.WithLogger(a.logger)
	a.logger.Debug("opened store", "db", a.dbPath)
	return a.store, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// #endregion app

// #region root
func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "annotraj",
		Short: "Annotate trajectory frames with states and validate state definitions",
		Long: `annotraj keeps hand-made state annotations of trajectory frames in a
SQLite database and checks proposed state definitions against them.

Examples:
  annotraj import run1 --trajectory traj.json --annotations run1.json
  annotraj annotate run1 2-digit 6 8
  annotraj validate run1 --states states.yaml
  annotraj history run1 --last 10
  annotraj fixture run1 --states states.yaml -o run1.fixture.json
  annotraj replay run1.fixture.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			if a.dbPath == "" {
				a.dbPath = cfg.DBPath
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "path to the annotation database (default $ANNOTRAJ_DB or annotraj.db)")

	root.AddCommand(
		newImportCmd(a),
		newAnnotateCmd(a),
		newExportCmd(a),
		newInspectCmd(a),
		newUnassignedCmd(a),
		newValidateCmd(a),
		newHistoryCmd(a),
		newReplayCmd(a),
		newFixtureCmd(a),
		newPlotCmd(a),
	)
	return root
}

// #endregion root

// #region output
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := printJSON(f, v); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// #endregion output
