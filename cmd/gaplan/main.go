package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/yugr/gaplan/pkg/history"
	"github.com/yugr/gaplan/pkg/report"
	"github.com/yugr/gaplan/pkg/tui"
)

var (
	flagDir      string
	flagDB       string
	flagBias     string
	flagWarnings int
	flagVerbose  int
	flagOnly     string
	flagStart    string
	flagJSON     bool
)

func main() {
	if err := run(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "gaplan [command] [plan]",
		Short: "Schedule goal-oriented project plans",
		Long: `gaplan reads a declarative project plan (goals, the activities between them,
effort estimates and the people who do the work) and computes when every goal
will be reached under the available resources.

When no plan file is given, the plan from the config file is used, or the
plan is read from standard input.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Data directory (default $GAPLAN_DIR or the OS data dir)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Schedule history database path")
	rootCmd.PersistentFlags().StringVarP(&flagBias, "bias", "b", "", "Estimation bias: worst-case, pessimist, none, optimist, best-case")
	rootCmd.PersistentFlags().CountVarP(&flagWarnings, "warnings", "W", "Enable extra plan checks")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "Print scheduler debug traces")
	rootCmd.PersistentFlags().StringVarP(&flagOnly, "only", "o", "", "Limit to the given goals (';'-separated) and their predecessors")
	rootCmd.PersistentFlags().StringVar(&flagStart, "start", "", "Schedule start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")

	rootCmd.AddCommand(dumpCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(slipCmd())
	rootCmd.AddCommand(viewCmd())

	return rootCmd.Execute()
}

func dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump [plan]",
		Short: "Print the project, goal network and schedule blocks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			p, w, err := e.loadPlan(planArg(e, args))
			if err != nil {
				return err
			}
			printWarnings(w.List())

			if flagJSON {
				return outputJSON(report.NetJSON(p.Net))
			}
			if err := report.Net(os.Stdout, p.Project, p.Net, e.cfg.Estimator()); err != nil {
				return err
			}
			return report.Plan(os.Stdout, p.Schedule)
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [plan]",
		Short: "Validate the plan and report suspicious goals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			if e.cfg.Warnings == 0 {
				e.cfg.Warnings = 1
			}
			_, w, err := e.loadPlan(planArg(e, args))
			if err != nil {
				return err
			}
			warnings := w.List()

			if flagJSON {
				out := make([]string, 0, len(warnings))
				for _, x := range warnings {
					out = append(out, x.String())
				}
				return outputJSON(map[string]any{"warnings": out})
			}
			printWarnings(warnings)
			fmt.Printf("%d warning(s)\n", len(warnings))
			return nil
		},
	}
}

func scheduleCmd() *cobra.Command {
	var flagRecord bool

	cmd := &cobra.Command{
		Use:   "schedule [plan]",
		Short: "Compute goal completion dates and resource assignments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			path := planArg(e, args)
			snap, err := e.snapshot(path, true)
			if err != nil {
				return err
			}
			printWarnings(snap.Warnings)

			var text bytes.Buffer
			if err := report.Schedule(&text, snap.Schedule); err != nil {
				return err
			}

			if flagRecord {
				hs, err := e.openHistory()
				if err != nil {
					return err
				}
				defer hs.Close()

				run := history.NewRun(historyKey(path), e.cfg.Bias.String(), text.String(), snap.Schedule)
				if err := hs.Record(run); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Recorded run %s\n", run.ID)
			}

			if flagJSON {
				return outputJSON(report.ScheduleToJSON(snap.Schedule))
			}
			_, err = os.Stdout.Write(text.Bytes())
			return err
		},
	}

	cmd.Flags().BoolVar(&flagRecord, "record", false, "Store the schedule in the history database")

	return cmd
}

func slipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slip [plan]",
		Short: "Compare the current schedule with the last recorded one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			path := planArg(e, args)
			if path == stdinPlan {
				return fmt.Errorf("slip needs a plan file")
			}
			snap, err := e.snapshot(path, true)
			if err != nil {
				return err
			}
			printWarnings(snap.Warnings)

			hs, err := e.openHistory()
			if err != nil {
				return err
			}
			defer hs.Close()

			prev, err := hs.Latest(historyKey(path))
			if errors.Is(err, history.ErrNoRuns) {
				return fmt.Errorf("no recorded runs for %s, run 'gaplan schedule --record' first", path)
			}
			if err != nil {
				return err
			}

			var text bytes.Buffer
			if err := report.Schedule(&text, snap.Schedule); err != nil {
				return err
			}
			cur := history.NewRun(historyKey(path), e.cfg.Bias.String(), text.String(), snap.Schedule)

			slip, err := history.Compare(prev, cur)
			if err != nil {
				return err
			}

			if flagJSON {
				moves := make([]string, 0, len(slip.Moves))
				for _, m := range slip.Moves {
					moves = append(moves, m.String())
				}
				return outputJSON(map[string]any{
					"from":  prev.ID,
					"moves": moves,
					"diff":  slip.Diff,
				})
			}

			if !slip.Changed() {
				fmt.Printf("No changes since run %s\n", prev.ID)
				return nil
			}
			fmt.Print(slip.Diff)
			if len(slip.Moves) > 0 {
				fmt.Println()
				fmt.Println("Moved goals:")
				for _, m := range slip.Moves {
					fmt.Printf("  %s\n", m)
				}
			}
			return nil
		},
	}
}

func viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [plan]",
		Short: "Browse the schedule in a terminal UI, rescheduling on save",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			path := planArg(e, args)
			if path == stdinPlan {
				return fmt.Errorf("view needs a plan file")
			}
			return runTUI(e, path)
		},
	}
}

func runTUI(e *env, path string) error {
	load := func() (*tui.Snapshot, error) {
		// Debug traces would corrupt the screen.
		return e.snapshot(path, false)
	}
	m := tui.NewModel(load)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Start file watcher
	cleanup, err := tui.StartWatcher(path, p)
	if err != nil {
		printWarning("file watcher failed: " + err.Error())
	} else {
		defer cleanup()
	}

	_, err = p.Run()
	return err
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
