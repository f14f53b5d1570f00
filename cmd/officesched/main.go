// Command officesched computes an office attendance schedule from a
// people-availability CSV and a set-constraints CSV.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ian-ludden/office-scheduler"
	"github.com/ian-ludden/office-scheduler/internal/config"
	"github.com/ian-ludden/office-scheduler/internal/csvio"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "officesched",
		Short: "Compute an office attendance schedule under availability and department/synergy constraints",
	}
	root.AddCommand(newSolveCmd())
	return root
}

func newSolveCmd() *cobra.Command {
	var (
		outPath    string
		timeLimit  time.Duration
		branchSeed int64
		direct     bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "solve <num_days> <people.csv> <sets.csv>",
		Short: "Solve a scheduling instance and write the output schedule CSV",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := config.Resolve(config.Flags{
				TimeLimit:  timeLimit,
				BranchSeed: branchSeed,
				Direct:     direct,
				LogLevel:   logLevel,
			})
			log := resolved.Log

			horizon, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("num_days: %w", err)
			}

			peopleFile, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("opening people csv: %w", err)
			}
			defer peopleFile.Close()

			setsFile, err := os.Open(args[2])
			if err != nil {
				return fmt.Errorf("opening sets csv: %w", err)
			}
			defer setsFile.Close()

			m, err := csvio.ParseModel(peopleFile, setsFile, horizon)
			if err != nil {
				log.Error("officesched: invalid input", "err", err)
				return err
			}

			status, sched, stats, err := officesched.Solve(m, officesched.Options{
				TimeLimit:  resolved.TimeLimit,
				BranchSeed: resolved.BranchSeed,
				Direct:     resolved.Direct,
				Log:        log,
			})
			if err != nil {
				log.Error("officesched: solver failure", "err", err)
				return err
			}

			log.Info("officesched: final status",
				"status", status.String(),
				"nodes_explored", stats.NodesExplored,
				"elapsed", stats.Elapsed)

			if sched == nil {
				return nil
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating output csv: %w", err)
				}
				defer f.Close()
				out = f
			}

			return csvio.WriteSchedule(out, *sched)
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "output CSV path (default: stdout)")
	cmd.Flags().DurationVar(&timeLimit, "time-limit", 30*time.Second, "B&B search deadline")
	cmd.Flags().Int64Var(&branchSeed, "branch-seed", 0, "seed for the B&B engine's branching RNG")
	cmd.Flags().BoolVar(&direct, "direct", false, "use the internal/milp cross-check solver instead of the B&B engine")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}
