package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pushrx/internal/harness"
	"github.com/roach88/pushrx/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Filter   string

	// IDGenerator overrides run ids in the history (for testing).
	// If nil, the store default UUIDv7Generator is used.
	IDGenerator store.RunIDGenerator
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name     string          `json:"name"`
	Path     string          `json:"path"`
	Pass     bool            `json:"pass"`
	Output   []string        `json:"output,omitempty"`
	Lifespan *harness.Window `json:"lifespan,omitempty"`
	Errors   []string        `json:"errors,omitempty"`
	RunID    string          `json:"run_id,omitempty"`
}

// RunSummary is the outcome of a run command.
type RunSummary struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario|dir>...",
		Short: "Run marble scenarios",
		Long: `Run marble scenarios on virtual time and check their expectations.

Arguments are scenario files (.yaml, .yml, .cue) or directories to search.
With --db every run is appended to the SQLite run history.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  pushrx run ./scenarios
  pushrx run ./scenarios --filter "merge*"
  pushrx run delay_take.yaml --db ./runs.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history (optional)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	files, err := findScenarioFiles(paths, opts.Filter)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return err
	}
	if len(files) == 0 {
		_ = formatter.Error(ErrCodeNoFiles, "no scenario files found", paths)
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	var st *store.Store
	if opts.Database != "" {
		var storeOpts []store.Option
		if opts.IDGenerator != nil {
			storeOpts = append(storeOpts, store.WithRunIDGenerator(opts.IDGenerator))
		}
		st, err = store.Open(opts.Database, storeOpts...)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, "failed to open run history", err.Error())
			return WrapExitError(ExitCommandError, "failed to open run history", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing run history", "error", closeErr)
			}
		}()
	}

	summary := RunSummary{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		res := runScenarioFile(cmd, file, st)
		summary.Scenarios = append(summary.Scenarios, res)
		if res.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
		printScenarioResult(formatter, res)
	}

	if formatter.JSON() {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", summary.Failed, summary.Total))
	}
	return nil
}

// runScenarioFile loads, runs and optionally records one scenario. Load
// and run errors are reported as a failed result, not returned.
func runScenarioFile(cmd *cobra.Command, file string, st *store.Store) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   file,
			Path:   file,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	result, err := harness.Run(scenario, harness.WithLogger(slog.Default()))
	if err != nil {
		return ScenarioResult{
			Name:   scenario.Name,
			Path:   file,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	res := ScenarioResult{
		Name:     scenario.Name,
		Path:     file,
		Pass:     result.Pass,
		Output:   result.Output,
		Lifespan: &result.Lifespan,
		Errors:   result.Errors,
	}
	if st == nil {
		return res
	}

	data, err := harness.MarshalResult(result)
	if err == nil {
		var run store.Run
		run, err = st.WriteRun(cmd.Context(), store.Run{
			Scenario:   scenario.Name,
			SourcePath: file,
			Pass:       result.Pass,
			Result:     data,
		})
		res.RunID = run.ID
	}
	if err != nil {
		res.Pass = false
		res.Errors = append(res.Errors, fmt.Sprintf("failed to record run: %v", err))
	}
	return res
}

func printScenarioResult(f *OutputFormatter, res ScenarioResult) {
	if res.Pass {
		f.Textf("✓ %s", res.Name)
	} else {
		f.Textf("✗ %s", res.Name)
	}
	if f.Verbose {
		for _, m := range res.Output {
			f.Textf("    %s", m)
		}
	}
	for _, e := range res.Errors {
		for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
			f.Textf("  %s", line)
		}
	}
}
