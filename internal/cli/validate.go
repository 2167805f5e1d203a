package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pushrx/internal/harness"
)

// ValidationResult is the outcome of validating one scenario file.
type ValidationResult struct {
	Path  string `json:"path"`
	Name  string `json:"name,omitempty"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario|dir>...",
		Short: "Validate scenarios without running them",
		Long: `Parse and validate scenario files without running them.

YAML scenarios are checked for unknown fields and per-op parameters;
CUE scenarios are additionally checked against the #Scenario schema.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	files, err := findScenarioFiles(paths, "")
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return err
	}
	if len(files) == 0 {
		_ = formatter.Error(ErrCodeNoFiles, "no scenario files found", paths)
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	results := make([]ValidationResult, 0, len(files))
	invalid := 0
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		res := ValidationResult{Path: file, Valid: true}
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			res.Valid = false
			res.Error = err.Error()
			invalid++
			formatter.Textf("✗ %s: %v", file, err)
		} else {
			res.Name = scenario.Name
			formatter.Textf("✓ %s (%s)", file, scenario.Name)
		}
		results = append(results, res)
	}

	if formatter.JSON() {
		if invalid > 0 {
			_ = formatter.Error(ErrCodeLoad, fmt.Sprintf("%d of %d scenarios invalid", invalid, len(files)), results)
		} else if err := formatter.Success(results); err != nil {
			return err
		}
	}
	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios invalid", invalid, len(files)))
	}
	return nil
}
