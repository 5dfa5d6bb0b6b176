package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AutoScheduleJS/queries-fn/internal/compiler"
)

// QueryIssue is a validation error attributed to one query.
type QueryIssue struct {
	Query string `json:"query"`
	compiler.ValidationError
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                    `json:"valid"`
	Checked  int                     `json:"checked"`
	Errors   []QueryIssue            `json:"errors,omitempty"`
	Warnings []QueryIssue            `json:"warnings,omitempty"`
	Cycles   []compiler.CycleWarning `json:"cycles,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Check queries for invariant violations",
		Long: `Validate queries after sanitization.

Reports broken duration and goal invariants, duplicate need refs, updates
without a need, inverted restriction ranges and self links. Link cycles
across the loaded queries are reported as warnings.

Queries carrying both goal and provide are a warning, or an error with
--strict (or reject_dual_tagged in the config file).

Exit codes:
  0 - All queries valid
  1 - Validation errors found
  2 - Command error (invalid paths, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	// Collect every load error so one run reports all broken queries
	loaded, loadErrors := LoadQueries(path, LoadModeCollectAll)
	if loaded == nil {
		return formatter.fail(ExitCommandError, errorCode(loadErrors[0]), loadErrors[0].Error())
	}

	result := ValidationResult{Checked: len(loaded.Queries)}
	for _, err := range loadErrors {
		result.Errors = append(result.Errors, QueryIssue{
			Query: path,
			ValidationError: compiler.ValidationError{
				Field:   "load",
				Message: err.Error(),
				Code:    errorCode(err),
			},
		})
	}

	for _, lq := range loaded.Queries {
		formatter.VerboseLog("Validating query: %s", lq.Label())
		for _, verr := range compiler.Validate(lq.Query) {
			issue := QueryIssue{Query: lq.Label(), ValidationError: verr}
			if verr.Code == compiler.ErrDualTagged && !opts.Strict {
				result.Warnings = append(result.Warnings, issue)
				continue
			}
			result.Errors = append(result.Errors, issue)
		}
	}
	result.Cycles = compiler.AnalyzeLinkCycles(queriesOf(loaded.Queries))
	result.Valid = len(result.Errors) == 0

	if opts.Format == "json" {
		if !result.Valid {
			if err := formatter.Failure(ErrCodeInvalidQuery, fmt.Sprintf("%d validation error(s)", len(result.Errors)), result); err != nil {
				return err
			}
			return reportedExitError(ExitFailure, "validation failed")
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, issue := range result.Errors {
		fmt.Fprintf(w, "✗ %s: %s\n", issue.Query, issue.ValidationError.Error())
	}
	for _, issue := range result.Warnings {
		fmt.Fprintf(w, "! %s: %s\n", issue.Query, issue.ValidationError.Error())
	}
	for _, cycle := range result.Cycles {
		fmt.Fprintf(w, "! %s\n", cycle.Message)
	}
	if !result.Valid {
		fmt.Fprintf(w, "\n%d validation error(s) in %d query(s)\n", len(result.Errors), result.Checked)
		return reportedExitError(ExitFailure, "validation failed")
	}
	fmt.Fprintf(w, "✓ All %d query(s) valid\n", result.Checked)
	return nil
}
