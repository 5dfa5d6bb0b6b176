package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// QueryOutput describes one sanitized query.
// Canonical is a string so the envelope encoder cannot reformat it.
type QueryOutput struct {
	Name      string        `json:"name"`
	Source    string        `json:"source,omitempty"`
	Hash      string        `json:"hash"`
	Variant   query.Variant `json:"variant"`
	Canonical string        `json:"canonical,omitempty"`
}

// NewSanitizeCommand creates the sanitize command.
func NewSanitizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize <path>",
		Short: "Print the canonical form of queries",
		Long: `Read queries from a JSON, YAML or CUE file (or a directory of them)
and print each in canonical JSON form.

Malformed optional entries (links, restrictions, transforms) are dropped;
a query without a usable position is an error.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryReport(rootOpts, args[0], cmd, true, writeCanonicalText)
		},
	}
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "classify <path>",
		Short:         "Print the variant of each query",
		Long:          `Print whether each query is an atomic, goal, provider or conflicting query.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryReport(rootOpts, args[0], cmd, false, func(w io.Writer, out QueryOutput) {
				fmt.Fprintf(w, "%-12s %s\n", out.Variant, label(out))
			})
		},
	}
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "hash <path>",
		Short:         "Print the content hash of each query",
		Long:          `Print the content address of each query. Equal canonical queries have equal hashes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryReport(rootOpts, args[0], cmd, false, func(w io.Writer, out QueryOutput) {
				fmt.Fprintf(w, "%s  %s\n", out.Hash, label(out))
			})
		},
	}
}

func label(out QueryOutput) string {
	return LoadedQuery{Name: out.Name, Source: out.Source}.Label()
}

func writeCanonicalText(w io.Writer, out QueryOutput) {
	fmt.Fprintf(w, "# %s\n%s\n", label(out), out.Canonical)
}

// runQueryReport loads the queries in path and prints one line per query.
// Any load error fails the whole command.
func runQueryReport(opts *RootOptions, path string, cmd *cobra.Command, withBody bool, text func(io.Writer, QueryOutput)) error {
	formatter := newFormatter(opts, cmd)

	loaded, err := loadAll(formatter, path)
	if err != nil {
		return err
	}

	outputs := make([]QueryOutput, 0, len(loaded.Queries))
	for _, lq := range loaded.Queries {
		out, err := describe(lq, withBody)
		if err != nil {
			return formatter.fail(ExitFailure, ErrCodeGeneric, err.Error())
		}
		outputs = append(outputs, out)
	}

	if opts.Format == "json" {
		return formatter.Success(outputs)
	}
	for _, out := range outputs {
		text(formatter.Writer, out)
	}
	return nil
}

// loadAll loads path, reporting the first load error through the formatter.
func loadAll(formatter *OutputFormatter, path string) (*LoadResult, error) {
	loaded, errs := LoadQueries(path, LoadModeFailFast)
	if len(errs) > 0 {
		exitCode := ExitFailure
		if loaded == nil {
			exitCode = ExitCommandError
		}
		return nil, formatter.fail(exitCode, errorCode(errs[0]), errs[0].Error())
	}
	formatter.VerboseLog("Loaded %d query(s) from %d file(s)", len(loaded.Queries), loaded.FileCount)
	return loaded, nil
}

func describe(lq LoadedQuery, withBody bool) (QueryOutput, error) {
	hash, err := query.Hash(lq.Query)
	if err != nil {
		return QueryOutput{}, err
	}
	out := QueryOutput{
		Name:    lq.Name,
		Source:  lq.Source,
		Hash:    hash,
		Variant: query.Classify(lq.Query),
	}
	if withBody {
		canonical, err := query.Canonical(lq.Query)
		if err != nil {
			return QueryOutput{}, err
		}
		out.Canonical = string(canonical)
	}
	return out, nil
}

func queriesOf(loaded []LoadedQuery) []query.Query {
	qs := make([]query.Query, len(loaded))
	for i, lq := range loaded {
		qs[i] = lq.Query
	}
	return qs
}
