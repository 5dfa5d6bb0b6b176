package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AutoScheduleJS/queries-fn/internal/store"
)

// SavedQuery is one query written by the save command.
type SavedQuery struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// SaveResult summarizes a save.
type SaveResult struct {
	BatchID  string       `json:"batch_id"`
	Saved    []SavedQuery `json:"saved"`
	Inserted int          `json:"inserted"`
}

// openStore opens the catalog named by --db or the config file.
func openStore(opts *RootOptions, formatter *OutputFormatter) (*store.Store, error) {
	if opts.Database == "" {
		return nil, formatter.fail(ExitCommandError, ErrCodeNotFound, "no database: set --db or database in the config file")
	}
	formatter.VerboseLog("Opening catalog %s", opts.Database)
	st, err := store.Open(opts.Database, store.WithCacheSize(opts.CacheSize))
	if err != nil {
		return nil, formatter.fail(ExitCommandError, ErrCodeDatabase, err.Error())
	}
	return st, nil
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	var batchID string

	cmd := &cobra.Command{
		Use:   "save <path>",
		Short: "Store sanitized queries in the catalog",
		Long: `Sanitize queries and store their canonical form in the catalog,
keyed by content hash. Saving an equal query again is a no-op.

All queries of one save share a batch id (a fresh UUID unless --batch is set).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			loaded, err := loadAll(formatter, args[0])
			if err != nil {
				return err
			}

			st, err := openStore(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer st.Close()

			if batchID == "" {
				batchID = uuid.NewString()
			}
			hashes, inserted, err := st.SaveAll(cmd.Context(), queriesOf(loaded.Queries), batchID)
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeDatabase, err.Error())
			}

			result := SaveResult{BatchID: batchID, Saved: make([]SavedQuery, len(hashes)), Inserted: inserted}
			for i, hash := range hashes {
				result.Saved[i] = SavedQuery{Name: loaded.Queries[i].Label(), Hash: hash}
			}

			if rootOpts.Format == "json" {
				return formatter.Success(result)
			}
			w := formatter.Writer
			for _, s := range result.Saved {
				fmt.Fprintf(w, "%s  %s\n", s.Hash, s.Name)
			}
			fmt.Fprintf(w, "Saved %d query(s), %d new, batch %s\n", len(result.Saved), result.Inserted, result.BatchID)
			return nil
		},
	}

	cmd.Flags().StringVar(&batchID, "batch", "", "batch id (default: random UUID)")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <hash>",
		Short:         "Print a stored query",
		Long:          `Print the canonical JSON of the stored query with the given content hash.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			st, err := openStore(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer st.Close()

			hash := args[0]
			q, err := st.Get(cmd.Context(), hash)
			if errors.Is(err, sql.ErrNoRows) {
				return formatter.fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no query with hash %s", hash))
			}
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeDatabase, err.Error())
			}

			out, err := describe(LoadedQuery{Name: q.Name, Query: q}, true)
			if err != nil {
				return formatter.fail(ExitFailure, ErrCodeGeneric, err.Error())
			}
			if rootOpts.Format == "json" {
				return formatter.Success(out)
			}
			fmt.Fprintln(formatter.Writer, out.Canonical)
			return nil
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		queryID int64
		batchID string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored queries",
		Long: `List the queries in the catalog, oldest first.

Use --query-id to list every stored version of one query, or --batch to
list the queries of one save.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			if cmd.Flags().Changed("query-id") && batchID != "" {
				return formatter.fail(ExitCommandError, ErrCodeGeneric, "--query-id and --batch are mutually exclusive")
			}

			st, err := openStore(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer st.Close()

			var summaries []store.Summary
			switch {
			case cmd.Flags().Changed("query-id"):
				summaries, err = st.ListByQueryID(cmd.Context(), queryID)
			case batchID != "":
				summaries, err = st.ListByBatch(cmd.Context(), batchID)
			default:
				summaries, err = st.List(cmd.Context())
			}
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeDatabase, err.Error())
			}

			if rootOpts.Format == "json" {
				return formatter.Success(summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(formatter.Writer, "No queries stored.")
				return nil
			}
			tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEQ\tHASH\tID\tVARIANT\tNAME\tBATCH")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", s.Seq, s.Hash[:12], s.QueryID, s.Variant, s.Name, s.BatchID)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int64Var(&queryID, "query-id", 0, "only versions of this query id")
	cmd.Flags().StringVar(&batchID, "batch", "", "only queries of this batch")

	return cmd
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that stored queries still hash to their keys",
		Long: `Re-sanitize every stored query and recompute its hash.

A mismatch means the stored body was altered or normalization rules
changed since it was saved.

Exit codes:
  0 - Catalog consistent
  1 - Drift detected
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			st, err := openStore(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := st.Verify(cmd.Context())
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeDatabase, err.Error())
			}

			if !report.OK() {
				msg := fmt.Sprintf("%d of %d stored query(s) drifted", len(report.Drifted), report.Checked)
				if rootOpts.Format == "json" {
					if err := formatter.Failure(ErrCodeCatalogDrift, msg, report); err != nil {
						return err
					}
				} else {
					for _, d := range report.Drifted {
						if d.Error != "" {
							fmt.Fprintf(formatter.Writer, "✗ %s: %s\n", d.Hash, d.Error)
						} else {
							fmt.Fprintf(formatter.Writer, "✗ %s: now hashes to %s\n", d.Hash, d.NewHash)
						}
					}
					fmt.Fprintln(formatter.Writer, msg)
				}
				return reportedExitError(ExitFailure, msg)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(report)
			}
			fmt.Fprintf(formatter.Writer, "✓ %d stored query(s) verified\n", report.Checked)
			return nil
		},
	}
}
