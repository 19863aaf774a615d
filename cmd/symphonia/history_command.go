package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"symphonia/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		prune  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent check runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.OpenConfigured(cmd.Context(), cfg)
			if errors.Is(err, history.ErrDisabled) {
				return errors.New("history is disabled (set history.enabled = true)")
			}
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("prune") {
				removed, err := store.Prune(cmd.Context(), prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d runs\n", removed)
				return nil
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				outcome := run.Status
				if run.ErrorKind != "" {
					outcome += " (" + run.ErrorKind + ")"
				}
				rows = append(rows, []string{
					humanize.Time(run.StartedAt),
					outcome,
					run.Format,
					run.Backend,
					run.Elapsed.Round(time.Microsecond).String(),
					run.Path,
				})
			}
			tableView{
				headers: []string{"When", "Outcome", "Format", "Backend", "Elapsed", "Path"},
				aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				rows:    rows,
			}.print(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 = all)")
	cmd.Flags().IntVar(&prune, "prune", 0, "Delete all but the newest N runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
