package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"symphonia/internal/regression"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var record bool

	cmd := &cobra.Command{
		Use:   "verify <file> <expectation.yaml>",
		Short: "Compare a media file against a YAML expectation",
		Long: "Compare format info, tracks and the first packets of a media file\n" +
			"against an expectation file. With --record the expectation is\n" +
			"written from the file instead.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			mediaPath, expPath := args[0], args[1]
			out := cmd.OutOrStdout()

			var exp *regression.Expectation
			if !record {
				loaded, err := regression.Load(expPath)
				if err != nil {
					return err
				}
				exp = loaded
			}

			reader, err := ctx.openReader(cmd, mediaPath)
			if err != nil {
				return err
			}
			defer closeReader(reader, cmd.ErrOrStderr())

			if record {
				recorded, err := regression.Record(reader)
				if err != nil {
					return fmt.Errorf("record %s: %w", mediaPath, err)
				}
				if err := recorded.Save(expPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Recorded %d tracks and %d packets to %s\n",
					len(recorded.Format.Tracks), len(recorded.Packets), expPath)
				return nil
			}

			report := regression.Verify(reader, exp)
			if report.OK() {
				fmt.Fprintf(out, "Expectation matched (%d packets checked)\n", report.PacketsChecked)
				return nil
			}
			rows := make([][]string, 0, len(report.Mismatches))
			for _, m := range report.Mismatches {
				rows = append(rows, []string{m.Field, m.Want, m.Got})
			}
			tableView{headers: []string{"Field", "Expected", "Actual"}, rows: rows}.print(out)
			if len(report.Extra) > 0 {
				fmt.Fprintln(out, "Packets left in the file:")
				for _, line := range report.Extra {
					fmt.Fprintf(out, "- id: %q\n", line)
				}
			}
			return fmt.Errorf("verify %s: %d mismatches", mediaPath, len(report.Mismatches))
		},
	}

	cmd.Flags().BoolVar(&record, "record", false, "Write the expectation file from the media file")
	return cmd
}
