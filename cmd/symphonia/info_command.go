package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"symphonia/internal/media"
)

type infoOutput struct {
	Path   string           `json:"path"`
	Format media.FormatInfo `json:"format"`
	Tracks []media.Track    `json:"tracks"`
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Show the container format and tracks of a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			reader, err := ctx.openReader(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeReader(reader, cmd.ErrOrStderr())

			info := reader.FormatInfo()
			tracks := reader.Tracks()
			if asJSON {
				if tracks == nil {
					tracks = []media.Track{}
				}
				return writeJSON(cmd, infoOutput{Path: args[0], Format: info, Tracks: tracks})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:   %s\n", args[0])
			fmt.Fprintf(out, "Format: %s (%s)\n", info.LongName, info.ShortName)
			if len(tracks) == 0 {
				fmt.Fprintln(out, "Tracks: none reported")
				return nil
			}
			fmt.Fprintf(out, "Tracks: %d\n", len(tracks))
			tableView{headers: trackHeaders, aligns: trackAligns, rows: trackRows(tracks)}.print(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
