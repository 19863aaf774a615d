package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const decodedMessage = "Packet was decoded"

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Open, probe and read the first packet of a media file",
		Long: "Open a media file, probe its container and read one packet.\n\n" +
			"Prints \"" + decodedMessage + "\" on success. Failures exit with\n" +
			"2 (open), 3 (probe), 4 (decode) or 5 (no packets in stream).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			runner, err := ctx.runner(cmd)
			if err != nil {
				return err
			}
			if _, err := runner.Run(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), decodedMessage)
			return nil
		},
	}
}
