package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"symphonia/internal/media"
)

type packetOutput struct {
	N       int     `json:"n"`
	TrackID uint32  `json:"track_id"`
	PTS     uint64  `json:"pts"`
	DTS     int64   `json:"dts"`
	Dur     uint64  `json:"dur"`
	Bytes   int     `json:"data_len"`
	Seconds float64 `json:"seconds,omitempty"`
}

func newPacketsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		track  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "packets <file>",
		Short: "List packets in stream order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must be >= 0")
			}
			defer ctx.close()

			reader, err := ctx.openReader(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeReader(reader, cmd.ErrOrStderr())

			tracks := reader.Tracks()
			var packets []packetOutput
			var readErr error
			for n := 1; limit == 0 || len(packets) < limit; n++ {
				pkt, err := media.ReadPacket(reader)
				if media.IsEndOfStream(err) {
					break
				}
				if err != nil {
					readErr = err
					break
				}
				if track >= 0 && pkt.TrackID != uint32(track) {
					continue
				}
				row := packetOutput{N: n, TrackID: pkt.TrackID, PTS: pkt.PTS, DTS: pkt.DTS, Dur: pkt.Dur, Bytes: pkt.Len()}
				if tr, ok := media.FindTrack(tracks, pkt.TrackID); ok {
					row.Seconds = tr.TimeBase.Seconds(pkt.PTS)
				}
				packets = append(packets, row)
			}

			if asJSON {
				if packets == nil {
					packets = []packetOutput{}
				}
				if err := writeJSON(cmd, packets); err != nil {
					return err
				}
				return readErr
			}

			out := cmd.OutOrStdout()
			if len(packets) == 0 {
				fmt.Fprintln(out, "No packets")
				return readErr
			}
			rows := make([][]string, 0, len(packets))
			total := 0
			for _, p := range packets {
				total += p.Bytes
				rows = append(rows, []string{
					strconv.Itoa(p.N),
					strconv.FormatUint(uint64(p.TrackID), 10),
					strconv.FormatUint(p.PTS, 10),
					strconv.FormatInt(p.DTS, 10),
					strconv.FormatUint(p.Dur, 10),
					strconv.Itoa(p.Bytes),
					strconv.FormatFloat(p.Seconds, 'f', 3, 64),
				})
			}
			tableView{
				headers: []string{"#", "Track", "PTS", "DTS", "Dur", "Bytes", "Time (s)"},
				aligns:  []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				rows:    rows,
				caption: fmt.Sprintf("%d packets, %s", len(packets), humanize.Bytes(uint64(total))),
			}.print(out)
			return readErr
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum packets to list (0 = all)")
	cmd.Flags().IntVar(&track, "track", -1, "Only list packets of this track id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
