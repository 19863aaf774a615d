package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"symphonia/internal/crosscheck"
	"symphonia/internal/media"
	"symphonia/internal/media/ffprobe"
)

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON  bool
		packets bool
		track   int
	)

	cmd := &cobra.Command{
		Use:   "compare <file>",
		Short: "Cross-check probed tracks against ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			reader, err := ctx.openReader(cmd, args[0])
			if err != nil {
				return err
			}
			if packets {
				defer closeReader(reader, cmd.ErrOrStderr())
				return comparePackets(cmd, reader, cfg.FFprobeBinary(), args[0], track, asJSON)
			}
			tracks := reader.Tracks()
			closeReader(reader, cmd.ErrOrStderr())

			result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), args[0])
			if err != nil {
				return ffprobeError(err)
			}

			report := crosscheck.Compare(tracks, result)
			if asJSON {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Tracks: %d probed, %d ffprobe streams\n", report.Tracks, report.Streams)
				if len(report.Findings) == 0 {
					fmt.Fprintln(out, "No differences found")
				} else {
					rows := make([][]string, 0, len(report.Findings))
					for _, f := range report.Findings {
						rows = append(rows, []string{f.Severity, f.Category, f.Message})
					}
					tableView{headers: []string{"Severity", "Category", "Message"}, rows: rows}.print(out)
				}
			}
			if !report.OK() {
				return fmt.Errorf("compare %s: critical differences found", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&packets, "packets", false, "Compare packet timestamps with ffprobe -show_packets")
	cmd.Flags().IntVar(&track, "track", -1, "Track id for --packets (default: first video track, else first track)")
	return cmd
}

func comparePackets(cmd *cobra.Command, reader media.FormatReader, binary, path string, track int, asJSON bool) error {
	tracks := reader.Tracks()
	index := packetTrackIndex(tracks, track)
	if index < 0 {
		if track >= 0 {
			return fmt.Errorf("compare %s: no track with id %d", path, track)
		}
		return fmt.Errorf("compare %s: no tracks", path)
	}
	selected := tracks[index]

	want, err := ffprobe.Packets(cmd.Context(), binary, path, index)
	if err != nil {
		return ffprobeError(err)
	}
	report, err := crosscheck.ComparePackets(reader, selected.ID, want)
	if err != nil {
		return err
	}

	if asJSON {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Track %d (%s %s), ffprobe stream %d\n", selected.ID, selected.Type, selected.Codec, index)
		if len(report.Failures) > 0 {
			rows := make([][]string, 0, len(report.Failures))
			for _, f := range report.Failures {
				got := []string{strconv.FormatUint(f.GotPTS, 10), strconv.FormatInt(f.GotDTS, 10)}
				if f.Missing {
					got = []string{"missing", "missing"}
				}
				rows = append(rows, []string{
					strconv.Itoa(f.Index),
					strconv.FormatInt(f.WantPTS, 10), got[0],
					strconv.FormatInt(f.WantDTS, 10), got[1],
				})
			}
			tableView{
				headers: []string{"#", "ffprobe PTS", "Reader PTS", "ffprobe DTS", "Reader DTS"},
				aligns:  []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
				rows:    rows,
			}.print(out)
		}
		fmt.Fprintf(out, "%d of %d packets differ\n", report.Failed, report.Total)
	}
	if !report.OK() {
		return fmt.Errorf("compare %s: %d of %d packets differ", path, report.Failed, report.Total)
	}
	return nil
}

// packetTrackIndex returns the position of the track to compare, which is
// also its ffprobe stream index.
func packetTrackIndex(tracks []media.Track, id int) int {
	if id >= 0 {
		for i, tr := range tracks {
			if int64(tr.ID) == int64(id) {
				return i
			}
		}
		return -1
	}
	for i, tr := range tracks {
		if tr.Type == media.TrackVideo {
			return i
		}
	}
	if len(tracks) == 0 {
		return -1
	}
	return 0
}

func ffprobeError(err error) error {
	if errors.Is(err, ffprobe.ErrNotInstalled) {
		return fmt.Errorf("%w; install ffmpeg or set tools.ffprobe", err)
	}
	return err
}
