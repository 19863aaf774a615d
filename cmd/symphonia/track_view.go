package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"symphonia/internal/language"
	"symphonia/internal/media"
)

var trackHeaders = []string{"ID", "Type", "Codec", "Language", "Time Base", "Frames", "Details", "Flags"}

var trackAligns = []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}

func trackRows(tracks []media.Track) [][]string {
	rows := make([][]string, 0, len(tracks))
	for _, tr := range media.SortTracks(tracks) {
		frames := ""
		if tr.NumFrames > 0 {
			frames = strconv.FormatUint(tr.NumFrames, 10)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(tr.ID), 10),
			string(tr.Type),
			tr.Codec,
			languageLabel(tr.Language),
			tr.TimeBase.String(),
			frames,
			trackDetails(tr),
			trackFlags(tr.Flags),
		})
	}
	return rows
}

func languageLabel(code string) string {
	if strings.TrimSpace(code) == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s)", language.DisplayName(code), language.Normalize(code))
}

func trackDetails(tr media.Track) string {
	var parts []string
	switch {
	case tr.Profile != "" && tr.Level > 0:
		parts = append(parts, fmt.Sprintf("profile %s level %d", tr.Profile, tr.Level))
	case tr.Profile != "":
		parts = append(parts, "profile "+tr.Profile)
	}
	if tr.Width > 0 && tr.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", tr.Width, tr.Height))
	}
	for _, cfg := range tr.VideoExtraData {
		parts = append(parts, fmt.Sprintf("%s %s", cfg.ID, humanize.Bytes(uint64(len(cfg.Data)))))
	}
	if tr.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%d Hz", tr.SampleRate))
	}
	if tr.Channels > 0 {
		parts = append(parts, fmt.Sprintf("%d ch", tr.Channels))
	}
	if tr.BitsPerSample > 0 {
		parts = append(parts, fmt.Sprintf("%d bit", tr.BitsPerSample))
	}
	if len(tr.ExtraData) > 0 {
		parts = append(parts, "extra data "+humanize.Bytes(uint64(len(tr.ExtraData))))
	}
	if tr.Delay > 0 || tr.Padding > 0 {
		parts = append(parts, fmt.Sprintf("delay %d pad %d", tr.Delay, tr.Padding))
	}
	return strings.Join(parts, ", ")
}

func trackFlags(f media.TrackFlags) string {
	var flags []string
	if f.Default {
		flags = append(flags, "default")
	}
	if f.Forced {
		flags = append(flags, "forced")
	}
	if f.Enabled {
		flags = append(flags, "enabled")
	}
	return strings.Join(flags, ",")
}
