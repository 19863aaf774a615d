package regression

import (
	"fmt"
	"strconv"
	"strings"

	"symphonia/internal/media"
)

// Mismatch is one difference between an expectation and a reader.
type Mismatch struct {
	Field string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: want %q got %q", m.Field, m.Want, m.Got)
}

// Report is the outcome of Verify.
type Report struct {
	Mismatches     []Mismatch
	PacketsChecked int
	// Extra holds packets the reader produced after the expected ones,
	// rendered as packet lines ready to paste into the expectation.
	Extra []string
}

// OK reports whether the reader matched the expectation.
func (r Report) OK() bool { return len(r.Mismatches) == 0 }

// Verify compares reader against exp. Format and track fields are compared
// in full. Expected packets are read in order; when fewer than MaxPackets
// were listed, any packet left in the stream is a mismatch.
func Verify(reader media.FormatReader, exp *Expectation) Report {
	var rep Report
	if exp == nil {
		rep.add("expectation", "present", "nil")
		return rep
	}
	actual := describeFormat(reader)
	compareFormat(&rep, actual, exp.Format)

	n := 1
	for _, want := range exp.Packets {
		if n > MaxPackets {
			break
		}
		field := fmt.Sprintf("packets[%d]", n)
		pkt, err := media.ReadPacket(reader)
		if err != nil {
			rep.add(field, want.ID, "error: "+err.Error())
			return rep
		}
		rep.PacketsChecked++
		got := LineOf(n, pkt).String()
		if wantLine, perr := ParsePacketLine(want.ID); perr != nil {
			rep.add(field, want.ID, "unparseable expectation: "+perr.Error())
		} else if wantLine.String() != got {
			rep.add(field, wantLine.String(), got)
		}
		n++
	}
	if n > MaxPackets {
		return rep
	}

	first := n
	for n <= MaxPackets {
		pkt, err := media.ReadPacket(reader)
		if err != nil {
			if !media.IsEndOfStream(err) {
				rep.add(fmt.Sprintf("packets[%d]", n), "end of stream", "error: "+err.Error())
			}
			break
		}
		rep.Extra = append(rep.Extra, LineOf(n, pkt).String())
		n++
	}
	if len(rep.Extra) > 0 {
		rep.add("packets", fmt.Sprintf("%d packets", first-1), fmt.Sprintf("more packets left from packet %d", first))
	}
	return rep
}

func (r *Report) add(field, want, got string) {
	r.Mismatches = append(r.Mismatches, Mismatch{Field: field, Want: want, Got: got})
}

func compareFormat(rep *Report, got, want FormatExpectation) {
	cmp := func(field, w, g string) {
		if w != g {
			rep.add(field, w, g)
		}
	}
	cmp("format.format_info.format", want.FormatInfo.Format, got.FormatInfo.Format)
	cmp("format.format_info.short_name", want.FormatInfo.ShortName, got.FormatInfo.ShortName)
	cmp("format.format_info.long_name", want.FormatInfo.LongName, got.FormatInfo.LongName)

	if len(got.Tracks) != len(want.Tracks) {
		rep.add("format.tracks", fmt.Sprintf("%d tracks", len(want.Tracks)), fmt.Sprintf("%d tracks", len(got.Tracks)))
	}
	for i := 0; i < len(got.Tracks) && i < len(want.Tracks); i++ {
		compareTrack(cmp, got.Tracks[i], want.Tracks[i])
	}
}

func compareTrack(cmp func(field, want, got string), got, want TrackExpectation) {
	prefix := fmt.Sprintf("track %d: format.track.", want.ID)
	num := func(v any) string { return fmt.Sprint(v) }

	cmp(prefix+"id", num(want.ID), num(got.ID))
	cmp(prefix+"language", want.Language, got.Language)
	cmp(prefix+"time_base", want.TimeBase, got.TimeBase)
	cmp(prefix+"num_frames", num(want.NumFrames), num(got.NumFrames))
	cmp(prefix+"start_ts", num(want.StartTS), num(got.StartTS))
	cmp(prefix+"delay", num(want.Delay), num(got.Delay))
	cmp(prefix+"padding", num(want.Padding), num(got.Padding))
	cmp(prefix+"flags", want.Flags, got.Flags)

	if want.CodecParams == nil {
		return
	}
	w, g := want.CodecParams, got.CodecParams
	cp := prefix + "codec_params."
	cmp(cp+"codec_type", w.CodecType, g.CodecType)
	cmp(cp+"codec", strings.ToLower(w.Codec), strings.ToLower(g.Codec))
	cmp(cp+"profile", w.Profile, g.Profile)
	cmp(cp+"level", num(w.Level), num(g.Level))
	cmp(cp+"width", num(w.Width), num(g.Width))
	cmp(cp+"height", num(w.Height), num(g.Height))
	compareVideoExtraData(cmp, cp+"v_extra_data", w.VExtraData, g.VExtraData)
	cmp(cp+"sample_rate", num(w.SampleRate), num(g.SampleRate))
	cmp(cp+"sample_format", w.SampleFormat, g.SampleFormat)
	cmp(cp+"bits_per_sample", num(w.BitsPerSample), num(g.BitsPerSample))
	cmp(cp+"bits_per_coded_sample", num(w.BitsPerCodedSample), num(g.BitsPerCodedSample))
	cmp(cp+"channels", w.Channels, matchChannels(w.Channels, g.Channels))
	if w.MaxFramesPerPacket != nil {
		var actual uint64
		if g.MaxFramesPerPacket != nil {
			actual = *g.MaxFramesPerPacket
		}
		cmp(cp+"max_frames_per_packet", num(*w.MaxFramesPerPacket), num(actual))
	}
	if w.VerificationCheck != nil {
		cmp(cp+"verification_check", *w.VerificationCheck, g.SampleFormat)
	}
	cmp(cp+"frames_per_block", num(w.FramesPerBlock), num(g.FramesPerBlock))
	cmp(cp+"extra_data", extraDataString(w.ExtraData), extraDataString(g.ExtraData))
}

func compareVideoExtraData(cmp func(field, want, got string), field string, want, got []IDExtraData) {
	if len(want) != len(got) {
		cmp(field, fmt.Sprintf("%d records", len(want)), fmt.Sprintf("%d records", len(got)))
		return
	}
	for i := range want {
		item := fmt.Sprintf("%s[%d].", field, i)
		cmp(item+"id", want[i].ID, got[i].ID)
		cmp(item+"data_len", strconv.Itoa(want[i].DataLen), strconv.Itoa(got[i].DataLen))
	}
}

// matchChannels renders got the way want is written. A numeric want is a
// channel count, so a layout is reduced to the number of positions it names.
func matchChannels(want, got string) string {
	if _, err := strconv.Atoi(want); err != nil || got == "" {
		return got
	}
	if _, err := strconv.Atoi(got); err == nil {
		return got
	}
	return strconv.Itoa(len(strings.Split(got, "|")))
}

func extraDataString(e *ExtraDataLen) string {
	if e == nil {
		return "none"
	}
	return fmt.Sprintf("%d bytes", e.DataLen)
}
