package regression

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"symphonia/internal/media"
)

var titleCase = cases.Title(language.English)

// Record builds an expectation from reader, reading up to MaxPackets
// packets. Reading stops quietly at end of stream; a decode error is
// returned together with the expectation gathered so far.
func Record(reader media.FormatReader) (*Expectation, error) {
	exp := &Expectation{Format: describeFormat(reader)}
	for n := 1; n <= MaxPackets; n++ {
		pkt, err := media.ReadPacket(reader)
		if media.IsEndOfStream(err) {
			break
		}
		if err != nil {
			return exp, err
		}
		exp.Packets = append(exp.Packets, PacketExpectation{ID: LineOf(n, pkt).String()})
	}
	return exp, nil
}

func describeFormat(reader media.FormatReader) FormatExpectation {
	info := reader.FormatInfo()
	out := FormatExpectation{
		FormatInfo: InfoExpectation{
			Format:    strings.ToUpper(info.Format),
			ShortName: info.ShortName,
			LongName:  info.LongName,
		},
	}
	for _, tr := range reader.Tracks() {
		out.Tracks = append(out.Tracks, describeTrack(tr))
	}
	return out
}

func describeTrack(tr media.Track) TrackExpectation {
	return TrackExpectation{
		ID: tr.ID,
		CodecParams: describeCodec(tr),
		Language:  tr.Language,
		TimeBase:  tr.TimeBase.String(),
		NumFrames: tr.NumFrames,
		StartTS:   tr.StartTS,
		Delay:     tr.Delay,
		Padding:   tr.Padding,
		Flags:     flagString(tr.Flags),
	}
}

func describeCodec(tr media.Track) *CodecParams {
	cp := &CodecParams{
		CodecType:          titleCase.String(string(tr.Type)),
		Codec:              tr.Codec,
		Profile:            tr.Profile,
		Level:              tr.Level,
		Width:              tr.Width,
		Height:             tr.Height,
		SampleRate:         tr.SampleRate,
		SampleFormat:       tr.SampleFormat,
		BitsPerSample:      uint32(tr.BitsPerSample),
		BitsPerCodedSample: tr.BitsPerCodedSample,
		Channels:           channelString(tr),
		FramesPerBlock:     tr.FramesPerBlock,
	}
	for _, cfg := range tr.VideoExtraData {
		cp.VExtraData = append(cp.VExtraData, IDExtraData{ID: cfg.ID, DataLen: len(cfg.Data)})
	}
	if len(tr.ExtraData) > 0 {
		cp.ExtraData = &ExtraDataLen{DataLen: len(tr.ExtraData)}
	}
	if tr.MaxFramesPerPacket > 0 {
		n := tr.MaxFramesPerPacket
		cp.MaxFramesPerPacket = &n
	}
	return cp
}

// channelString prefers the layout and falls back to the bare count.
func channelString(tr media.Track) string {
	if tr.ChannelLayout != "" {
		return tr.ChannelLayout
	}
	if tr.Channels > 0 {
		return strconv.Itoa(int(tr.Channels))
	}
	return ""
}

func flagString(f media.TrackFlags) string {
	var names []string
	if f.Default {
		names = append(names, "DEFAULT")
	}
	if f.Forced {
		names = append(names, "FORCED")
	}
	if f.Enabled {
		names = append(names, "ENABLED")
	}
	return strings.Join(names, " | ")
}
