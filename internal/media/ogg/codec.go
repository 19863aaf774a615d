package ogg

import (
	"bytes"
	"encoding/binary"

	"symphonia/internal/media"
)

// stream is the per-serial demux state.
type stream struct {
	track       media.Track
	headersLeft int
	opus        bool
	preSkip     uint64
	partial     []byte
	hasPartial  bool
	prevGranule int64
	nextPTS     uint64
}

// identify builds the stream state from the first packet of a logical
// stream.
func identify(serial uint32, first []byte) *stream {
	s := &stream{
		track: media.Track{
			ID:    serial,
			Type:  media.TrackData,
			Codec: "unknown",
			Flags: media.TrackFlags{Default: true, Enabled: true},
		},
		headersLeft: 1,
	}
	switch {
	case len(first) >= 19 && bytes.HasPrefix(first, []byte("OpusHead")):
		s.opus = true
		s.headersLeft = 2
		s.preSkip = uint64(binary.LittleEndian.Uint16(first[10:12]))
		s.track.Type = media.TrackAudio
		s.track.Codec = "opus"
		s.track.Channels = uint16(first[9])
		s.track.SampleRate = 48000
		s.track.Delay = uint32(s.preSkip)
		s.track.ExtraData = append([]byte(nil), first...)
	case len(first) >= 30 && first[0] == 0x01 && bytes.Equal(first[1:7], []byte("vorbis")):
		s.headersLeft = 3
		s.track.Type = media.TrackAudio
		s.track.Codec = "vorbis"
		s.track.Channels = uint16(first[11])
		s.track.SampleRate = binary.LittleEndian.Uint32(first[12:16])
		s.track.ExtraData = append([]byte(nil), first...)
	case len(first) >= 9 && first[0] == 0x7F && bytes.Equal(first[1:5], []byte("FLAC")):
		s.headersLeft = 1 + int(binary.BigEndian.Uint16(first[7:9]))
		s.track.Type = media.TrackAudio
		s.track.Codec = "flac"
		// STREAMINFO follows the 13 byte mapping header and its 4 byte block header.
		if si := first[9:]; len(si) >= 4+18 && bytes.Equal(si[:4], []byte("fLaC")) {
			info := si[8:]
			if len(info) >= 18 {
				packed := binary.BigEndian.Uint64(info[10:18])
				s.track.SampleRate = uint32(packed >> 44)
				s.track.Channels = uint16((packed>>41)&0x07) + 1
				s.track.BitsPerSample = uint16((packed>>36)&0x1F) + 1
				s.track.ExtraData = append([]byte(nil), info[:34:34]...)
			}
		}
	case len(first) >= 42 && first[0] == 0x80 && bytes.Equal(first[1:7], []byte("theora")):
		s.headersLeft = 3
		s.track.Type = media.TrackVideo
		s.track.Codec = "theora"
		s.track.Width = binary.BigEndian.Uint16(first[10:12]) << 4
		s.track.Height = binary.BigEndian.Uint16(first[12:14]) << 4
		num := binary.BigEndian.Uint32(first[22:26])
		den := binary.BigEndian.Uint32(first[26:30])
		if num > 0 && den > 0 {
			s.track.TimeBase = media.TimeBase{Numer: den, Denom: num}
		}
	case len(first) >= 80 && bytes.HasPrefix(first, []byte("Speex   ")):
		s.headersLeft = 2
		s.track.Type = media.TrackAudio
		s.track.Codec = "speex"
		s.track.SampleRate = binary.LittleEndian.Uint32(first[36:40])
		s.track.Channels = uint16(binary.LittleEndian.Uint32(first[48:52]))
	}
	if s.track.TimeBase.IsZero() && s.track.SampleRate > 0 {
		s.track.TimeBase = media.TimeBase{Numer: 1, Denom: s.track.SampleRate}
	}
	return s
}

// opusSamples returns the number of 48 kHz samples in an Opus packet,
// decoded from its TOC byte.
func opusSamples(pkt []byte) uint64 {
	if len(pkt) == 0 {
		return 0
	}
	toc := pkt[0]
	config := toc >> 3
	var frame uint64
	switch {
	case config < 12:
		frame = [4]uint64{480, 960, 1920, 2880}[config&0x03]
	case config < 16:
		frame = [2]uint64{480, 960}[config&0x01]
	default:
		frame = [4]uint64{120, 240, 480, 960}[config&0x03]
	}
	var frames uint64
	switch toc & 0x03 {
	case 0:
		frames = 1
	case 1, 2:
		frames = 2
	default:
		if len(pkt) < 2 {
			return 0
		}
		frames = uint64(pkt[1] & 0x3F)
	}
	return frame * frames
}
