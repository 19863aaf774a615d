package isomp4

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/abema/go-mp4"

	"symphonia/internal/language"
	"symphonia/internal/media"
)

const shortName = "isomp4"

var info = media.FormatInfo{
	Format:    "isomp4",
	ShortName: shortName,
	LongName:  "ISO Base Media File Format (MP4, M4A, MOV, etc.)",
}

// Descriptor registers the reader with a probe.
func Descriptor() media.FormatDescriptor {
	return media.FormatDescriptor{
		Info:       info,
		Extensions: []string{"mp4", "m4a", "m4v", "m4b", "mov", "3gp", "3g2"},
		MimeTypes:  []string{"video/mp4", "audio/mp4", "video/quicktime"},
		Match:      Match,
		Open: func(src *media.SourceStream, _ media.FormatOptions) (media.FormatReader, error) {
			r, err := Open(src)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// Match accepts streams whose first box is ftyp (or a QuickTime moov/mdat/
// free/wide atom).
func Match(head []byte) bool {
	if len(head) < 8 {
		return false
	}
	switch string(head[4:8]) {
	case "ftyp":
		return true
	case "moov", "mdat", "wide", "free", "skip":
		// Bare QuickTime files start without ftyp; require a plausible size.
		size := uint32(head[0])<<24 | uint32(head[1])<<16 | uint32(head[2])<<8 | uint32(head[3])
		return size == 1 || size >= 8
	}
	return false
}

type sample struct {
	track  uint32
	offset uint64
	size   uint32
	dts    int64
	pts    uint64
	dur    uint32
}

// Reader demuxes an ISO BMFF file.
type Reader struct {
	src     *media.SourceStream
	tracks  []media.Track
	samples []sample
	next    int
	closed  bool
}

// Open probes src and builds the merged sample table. src is owned by the
// returned reader.
func Open(src *media.SourceStream) (*Reader, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	probed, err := mp4.Probe(src)
	if err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	if len(probed.Tracks) == 0 {
		return nil, media.ProbeError(shortName, errors.New("no tracks"))
	}
	metas, err := readTrackMeta(src)
	if err != nil {
		return nil, media.ProbeError(shortName, err)
	}

	r := &Reader{src: src}
	for _, pt := range probed.Tracks {
		meta := metas[pt.TrackID]
		track := buildTrack(pt, meta)
		samples, err := flattenSamples(pt, meta)
		if err != nil {
			return nil, media.ProbeError(shortName, fmt.Errorf("track %d: %w", pt.TrackID, err))
		}
		track.NumFrames = uint64(len(samples))
		r.tracks = append(r.tracks, track)
		r.samples = append(r.samples, samples...)
	}
	sort.SliceStable(r.samples, func(i, j int) bool {
		return r.samples[i].offset < r.samples[j].offset
	})
	return r, nil
}

func buildTrack(pt *mp4.Track, meta trackMeta) media.Track {
	track := media.Track{
		ID:       pt.TrackID,
		Type:     handlerTrackType(meta.handler),
		Codec:    codecName(pt, meta.entry),
		Language: language.Normalize(meta.language),
		TimeBase: media.TimeBase{Numer: 1, Denom: pt.Timescale},
		Flags:    media.TrackFlags{Enabled: meta.enabled, Default: meta.enabled},
		Width:    meta.width,
		Height:   meta.height,
	}
	if pt.AVC != nil {
		track.Width, track.Height = pt.AVC.Width, pt.AVC.Height
	}
	if meta.channels > 0 {
		track.Channels = meta.channels
		track.SampleRate = meta.sampleRate
		track.BitsPerSample = meta.sampleSize
	}
	if pt.MP4A != nil && pt.MP4A.ChannelCount > 0 {
		track.Channels = pt.MP4A.ChannelCount
	}
	track.VideoExtraData = meta.videoConfigs
	track.ExtraData = meta.audioConfig
	describeProfile(&track, pt)
	if len(pt.EditList) > 0 && pt.EditList[0].MediaTime > 0 {
		track.Delay = uint32(pt.EditList[0].MediaTime)
	}
	return track
}

// describeProfile fills profile and level from the first decoder
// configuration record that names them.
func describeProfile(track *media.Track, pt *mp4.Track) {
	for _, cfg := range track.VideoExtraData {
		var profile string
		var level uint32
		var err error
		switch cfg.ID {
		case media.ExtraDataAVCConfig:
			profile, level, err = media.ParseAVCConfig(cfg.Data)
		case media.ExtraDataHEVCConfig:
			profile, level, err = media.ParseHEVCConfig(cfg.Data)
		default:
			continue
		}
		if err == nil {
			track.Profile, track.Level = profile, level
			return
		}
	}
	if track.Codec != "aac" {
		return
	}
	if pt.MP4A != nil && pt.MP4A.AudOTI != 0 {
		track.Profile = media.AACProfile(pt.MP4A.AudOTI)
	} else if aot, ok := media.AudioObjectType(track.ExtraData); ok {
		track.Profile = media.AACProfile(aot)
	}
}

func handlerTrackType(handler string) media.TrackType {
	switch handler {
	case "vide":
		return media.TrackVideo
	case "soun":
		return media.TrackAudio
	case "subt", "sbtl", "text", "clcp":
		return media.TrackSubtitle
	default:
		return media.TrackData
	}
}

func codecName(pt *mp4.Track, entry string) string {
	switch pt.Codec {
	case mp4.CodecAVC1:
		return "h264"
	case mp4.CodecMP4A:
		if pt.MP4A != nil && pt.MP4A.OTI == 0x6B {
			return "mp3"
		}
		return "aac"
	}
	switch entry {
	case "hvc1", "hev1":
		return "hevc"
	case "av01":
		return "av1"
	case "vp09":
		return "vp9"
	case "Opus":
		return "opus"
	case "fLaC":
		return "flac"
	case "ac-3":
		return "ac3"
	case "ec-3":
		return "eac3"
	case "alac":
		return "alac"
	case "tx3g":
		return "mov_text"
	case "wvtt":
		return "webvtt"
	case "":
		return "unknown"
	}
	return strings.TrimSpace(entry)
}

func flattenSamples(pt *mp4.Track, meta trackMeta) ([]sample, error) {
	out := make([]sample, 0, len(pt.Samples))
	var dts int64
	si := 0
	for _, chunk := range pt.Chunks {
		offset := chunk.DataOffset
		for n := uint32(0); n < chunk.SamplesPerChunk; n++ {
			if si >= len(pt.Samples) {
				return nil, fmt.Errorf("chunk table references %d samples, stts has %d", si+1, len(pt.Samples))
			}
			s := pt.Samples[si]
			size := s.Size
			if size == 0 {
				size = meta.constantSampleSize
			}
			pts := dts + s.CompositionTimeOffset
			if pts < 0 {
				pts = 0
			}
			out = append(out, sample{
				track:  pt.TrackID,
				offset: offset,
				size:   size,
				dts:    dts,
				pts:    uint64(pts),
				dur:    s.TimeDelta,
			})
			offset += uint64(size)
			dts += int64(s.TimeDelta)
			si++
		}
	}
	return out, nil
}

// FormatInfo implements media.FormatReader.
func (r *Reader) FormatInfo() media.FormatInfo { return info }

// Tracks implements media.FormatReader.
func (r *Reader) Tracks() []media.Track { return append([]media.Track(nil), r.tracks...) }

// NextPacket implements media.FormatReader.
func (r *Reader) NextPacket() (*media.Packet, error) {
	if r.closed {
		return nil, media.ErrClosed
	}
	if r.next >= len(r.samples) {
		return nil, media.ErrEndOfStream
	}
	s := r.samples[r.next]
	if s.offset+uint64(s.size) > uint64(r.src.Len()) {
		return nil, media.DecodeError(shortName, fmt.Errorf("sample at %d (%d bytes) exceeds file length %d: %w",
			s.offset, s.size, r.src.Len(), io.ErrUnexpectedEOF))
	}
	data := make([]byte, s.size)
	if _, err := r.src.ReadFullAt(data, int64(s.offset)); err != nil {
		return nil, media.DecodeError(shortName, err)
	}
	r.next++
	return &media.Packet{
		TrackID: s.track,
		PTS:     s.pts,
		DTS:     s.dts,
		Dur:     uint64(s.dur),
		Data:    data,
	}, nil
}

// Close releases the source.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.Close()
}

func fourCCString(b [4]byte) string {
	return string(bytes.TrimRight(b[:], "\x00"))
}
