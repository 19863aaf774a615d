package flv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"symphonia/internal/media"
)

const shortName = "flv"

var info = media.FormatInfo{Format: "flv", ShortName: shortName, LongName: "Flash Video"}

// Descriptor registers the reader with a probe.
func Descriptor() media.FormatDescriptor {
	return media.FormatDescriptor{
		Info:       info,
		Extensions: []string{"flv"},
		MimeTypes:  []string{"video/x-flv"},
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

// Match accepts the FLV signature with version 1.
func Match(head []byte) bool {
	return len(head) >= 4 && bytes.Equal(head[:3], []byte("FLV")) && head[3] == 1
}

type tag struct {
	kind      byte
	timestamp uint32
	data      []byte
}

// Reader demuxes FLV tags into packets.
type Reader struct {
	src      *media.SourceStream
	tracks   []media.Track
	firstTag int64
	pos      int64
	hasAudio bool
	hasVideo bool
	closed   bool
}

// Open reads the file header and inspects the first tags to describe the
// audio and video tracks. src is owned by the returned reader.
func Open(src *media.SourceStream) (*Reader, error) {
	hdr := make([]byte, headerSize)
	if _, err := src.ReadFullAt(hdr, 0); err != nil {
		return nil, media.ProbeError(shortName, fmt.Errorf("read header: %w", unexpected(err)))
	}
	if !Match(hdr) {
		return nil, media.ProbeError(shortName, errors.New("missing FLV signature"))
	}
	offset := int64(binary.BigEndian.Uint32(hdr[5:9]))
	if offset < headerSize {
		return nil, media.ProbeError(shortName, fmt.Errorf("invalid data offset %d", offset))
	}
	r := &Reader{
		src:      src,
		firstTag: offset + prevSizeLen,
		hasAudio: hdr[4]&0x04 != 0,
		hasVideo: hdr[4]&0x01 != 0,
	}
	r.pos = r.firstTag
	if err := r.discoverTracks(); err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	r.pos = r.firstTag
	return r, nil
}

func (r *Reader) discoverTracks() error {
	var video, audio *media.Track
	for i := 0; i < discoveryTags && (video == nil || audio == nil); i++ {
		t, err := r.readTag()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Damaged tags surface again from NextPacket.
			break
		}
		switch {
		case t.kind == tagTypeVideo && video == nil && len(t.data) > 0:
			video = describeVideo(t.data)
		case t.kind == tagTypeAudio && audio == nil && len(t.data) > 0:
			audio = describeAudio(t.data)
		}
	}
	if video == nil && r.hasVideo {
		video = &media.Track{ID: videoTrackID, Type: media.TrackVideo, Codec: "unknown"}
	}
	if audio == nil && r.hasAudio {
		audio = &media.Track{ID: audioTrackID, Type: media.TrackAudio, Codec: "unknown"}
	}
	for _, t := range []*media.Track{video, audio} {
		if t == nil {
			continue
		}
		t.TimeBase = media.TimeBase{Numer: 1, Denom: 1000}
		t.Flags = media.TrackFlags{Default: true, Enabled: true}
		r.tracks = append(r.tracks, *t)
	}
	if len(r.tracks) == 0 {
		return errors.New("no audio or video tags")
	}
	return nil
}

func describeVideo(data []byte) *media.Track {
	t := &media.Track{ID: videoTrackID, Type: media.TrackVideo, Codec: "unknown"}
	codec := data[0] & 0x0F
	if name, ok := videoCodecs[codec]; ok {
		t.Codec = name
	}
	// Sequence headers carry the decoder configuration record after the
	// packet type and composition time.
	if len(data) > 5 && data[1] == packetTypeSequenceHeader {
		record := append([]byte(nil), data[5:]...)
		var err error
		switch codec {
		case videoCodecAVC:
			t.VideoExtraData = []media.ExtraData{{ID: media.ExtraDataAVCConfig, Data: record}}
			t.Profile, t.Level, err = media.ParseAVCConfig(record)
		case videoCodecHEVC:
			t.VideoExtraData = []media.ExtraData{{ID: media.ExtraDataHEVCConfig, Data: record}}
			t.Profile, t.Level, err = media.ParseHEVCConfig(record)
		}
		if err != nil {
			t.Profile, t.Level = "", 0
		}
	}
	return t
}

func describeAudio(data []byte) *media.Track {
	flags := data[0]
	format := flags >> 4
	t := &media.Track{ID: audioTrackID, Type: media.TrackAudio, Codec: "unknown"}
	if name, ok := audioCodecs[format]; ok {
		t.Codec = name
	}
	t.SampleRate = soundRates[(flags>>2)&0x03]
	t.BitsPerSample = 8
	if flags&0x02 != 0 {
		t.BitsPerSample = 16
	}
	t.Channels = 1
	if flags&0x01 != 0 {
		t.Channels = 2
	}
	if format == soundFormatAAC {
		t.BitsPerSample = 0
		// AudioSpecificConfig: 5 bit object type, 4 bit rate index, 4 bit channels.
		if len(data) >= 4 && data[1] == packetTypeSequenceHeader {
			idx := (data[2]&0x07)<<1 | data[3]>>7
			if int(idx) < len(aacRates) {
				t.SampleRate = aacRates[idx]
			}
			if ch := (data[3] >> 3) & 0x0F; ch > 0 {
				t.Channels = uint16(ch)
			}
			t.ExtraData = append([]byte(nil), data[2:]...)
			if aot, ok := media.AudioObjectType(t.ExtraData); ok {
				t.Profile = media.AACProfile(aot)
			}
		}
	}
	return t
}

// readTag reads the tag at r.pos and advances past its trailing size field.
// A clean end of input before the tag header returns io.EOF.
func (r *Reader) readTag() (tag, error) {
	var hdr [tagHeaderSize]byte
	if _, err := r.src.Seek(r.pos, io.SeekStart); err != nil {
		return tag{}, err
	}
	if _, err := io.ReadFull(r.src, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return tag{}, io.EOF
		}
		return tag{}, fmt.Errorf("tag header at %d: %w", r.pos, err)
	}
	size := int64(hdr[1])<<16 | int64(hdr[2])<<8 | int64(hdr[3])
	t := tag{
		kind:      hdr[0] & 0x1F,
		timestamp: uint32(hdr[4])<<16 | uint32(hdr[5])<<8 | uint32(hdr[6]) | uint32(hdr[7])<<24,
	}
	dataStart := r.pos + tagHeaderSize
	if dataStart+size > r.src.Len() {
		return tag{}, fmt.Errorf("tag at %d: %d byte payload: %w", r.pos, size, io.ErrUnexpectedEOF)
	}
	t.data = make([]byte, size)
	if _, err := io.ReadFull(r.src, t.data); err != nil {
		return tag{}, fmt.Errorf("tag at %d: %w", r.pos, unexpected(err))
	}
	r.pos = dataStart + size + prevSizeLen
	return t, nil
}

// FormatInfo implements media.FormatReader.
func (r *Reader) FormatInfo() media.FormatInfo { return info }

// Tracks implements media.FormatReader.
func (r *Reader) Tracks() []media.Track { return append([]media.Track(nil), r.tracks...) }

// NextPacket implements media.FormatReader. Codec configuration records and
// script data are skipped.
func (r *Reader) NextPacket() (*media.Packet, error) {
	if r.closed {
		return nil, media.ErrClosed
	}
	for {
		t, err := r.readTag()
		if errors.Is(err, io.EOF) {
			return nil, media.ErrEndOfStream
		}
		if err != nil {
			return nil, media.DecodeError(shortName, err)
		}
		pkt, err := r.packetize(t)
		if err != nil {
			return nil, media.DecodeError(shortName, err)
		}
		if pkt != nil {
			return pkt, nil
		}
	}
}

func (r *Reader) packetize(t tag) (*media.Packet, error) {
	ts := uint64(t.timestamp)
	switch t.kind {
	case tagTypeAudio:
		if !r.hasTrack(audioTrackID) {
			return nil, nil
		}
		if len(t.data) < 1 {
			return nil, errors.New("empty audio tag")
		}
		payload := t.data[1:]
		if t.data[0]>>4 == soundFormatAAC {
			if len(t.data) < 2 {
				return nil, fmt.Errorf("aac tag: %w", io.ErrUnexpectedEOF)
			}
			if t.data[1] == packetTypeSequenceHeader {
				return nil, nil
			}
			payload = t.data[2:]
		}
		return &media.Packet{TrackID: audioTrackID, PTS: ts, DTS: int64(ts), Data: payload}, nil

	case tagTypeVideo:
		if !r.hasTrack(videoTrackID) {
			return nil, nil
		}
		if len(t.data) < 1 {
			return nil, errors.New("empty video tag")
		}
		if t.data[0]>>4 == frameTypeCommand {
			return nil, nil
		}
		codec := t.data[0] & 0x0F
		if codec != videoCodecAVC && codec != videoCodecHEVC {
			return &media.Packet{TrackID: videoTrackID, PTS: ts, DTS: int64(ts), Data: t.data[1:]}, nil
		}
		if len(t.data) < 5 {
			return nil, fmt.Errorf("avc tag: %w", io.ErrUnexpectedEOF)
		}
		switch t.data[1] {
		case packetTypeSequenceHeader, packetTypeEndOfSequence:
			return nil, nil
		}
		cts := int32(uint32(t.data[2])<<16|uint32(t.data[3])<<8|uint32(t.data[4])) << 8 >> 8
		pts := int64(ts) + int64(cts)
		if pts < 0 {
			pts = 0
		}
		return &media.Packet{TrackID: videoTrackID, PTS: uint64(pts), DTS: int64(ts), Data: t.data[5:]}, nil
	}
	return nil, nil
}

func (r *Reader) hasTrack(id uint32) bool {
	_, ok := media.FindTrack(r.tracks, id)
	return ok
}

// Close releases the source.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.Close()
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
