package mkv

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"symphonia/internal/media"
)

const (
	shortName             = "matroska"
	defaultTimestampScale = 1_000_000
)

var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// Descriptor registers the reader with a probe.
func Descriptor() media.FormatDescriptor {
	return media.FormatDescriptor{
		Info:       media.FormatInfo{Format: "matroska", ShortName: shortName, LongName: "Matroska / WebM"},
		Extensions: []string{"mkv", "mka", "mks", "mk3d", "webm"},
		MimeTypes:  []string{"video/x-matroska", "audio/x-matroska", "video/webm", "audio/webm"},
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

// Match accepts streams starting with the EBML header magic.
func Match(head []byte) bool {
	return bytes.HasPrefix(head, ebmlMagic)
}

// Reader demuxes a Matroska segment.
type Reader struct {
	er      ebmlReader
	info    media.FormatInfo
	scale   uint64
	tracks  []media.Track
	entries map[uint64]trackEntry

	segEnd     int64
	pos        int64
	inCluster  bool
	clusterEnd int64
	clusterTS  uint64
	pending    []*media.Packet
	closed     bool
}

// Open parses the EBML header, segment info and track list. src is owned by
// the returned reader.
func Open(src *media.SourceStream) (*Reader, error) {
	r := &Reader{
		er:      ebmlReader{src: src},
		scale:   defaultTimestampScale,
		entries: make(map[uint64]trackEntry),
	}
	if err := r.readHeader(); err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	if err := r.readSegmentHead(); err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	if len(r.tracks) == 0 {
		return nil, media.ProbeError(shortName, errors.New("no tracks"))
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	if _, err := r.er.src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	head, err := r.er.readElement()
	if err != nil {
		return unexpected(err)
	}
	if head.id != idEBML {
		return fmt.Errorf("missing EBML header (found 0x%X)", head.id)
	}
	docType := "matroska"
	err = r.er.children(head, func(c element) error {
		if c.id != idDocType {
			return nil
		}
		var err error
		docType, err = r.er.readString(c)
		return err
	})
	if err != nil {
		return err
	}
	switch docType {
	case "matroska", "webm":
	default:
		return fmt.Errorf("unsupported doc type %q", docType)
	}
	r.info = media.FormatInfo{Format: docType, ShortName: shortName, LongName: "Matroska / WebM"}
	r.pos = head.end(r.er.src.Len())
	return nil
}

// readSegmentHead consumes level 1 elements up to the first cluster.
func (r *Reader) readSegmentHead() error {
	src := r.er.src
	if _, err := src.Seek(r.pos, io.SeekStart); err != nil {
		return err
	}
	seg, err := r.er.readElement()
	if err != nil {
		return unexpected(err)
	}
	if seg.id != idSegment {
		return fmt.Errorf("expected segment, found 0x%X", seg.id)
	}
	r.segEnd = seg.end(src.Len())
	if r.segEnd > src.Len() {
		r.segEnd = src.Len()
	}

	var entries []trackEntry
	pos := seg.data
	for pos < r.segEnd {
		if _, err := src.Seek(pos, io.SeekStart); err != nil {
			return err
		}
		e, err := r.er.readElement()
		if err != nil {
			return unexpected(err)
		}
		if e.id == idCluster {
			break
		}
		if e.size == unknownSize {
			return fmt.Errorf("element 0x%X at %d has unknown size", e.id, e.offset)
		}
		switch e.id {
		case idInfo:
			err = r.er.children(e, func(c element) error {
				if c.id != idTimestampScale {
					return nil
				}
				scale, err := r.er.readUint(c)
				if err == nil && scale > 0 {
					r.scale = scale
				}
				return err
			})
		case idTracks:
			err = r.er.children(e, func(c element) error {
				if c.id != idTrackEntry {
					return nil
				}
				t, err := r.er.parseTrackEntry(c)
				if err == nil {
					entries = append(entries, t)
				}
				return err
			})
		}
		if err != nil {
			return err
		}
		pos = e.data + e.size
	}
	r.pos = pos

	for _, t := range entries {
		r.entries[t.number] = t
		r.tracks = append(r.tracks, t.track(r.scale))
	}
	return nil
}

// FormatInfo implements media.FormatReader.
func (r *Reader) FormatInfo() media.FormatInfo { return r.info }

// Tracks implements media.FormatReader.
func (r *Reader) Tracks() []media.Track { return append([]media.Track(nil), r.tracks...) }

// NextPacket implements media.FormatReader.
func (r *Reader) NextPacket() (*media.Packet, error) {
	if r.closed {
		return nil, media.ErrClosed
	}
	for len(r.pending) == 0 {
		if err := r.advance(); err != nil {
			return nil, err
		}
	}
	pkt := r.pending[0]
	r.pending = r.pending[1:]
	return pkt, nil
}

// advance reads one element at the cursor, queueing any frames it carries.
func (r *Reader) advance() error {
	src := r.er.src
	if r.pos >= r.segEnd {
		return media.ErrEndOfStream
	}
	if r.inCluster && r.pos >= r.clusterEnd {
		r.inCluster = false
	}
	if _, err := src.Seek(r.pos, io.SeekStart); err != nil {
		return media.DecodeError(shortName, err)
	}
	e, err := r.er.readElement()
	if errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return media.ErrEndOfStream
	}
	if err != nil {
		return media.DecodeError(shortName, err)
	}

	if e.id == idCluster {
		r.inCluster = true
		r.clusterEnd = e.end(r.segEnd)
		r.clusterTS = 0
		r.pos = e.data
		return nil
	}
	if e.size == unknownSize {
		return media.DecodeError(shortName, fmt.Errorf("element 0x%X at %d has unknown size", e.id, e.offset))
	}
	r.pos = e.data + e.size
	if !r.inCluster {
		return nil
	}

	switch e.id {
	case idTimestamp:
		ts, err := r.er.readUint(e)
		if err != nil {
			return media.DecodeError(shortName, err)
		}
		r.clusterTS = ts
	case idSimpleBlock:
		payload, err := r.er.payload(e)
		if err != nil {
			return media.DecodeError(shortName, err)
		}
		if err := r.queueBlock(payload, 0, false); err != nil {
			return media.DecodeError(shortName, err)
		}
	case idBlockGroup:
		var payload []byte
		var duration uint64
		var hasDuration bool
		err := r.er.children(e, func(c element) error {
			var err error
			switch c.id {
			case idBlock:
				payload, err = r.er.payload(c)
			case idBlockDuration:
				duration, err = r.er.readUint(c)
				hasDuration = true
			}
			return err
		})
		if err != nil {
			return media.DecodeError(shortName, err)
		}
		if payload == nil {
			return media.DecodeError(shortName, fmt.Errorf("block group at %d has no block", e.offset))
		}
		if err := r.queueBlock(payload, duration, hasDuration); err != nil {
			return media.DecodeError(shortName, err)
		}
	}
	return nil
}

func (r *Reader) queueBlock(buf []byte, duration uint64, hasDuration bool) error {
	number, n, err := vintFromBytes(buf)
	if err != nil {
		return fmt.Errorf("block track number: %w", err)
	}
	if len(buf) < n+3 {
		return fmt.Errorf("block header: %w", io.ErrUnexpectedEOF)
	}
	entry, ok := r.entries[number]
	if !ok {
		// Blocks for tracks missing from the track list are skipped.
		return nil
	}
	timecode := int16(uint16(buf[n])<<8 | uint16(buf[n+1]))
	flags := buf[n+2]
	body := buf[n+3:]

	lacing := (flags >> 1) & 0x03
	sizes := []int{len(body)}
	if lacing != lacingNone {
		var consumed int
		sizes, consumed, err = lacedSizes(lacing, body)
		if err != nil {
			return err
		}
		body = body[consumed:]
	}

	ts := int64(r.clusterTS) + int64(timecode)
	if ts < 0 {
		ts = 0
	}
	if !hasDuration && entry.defaultDuration > 0 {
		duration = entry.defaultDuration * uint64(len(sizes)) / r.scale
	}
	each := duration / uint64(len(sizes))

	off := 0
	for i, size := range sizes {
		data := make([]byte, size)
		copy(data, body[off:off+size])
		off += size
		pts := uint64(ts) + uint64(i)*each
		r.pending = append(r.pending, &media.Packet{
			TrackID: uint32(number),
			PTS:     pts,
			DTS:     int64(pts),
			Dur:     each,
			Data:    data,
		})
	}
	return nil
}

// Close releases the source.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.pending = nil
	return r.er.src.Close()
}
