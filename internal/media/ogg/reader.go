package ogg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"symphonia/internal/media"
)

const (
	shortName = "ogg"
	// tailScan bounds how far from the end the reader looks for final
	// granule positions.
	tailScan = 64 * 1024
)

var info = media.FormatInfo{Format: "ogg", ShortName: shortName, LongName: "OGG"}

// Descriptor registers the reader with a probe.
func Descriptor() media.FormatDescriptor {
	return media.FormatDescriptor{
		Info:       info,
		Extensions: []string{"ogg", "ogv", "oga", "ogx", "ogm", "spx", "opus"},
		MimeTypes:  []string{"audio/ogg", "video/ogg", "application/ogg"},
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

// Match accepts streams that start with an Ogg page.
func Match(head []byte) bool {
	return bytes.HasPrefix(head, capturePattern)
}

// Reader demuxes the logical streams of an Ogg file.
type Reader struct {
	src     *media.SourceStream
	streams map[uint32]*stream
	order   []uint32
	pos     int64
	pending []*media.Packet
	closed  bool
}

// Open reads the beginning-of-stream pages to discover the logical streams.
// src is owned by the returned reader.
func Open(src *media.SourceStream) (*Reader, error) {
	r := &Reader{src: src, streams: make(map[uint32]*stream)}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	for {
		offset := src.Pos()
		p, err := readPage(src, offset)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, media.ProbeError(shortName, err)
		}
		if !p.bos() {
			break
		}
		var first []byte
		p.segments(func(data []byte, complete bool) {
			if first == nil && complete {
				first = append([]byte{}, data...)
			}
		})
		if _, dup := r.streams[p.serial]; dup {
			return nil, media.ProbeError(shortName, fmt.Errorf("duplicate stream serial %d", p.serial))
		}
		r.streams[p.serial] = identify(p.serial, first)
		r.order = append(r.order, p.serial)
	}
	if len(r.streams) == 0 {
		return nil, media.ProbeError(shortName, errors.New("no logical streams"))
	}
	r.readFinalGranules()
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	return r, nil
}

// readFinalGranules fills NumFrames from the last page of each audio stream.
// Failures leave NumFrames unset.
func (r *Reader) readFinalGranules() {
	n := r.src.Len()
	start := n - tailScan
	if start < 0 {
		start = 0
	}
	tail := make([]byte, n-start)
	if _, err := r.src.ReadFullAt(tail, start); err != nil {
		return
	}
	last := make(map[uint32]int64)
	for i := 0; i+pageHeaderSize <= len(tail); {
		j := bytes.Index(tail[i:], capturePattern)
		if j < 0 || i+j+pageHeaderSize > len(tail) {
			break
		}
		h := tail[i+j:]
		if h[4] == 0 {
			granule := int64(binary.LittleEndian.Uint64(h[6:14]))
			if granule > 0 {
				last[binary.LittleEndian.Uint32(h[14:18])] = granule
			}
		}
		i += j + 4
	}
	for serial, granule := range last {
		s, ok := r.streams[serial]
		if !ok || s.track.Type != media.TrackAudio {
			continue
		}
		frames := uint64(granule)
		if s.opus {
			if frames <= s.preSkip {
				continue
			}
			frames -= s.preSkip
		}
		s.track.NumFrames = frames
	}
}

// FormatInfo implements media.FormatReader.
func (r *Reader) FormatInfo() media.FormatInfo { return info }

// Tracks implements media.FormatReader.
func (r *Reader) Tracks() []media.Track {
	out := make([]media.Track, 0, len(r.order))
	for _, serial := range r.order {
		out = append(out, r.streams[serial].track)
	}
	return out
}

// NextPacket implements media.FormatReader.
func (r *Reader) NextPacket() (*media.Packet, error) {
	if r.closed {
		return nil, media.ErrClosed
	}
	for len(r.pending) == 0 {
		if _, err := r.src.Seek(r.pos, io.SeekStart); err != nil {
			return nil, media.DecodeError(shortName, err)
		}
		p, err := readPage(r.src, r.pos)
		if errors.Is(err, io.EOF) {
			return nil, media.ErrEndOfStream
		}
		if err != nil {
			return nil, media.DecodeError(shortName, err)
		}
		r.pos = r.src.Pos()
		r.demuxPage(p)
	}
	pkt := r.pending[0]
	r.pending = r.pending[1:]
	return pkt, nil
}

func (r *Reader) demuxPage(p *page) {
	s, ok := r.streams[p.serial]
	if !ok {
		// Chained or late streams are not part of the track list.
		return
	}
	if !p.continued() {
		s.partial, s.hasPartial = nil, false
	}

	var done [][]byte
	first := true
	p.segments(func(data []byte, complete bool) {
		isFirst := first
		first = false
		var buf []byte
		if isFirst && p.continued() {
			if !s.hasPartial {
				// The start of this packet was never seen.
				return
			}
			buf = append(s.partial, data...)
		} else {
			buf = append([]byte(nil), data...)
		}
		s.partial, s.hasPartial = nil, false
		if !complete {
			s.partial, s.hasPartial = buf, true
			return
		}
		done = append(done, buf)
	})

	for i, data := range done {
		if s.headersLeft > 0 {
			s.headersLeft--
			continue
		}
		lastOnPage := i == len(done)-1
		if s.opus {
			r.pending = append(r.pending, s.opusPacket(data, p, lastOnPage))
		} else {
			r.pending = append(r.pending, s.granulePacket(data, p, lastOnPage))
		}
	}
	if p.granule >= 0 && !s.opus {
		s.prevGranule = p.granule
	}
}

func (s *stream) opusPacket(data []byte, p *page, lastOnPage bool) *media.Packet {
	dur := opusSamples(data)
	pts := s.nextPTS
	s.nextPTS += dur
	pkt := &media.Packet{TrackID: s.track.ID, PTS: pts, DTS: int64(pts), Dur: dur, Data: data}
	if pts < s.preSkip {
		pkt.TrimStart = uint32(min(s.preSkip-pts, dur))
	}
	if lastOnPage && p.eos() && p.granule >= 0 {
		if end := uint64(p.granule); pts+dur > end {
			pkt.TrimEnd = uint32(min(pts+dur-end, dur-uint64(pkt.TrimStart)))
		}
	}
	return pkt
}

func (s *stream) granulePacket(data []byte, p *page, lastOnPage bool) *media.Packet {
	pts := uint64(max(s.prevGranule, 0))
	pkt := &media.Packet{TrackID: s.track.ID, PTS: pts, DTS: int64(pts), Data: data}
	if lastOnPage && p.granule > s.prevGranule {
		pkt.Dur = uint64(p.granule - s.prevGranule)
	}
	return pkt
}

// Close releases the source.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.pending = nil
	return r.src.Close()
}
