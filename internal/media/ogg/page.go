package ogg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	pageHeaderSize = 27
	maxPageSize    = pageHeaderSize + 255 + 255*255

	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04
)

var (
	capturePattern = []byte("OggS")
	errBadCapture  = errors.New("missing OggS capture pattern")
	errChecksum    = errors.New("page checksum mismatch")
)

type page struct {
	offset   int64
	flags    byte
	granule  int64
	serial   uint32
	sequence uint32
	lacing   []byte
	body     []byte
}

func (p *page) continued() bool { return p.flags&flagContinued != 0 }
func (p *page) bos() bool       { return p.flags&flagBOS != 0 }
func (p *page) eos() bool       { return p.flags&flagEOS != 0 }

// readPage reads one page at the current position of r. A clean end of input
// returns io.EOF; anything shorter than a full page returns
// io.ErrUnexpectedEOF.
func readPage(r io.Reader, offset int64) (*page, error) {
	hdr := make([]byte, pageHeaderSize, maxPageSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	if string(hdr[0:4]) != string(capturePattern) {
		return nil, fmt.Errorf("page at %d: %w", offset, errBadCapture)
	}
	if hdr[4] != 0 {
		return nil, fmt.Errorf("page at %d: unsupported stream structure version %d", offset, hdr[4])
	}
	p := &page{
		offset:   offset,
		flags:    hdr[5],
		granule:  int64(binary.LittleEndian.Uint64(hdr[6:14])),
		serial:   binary.LittleEndian.Uint32(hdr[14:18]),
		sequence: binary.LittleEndian.Uint32(hdr[18:22]),
	}
	want := binary.LittleEndian.Uint32(hdr[22:26])

	raw := hdr[:pageHeaderSize+int(hdr[26])]
	if _, err := io.ReadFull(r, raw[pageHeaderSize:]); err != nil {
		return nil, unexpected(err)
	}
	p.lacing = raw[pageHeaderSize:]
	total := 0
	for _, l := range p.lacing {
		total += int(l)
	}
	raw = raw[:len(raw)+total]
	if _, err := io.ReadFull(r, raw[pageHeaderSize+len(p.lacing):]); err != nil {
		return nil, unexpected(err)
	}
	p.body = raw[pageHeaderSize+len(p.lacing):]

	binary.LittleEndian.PutUint32(raw[22:26], 0)
	if got := checksum(raw); got != want {
		return nil, fmt.Errorf("page at %d: %w (got %08x want %08x)", offset, errChecksum, got, want)
	}
	return p, nil
}

// segments splits the page body into lacing runs. complete is false for the
// last run when the page ends with a 255 lacing value.
func (p *page) segments(fn func(data []byte, complete bool)) {
	start, pos := 0, 0
	for i, l := range p.lacing {
		pos += int(l)
		if l < 255 {
			fn(p.body[start:pos], true)
			start = pos
		} else if i == len(p.lacing)-1 {
			fn(p.body[start:pos], false)
		}
	}
}

var crcTable = func() [256]uint32 {
	var t [256]uint32
	for i := range t {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04C11DB7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}()

func checksum(b []byte) uint32 {
	var crc uint32
	for _, v := range b {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^v]
	}
	return crc
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
