package mkv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"symphonia/internal/media"
)

const unknownSize = -1

// maxElementSize bounds in-memory reads of a single element.
const maxElementSize = 256 << 20

var errInvalidVint = errors.New("invalid EBML variable-size integer")

type element struct {
	id     uint32
	offset int64
	data   int64
	size   int64
}

func (e element) end(limit int64) int64 {
	if e.size == unknownSize {
		return limit
	}
	return e.data + e.size
}

type ebmlReader struct {
	src *media.SourceStream
	buf [8]byte
}

func vintLength(first byte) int {
	for i := 0; i < 8; i++ {
		if first&(0x80>>uint(i)) != 0 {
			return i + 1
		}
	}
	return 0
}

// readElement reads the element header at the current position. A clean end
// of input before the first byte returns io.EOF.
func (er *ebmlReader) readElement() (element, error) {
	e := element{offset: er.src.Pos()}
	if _, err := io.ReadFull(er.src, er.buf[:1]); err != nil {
		return e, err
	}
	idLen := vintLength(er.buf[0])
	if idLen == 0 || idLen > 4 {
		return e, fmt.Errorf("element id at %d: %w", e.offset, errInvalidVint)
	}
	id := uint32(er.buf[0])
	if idLen > 1 {
		if _, err := io.ReadFull(er.src, er.buf[1:idLen]); err != nil {
			return e, unexpected(err)
		}
		for _, b := range er.buf[1:idLen] {
			id = id<<8 | uint32(b)
		}
	}
	e.id = id

	size, err := er.readVint()
	if err != nil {
		return e, unexpected(err)
	}
	e.size = size
	e.data = er.src.Pos()
	return e, nil
}

// readVint reads a size vint, mapping the all-ones value to unknownSize.
func (er *ebmlReader) readVint() (int64, error) {
	if _, err := io.ReadFull(er.src, er.buf[:1]); err != nil {
		return 0, err
	}
	n := vintLength(er.buf[0])
	if n == 0 {
		return 0, errInvalidVint
	}
	value := uint64(er.buf[0] & (0xFF >> uint(n)))
	if n > 1 {
		if _, err := io.ReadFull(er.src, er.buf[1:n]); err != nil {
			return 0, err
		}
		for _, b := range er.buf[1:n] {
			value = value<<8 | uint64(b)
		}
	}
	if value == uint64(1)<<(7*uint(n))-1 {
		return unknownSize, nil
	}
	return int64(value), nil
}

func (er *ebmlReader) payload(e element) ([]byte, error) {
	if e.size == unknownSize || e.size > maxElementSize {
		return nil, fmt.Errorf("element 0x%X at %d has unsupported size %d", e.id, e.offset, e.size)
	}
	if e.data+e.size > er.src.Len() {
		return nil, fmt.Errorf("element 0x%X at %d: %w", e.id, e.offset, io.ErrUnexpectedEOF)
	}
	buf := make([]byte, e.size)
	if _, err := er.src.ReadFullAt(buf, e.data); err != nil {
		return nil, unexpected(err)
	}
	return buf, nil
}

func (er *ebmlReader) readUint(e element) (uint64, error) {
	if e.size > 8 {
		return 0, fmt.Errorf("unsigned element 0x%X too long (%d bytes)", e.id, e.size)
	}
	b, err := er.payload(e)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}

func (er *ebmlReader) readFloat(e element) (float64, error) {
	b, err := er.payload(e)
	if err != nil {
		return 0, err
	}
	switch len(b) {
	case 0:
		return 0, nil
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}
	return 0, fmt.Errorf("float element 0x%X has invalid length %d", e.id, len(b))
}

func (er *ebmlReader) readString(e element) (string, error) {
	b, err := er.payload(e)
	if err != nil {
		return "", err
	}
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	return string(b), nil
}

// children calls fn for each direct child of the master element e.
func (er *ebmlReader) children(e element, fn func(child element) error) error {
	end := e.end(er.src.Len())
	pos := e.data
	for pos < end {
		if _, err := er.src.Seek(pos, io.SeekStart); err != nil {
			return err
		}
		child, err := er.readElement()
		if err != nil {
			return unexpected(err)
		}
		if child.size == unknownSize {
			return fmt.Errorf("element 0x%X at %d has unknown size", child.id, child.offset)
		}
		if err := fn(child); err != nil {
			return err
		}
		pos = child.data + child.size
	}
	return nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// lacedSizes returns the frame sizes of a laced block payload starting at
// buf (just after the flags byte) and the number of header bytes consumed.
func lacedSizes(lacing byte, buf []byte) ([]int, int, error) {
	if len(buf) < 1 {
		return nil, 0, io.ErrUnexpectedEOF
	}
	count := int(buf[0]) + 1
	pos := 1
	sizes := make([]int, count)
	switch lacing {
	case lacingXiph:
		total := 0
		for i := 0; i < count-1; i++ {
			size := 0
			for {
				if pos >= len(buf) {
					return nil, 0, io.ErrUnexpectedEOF
				}
				b := buf[pos]
				pos++
				size += int(b)
				if b != 255 {
					break
				}
			}
			sizes[i] = size
			total += size
		}
		sizes[count-1] = len(buf) - pos - total
	case lacingFixed:
		body := len(buf) - pos
		if body%count != 0 {
			return nil, 0, fmt.Errorf("fixed lacing: %d bytes do not split into %d frames", body, count)
		}
		for i := range sizes {
			sizes[i] = body / count
		}
	case lacingEBML:
		first, n, err := vintFromBytes(buf[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += n
		sizes[0] = int(first)
		total := sizes[0]
		for i := 1; i < count-1; i++ {
			raw, n, err := vintFromBytes(buf[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += n
			bias := int64(1)<<(7*uint(n)-1) - 1
			sizes[i] = sizes[i-1] + int(int64(raw)-bias)
			total += sizes[i]
		}
		sizes[count-1] = len(buf) - pos - total
	default:
		return nil, 0, fmt.Errorf("unknown lacing mode %d", lacing)
	}
	for _, s := range sizes {
		if s < 0 {
			return nil, 0, errors.New("lace sizes exceed block length")
		}
	}
	return sizes, pos, nil
}

func vintFromBytes(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	n := vintLength(b[0])
	if n == 0 {
		return 0, 0, errInvalidVint
	}
	if len(b) < n {
		return 0, 0, io.ErrUnexpectedEOF
	}
	v := uint64(b[0] & (0xFF >> uint(n)))
	for _, x := range b[1:n] {
		v = v<<8 | uint64(x)
	}
	return v, n, nil
}
