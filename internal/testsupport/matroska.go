package testsupport

import (
	"encoding/binary"
	"math"
)

// Lacing modes for MKVBlock.
const (
	LacingNone  = 0
	LacingXiph  = 1
	LacingFixed = 2
	LacingEBML  = 3
)

// MKVTrack describes a Matroska TrackEntry.
type MKVTrack struct {
	Number     uint64
	Type       uint8 // 1 video, 2 audio, 17 subtitle
	Codec      string
	Language   string
	Default    bool
	Forced     bool
	Width      uint64
	Height     uint64
	SampleRate float64
	Channels   uint64
	BitDepth   uint64
	CodecDelay uint64 // nanoseconds
	// CodecPrivate, when set, is written as the CodecPrivate element.
	CodecPrivate []byte
}

// MKVBlock is one SimpleBlock (or Block inside a BlockGroup when Duration
// is set).
type MKVBlock struct {
	Track    uint64
	Timecode int16
	Keyframe bool
	Lacing   int
	Frames   [][]byte
	Duration uint64
}

// MKVCluster groups blocks under a cluster timestamp.
type MKVCluster struct {
	Timestamp uint64
	Blocks    []MKVBlock
}

// Matroska builds a Matroska (docType "matroska") or WebM file with a 1ms
// timestamp scale.
func Matroska(docType string, tracks []MKVTrack, clusters []MKVCluster) []byte {
	if docType == "" {
		docType = "matroska"
	}
	header := ebmlElem(0x1A45DFA3,
		ebmlUint(0x4286, 1),
		ebmlUint(0x42F7, 1),
		ebmlUint(0x42F2, 4),
		ebmlUint(0x42F3, 8),
		ebmlString(0x4282, docType),
		ebmlUint(0x4287, 4),
		ebmlUint(0x4285, 2),
	)

	info := ebmlElem(0x1549A966,
		ebmlUint(0x2AD7B1, 1_000_000),
		ebmlString(0x4D80, "testsupport"),
		ebmlString(0x5741, "testsupport"),
	)

	var entries [][]byte
	for _, tr := range tracks {
		entries = append(entries, mkvTrackEntry(tr))
	}
	tracksElem := ebmlElem(0x1654AE6B, entries...)

	body := [][]byte{ebmlElem(0xEC, make([]byte, 4)), info, tracksElem}
	for _, cl := range clusters {
		body = append(body, mkvCluster(cl))
	}
	segment := ebmlElem(0x18538067, body...)
	return append(header, segment...)
}

func mkvTrackEntry(tr MKVTrack) []byte {
	children := [][]byte{
		ebmlUint(0xD7, tr.Number),
		ebmlUint(0x73C5, tr.Number*1000+7),
		ebmlUint(0x83, uint64(tr.Type)),
		ebmlString(0x86, tr.Codec),
	}
	if len(tr.CodecPrivate) > 0 {
		children = append(children, ebmlElem(0x63A2, tr.CodecPrivate))
	}
	if !tr.Default {
		children = append(children, ebmlUint(0x88, 0))
	}
	if tr.Forced {
		children = append(children, ebmlUint(0x55AA, 1))
	}
	if tr.Language != "" {
		children = append(children, ebmlString(0x22B59C, tr.Language))
	}
	if tr.CodecDelay > 0 {
		children = append(children, ebmlUint(0x56AA, tr.CodecDelay))
	}
	switch tr.Type {
	case 1:
		children = append(children, ebmlElem(0xE0, ebmlUint(0xB0, tr.Width), ebmlUint(0xBA, tr.Height)))
	case 2:
		audio := [][]byte{ebmlFloat(0xB5, tr.SampleRate), ebmlUint(0x9F, tr.Channels)}
		if tr.BitDepth > 0 {
			audio = append(audio, ebmlUint(0x6264, tr.BitDepth))
		}
		children = append(children, ebmlElem(0xE1, audio...))
	}
	return ebmlElem(0xAE, children...)
}

func mkvCluster(cl MKVCluster) []byte {
	children := [][]byte{ebmlUint(0xE7, cl.Timestamp)}
	for _, b := range cl.Blocks {
		payload := mkvBlockPayload(b)
		if b.Duration > 0 {
			children = append(children, ebmlElem(0xA0, ebmlElem(0xA1, payload), ebmlUint(0x9B, b.Duration)))
			continue
		}
		children = append(children, ebmlElem(0xA3, payload))
	}
	return ebmlElem(0x1F43B675, children...)
}

func mkvBlockPayload(b MKVBlock) []byte {
	out := ebmlVint(b.Track)
	tc := make([]byte, 2)
	binary.BigEndian.PutUint16(tc, uint16(b.Timecode))
	out = append(out, tc...)
	var flags byte
	if b.Keyframe {
		flags |= 0x80
	}
	frames := b.Frames
	if len(frames) <= 1 || b.Lacing == LacingNone {
		out = append(out, flags)
		for _, f := range frames {
			out = append(out, f...)
		}
		return out
	}
	flags |= byte(b.Lacing) << 1
	out = append(out, flags, byte(len(frames)-1))
	switch b.Lacing {
	case LacingXiph:
		for _, f := range frames[:len(frames)-1] {
			n := len(f)
			for n >= 255 {
				out = append(out, 255)
				n -= 255
			}
			out = append(out, byte(n))
		}
	case LacingEBML:
		out = append(out, ebmlVint(uint64(len(frames[0])))...)
		for i := 1; i < len(frames)-1; i++ {
			diff := int64(len(frames[i])) - int64(len(frames[i-1]))
			out = append(out, ebmlSignedVint(diff)...)
		}
	}
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}

func ebmlID(id uint32) []byte {
	switch {
	case id >= 1<<24:
		return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	case id >= 1<<16:
		return []byte{byte(id >> 16), byte(id >> 8), byte(id)}
	case id >= 1<<8:
		return []byte{byte(id >> 8), byte(id)}
	default:
		return []byte{byte(id)}
	}
}

// ebmlVint encodes v with the shortest EBML variable-size integer.
func ebmlVint(v uint64) []byte {
	for length := 1; length <= 8; length++ {
		// All-ones values are reserved for "unknown size".
		if v < (uint64(1)<<(7*uint(length)))-1 {
			out := make([]byte, length)
			x := v | uint64(1)<<(7*uint(length))
			for i := length - 1; i >= 0; i-- {
				out[i] = byte(x)
				x >>= 8
			}
			return out
		}
	}
	panic("ebml: value too large")
}

func ebmlSignedVint(v int64) []byte {
	// One-byte signed vints cover -63..63.
	for length := 1; length <= 8; length++ {
		bias := int64(1)<<(7*uint(length)-1) - 1
		if v >= -bias && v <= bias {
			u := uint64(v + bias)
			out := make([]byte, length)
			x := u | uint64(1)<<(7*uint(length))
			for i := length - 1; i >= 0; i-- {
				out[i] = byte(x)
				x >>= 8
			}
			return out
		}
	}
	panic("ebml: signed value too large")
}

func ebmlElem(id uint32, children ...[]byte) []byte {
	var size int
	for _, c := range children {
		size += len(c)
	}
	out := ebmlID(id)
	out = append(out, ebmlVint(uint64(size))...)
	for _, c := range children {
		out = append(out, c...)
	}
	return out
}

func ebmlUint(id uint32, v uint64) []byte {
	var b []byte
	for x := v; x > 0; x >>= 8 {
		b = append([]byte{byte(x)}, b...)
	}
	if len(b) == 0 {
		b = []byte{0}
	}
	return ebmlElem(id, b)
}

func ebmlFloat(id uint32, v float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return ebmlElem(id, b)
}

func ebmlString(id uint32, s string) []byte {
	return ebmlElem(id, []byte(s))
}
