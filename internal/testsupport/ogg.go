package testsupport

import "encoding/binary"

// OggPage describes one synthesized Ogg page. Packets are laced completely
// on the page; Tail, when set, is appended unterminated so the packet
// continues on the next page (its length must be a multiple of 255).
type OggPage struct {
	Serial    uint32
	Sequence  uint32
	Granule   int64
	BOS       bool
	EOS       bool
	Continued bool
	Packets   [][]byte
	Tail      []byte
}

// Ogg concatenates pages into a physical bitstream with valid checksums.
func Ogg(pages ...OggPage) []byte {
	var out []byte
	for _, p := range pages {
		out = append(out, oggPage(p)...)
	}
	return out
}

// OpusHead builds an Opus identification header.
func OpusHead(channels uint8, preSkip uint16, inputRate uint32) []byte {
	b := append([]byte("OpusHead"), 1, channels)
	b = binary.LittleEndian.AppendUint16(b, preSkip)
	b = binary.LittleEndian.AppendUint32(b, inputRate)
	b = append(b, 0, 0, 0)
	return b
}

// OpusTags builds a minimal Opus comment header.
func OpusTags() []byte {
	b := []byte("OpusTags")
	b = binary.LittleEndian.AppendUint32(b, 4)
	b = append(b, "test"...)
	b = binary.LittleEndian.AppendUint32(b, 0)
	return b
}

// VorbisIdent builds a Vorbis identification header.
func VorbisIdent(channels uint8, rate uint32) []byte {
	b := append([]byte{1}, "vorbis"...)
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = append(b, channels)
	b = binary.LittleEndian.AppendUint32(b, rate)
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = binary.LittleEndian.AppendUint32(b, 128000)
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = append(b, 0xB8, 1)
	return b
}

func oggPage(p OggPage) []byte {
	var lacing []byte
	var body []byte
	for _, pkt := range p.Packets {
		n := len(pkt)
		for n >= 255 {
			lacing = append(lacing, 255)
			n -= 255
		}
		lacing = append(lacing, byte(n))
		body = append(body, pkt...)
	}
	for n := len(p.Tail); n > 0; n -= 255 {
		lacing = append(lacing, 255)
	}
	body = append(body, p.Tail...)

	var flags byte
	if p.Continued {
		flags |= 0x01
	}
	if p.BOS {
		flags |= 0x02
	}
	if p.EOS {
		flags |= 0x04
	}

	hdr := make([]byte, 27, 27+len(lacing)+len(body))
	copy(hdr, "OggS")
	hdr[4] = 0
	hdr[5] = flags
	binary.LittleEndian.PutUint64(hdr[6:], uint64(p.Granule))
	binary.LittleEndian.PutUint32(hdr[14:], p.Serial)
	binary.LittleEndian.PutUint32(hdr[18:], p.Sequence)
	hdr[26] = byte(len(lacing))
	page := append(hdr, lacing...)
	page = append(page, body...)
	binary.LittleEndian.PutUint32(page[22:], oggCRC(page))
	return page
}

var oggCRCTable = func() [256]uint32 {
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

func oggCRC(b []byte) uint32 {
	var crc uint32
	for _, v := range b {
		crc = crc<<8 ^ oggCRCTable[byte(crc>>24)^v]
	}
	return crc
}
