package testsupport

import "encoding/binary"

// FLVTag is one tag of a synthesized FLV file. Timestamp is in milliseconds
// and may exceed 24 bits.
type FLVTag struct {
	Type      uint8 // 8 audio, 9 video, 18 script data
	Timestamp uint32
	Data      []byte
}

// FLV builds an FLV file with the given header flags and tags.
func FLV(hasAudio, hasVideo bool, tags ...FLVTag) []byte {
	var flags byte
	if hasAudio {
		flags |= 0x04
	}
	if hasVideo {
		flags |= 0x01
	}
	out := []byte{'F', 'L', 'V', 1, flags, 0, 0, 0, 9}
	out = binary.BigEndian.AppendUint32(out, 0)
	for _, tag := range tags {
		size := len(tag.Data)
		hdr := []byte{
			tag.Type,
			byte(size >> 16), byte(size >> 8), byte(size),
			byte(tag.Timestamp >> 16), byte(tag.Timestamp >> 8), byte(tag.Timestamp),
			byte(tag.Timestamp >> 24),
			0, 0, 0,
		}
		out = append(out, hdr...)
		out = append(out, tag.Data...)
		out = binary.BigEndian.AppendUint32(out, uint32(11+size))
	}
	return out
}

// FLVAVC returns a video tag payload carrying an H.264 NALU (packetType 1)
// or sequence header (packetType 0).
func FLVAVC(keyframe bool, packetType uint8, cts int32, data []byte) []byte {
	first := byte(0x27)
	if keyframe {
		first = 0x17
	}
	out := []byte{first, packetType, byte(cts >> 16), byte(cts >> 8), byte(cts)}
	return append(out, data...)
}

// FLVAAC returns an audio tag payload for AAC raw data (packetType 1) or an
// AudioSpecificConfig (packetType 0), 44.1 kHz stereo.
func FLVAAC(packetType uint8, data []byte) []byte {
	return append([]byte{0xAF, packetType}, data...)
}
