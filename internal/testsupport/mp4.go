package testsupport

import (
	"bytes"
	"encoding/binary"
)

// MP4Track describes one track of a synthesized ISO BMFF file. Every sample
// is stored in its own chunk; samples of all tracks are interleaved in mdat
// round-robin by sample index.
type MP4Track struct {
	ID         uint32
	Handler    string // "vide", "soun", "subt", ...
	Entry      string // sample entry fourcc: "avc1", "mp4a", or any other code
	Timescale  uint32
	Language   string // ISO 639-2, e.g. "eng"
	Width      uint16
	Height     uint16
	Channels   uint16
	SampleRate uint32
	Delta      uint32
	// CompositionOffsets, when set, adds a version 0 ctts box with one
	// entry per sample.
	CompositionOffsets []uint32
	// Children are complete boxes appended inside the sample entry, such
	// as AvcC or ESDS results.
	Children [][]byte
	Samples  [][]byte
}

// AvcC builds an avcC box holding a configuration record without
// parameter sets.
func AvcC(profile, constraints, level byte) []byte {
	return mp4Box("avcC", []byte{1, profile, constraints, level, 0xFF, 0xE0, 0x00})
}

// HvcC builds an hvcC box holding the fixed part of an HEVC configuration
// record and no parameter set arrays.
func HvcC(profileIdc, level byte) []byte {
	record := make([]byte, 23)
	record[0] = 1
	record[1] = profileIdc & 0x1F
	record[12] = level
	record[21] = 0x03
	return mp4Box("hvcC", record)
}

// ConfigBox builds an opaque box of the given type, for configuration
// boxes the other helpers do not cover.
func ConfigBox(typ string, payload []byte) []byte {
	return mp4Box(typ, payload)
}

// ESDS builds an esds box for MPEG-4 audio whose DecoderSpecificInfo is
// asc.
func ESDS(asc []byte) []byte {
	decSpecific := append([]byte{0x05, byte(len(asc))}, asc...)
	decConfig := append([]byte{0x04, byte(13 + len(decSpecific)),
		0x40, 0x15, 0, 0, 0},
		append(append(be32(0), be32(0)...), decSpecific...)...)
	slConfig := []byte{0x06, 0x01, 0x02}
	esBody := append(append([]byte{0, 1, 0}, decConfig...), slConfig...)
	es := append([]byte{0x03, byte(len(esBody))}, esBody...)
	return mp4FullBox("esds", 0, 0, es)
}

// MP4 builds a progressive MP4 (ftyp, moov, mdat) from the tracks.
func MP4(tracks ...MP4Track) []byte {
	ftyp := mp4Box("ftyp", []byte("isom"), be32(0x200), []byte("isom"), []byte("mp41"))

	// mdat layout, round-robin by sample index.
	var mdatPayload bytes.Buffer
	relOffsets := make([][]uint32, len(tracks))
	for idx := 0; ; idx++ {
		wrote := false
		for ti, tr := range tracks {
			if idx >= len(tr.Samples) {
				continue
			}
			relOffsets[ti] = append(relOffsets[ti], uint32(mdatPayload.Len()))
			mdatPayload.Write(tr.Samples[idx])
			wrote = true
		}
		if !wrote {
			break
		}
	}

	// moov size does not depend on the offset values, so build it once to
	// measure and again with the final offsets.
	moov := buildMoov(tracks, relOffsets, 0)
	base := uint32(len(ftyp) + len(moov) + 8)
	moov = buildMoov(tracks, relOffsets, base)

	out := append([]byte{}, ftyp...)
	out = append(out, moov...)
	out = append(out, mp4Box("mdat", mdatPayload.Bytes())...)
	return out
}

func buildMoov(tracks []MP4Track, relOffsets [][]uint32, base uint32) []byte {
	var traks [][]byte
	nextID := uint32(1)
	for ti, tr := range tracks {
		if tr.ID >= nextID {
			nextID = tr.ID + 1
		}
		offsets := make([]uint32, len(relOffsets[ti]))
		for i, rel := range relOffsets[ti] {
			offsets[i] = base + rel
		}
		traks = append(traks, buildTrak(tr, offsets))
	}
	mvhd := mp4FullBox("mvhd", 0, 0,
		be32(0), be32(0), be32(1000), be32(0),
		be32(0x00010000), be16(0x0100), be16(0), make([]byte, 8),
		identityMatrix(), make([]byte, 24), be32(nextID),
	)
	children := append([][]byte{mvhd}, traks...)
	return mp4Box("moov", children...)
}

func buildTrak(tr MP4Track, offsets []uint32) []byte {
	timescale := tr.Timescale
	if timescale == 0 {
		timescale = 1000
	}
	duration := tr.Delta * uint32(len(tr.Samples))

	tkhd := mp4FullBox("tkhd", 0, 0x000003,
		be32(0), be32(0), be32(tr.ID), be32(0), be32(duration),
		make([]byte, 8), be16(0), be16(0), be16(0), be16(0),
		identityMatrix(), be32(uint32(tr.Width)<<16), be32(uint32(tr.Height)<<16),
	)
	mdhd := mp4FullBox("mdhd", 0, 0,
		be32(0), be32(0), be32(timescale), be32(duration),
		be16(packLanguage(tr.Language)), be16(0),
	)
	hdlr := mp4FullBox("hdlr", 0, 0,
		be32(0), []byte(fourCC(tr.Handler)), make([]byte, 12), []byte("handler\x00"),
	)

	stsd := mp4FullBox("stsd", 0, 0, be32(1), sampleEntry(tr))
	var stts []byte
	if len(tr.Samples) > 0 {
		stts = mp4FullBox("stts", 0, 0, be32(1), be32(uint32(len(tr.Samples))), be32(tr.Delta))
	} else {
		stts = mp4FullBox("stts", 0, 0, be32(0))
	}
	var stsc []byte
	if len(tr.Samples) > 0 {
		stsc = mp4FullBox("stsc", 0, 0, be32(1), be32(1), be32(1), be32(1))
	} else {
		stsc = mp4FullBox("stsc", 0, 0, be32(0))
	}
	sizes := [][]byte{be32(0), be32(uint32(len(tr.Samples)))}
	for _, s := range tr.Samples {
		sizes = append(sizes, be32(uint32(len(s))))
	}
	stsz := mp4FullBox("stsz", 0, 0, sizes...)
	co := [][]byte{be32(uint32(len(offsets)))}
	for _, off := range offsets {
		co = append(co, be32(off))
	}
	stco := mp4FullBox("stco", 0, 0, co...)

	stblChildren := [][]byte{stsd, stts}
	if len(tr.CompositionOffsets) > 0 {
		entries := [][]byte{be32(uint32(len(tr.CompositionOffsets)))}
		for _, off := range tr.CompositionOffsets {
			entries = append(entries, be32(1), be32(off))
		}
		stblChildren = append(stblChildren, mp4FullBox("ctts", 0, 0, entries...))
	}
	stblChildren = append(stblChildren, stsc, stsz, stco)

	stbl := mp4Box("stbl", stblChildren...)
	minf := mp4Box("minf", stbl)
	mdia := mp4Box("mdia", mdhd, hdlr, minf)
	return mp4Box("trak", tkhd, mdia)
}

func sampleEntry(tr MP4Track) []byte {
	head := append(make([]byte, 6), be16(1)...)
	var fields [][]byte
	switch tr.Entry {
	case "avc1", "hvc1", "hev1":
		fields = [][]byte{head,
			be16(0), be16(0), make([]byte, 12),
			be16(tr.Width), be16(tr.Height),
			be32(0x00480000), be32(0x00480000), be32(0),
			be16(1), make([]byte, 32), be16(0x0018), be16(0xFFFF),
		}
	case "mp4a":
		fields = [][]byte{head,
			be16(0), make([]byte, 6), be16(tr.Channels), be16(16),
			be16(0), be16(0), be32(tr.SampleRate << 16),
		}
	default:
		fields = [][]byte{head}
	}
	return mp4Box(fourCC(tr.Entry), append(fields, tr.Children...)...)
}

func packLanguage(code string) uint16 {
	if len(code) != 3 {
		code = "und"
	}
	var v uint16
	for i := 0; i < 3; i++ {
		v = v<<5 | uint16(code[i]-0x60)&0x1F
	}
	return v
}

func identityMatrix() []byte {
	m := []uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}
	out := make([]byte, 0, 36)
	for _, v := range m {
		out = append(out, be32(v)...)
	}
	return out
}

func fourCC(s string) string {
	for len(s) < 4 {
		s += " "
	}
	return s[:4]
}

func mp4Box(typ string, payload ...[]byte) []byte {
	size := 8
	for _, p := range payload {
		size += len(p)
	}
	out := make([]byte, 0, size)
	out = append(out, be32(uint32(size))...)
	out = append(out, fourCC(typ)...)
	for _, p := range payload {
		out = append(out, p...)
	}
	return out
}

func mp4FullBox(typ string, version uint8, flags uint32, payload ...[]byte) []byte {
	vf := be32(uint32(version)<<24 | flags&0x00FFFFFF)
	return mp4Box(typ, append([][]byte{vf}, payload...)...)
}

func be16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
