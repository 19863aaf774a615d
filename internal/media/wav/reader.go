package wav

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	gowav "github.com/go-audio/wav"

	"symphonia/internal/media"
)

const shortName = "wave"

var info = media.FormatInfo{
	Format:    "wav",
	ShortName: shortName,
	LongName:  "Waveform Audio File Format",
}

const (
	formatPCM        = 0x0001
	formatIEEEFloat  = 0x0003
	formatALaw       = 0x0006
	formatMuLaw      = 0x0007
	formatExtensible = 0xFFFE
)

// Descriptor registers the reader with a probe.
func Descriptor() media.FormatDescriptor {
	return media.FormatDescriptor{
		Info:       info,
		Extensions: []string{"wav", "wave"},
		MimeTypes:  []string{"audio/vnd.wave", "audio/x-wav", "audio/wav", "audio/wave"},
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

// Match accepts RIFF containers of form type WAVE.
func Match(head []byte) bool {
	return len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE"))
}

// Reader yields fixed-duration PCM packets from a single audio track.
type Reader struct {
	src        *media.SourceStream
	track      media.Track
	blockAlign int64
	perPacket  int64
	dataStart  int64
	dataEnd    int64
	frame      uint64
	closed     bool
}

// Open parses the RIFF headers and positions the reader at the data chunk.
func Open(src *media.SourceStream) (*Reader, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	dec := gowav.NewDecoder(src)
	if !dec.IsValidFile() {
		err := dec.Err()
		if err == nil {
			err = errors.New("invalid wave header")
		}
		return nil, media.ProbeError(shortName, err)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	if err := dec.Err(); err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	if dec.PCMChunk == nil {
		return nil, media.ProbeError(shortName, errors.New("data chunk not found"))
	}

	codec, err := codecName(dec.WavAudioFormat, dec.BitDepth)
	if err != nil {
		return nil, media.ProbeError(shortName, err)
	}
	blockAlign := int64(dec.NumChans) * int64((dec.BitDepth+7)/8)
	perPacket := int64(dec.SampleRate / 10)
	if perPacket < 1 {
		perPacket = 1
	}

	r := &Reader{
		src:        src,
		blockAlign: blockAlign,
		perPacket:  perPacket,
		dataStart:  src.Pos(),
	}
	r.dataEnd = r.dataStart + int64(dec.PCMChunk.Size)
	r.track = media.Track{
		ID:                 0,
		Type:               media.TrackAudio,
		Codec:              codec,
		TimeBase:           media.TimeBase{Numer: 1, Denom: dec.SampleRate},
		NumFrames:          uint64(int64(dec.PCMChunk.Size) / blockAlign),
		Flags:              media.TrackFlags{Default: true, Enabled: true},
		SampleRate:         dec.SampleRate,
		SampleFormat:       sampleFormats[codec],
		BitsPerSample:      dec.BitDepth,
		BitsPerCodedSample: uint32(dec.BitDepth),
		Channels:           dec.NumChans,
		ChannelLayout:      media.DefaultChannelLayout(dec.NumChans),
		MaxFramesPerPacket: uint64(perPacket),
		FramesPerBlock:     1,
	}
	return r, nil
}

// Companded codecs have no sample format of their own.
var sampleFormats = map[string]string{
	"pcm_u8":    "U8",
	"pcm_s16le": "S16",
	"pcm_s24le": "S24",
	"pcm_s32le": "S32",
	"pcm_f32le": "F32",
	"pcm_f64le": "F64",
}

func codecName(format, bits uint16) (string, error) {
	switch format {
	case formatPCM, formatExtensible:
		switch bits {
		case 8:
			return "pcm_u8", nil
		case 16:
			return "pcm_s16le", nil
		case 24:
			return "pcm_s24le", nil
		case 32:
			return "pcm_s32le", nil
		}
	case formatIEEEFloat:
		switch bits {
		case 32:
			return "pcm_f32le", nil
		case 64:
			return "pcm_f64le", nil
		}
	case formatALaw:
		return "pcm_alaw", nil
	case formatMuLaw:
		return "pcm_mulaw", nil
	}
	return "", fmt.Errorf("unsupported wave format 0x%04x with %d bits per sample", format, bits)
}

// FormatInfo implements media.FormatReader.
func (r *Reader) FormatInfo() media.FormatInfo { return info }

// Tracks implements media.FormatReader.
func (r *Reader) Tracks() []media.Track { return []media.Track{r.track} }

// NextPacket implements media.FormatReader. A trailing partial frame is
// dropped.
func (r *Reader) NextPacket() (*media.Packet, error) {
	if r.closed {
		return nil, media.ErrClosed
	}
	offset := r.dataStart + int64(r.frame)*r.blockAlign
	remaining := (r.dataEnd - offset) / r.blockAlign
	if remaining <= 0 {
		return nil, media.ErrEndOfStream
	}
	frames := r.perPacket
	if remaining < frames {
		frames = remaining
	}
	data := make([]byte, frames*r.blockAlign)
	if _, err := r.src.ReadFullAt(data, offset); err != nil {
		return nil, media.DecodeError(shortName, fmt.Errorf("pcm frame %d: %w", r.frame, err))
	}
	pkt := &media.Packet{
		TrackID: r.track.ID,
		PTS:     r.frame,
		DTS:     int64(r.frame),
		Dur:     uint64(frames),
		Data:    data,
	}
	r.frame += uint64(frames)
	return pkt, nil
}

// Close releases the source.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.Close()
}
