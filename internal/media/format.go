package media

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"
)

// FormatInfo identifies the container a reader demuxes.
type FormatInfo struct {
	Format    string `json:"format"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
}

// FormatOptions adjusts reader behaviour. Probes apply PacketLimit with
// LimitPackets, so readers need not honour it themselves.
type FormatOptions struct {
	// PacketLimit stops the reader with ErrEndOfStream after this many
	// packets. Zero means no limit.
	PacketLimit int
}

// FormatReader demuxes a container into packets. A reader owns the
// SourceStream it was opened on; Close releases both.
type FormatReader interface {
	FormatInfo() FormatInfo
	Tracks() []Track
	// NextPacket returns the next packet in stream order. It returns
	// ErrEndOfStream once the stream is exhausted and a KindDecode error when
	// packet data is malformed or truncated.
	NextPacket() (*Packet, error)
	Close() error
}

var errNoPacket = errors.New("reader returned neither a packet nor an error")

// ReadPacket calls reader.NextPacket and turns a nil packet with a nil error
// into a KindDecode error, so callers may use the packet whenever err is nil.
func ReadPacket(reader FormatReader) (*Packet, error) {
	pkt, err := reader.NextPacket()
	if err == nil && pkt == nil {
		return nil, DecodeError(reader.FormatInfo().ShortName, errNoPacket)
	}
	return pkt, err
}

// FormatDescriptor registers a container format with a probe.
type FormatDescriptor struct {
	Info       FormatInfo
	Extensions []string
	MimeTypes  []string
	// Match reports whether the leading bytes of a stream belong to this
	// format. head may be shorter than the format's full header.
	Match func(head []byte) bool
	// Open initializes a reader positioned at the start of src.
	Open func(src *SourceStream, opts FormatOptions) (FormatReader, error)
}

// Hint carries out-of-band knowledge about a stream used to order probe
// candidates.
type Hint struct {
	Extension string
	MimeType  string
}

// HintFromPath derives a hint from a file name extension.
func HintFromPath(path string) Hint {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	hint := Hint{Extension: ext}
	if ext != "" {
		if mt := mime.TypeByExtension("." + ext); mt != "" {
			if idx := strings.IndexByte(mt, ';'); idx >= 0 {
				mt = mt[:idx]
			}
			hint.MimeType = strings.TrimSpace(mt)
		}
	}
	return hint
}

// Matches reports whether the hint names one of the descriptor's extensions
// or mime types.
func (h Hint) Matches(d FormatDescriptor) bool {
	if h.Extension != "" {
		for _, ext := range d.Extensions {
			if strings.EqualFold(ext, h.Extension) {
				return true
			}
		}
	}
	if h.MimeType != "" {
		for _, mt := range d.MimeTypes {
			if strings.EqualFold(mt, h.MimeType) {
				return true
			}
		}
	}
	return false
}
