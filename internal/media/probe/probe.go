package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"symphonia/internal/logging"
	"symphonia/internal/media"
	"symphonia/internal/media/flv"
	"symphonia/internal/media/isomp4"
	"symphonia/internal/media/mkv"
	"symphonia/internal/media/ogg"
	"symphonia/internal/media/wav"
)

// DefaultScanLimit is how many leading bytes are handed to Match.
const DefaultScanLimit = 4 * 1024

// Probe holds an ordered registry of container formats.
type Probe struct {
	logger      *slog.Logger
	descriptors []media.FormatDescriptor
	scanLimit   int
}

// New returns a probe with the given formats, tried in order.
func New(logger *slog.Logger, descriptors ...media.FormatDescriptor) *Probe {
	return &Probe{
		logger:      logging.NewComponentLogger(logger, "probe"),
		descriptors: append([]media.FormatDescriptor(nil), descriptors...),
		scanLimit:   DefaultScanLimit,
	}
}

// Default returns a probe with every built-in format registered.
func Default(logger *slog.Logger) *Probe {
	return New(logger,
		isomp4.Descriptor(),
		mkv.Descriptor(),
		ogg.Descriptor(),
		flv.Descriptor(),
		wav.Descriptor(),
	)
}

// SetScanLimit changes how many bytes are read for format detection.
// Values <= 0 restore DefaultScanLimit.
func (p *Probe) SetScanLimit(n int) {
	if n <= 0 {
		n = DefaultScanLimit
	}
	p.scanLimit = n
}

// Register appends a format to the registry.
func (p *Probe) Register(d media.FormatDescriptor) {
	p.descriptors = append(p.descriptors, d)
}

// Descriptors returns the registered formats in probe order.
func (p *Probe) Descriptors() []media.FormatDescriptor {
	return append([]media.FormatDescriptor(nil), p.descriptors...)
}

// candidates orders formats so the ones named by the hint come first.
func (p *Probe) candidates(hint media.Hint) []media.FormatDescriptor {
	hinted := make([]media.FormatDescriptor, 0, len(p.descriptors))
	rest := make([]media.FormatDescriptor, 0, len(p.descriptors))
	for _, d := range p.descriptors {
		if hint.Matches(d) {
			hinted = append(hinted, d)
		} else {
			rest = append(rest, d)
		}
	}
	return append(hinted, rest...)
}

// Format identifies the container in src and returns a reader for it. On
// success the reader owns src. On failure src is left open for the caller.
func (p *Probe) Format(ctx context.Context, hint media.Hint, src *media.SourceStream, opts media.FormatOptions) (media.FormatReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, media.ProbeError("", err)
	}
	head := make([]byte, p.scanLimit)
	n, err := src.ReadFullAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, media.ProbeError("", fmt.Errorf("read header: %w", err))
	}
	head = head[:n]
	if n == 0 {
		return nil, media.ProbeError("", errors.New("empty stream"))
	}

	for _, d := range p.candidates(hint) {
		if d.Match == nil || !d.Match(head) {
			continue
		}
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return nil, media.ProbeError(d.Info.ShortName, err)
		}
		reader, err := d.Open(src, opts)
		if err != nil {
			p.logger.Debug("format matched but failed to open",
				logging.String("format", d.Info.ShortName),
				logging.Error(err),
			)
			return nil, media.ProbeError(d.Info.ShortName, err)
		}
		info := reader.FormatInfo()
		p.logger.Debug("format probed",
			logging.String("format", info.ShortName),
			logging.String("long_name", info.LongName),
			logging.Int("tracks", len(reader.Tracks())),
			logging.String("hint", hint.Extension),
		)
		return media.LimitPackets(reader, opts.PacketLimit), nil
	}
	return nil, media.ProbeError("", fmt.Errorf("%w (scanned %d bytes)", media.ErrUnsupportedFormat, n))
}
