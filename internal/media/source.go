package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sunfish-shogi/bufseekio"
)

const (
	DefaultBufferSize    = 32 * 1024
	DefaultHistoryBlocks = 4
)

// SourceOptions tunes the block cache in front of the underlying reader.
type SourceOptions struct {
	BufferSize    int
	HistoryBlocks int
}

// DefaultSourceOptions returns the options used when none are configured.
func DefaultSourceOptions() SourceOptions {
	return SourceOptions{BufferSize: DefaultBufferSize, HistoryBlocks: DefaultHistoryBlocks}
}

func (o SourceOptions) normalized() SourceOptions {
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	if o.HistoryBlocks <= 0 {
		o.HistoryBlocks = DefaultHistoryBlocks
	}
	return o
}

// SourceStream is a seekable, block-cached byte stream over a media source.
// It is not safe for concurrent use.
type SourceStream struct {
	inner  io.ReadSeeker
	cache  *bufseekio.ReadSeeker
	path   string
	length int64
	pos    int64
	closed bool
}

// OpenFile opens path as a media source.
func OpenFile(path string, opts SourceOptions) (*SourceStream, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, OpenError(path, errors.New("empty path"))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, OpenError(path, err)
	}
	if info.IsDir() {
		return nil, OpenError(path, errors.New("is a directory"))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, OpenError(path, err)
	}
	adviseSequential(file)

	s := newSourceStream(file, info.Size(), opts)
	s.path = path
	return s, nil
}

// NewSourceStream wraps a seekable reader. If r is also an io.Closer it is
// closed together with the stream.
func NewSourceStream(r io.ReadSeeker, opts SourceOptions) (*SourceStream, error) {
	if r == nil {
		return nil, OpenError("", errors.New("nil reader"))
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, OpenError("", fmt.Errorf("determine length: %w", err))
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, OpenError("", fmt.Errorf("rewind: %w", err))
	}
	return newSourceStream(r, end, opts), nil
}

func newSourceStream(r io.ReadSeeker, length int64, opts SourceOptions) *SourceStream {
	opts = opts.normalized()
	return &SourceStream{
		inner:  r,
		cache:  bufseekio.NewReadSeeker(r, opts.BufferSize, opts.HistoryBlocks),
		length: length,
	}
}

// Read implements io.Reader.
func (s *SourceStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	// The block cache does not guard reads past the end of a short final block.
	if s.pos >= s.length {
		return 0, io.EOF
	}
	if remaining := s.length - s.pos; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := s.cache.Read(p)
	s.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker. Seeking before the start is an error; seeking
// past the end is allowed and subsequent reads return io.EOF.
func (s *SourceStream) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = s.length + offset
	default:
		return s.pos, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if target < 0 {
		return s.pos, fmt.Errorf("seek: negative position %d", target)
	}
	if _, err := s.cache.Seek(target, io.SeekStart); err != nil {
		return s.pos, err
	}
	s.pos = target
	return target, nil
}

// ReadFullAt seeks to off and fills p. The stream is left positioned after
// the bytes read.
func (s *SourceStream) ReadFullAt(p []byte, off int64) (int, error) {
	if _, err := s.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(s, p)
}

// Pos returns the current read offset.
func (s *SourceStream) Pos() int64 { return s.pos }

// Len returns the total length of the source in bytes.
func (s *SourceStream) Len() int64 { return s.length }

// IsSeekable reports whether the source supports random access. Every
// SourceStream is backed by an io.Seeker.
func (s *SourceStream) IsSeekable() bool { return true }

// Path returns the file path the stream was opened from, if any.
func (s *SourceStream) Path() string { return s.path }

// Close releases the underlying reader. It is safe to call more than once.
func (s *SourceStream) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	if closer, ok := s.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
