package media

import (
	"errors"
	"fmt"
	"io"
)

// Kind classifies where in the open/probe/read cycle an error happened.
type Kind string

const (
	KindOpen        Kind = "open"
	KindProbe       Kind = "probe"
	KindDecode      Kind = "decode"
	KindEndOfStream Kind = "end_of_stream"
)

var (
	// ErrUnsupportedFormat is wrapped by probe errors when no registered
	// format recognizes the stream.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrClosed is returned by sources and readers after Close.
	ErrClosed = errors.New("media: use of closed handle")
	// ErrEndOfStream is returned by NextPacket once every packet was read.
	ErrEndOfStream = &Error{Kind: KindEndOfStream, Op: "next packet", Err: io.EOF}
)

// Error is the error type returned by sources, probes and readers.
type Error struct {
	Kind   Kind
	Op     string
	Path   string
	Format string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Format != "" {
		msg = e.Format + ": " + msg
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Kind == KindEndOfStream {
		return msg + ": end of stream"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind implements the classifier interface used by callers that map
// failures to exit codes or stored statuses.
func (e *Error) ErrorKind() string { return string(e.Kind) }

// OpenError reports a failure to open path as a media source.
func OpenError(path string, err error) error {
	return &Error{Kind: KindOpen, Op: "open", Path: path, Err: err}
}

// ProbeError reports a failure to identify or initialize a container.
func ProbeError(format string, err error) error {
	var me *Error
	if errors.As(err, &me) && me.Kind == KindProbe {
		return err
	}
	return &Error{Kind: KindProbe, Op: "probe", Format: format, Err: err}
}

// DecodeError reports malformed or truncated packet data. An io.EOF while a
// packet is only partially read is reported as io.ErrUnexpectedEOF.
func DecodeError(format string, err error) error {
	if errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.ErrUnexpectedEOF
	}
	return &Error{Kind: KindDecode, Op: "read packet", Format: format, Err: err}
}

// KindOf returns the Kind carried by err, or "" when err is not a media error.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

// IsEndOfStream reports whether err marks a clean end of the packet stream.
func IsEndOfStream(err error) bool {
	return KindOf(err) == KindEndOfStream
}
