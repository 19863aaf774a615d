package workflow

import (
	"context"

	"symphonia/internal/media"
	"symphonia/internal/media/native"
	"symphonia/internal/media/probe"
)

// Opener opens path as a source and probes it into a format reader. Errors
// carry media.KindOpen or media.KindProbe.
type Opener interface {
	Open(ctx context.Context, path string) (media.FormatReader, error)
}

// ProbeOpener opens files with the built-in Go readers.
type ProbeOpener struct {
	Probe  *probe.Probe
	Source media.SourceOptions
	Format media.FormatOptions
}

// Open implements Opener.
func (o ProbeOpener) Open(ctx context.Context, path string) (media.FormatReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, media.OpenError(path, err)
	}
	src, err := media.OpenFile(path, o.Source)
	if err != nil {
		return nil, err
	}
	reader, err := o.Probe.Format(ctx, media.HintFromPath(path), src, o.Format)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return reader, nil
}

// LibraryOpener opens files through the native symphonia_ffi library.
type LibraryOpener struct {
	Library *native.Library
	Format  media.FormatOptions
}

// Open implements Opener.
func (o LibraryOpener) Open(ctx context.Context, path string) (media.FormatReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, media.OpenError(path, err)
	}
	reader, err := o.Library.Open(path)
	if err != nil {
		return nil, err
	}
	return media.LimitPackets(reader, o.Format.PacketLimit), nil
}
