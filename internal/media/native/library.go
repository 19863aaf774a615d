package native

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"symphonia/internal/media"
)

// EnvLibrary names an explicit shared library path.
const EnvLibrary = "SYMPHONIA_FFI_LIBRARY"

// ErrUnsupported is returned on platforms without dlopen support.
var ErrUnsupported = errors.New("native backend not supported on " + runtime.GOOS)

// ErrNotFound is returned when no candidate library could be located.
var ErrNotFound = errors.New("symphonia_ffi library not found")

// LibraryName returns the platform file name of the shared library.
func LibraryName() string {
	if runtime.GOOS == "darwin" {
		return "libsymphonia_ffi.dylib"
	}
	return "libsymphonia_ffi.so"
}

// Library is a loaded symphonia_ffi handle. The native calls are not
// documented as thread safe, so a Library serializes them.
type Library struct {
	mu     sync.Mutex
	path   string
	handle uintptr
	fns    functions
	closed bool
}

type functions struct {
	newFile    func(path string) uintptr
	probe      func(source uintptr) uintptr
	nextPacket func(format uintptr) uintptr
}

// Load opens the first library found among paths, the EnvLibrary override
// and the platform library name resolved by the dynamic loader. A path may
// name the library file or a directory holding it.
func Load(paths ...string) (*Library, error) {
	candidates := Candidates(paths...)
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}
	var errs []error
	for _, candidate := range candidates {
		lib, err := open(candidate)
		if err == nil {
			return lib, nil
		}
		if errors.Is(err, ErrUnsupported) {
			return nil, err
		}
		errs = append(errs, fmt.Errorf("%s: %w", candidate, err))
	}
	return nil, fmt.Errorf("%w: %w", ErrNotFound, errors.Join(errs...))
}

// Candidates lists the locations Load tries, in order.
func Candidates(paths ...string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		p = strings.TrimSpace(p)
		if p == "" {
			return
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			p = filepath.Join(p, LibraryName())
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range paths {
		add(p)
	}
	add(os.Getenv(EnvLibrary))
	add(LibraryName())
	return out
}

// Path returns the location the library was loaded from.
func (l *Library) Path() string { return l.path }

// Open constructs a native media source for path, probes it and returns a
// reader over the resulting format handle. The native constructor aborts the
// process when the file cannot be opened, so the path is checked here first.
func (l *Library) Open(path string) (media.FormatReader, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, media.OpenError(path, errors.New("empty path"))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, media.OpenError(path, err)
	}
	if info.IsDir() {
		return nil, media.OpenError(path, errors.New("is a directory"))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, media.OpenError(path, err)
	}
	_ = file.Close()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, media.OpenError(path, media.ErrClosed)
	}
	source := l.fns.newFile(path)
	if source == 0 {
		return nil, media.OpenError(path, errors.New("native source construction failed"))
	}
	// sm_probe takes ownership of the source whether or not it succeeds.
	format := l.fns.probe(source)
	if format == 0 {
		return nil, media.ProbeError(formatName, media.ErrUnsupportedFormat)
	}
	return &Reader{lib: l, format: format}, nil
}

// Close unloads the library. Readers opened from it must not be used
// afterwards.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return closeHandle(l.handle)
}
