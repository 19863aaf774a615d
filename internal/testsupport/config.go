package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"symphonia/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// History is enabled and points into the temp directory; file logging is
// off so tests do not leave log files behind.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = ""
	cfgVal.History.Path = filepath.Join(base, "data", "history.db")
	cfgVal.Native.SearchPaths = nil
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend selects the probe backend.
func WithBackend(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Probe.Backend = name
	}
}

// WithoutHistory disables the run history store.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithPacketLimit caps the packets a reader returns.
func WithPacketLimit(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Probe.PacketLimit = n
	}
}

// WithStubbedFFprobe writes an executable ffprobe stub that prints output
// and points tools.ffprobe at it.
func WithStubbedFFprobe(output string) ConfigOption {
	return func(b *configBuilder) {
		b.stubFFprobe("ffprobe.json", output)
	}
}

// WithStubbedFFprobePackets makes the ffprobe stub print output when it is
// invoked with -show_packets.
func WithStubbedFFprobePackets(output string) ConfigOption {
	return func(b *configBuilder) {
		b.stubFFprobe("ffprobe.packets", output)
	}
}

func (b *configBuilder) stubFFprobe(name, output string) {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, name), []byte(output), 0o644); err != nil {
		b.t.Fatalf("write ffprobe payload: %v", err)
	}
	target := filepath.Join(binDir, "ffprobe")
	script := "#!/bin/sh\ncase \"$*\" in\n" +
		"*-show_packets*) cat '" + filepath.Join(binDir, "ffprobe.packets") + "' ;;\n" +
		"*) cat '" + filepath.Join(binDir, "ffprobe.json") + "' ;;\nesac\n"
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write ffprobe stub: %v", err)
	}
	b.cfg.Tools.FFprobe = target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
