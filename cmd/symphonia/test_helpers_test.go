package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"symphonia/internal/config"
	"symphonia/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(config.EnvFFILibrary, "")
	t.Setenv(config.EnvLogLevel, "")

	configPath := filepath.Join(base, "symphonia.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if env != nil {
		flags = append(flags, "--config", env.configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\ndata_dir = %q\nlog_dir = %q\n\n", cfg.Paths.DataDir, cfg.Paths.LogDir)
	fmt.Fprintf(&b, "[probe]\nbackend = %q\npacket_limit = %d\n\n", cfg.Probe.Backend, cfg.Probe.PacketLimit)
	fmt.Fprintf(&b, "[native]\nlibrary_path = %q\nsearch_paths = []\n\n", cfg.Native.LibraryPath)
	fmt.Fprintf(&b, "[history]\nenabled = %t\npath = %q\n\n", cfg.History.Enabled, cfg.History.Path)
	fmt.Fprintf(&b, "[logging]\nformat = %q\nlevel = %q\n\n", cfg.Logging.Format, cfg.Logging.Level)
	fmt.Fprintf(&b, "[tools]\nffprobe = %q\n", cfg.Tools.FFprobe)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func toneFile(t *testing.T) string {
	t.Helper()
	return testsupport.WriteMedia(t, "tone.wav", testsupport.WAV(1, 8000, 16, testsupport.PCMFrames(2000, 1), ""))
}
