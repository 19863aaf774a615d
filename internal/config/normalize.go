package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProbe()
	if err := c.normalizeNative(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProbe() {
	c.Probe.Backend = strings.ToLower(strings.TrimSpace(c.Probe.Backend))
	if c.Probe.Backend == "" {
		c.Probe.Backend = defaultBackend
	}
	if c.Probe.BufferSize == 0 {
		c.Probe.BufferSize = defaultBufferSize
	}
	if c.Probe.HistoryBlocks == 0 {
		c.Probe.HistoryBlocks = defaultHistoryBlocks
	}
	if c.Probe.ScanLimit == 0 {
		c.Probe.ScanLimit = defaultScanLimit
	}
}

func (c *Config) normalizeNative() error {
	var err error
	c.Native.LibraryPath = strings.TrimSpace(c.Native.LibraryPath)
	if c.Native.LibraryPath == "" {
		if value, ok := os.LookupEnv(EnvFFILibrary); ok {
			c.Native.LibraryPath = strings.TrimSpace(value)
		}
	}
	if c.Native.LibraryPath, err = expandPath(c.Native.LibraryPath); err != nil {
		return fmt.Errorf("native.library_path: %w", err)
	}
	paths := make([]string, 0, len(c.Native.SearchPaths))
	seen := make(map[string]struct{}, len(c.Native.SearchPaths))
	for _, p := range c.Native.SearchPaths {
		expanded, err := expandPath(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("native.search_paths: %w", err)
		}
		if expanded == "" {
			continue
		}
		if _, ok := seen[expanded]; ok {
			continue
		}
		seen[expanded] = struct{}{}
		paths = append(paths, expanded)
	}
	c.Native.SearchPaths = paths
	return nil
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.DataDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if value, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
