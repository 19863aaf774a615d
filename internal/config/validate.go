package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProbe() error {
	switch c.Probe.Backend {
	case BackendNative, BackendFFI:
	default:
		return fmt.Errorf("probe.backend must be %q or %q, got %q", BackendNative, BackendFFI, c.Probe.Backend)
	}
	if c.Probe.BufferSize < 512 {
		return errors.New("probe.buffer_size must be at least 512")
	}
	if c.Probe.HistoryBlocks < 1 {
		return errors.New("probe.history_blocks must be positive")
	}
	if c.Probe.ScanLimit < 16 {
		return errors.New("probe.scan_limit must be at least 16")
	}
	if c.Probe.PacketLimit < 0 {
		return errors.New("probe.packet_limit must be zero or positive")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
