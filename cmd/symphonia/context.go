package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"symphonia/internal/config"
	"symphonia/internal/logging"
	"symphonia/internal/media"
	"symphonia/internal/workflow"
)

type globalFlags struct {
	config   string
	logLevel string
	backend  string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	logger  *slog.Logger
	closers []func() error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if backend := strings.TrimSpace(c.flags.backend); backend != "" {
			cfg.Probe.Backend = strings.ToLower(backend)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("config: %w", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// loggerFor returns the command logger, writing console output to the
// command's stderr.
func (c *commandContext) loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfigWriter(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	c.logger = logging.NewComponentLogger(logger, "cli")
	return c.logger, nil
}

// runner builds a workflow runner released when the command finishes.
func (c *commandContext) runner(cmd *cobra.Command) (*workflow.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, err
	}
	runner, err := workflow.FromConfig(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, runner.Close)
	return runner, nil
}

// openReader opens path with the configured backend. The caller closes the
// reader; the backend itself is released when the command finishes.
func (c *commandContext) openReader(cmd *cobra.Command, path string) (media.FormatReader, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, err
	}
	opener, closeOpener, err := workflow.NewOpener(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closeOpener)
	return opener.Open(cmd.Context(), path)
}

// close releases backends and stores opened by runner and openReader.
func (c *commandContext) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func closeReader(reader media.FormatReader, out io.Writer) {
	if err := reader.Close(); err != nil {
		fmt.Fprintf(out, "warning: close reader: %v\n", err)
	}
}
