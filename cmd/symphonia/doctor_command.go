package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"symphonia/internal/config"
	"symphonia/internal/history"
	"symphonia/internal/logging"
	"symphonia/internal/media/ffprobe"
	"symphonia/internal/media/native"
	"symphonia/internal/media/probe"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report configuration, history store and backend availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			configLines := []statusLine{configStatus(ctx), {Label: "Backend", Kind: statusInfo, Message: cfg.Probe.Backend}}
			backendLines := []statusLine{formatsStatus(), nativeStatus(cfg), ffprobeStatus(cfg)}
			storeLines := []statusLine{historyStatus(cmd, cfg)}

			sections := []struct {
				title string
				lines []statusLine
			}{
				{"Configuration", configLines},
				{"Backends", backendLines},
				{"History", storeLines},
			}
			var all []statusLine
			for i, section := range sections {
				if i > 0 {
					fmt.Fprintln(out)
				}
				for _, line := range renderSectionHeader(section.title, colorize) {
					fmt.Fprintln(out, line)
				}
				for _, line := range section.lines {
					fmt.Fprintln(out, renderStatusLine(line, colorize))
				}
				all = append(all, section.lines...)
			}
			if worstStatus(all) == statusError {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
}

func configStatus(ctx *commandContext) statusLine {
	if !ctx.configSeen {
		return statusLine{Label: "Config", Kind: statusInfo, Message: "defaults (no file at " + ctx.configPath + ")"}
	}
	return statusLine{Label: "Config", Kind: statusOK, Message: ctx.configPath}
}

func formatsStatus() statusLine {
	var names []string
	for _, d := range probe.Default(logging.NewNop()).Descriptors() {
		names = append(names, d.Info.ShortName)
	}
	return statusLine{Label: "Native formats", Kind: statusOK, Message: strings.Join(names, ", ")}
}

func nativeStatus(cfg *config.Config) statusLine {
	lib, err := native.Load(cfg.LibraryCandidates()...)
	if err != nil {
		kind := statusWarn
		if cfg.Probe.Backend == config.BackendFFI {
			kind = statusError
		}
		msg := "not found"
		if errors.Is(err, native.ErrUnsupported) {
			msg = "unsupported on this platform"
		}
		return statusLine{Label: "FFI library", Kind: kind, Message: msg + " (set native.library_path or " + config.EnvFFILibrary + ")"}
	}
	path := lib.Path()
	_ = lib.Close()
	return statusLine{Label: "FFI library", Kind: statusOK, Message: path}
}

func ffprobeStatus(cfg *config.Config) statusLine {
	path, err := ffprobe.Lookup(cfg.FFprobeBinary())
	if err != nil {
		return statusLine{Label: "ffprobe", Kind: statusWarn, Message: "not installed; compare unavailable"}
	}
	return statusLine{Label: "ffprobe", Kind: statusOK, Message: path}
}

func historyStatus(cmd *cobra.Command, cfg *config.Config) statusLine {
	store, err := history.OpenConfigured(cmd.Context(), cfg)
	if errors.Is(err, history.ErrDisabled) {
		return statusLine{Label: "Run history", Kind: statusInfo, Message: "disabled"}
	}
	if err != nil {
		return statusLine{Label: "Run history", Kind: statusError, Message: err.Error()}
	}
	defer store.Close()
	runs, err := store.Recent(cmd.Context(), 0)
	if err != nil {
		return statusLine{Label: "Run history", Kind: statusError, Message: err.Error()}
	}
	return statusLine{Label: "Run history", Kind: statusOK, Message: fmt.Sprintf("%s (%d runs)", store.Path(), len(runs))}
}
