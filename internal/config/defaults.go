package config

const (
	defaultConfigPath    = "~/.config/symphonia/config.toml"
	projectConfigName    = "symphonia.toml"
	defaultDataDir       = "~/.local/share/symphonia"
	defaultLogDir        = "~/.local/share/symphonia/logs"
	defaultHistoryFile   = "history.db"
	logFileName          = "symphonia.log"
	defaultBackend       = BackendNative
	defaultBufferSize    = 32 * 1024
	defaultHistoryBlocks = 4
	defaultScanLimit     = 4 * 1024
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultFFprobe       = "ffprobe"

	// EnvFFILibrary overrides native.library_path.
	EnvFFILibrary = "SYMPHONIA_FFI_LIBRARY"
	// EnvLogLevel overrides logging.level.
	EnvLogLevel = "SYMPHONIA_LOG_LEVEL"
)

// Backend names accepted by probe.backend.
const (
	BackendNative = "native"
	BackendFFI    = "ffi"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Probe: Probe{
			Backend:       defaultBackend,
			BufferSize:    defaultBufferSize,
			HistoryBlocks: defaultHistoryBlocks,
			ScanLimit:     defaultScanLimit,
		},
		Native: Native{
			SearchPaths: []string{"/usr/local/lib", "/usr/lib"},
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Tools: Tools{
			FFprobe: defaultFFprobe,
		},
	}
}
