package config

const (
	defaultConfigPath            = "~/.config/librarian/config.toml"
	defaultCatalogRoot           = "~/.local/share/librarian/catalogs"
	defaultLogDir                = "~/.local/share/librarian/logs"
	defaultOverwrite             = "ask"
	defaultPromptDefault         = "skip"
	defaultPromptTimeoutSeconds  = 10
	defaultUnrecognizedLabel     = "warn"
	defaultUnrecognizedExtension = "warn"
	defaultLoadAttempts          = 12
	defaultLoadRetryDelayMillis  = 5000
	defaultLockTimeoutSeconds    = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CatalogRoot: defaultCatalogRoot,
			LogDir:      defaultLogDir,
		},
		Catalog: Catalog{
			Overwrite:             defaultOverwrite,
			PromptDefault:         defaultPromptDefault,
			PromptTimeoutSeconds:  defaultPromptTimeoutSeconds,
			UnrecognizedLabel:     defaultUnrecognizedLabel,
			UnrecognizedExtension: defaultUnrecognizedExtension,
			LoadAttempts:          defaultLoadAttempts,
			LoadRetryDelayMillis:  defaultLoadRetryDelayMillis,
			LockTimeoutSeconds:    defaultLockTimeoutSeconds,
			Strict:                true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
