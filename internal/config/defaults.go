package config

const (
	defaultConfigPath           = "~/.config/crate/config.toml"
	defaultDataDir              = "~/.local/share/crate"
	defaultLogDir               = "~/.local/share/crate/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultMinimumAge           = 0
	defaultRSSSyncInterval      = 15
	minRSSSyncInterval          = 10
	maxRSSSyncInterval          = 120
	defaultNotifyRequestTimeout = 10
	defaultNotifyPendingChanges = false
	defaultNotifyErrors         = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Indexers: Indexers{
			MinimumAge:      defaultMinimumAge,
			RSSSyncInterval: defaultRSSSyncInterval,
		},
		Formats: Formats{
			PreferredTerms: map[string]int{},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			PendingChanges: defaultNotifyPendingChanges,
			Errors:         defaultNotifyErrors,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
