package config

const (
	defaultConfigPath      = "~/.config/subgrab/config.toml"
	defaultStateDir        = "~/.local/share/subgrab"
	defaultLogDir          = "~/.local/share/subgrab/logs"
	defaultOutputDir       = "~/Downloads/subtitles"
	defaultProxyListen     = "127.0.0.1:8788"
	defaultUpstream        = "https://www.netflix.com"
	defaultMaxBodyBytes    = 16 << 20
	defaultDeliveryFormat  = "webvtt-lssdh-ios8"
	defaultPollIntervalMS  = 500
	defaultVideoAttribute  = "data-videoid"
	defaultFilenamePrefix  = "netflix_subtitle"
	defaultAPIBind         = "127.0.0.1:7488"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultHistoryEnabled  = true
	defaultRetentionDays   = 90
	defaultNtfyTimeoutSec  = 10
	defaultBidiFix         = true
	defaultNormalizeTiming = false
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Proxy: Proxy{
			Listen:         defaultProxyListen,
			Upstream:       defaultUpstream,
			MaxBodyBytes:   defaultMaxBodyBytes,
			DeliveryFormat: defaultDeliveryFormat,
		},
		Session: Session{
			PollIntervalMS: defaultPollIntervalMS,
			Attribute:      defaultVideoAttribute,
		},
		Download: Download{
			FilenamePrefix:  defaultFilenamePrefix,
			NormalizeTiming: defaultNormalizeTiming,
			BidiFix:         defaultBidiFix,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		History: History{
			Enabled:       defaultHistoryEnabled,
			RetentionDays: defaultRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSec,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
