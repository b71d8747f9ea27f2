package config

const (
	EnvVarEndpoint      = "WS_ENDPOINT"
	EnvVarLogLevel      = "LOG_LEVEL"
	EnvVarLogFile       = "LOG_FILE"
	EnvVarLogMaxSizeMB  = "LOG_MAX_SIZE_MB"
	EnvVarLogMaxBackups = "LOG_MAX_BACKUPS"
	EnvVarLogCompress   = "LOG_COMPRESS"
	EnvVarWatchInterval = "WATCH_INTERVAL"
	EnvVarMetricsAddr   = "METRICS_ADDR"

	// viper keys; a .env file lower-cases its keys, so these match
	// the variables above.
	KeyEndpoint      = "ws_endpoint"
	KeyLogLevel      = "log_level"
	KeyLogFile       = "log_file"
	KeyLogMaxSizeMB  = "log_max_size_mb"
	KeyLogMaxBackups = "log_max_backups"
	KeyLogCompress   = "log_compress"
	KeyWatchInterval = "watch_interval"
	KeyMetricsAddr   = "metrics_addr"
	KeyStrict        = "strict"

	DefaultEnvFile       = ".env"
	DefaultLogLevel      = "info"
	DefaultLogMaxSizeMB  = 100
	DefaultLogMaxBackups = 5
	DefaultWatchInterval = "6s"
)
