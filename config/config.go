package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var (
	ErrMissingEndpoint = errors.New("required config is absent")
	ErrInvalidEndpoint = errors.New("endpoint must be a ws, wss, http or https url")
	ErrInvalidLog      = errors.New("invalid log config")
)

// Error is a configuration error for a single key.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Config struct {
	Endpoint string
	Strict   bool
	Log      LogConfig
	Watch    WatchConfig
	Metrics  MetricsConfig
}

type LogConfig struct {
	Level                string
	Filename             string
	MaxFileSizeInMB      int
	MaxBackupsOfLogFiles int
	Compress             bool
}

type WatchConfig struct {
	Interval time.Duration
}

type MetricsConfig struct {
	Address string
}

func (cfg *Config) Validate() error {
	if cfg.Endpoint == "" {
		return &Error{Key: EnvVarEndpoint, Err: ErrMissingEndpoint}
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return &Error{Key: EnvVarEndpoint, Err: errors.Wrap(ErrInvalidEndpoint, err.Error())}
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return &Error{Key: EnvVarEndpoint, Err: errors.Wrapf(ErrInvalidEndpoint, "got %q", cfg.Endpoint)}
	}
	if u.Host == "" {
		return &Error{Key: EnvVarEndpoint, Err: errors.Wrapf(ErrInvalidEndpoint, "no host in %q", cfg.Endpoint)}
	}

	return cfg.Log.Validate()
}

func (cfg *LogConfig) Validate() error {
	if cfg.Filename == "" {
		return nil
	}
	if cfg.MaxFileSizeInMB <= 0 {
		return &Error{Key: EnvVarLogMaxSizeMB, Err: errors.Wrap(ErrInvalidLog, "should be larger than 0 if LOG_FILE is set")}
	}
	if cfg.MaxBackupsOfLogFiles <= 0 {
		return &Error{Key: EnvVarLogMaxBackups, Err: errors.Wrap(ErrInvalidLog, "should be larger than 0 if LOG_FILE is set")}
	}
	return nil
}

// NewViper returns a viper instance with defaults set and every key bound
// to its environment variable.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogMaxSizeMB, DefaultLogMaxSizeMB)
	v.SetDefault(KeyLogMaxBackups, DefaultLogMaxBackups)
	v.SetDefault(KeyWatchInterval, DefaultWatchInterval)

	_ = v.BindEnv(KeyEndpoint, EnvVarEndpoint)
	_ = v.BindEnv(KeyLogLevel, EnvVarLogLevel)
	_ = v.BindEnv(KeyLogFile, EnvVarLogFile)
	_ = v.BindEnv(KeyLogMaxSizeMB, EnvVarLogMaxSizeMB)
	_ = v.BindEnv(KeyLogMaxBackups, EnvVarLogMaxBackups)
	_ = v.BindEnv(KeyLogCompress, EnvVarLogCompress)
	_ = v.BindEnv(KeyWatchInterval, EnvVarWatchInterval)
	_ = v.BindEnv(KeyMetricsAddr, EnvVarMetricsAddr)

	return v
}

// Load reads envFile (or ./.env when envFile is empty and the file exists)
// underneath the process environment, then builds and validates the config.
// Flags bound to v take precedence over both.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	if err := readEnvFile(v, envFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		Endpoint: strings.TrimSpace(v.GetString(KeyEndpoint)),
		Strict:   v.GetBool(KeyStrict),
		Log: LogConfig{
			Level:                v.GetString(KeyLogLevel),
			Filename:             v.GetString(KeyLogFile),
			MaxFileSizeInMB:      v.GetInt(KeyLogMaxSizeMB),
			MaxBackupsOfLogFiles: v.GetInt(KeyLogMaxBackups),
			Compress:             v.GetBool(KeyLogCompress),
		},
		Watch: WatchConfig{
			Interval: v.GetDuration(KeyWatchInterval),
		},
		Metrics: MetricsConfig{
			Address: v.GetString(KeyMetricsAddr),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readEnvFile(v *viper.Viper, envFile string) error {
	if envFile == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		envFile = DefaultEnvFile
	}

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read env file %s", envFile)
	}

	return nil
}
