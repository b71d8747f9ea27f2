package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mobazha/finalized-watcher/config"
)

// Init configures the standard logrus logger. Logs go to stderr unless a
// log file is configured; stdout is left to command output.
func Init(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrapf(err, "invalid %s", config.EnvVarLogLevel)
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(Writer(cfg))

	return nil
}

func Writer(cfg config.LogConfig) io.Writer {
	if cfg.Filename == "" {
		return os.Stderr
	}

	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxFileSizeInMB,
		MaxBackups: cfg.MaxBackupsOfLogFiles,
		Compress:   cfg.Compress,
	}
}
