// Package logging configures the process-wide logrus logger and adapts it to the
// failure-logging hooks used by the runner.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/torosent/docloader/internal/metrics"
)

// Configure sets level, formatter and output of the standard logger.
func Configure(level, format string, out io.Writer) error {
	return Apply(log.StandardLogger(), level, format, out)
}

// Apply configures logger. An empty level means info and an empty format means text.
func Apply(logger *log.Logger, level, format string, out io.Writer) error {
	if out == nil {
		out = os.Stderr
	}
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	logger.SetLevel(lvl)
	logger.SetOutput(out)
	logger.ReplaceHooks(make(log.LevelHooks))
	return nil
}

const (
	fileMaxSizeMB  = 100
	fileMaxBackups = 10
	fileMaxAgeDays = 30
)

// AddFile makes logger also write to a rotating file at path, filtered at level.
// A {date} placeholder in path expands to now as YYYYMMDD. Console output keeps the
// level set by Apply. The returned closer flushes and closes the file.
func AddFile(logger *log.Logger, path, level string, now time.Time) (io.Closer, error) {
	if level == "" {
		level = "debug"
	}
	fileLevel, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	file := &lumberjack.Logger{
		Filename:   FilePath(path, now),
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
	}

	consoleLevel := logger.GetLevel()
	logger.AddHook(&writer.Hook{Writer: logger.Out, LogLevels: levelsUpTo(consoleLevel)})
	logger.AddHook(&writer.Hook{Writer: file, LogLevels: levelsUpTo(fileLevel)})
	logger.SetOutput(io.Discard)
	if fileLevel > consoleLevel {
		logger.SetLevel(fileLevel)
	}
	return file, nil
}

// FilePath expands the {date} placeholder of a log file path.
func FilePath(path string, now time.Time) string {
	return strings.ReplaceAll(path, "{date}", now.Format("20060102"))
}

func levelsUpTo(lvl log.Level) []log.Level {
	var levels []log.Level
	for _, l := range log.AllLevels {
		if l <= lvl {
			levels = append(levels, l)
		}
	}
	return levels
}

// FailureLogger logs failed operations with their classified outcome.
type FailureLogger struct {
	logger log.FieldLogger
}

func NewFailureLogger(logger log.FieldLogger) *FailureLogger {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &FailureLogger{logger: logger}
}

func (f *FailureLogger) LogFailure(target string, err error) {
	f.logger.WithFields(log.Fields{
		"target":  target,
		"outcome": metrics.Classify(err),
	}).WithError(err).Warn("operation failed")
}
