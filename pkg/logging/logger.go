package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	logFile  *os.File
	initOnce sync.Once
)

// LogLevel represents logging verbosity
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Config holds logger configuration
type Config struct {
	Level      LogLevel `mapstructure:"level"`
	OutputPath string   `mapstructure:"output_path"` // empty for stderr
	Format     string   `mapstructure:"format"`      // "json" or "text"
}

// ParseLevel maps a case-insensitive level name to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo, "":
		return LevelInfo, nil
	case LevelWarn, "WARNING":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs the global logger described by config, replacing any logger
// installed earlier. A previously opened log file is closed.
func Init(config Config) error {
	var writer io.Writer = os.Stderr
	var file *os.File

	if config.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0o750); err != nil {
			return err
		}

		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		writer = f
		file = f
	}

	install(newHandler(writer, config), file)
	return nil
}

// InitWriter installs a logger writing to w. Tests use it with io.Discard or
// a bytes.Buffer.
func InitWriter(w io.Writer, config Config) {
	install(newHandler(w, config), nil)
}

// InitDefault installs an INFO text logger on stderr unless a logger is
// already installed.
func InitDefault() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logger != nil {
		return
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func newHandler(w io.Writer, config Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}
	if config.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func install(h slog.Handler, file *os.File) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	logger = slog.New(h)
}

// Close closes the log file, if any, and drops the global logger. The next
// GetLogger call installs the default logger again.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}

	logger = nil
	initOnce = sync.Once{}
	return err
}

// GetLogger returns the current logger, installing the default one on first
// use.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	initOnce.Do(InitDefault)

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}
