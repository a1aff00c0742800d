package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/objmap/mapcore/internal/config"
	"github.com/objmap/mapcore/internal/logging"
)

const configFileHint = config.FileName

// env holds the process wide logging set up from the configuration.
type env struct {
	Logger      *slog.Logger
	ZLog        zerolog.Logger
	SlogManager *logging.SlogManager
	LogFilePath string

	logFile *os.File
}

// setup loads the configuration and starts logging. A missing config file
// leaves the defaults in place.
func setup(configDir string) (*env, error) {
	sessionStart := time.Now()
	e := &env{SlogManager: logging.NewSlogManager()}

	configErr := config.Load(configDir)

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}
	e.LogFilePath = logging.LogFilePath(logsDir, appName, sessionStart)
	// keep the previous log of the same second
	if _, err := os.Stat(e.LogFilePath); err == nil {
		_ = os.Rename(e.LogFilePath, e.LogFilePath+".old")
	}
	file, err := os.OpenFile(e.LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	e.logFile = file

	var remote io.Writer
	if config.GetBool("graylog.enabled") {
		remote, err = logging.NewGelfWriter(config.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Graylog disabled: %v\n", err)
		}
	}

	level := config.GetString("logLevel")
	e.SlogManager.Setup(io.MultiWriter(os.Stdout, file), level, remote)
	e.Logger = e.SlogManager.Logger()
	e.ZLog = newZerolog(file, level)

	if configErr != nil {
		e.Logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		e.Logger.Info("Loaded config", "dir", configDir)
	}
	e.Logger.Info("Logging to file", "path", e.LogFilePath)
	return e, nil
}

func zerologLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "TRACE":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// newZerolog builds the logger of the storage and metrics managers, writing
// to the console and to the log file.
func newZerolog(file io.Writer, level string) zerolog.Logger {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
	mlw := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		},
		zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		},
	)
	return zerolog.New(mlw).Level(zerologLevel(level)).With().Timestamp().Logger()
}

// Close flushes and closes the log file.
func (e *env) Close() error {
	if e.logFile == nil {
		return nil
	}
	err := e.logFile.Close()
	e.logFile = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
