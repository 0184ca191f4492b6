package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/DeRuina/timberjack"
	"github.com/sirupsen/logrus"
)

var (
	// Logger is the global logger instance
	Logger *logrus.Logger
	// initialized tracks if logger has been initialized
	initialized bool
)

// Config holds configuration for logging
type Config struct {
	Level        string // "debug", "info", "warn", "error"
	FilePath     string // Path to log file
	RotationTime string // Time-based rotation interval (e.g., "1h", "24h")
	MaxSize      int    // Maximum size in megabytes before rotation
	MaxBackups   int    // Maximum number of old log files to retain
	MaxAge       int    // Maximum number of days to retain old log files
	Compress     bool   // Whether to compress rotated log files
}

// Init initializes the global logger with the given configuration
func Init(config Config) error {
	if initialized && Logger != nil {
		return nil
	}

	if Logger == nil {
		Logger = logrus.New()
	}
	Logger.SetOutput(io.Discard)

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})

	writers := []io.Writer{os.Stdout}

	if config.FilePath != "" {
		dir := filepath.Dir(config.FilePath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}

		maxSize := config.MaxSize
		if maxSize == 0 {
			maxSize = 100
		}
		maxBackups := config.MaxBackups
		if maxBackups == 0 {
			maxBackups = 3
		}
		maxAge := config.MaxAge
		if maxAge == 0 {
			maxAge = 28
		}

		rotationDuration := 24 * time.Hour
		if config.RotationTime != "" {
			rotationDuration, err = time.ParseDuration(config.RotationTime)
			if err != nil {
				return fmt.Errorf("invalid rotation_time: %w", err)
			}
		}

		compression := ""
		if config.Compress {
			compression = "gzip"
		}

		writers = append(writers, &timberjack.Logger{
			Filename:         config.FilePath,
			MaxSize:          maxSize,
			MaxBackups:       maxBackups,
			MaxAge:           maxAge,
			RotationInterval: rotationDuration,
			Compression:      compression,
			LocalTime:        true,
		})
	}

	Logger.SetOutput(io.MultiWriter(writers...))
	initialized = true

	return nil
}

// GetLogger returns the global logger instance, initializing a stderr-only
// fallback when Init has not run yet.
func GetLogger() *logrus.Logger {
	if Logger == nil {
		Logger = logrus.New()
		Logger.SetOutput(os.Stderr)
		Logger.SetLevel(logrus.InfoLevel)
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   true,
		})
	}
	return Logger
}
