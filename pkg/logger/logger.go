package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var Log = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Init installs the JSON logger used across the application. With a non-empty
// file path, lines are also written to a size-rotated file.
// The returned closer releases the file.
func Init(level, file string) io.Closer {
	var w io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if file != "" {
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(os.Stdout, rotating)
		closer = rotating
	}

	Log = New(w, level)
	slog.SetDefault(Log)
	return closer
}

// New builds a JSON logger writing to w at the given level name.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// ParseLevel maps debug/info/warn/error onto slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
