// Package logging builds the process logger: an append-only file sink that
// records everything from debug up and a console sink that only shows
// critical events. Both render "timestamp - LEVEL - message".
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// DefaultFile is the log file used when Options.File is empty.
	DefaultFile = "log.log"
	// TimeFormat is the timestamp layout of both sinks.
	TimeFormat = "2006-01-02 15:04:05"
)

// Options configures New.
type Options struct {
	File         string
	FileLevel    zerolog.Level
	ConsoleLevel zerolog.Level
	// Console defaults to os.Stderr.
	Console io.Writer
}

// DefaultOptions returns the standard sink thresholds: debug to file,
// critical (fatal) only to the console.
func DefaultOptions() Options {
	return Options{
		File:         DefaultFile,
		FileLevel:    zerolog.DebugLevel,
		ConsoleLevel: zerolog.FatalLevel,
		Console:      os.Stderr,
	}
}

// New opens the log file for appending and returns a logger writing to both
// sinks. The returned Closer closes the file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	if opts.File == "" {
		opts.File = DefaultFile
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	w := zerolog.MultiLevelWriter(
		levelFilter{w: textWriter(f), min: opts.FileLevel},
		levelFilter{w: textWriter(opts.Console), min: opts.ConsoleLevel},
	)
	lvl := opts.FileLevel
	if opts.ConsoleLevel < lvl {
		lvl = opts.ConsoleLevel
	}
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return logger, f, nil
}

// textWriter renders JSON events in the fixed text layout.
func textWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		TimeFormat: TimeFormat,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i any) string {
			return fmt.Sprintf("- %-8s -", levelName(i))
		},
	}
}

func levelName(i any) string {
	s, _ := i.(string)
	switch s {
	case zerolog.LevelWarnValue:
		return "WARNING"
	case zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return "CRITICAL"
	case "":
		return "NOTSET"
	}
	return strings.ToUpper(s)
}

// levelFilter drops events below min before they reach w.
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

func (f levelFilter) Write(p []byte) (int, error) { return f.w.Write(p) }

func (f levelFilter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}
