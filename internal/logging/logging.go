// Package logging builds the process logger: JSON lines to a rotated file,
// plus a console core on stderr when verbose.
package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	File    string
	Verbose bool
	// Console defaults to os.Stderr; stdout is reserved for command output.
	Console io.Writer
}

// New returns a logger and its flush func. With no file and no verbose
// flag the logger discards everything.
func New(opts Options) (*zap.Logger, func() error) {
	cores := make([]zapcore.Core, 0, 2)

	if strings.TrimSpace(opts.File) != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.MessageKey = "message"
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		level := zap.InfoLevel
		if opts.Verbose {
			level = zap.DebugLevel
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level))
	}

	if opts.Verbose {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(zapcore.AddSync(console)),
			zap.DebugLevel,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() error { return nil }
	}
	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return l, func() error {
		// Sync on a terminal returns EINVAL; nothing useful to report.
		_ = l.Sync()
		return nil
	}
}

type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Caller    string         `json:"caller,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// ReadEntries returns the newest entries first, optionally filtered by level.
func ReadEntries(path, level string, limit int) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	defer file.Close()

	level = strings.ToUpper(strings.TrimSpace(level))
	entries := []Entry{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var raw map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			continue
		}
		e := Entry{Fields: map[string]any{}}
		for k, v := range raw {
			s, _ := v.(string)
			switch k {
			case "timestamp":
				e.Timestamp = s
			case "level":
				e.Level = s
			case "message":
				e.Message = s
			case "caller":
				e.Caller = s
			default:
				e.Fields[k] = v
			}
		}
		if level != "" && e.Level != level {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log %s: %w", path, err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
