package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

var (
	colorReset = "\x1b[0m"
	colorTime  = "\x1b[90m"
	colorDebug = "\x1b[36m"
	colorInfo  = "\x1b[32m"
	colorWarn  = "\x1b[33m"
	colorError = "\x1b[31m"
)

// consoleHandler renders colored single-line output for terminals.
type consoleHandler struct {
	writer io.Writer
	level  slog.Level
	mu     sync.Mutex
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var levelStr, levelColor string
	switch r.Level {
	case slog.LevelDebug:
		levelStr, levelColor = "DEBUG", colorDebug
	case slog.LevelWarn:
		levelStr, levelColor = "WARN", colorWarn
	case slog.LevelError:
		levelStr, levelColor = "ERROR", colorError
	default:
		levelStr, levelColor = "INFO", colorInfo
	}

	output := fmt.Sprintf("%s[%s]%s %s[%s]%s %s",
		colorTime, r.Time.Format("2006-01-02 15:04:05.000"), colorReset,
		levelColor, levelStr, colorReset,
		r.Message)

	if r.NumAttrs() > 0 {
		output += " {"
		r.Attrs(func(a slog.Attr) bool {
			output += fmt.Sprintf(" %s=%v", a.Key, a.Value)
			return true
		})
		output += " }"
	}
	output += "\n"

	_, err := h.writer.Write([]byte(output))
	return err
}

func (h *consoleHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *consoleHandler) WithGroup(string) slog.Handler      { return h }

// Logger writes JSON records to a file and colored text to the console.
type Logger struct {
	jsonLogger *slog.Logger
	textLogger *slog.Logger
	logFile    *os.File
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a Logger. The log directory is created if needed; when Dir or
// Filename is empty only console output is produced.
func New(cfg Config) (*Logger, error) {
	level := parseLevel(cfg.Level)

	logger := &Logger{
		textLogger: slog.New(&consoleHandler{writer: os.Stdout, level: level}),
	}

	if cfg.Dir != "" && cfg.Filename != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		path := filepath.Join(cfg.Dir, cfg.Filename)
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.logFile = file
		logger.jsonLogger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	}

	return logger, nil
}

func (l *Logger) log(level slog.Level, msg string, args ...interface{}) {
	if len(args) > 0 && strings.Contains(msg, "%") {
		msg = fmt.Sprintf(msg, args...)
	}
	ctx := context.Background()
	l.textLogger.Log(ctx, level, msg)
	if l.jsonLogger != nil {
		l.jsonLogger.Log(ctx, level, msg)
	}
}

// Debug records a debug level message with optional printf-style args.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info records an info level message with optional printf-style args.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn records a warning level message with optional printf-style args.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error records an error level message with optional printf-style args.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(slog.LevelError, msg, args...)
}

func tagged(tag, msg string) string {
	if tag == "" || strings.HasPrefix(msg, "[") {
		return msg
	}
	return "[" + tag + "] " + msg
}

// InfoTag records an info message prefixed with a component tag.
func (l *Logger) InfoTag(tag, msg string, args ...interface{}) {
	if l == nil {
		return
	}
	l.Info(tagged(tag, msg), args...)
}

// WarnTag records a warning message prefixed with a component tag.
func (l *Logger) WarnTag(tag, msg string, args ...interface{}) {
	if l == nil {
		return
	}
	l.Warn(tagged(tag, msg), args...)
}

// ErrorTag records an error message prefixed with a component tag.
func (l *Logger) ErrorTag(tag, msg string, args ...interface{}) {
	if l == nil {
		return
	}
	l.Error(tagged(tag, msg), args...)
}

// Slog exposes the console logger for structured integrations.
func (l *Logger) Slog() *slog.Logger {
	return l.textLogger
}

// Close releases the log file if one is open.
func (l *Logger) Close() error {
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}
