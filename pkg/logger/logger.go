package logger

import (
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Fields are structured key/value pairs attached to one event.
type Fields = map[string]interface{}

// Logger is a zerolog logger that takes its fields as a map.
type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json, console
	Service     string // stamped on every event when set
	Output      io.Writer
	EnableColor bool
}

var global *Logger

// Initialize replaces the global logger and zerolog's package logger.
func Initialize(cfg Config) {
	zerolog.SetGlobalLevel(levelOf(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: !cfg.EnableColor}
	}

	zctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	zl := zctx.Logger()

	global = &Logger{zl: zl}
	log.Logger = zl
}

// levelOf falls back to info for empty or unknown names.
func levelOf(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Get returns the global logger. An uninitialized process gets a colored
// console logger at info.
func Get() *Logger {
	if global == nil {
		Initialize(Config{Format: "console", EnableColor: true})
	}
	return global
}

// WithContext derives a logger that adds fields to every event.
func (l *Logger) WithContext(fields Fields) *Logger {
	zctx := l.zl.With()
	for k, v := range fields {
		zctx = zctx.Interface(k, v)
	}
	return &Logger{zl: zctx.Logger()}
}

// write stamps the caller two frames up, so it must be called directly from
// an exported logging function.
func write(event *zerolog.Event, msg string, fields []Fields) {
	if event == nil {
		return
	}
	if pc, file, line, ok := runtime.Caller(2); ok {
		event = event.Str("caller", zerolog.CallerMarshalFunc(pc, file, line))
	}
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...Fields) { write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Fields)  { write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Fields)  { write(l.zl.Warn(), msg, fields) }

func (l *Logger) Error(msg string, err error, fields ...Fields) {
	write(l.zl.Error().Err(err), msg, fields)
}

// Fatal exits the process after writing.
func (l *Logger) Fatal(msg string, err error, fields ...Fields) {
	write(l.zl.Fatal().Err(err), msg, fields)
}

func Debug(msg string, fields ...Fields) { write(Get().zl.Debug(), msg, fields) }
func Info(msg string, fields ...Fields)  { write(Get().zl.Info(), msg, fields) }
func Warn(msg string, fields ...Fields)  { write(Get().zl.Warn(), msg, fields) }

func Error(msg string, err error, fields ...Fields) {
	write(Get().zl.Error().Err(err), msg, fields)
}

func Fatal(msg string, err error, fields ...Fields) {
	write(Get().zl.Fatal().Err(err), msg, fields)
}

func WithContext(fields Fields) *Logger {
	return Get().WithContext(fields)
}
