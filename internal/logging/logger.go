package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// ParseLevel maps a config string onto a LogLevel, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn, "WARNING":
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (lvl LogLevel) zerolog() zerolog.Level {
	switch lvl {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

var (
	rootMu sync.RWMutex
	root   = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// Options configures the process-wide root logger
type Options struct {
	Level   LogLevel
	Console bool        // human-readable output instead of JSON lines
	Outputs []io.Writer // defaults to stdout
}

// Setup replaces the root logger. Loggers created earlier pick up the
// new root on their next call.
func Setup(opts Options) {
	outputs := opts.Outputs
	if len(outputs) == 0 {
		outputs = []io.Writer{os.Stdout}
	}

	writers := make([]io.Writer, 0, len(outputs))
	for _, w := range outputs {
		if opts.Console {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000", NoColor: w != os.Stdout}
		}
		writers = append(writers, w)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().
		Level(opts.Level.zerolog())

	rootMu.Lock()
	root = logger
	rootMu.Unlock()
}

func rootLogger() zerolog.Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// Logger provides structured logging for one component
type Logger struct {
	component string
	mu        sync.Mutex
	minLevel  LogLevel // empty means inherit from root
}

// NewLogger creates a new logger for a specific component
func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

// SetMinLevel overrides the root level for this logger only
func (l *Logger) SetMinLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
	return l
}

func (l *Logger) zl() zerolog.Logger {
	zl := rootLogger().With().Str("component", l.component).Logger()
	l.mu.Lock()
	lvl := l.minLevel
	l.mu.Unlock()
	if lvl != "" {
		zl = zl.Level(lvl.zerolog())
	}
	return zl
}

func (l *Logger) log(level LogLevel, message string, err error, context map[string]interface{}) {
	zl := l.zl()
	var ev *zerolog.Event
	switch level {
	case LogLevelDebug:
		ev = zl.Debug()
	case LogLevelWarn:
		ev = zl.Warn()
	case LogLevelError:
		ev = zl.Error()
	default:
		ev = zl.Info()
	}
	if err != nil {
		ev = ev.Err(err)
	}
	if len(context) > 0 {
		ev = ev.Fields(context)
	}
	ev.Msg(message)
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(LogLevelDebug, message, nil, nil)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(message string, context map[string]interface{}) {
	l.log(LogLevelDebug, message, nil, context)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.log(LogLevelInfo, message, nil, nil)
}

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(message string, context map[string]interface{}) {
	l.log(LogLevelInfo, message, nil, context)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(LogLevelWarn, message, nil, nil)
}

// WarnWithContext logs a warning message with context
func (l *Logger) WarnWithContext(message string, context map[string]interface{}) {
	l.log(LogLevelWarn, message, nil, context)
}

// Error logs an error message
func (l *Logger) Error(message string, err error) {
	l.log(LogLevelError, message, err, nil)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(message string, err error, context map[string]interface{}) {
	l.log(LogLevelError, message, err, context)
}

// WithContext returns a logger that attaches context to every entry
func (l *Logger) WithContext(context map[string]interface{}) *ContextLogger {
	return &ContextLogger{
		logger:  l,
		context: context,
	}
}

// ContextLogger is a logger with pre-set context
type ContextLogger struct {
	logger  *Logger
	context map[string]interface{}
}

// Debug logs a debug message with pre-set context
func (cl *ContextLogger) Debug(message string) {
	cl.logger.log(LogLevelDebug, message, nil, cl.context)
}

// Info logs an info message with pre-set context
func (cl *ContextLogger) Info(message string) {
	cl.logger.log(LogLevelInfo, message, nil, cl.context)
}

// Warn logs a warning message with pre-set context
func (cl *ContextLogger) Warn(message string) {
	cl.logger.log(LogLevelWarn, message, nil, cl.context)
}

// Error logs an error message with pre-set context
func (cl *ContextLogger) Error(message string, err error) {
	cl.logger.log(LogLevelError, message, err, cl.context)
}
