// pkg/logging/logging.go - timestamped logging package for AppBundle
//
// Each run gets its own YYYY-MM-DD-HHMMss directory under the configured
// logs path holding a plain install.log and a structured events.jsonl.
// Old run directories are pruned according to a retention policy.

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/windowsadmins/appbundle/pkg/config"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config LogLevel string to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// LogEntry is one structured line in events.jsonl.
type LogEntry struct {
	Time       int64                  `json:"time"`
	Timestamp  string                 `json:"timestamp"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Component  string                 `json:"component"`
	PID        int64                  `json:"pid"`
	Hostname   string                 `json:"hostname"`
	SessionID  string                 `json:"session_id"`
	Event      *LogEvent              `json:"event,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// RetentionPolicy defines log retention rules
type RetentionPolicy struct {
	KeepRuns   int // Keep last N run directories (default: 20)
	MaxAgeDays int // Maximum age in days before deletion (default: 30)
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	BaseDir       string
	Component     string
	SessionID     string
	Level         LogLevel
	Retention     RetentionPolicy
	EnableJSON    bool
	EnableConsole bool
	Console       io.Writer // defaults to os.Stdout
}

// Logger encapsulates the file-backed logging functionality.
type Logger struct {
	mu       sync.RWMutex
	logger   *log.Logger
	logLevel LogLevel
	logFile  *os.File
	jsonFile *os.File
	config   LoggerConfig
	logDir   string
	hostname string
}

var (
	instance *Logger
	once     sync.Once
)

// DefaultRetentionPolicy returns sensible defaults for log retention
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		KeepRuns:   20,
		MaxAgeDays: 30,
	}
}

// Init initializes the singleton Logger based on the provided configuration.
// It must be called before any file logging happens; until then messages go
// to stderr.
func Init(cfg *config.Configuration) error {
	level := ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = LevelDebug
	}
	return InitWithConfig(LoggerConfig{
		BaseDir:       cfg.LogsPath,
		Component:     "appbundle",
		SessionID:     generateSessionID(),
		Level:         level,
		Retention:     DefaultRetentionPolicy(),
		EnableJSON:    true,
		EnableConsole: cfg.Verbose,
	})
}

// InitWithConfig initializes the logger with explicit LoggerConfig
func InitWithConfig(logCfg LoggerConfig) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLoggerWithConfig(logCfg)
	})
	return initErr
}

func generateSessionID() string {
	return fmt.Sprintf("appbundle-%s", time.Now().Format("2006-01-02-150405"))
}

func newLoggerWithConfig(cfg LoggerConfig) (*Logger, error) {
	sessionStart := time.Now()

	logDir := filepath.Join(cfg.BaseDir, sessionStart.Format("2006-01-02-150405"))
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	l := &Logger{
		config:   cfg,
		logLevel: cfg.Level,
		logDir:   logDir,
		hostname: hostname,
	}

	var err error
	l.logFile, err = os.OpenFile(filepath.Join(logDir, "install.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open main log file: %w", err)
	}
	if cfg.EnableJSON {
		l.jsonFile, err = os.OpenFile(filepath.Join(logDir, "events.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			l.logFile.Close()
			return nil, fmt.Errorf("failed to open JSON log file: %w", err)
		}
	}

	if cfg.EnableConsole {
		console := cfg.Console
		if console == nil {
			console = os.Stdout
		}
		l.logger = log.New(io.MultiWriter(console, l.logFile), "", 0)
	} else {
		l.logger = log.New(l.logFile, "", 0)
	}

	l.performCleanup()
	return l, nil
}

// performCleanup removes old run directories based on the retention policy
func (l *Logger) performCleanup() {
	baseDir := l.config.BaseDir
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return
	}

	var runDirs []string
	for _, entry := range entries {
		// YYYY-MM-DD-HHMMss
		if entry.IsDir() && len(entry.Name()) == 17 && strings.Count(entry.Name(), "-") == 3 {
			runDirs = append(runDirs, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(runDirs)))

	retention := l.config.Retention
	maxAge := time.Duration(retention.MaxAgeDays) * 24 * time.Hour
	current := filepath.Base(l.logDir)

	for i, name := range runDirs {
		if name == current {
			continue
		}
		dirPath := filepath.Join(baseDir, name)
		expired := false
		if retention.MaxAgeDays > 0 {
			if info, err := os.Stat(dirPath); err == nil && time.Since(info.ModTime()) > maxAge {
				expired = true
			}
		}
		if (retention.KeepRuns > 0 && i >= retention.KeepRuns) || expired {
			os.RemoveAll(dirPath) // best effort
		}
	}
}

// CloseLogger closes all log files if they're open.
func CloseLogger() {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()

	if instance.logFile != nil {
		if err := instance.logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close main log file: %v\n", err)
		}
		instance.logFile = nil
	}
	if instance.jsonFile != nil {
		if err := instance.jsonFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close JSON log file: %v\n", err)
		}
		instance.jsonFile = nil
	}
}

func (l *Logger) logMessage(level LogLevel, message string, event *LogEvent, keyValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.logLevel || l.logFile == nil {
		return
	}

	properties := toProperties(keyValues)
	now := time.Now()
	entry := LogEntry{
		Time:       now.Unix(),
		Timestamp:  now.Format(time.RFC3339),
		Level:      level.String(),
		Message:    message,
		Component:  l.config.Component,
		PID:        int64(os.Getpid()),
		Hostname:   l.hostname,
		SessionID:  l.config.SessionID,
		Event:      event,
		Properties: properties,
	}

	l.logger.Println(formatLine(now, level, message, keyValues))

	if l.jsonFile != nil {
		if data, err := json.Marshal(entry); err == nil {
			l.jsonFile.Write(append(data, '\n'))
		}
	}
}

func toProperties(keyValues []interface{}) map[string]interface{} {
	if len(keyValues) < 2 {
		return nil
	}
	properties := make(map[string]interface{}, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		val := keyValues[i+1]
		if err, ok := val.(error); ok {
			val = err.Error()
		}
		properties[fmt.Sprintf("%v", keyValues[i])] = val
	}
	return properties
}

// formatLine renders the install.log format: "[ts] LEVEL message k=v ...".
// Long key/value lists are broken onto indented lines.
func formatLine(ts time.Time, level LogLevel, message string, keyValues []interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s %s", ts.Format("2006-01-02 15:04:05"), level.String(), message)
	multiline := len(keyValues)/2 > 4
	for i := 0; i+1 < len(keyValues); i += 2 {
		if multiline {
			fmt.Fprintf(&b, "\n        %v: %v", keyValues[i], keyValues[i+1])
		} else {
			fmt.Fprintf(&b, " %v=%v", keyValues[i], keyValues[i+1])
		}
	}
	return b.String()
}

// fallback is used before Init so early messages are not lost.
var fallback = log.New(os.Stderr, "", 0)

func logAt(level LogLevel, message string, keyValues ...interface{}) {
	if instance == nil {
		if level <= LevelWarn {
			fallback.Println(formatLine(time.Now(), level, message, keyValues))
		}
		return
	}
	instance.logMessage(level, message, nil, keyValues...)
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) { logAt(LevelInfo, message, keyValues...) }

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) { logAt(LevelDebug, message, keyValues...) }

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) { logAt(LevelWarn, message, keyValues...) }

// Error logs error messages.
func Error(message string, keyValues ...interface{}) { logAt(LevelError, message, keyValues...) }

// LogStructured logs a message with explicit properties.
func LogStructured(level LogLevel, message string, properties map[string]interface{}) {
	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	keyValues := make([]interface{}, 0, len(properties)*2)
	for _, k := range keys {
		keyValues = append(keyValues, k, properties[k])
	}
	logAt(level, message, keyValues...)
}

// GetCurrentLogDir returns the current timestamped log directory
func GetCurrentLogDir() string {
	if instance == nil {
		return ""
	}
	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return instance.logDir
}

// Console output for interactive runs.

// ConsoleLogger prints user-facing lines, colored when the terminal allows.
type ConsoleLogger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// New creates a console logger. Non-verbose runs print to stderr so stdout
// stays clean for --list and --checkonly output.
func New(verbose bool) *ConsoleLogger {
	out := io.Writer(color.Output)
	if !verbose {
		out = color.Error
	}
	return &ConsoleLogger{out: out, verbose: verbose}
}

func (l *ConsoleLogger) print(c *color.Color, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, v...)
	if c == nil {
		fmt.Fprintf(l.out, "[%s] %s\n", ts, msg)
		return
	}
	c.Fprintf(l.out, "[%s] %s\n", ts, msg)
}

// Printf prints a regular message.
func (l *ConsoleLogger) Printf(format string, v ...interface{}) { l.print(nil, format, v...) }

// Success prints a success message in green.
func (l *ConsoleLogger) Success(format string, v ...interface{}) {
	l.print(color.New(color.FgGreen), format, v...)
}

// Error prints an error message in red.
func (l *ConsoleLogger) Error(format string, v ...interface{}) {
	l.print(color.New(color.FgRed), format, v...)
}

// Warning prints a warning message in yellow.
func (l *ConsoleLogger) Warning(format string, v ...interface{}) {
	l.print(color.New(color.FgYellow), format, v...)
}

// Debug prints a debug message in blue, only in verbose mode.
func (l *ConsoleLogger) Debug(format string, v ...interface{}) {
	if !l.verbose {
		return
	}
	l.print(color.New(color.FgBlue), format, v...)
}

// Fatal prints an error message in red and exits.
func (l *ConsoleLogger) Fatal(format string, v ...interface{}) {
	l.Error(format, v...)
	CloseLogger()
	os.Exit(1)
}
