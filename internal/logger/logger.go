// internal/logger/logger.go

package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

type Mode int

const (
	MINIMAL Mode = iota
	NORMAL
	FULL
)

var (
	levelNames = map[Level]string{
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARN",
		ERROR: "ERROR",
		FATAL: "FATAL",
	}

	levelColors = map[Level]string{
		DEBUG: "\033[36m",
		INFO:  "\033[32m",
		WARN:  "\033[33m",
		ERROR: "\033[31m",
		FATAL: "\033[35m",
	}

	resetColor = "\033[0m"
)

func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

func ParseMode(s string) Mode {
	switch strings.ToLower(s) {
	case "minimal":
		return MINIMAL
	case "full":
		return FULL
	default:
		return NORMAL
	}
}

type Logger struct {
	level      Level
	mode       Mode
	mu         sync.Mutex
	consoleOut io.Writer
	fileOut    io.Writer
	logFile    *os.File
	useColors  bool
}

type Config struct {
	Level       Level
	Mode        Mode
	LogFilePath string
	UseColors   bool
}

func New(cfg Config) (*Logger, error) {
	l := &Logger{
		level:      cfg.Level,
		mode:       cfg.Mode,
		consoleOut: os.Stdout,
		useColors:  cfg.UseColors,
	}

	if cfg.LogFilePath != "" {
		dir := filepath.Dir(cfg.LogFilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to setup log file: %w", err)
		}
		file, err := os.OpenFile(cfg.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to setup log file: %w", err)
		}
		l.logFile = file
		l.fileOut = file
	}

	return l, nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{level: FATAL, consoleOut: io.Discard}
}

func (l *Logger) Close() error {
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)

	levelStr := levelNames[level]
	coloredLevel := levelStr
	if l.useColors {
		coloredLevel = levelColors[level] + levelStr + resetColor
	}

	var consoleMsg, fileMsg string

	switch l.mode {
	case MINIMAL:
		consoleMsg = fmt.Sprintf("[%s] %s", coloredLevel, message)
		fileMsg = fmt.Sprintf("%s [%s] %s", timestamp, levelStr, message)

	case FULL:
		file, line := caller()
		location := fmt.Sprintf("%s:%d", file, line)
		consoleMsg = fmt.Sprintf("[%s] %s | %s | %s", coloredLevel, timestamp, location, message)
		fileMsg = fmt.Sprintf("%s [%s] %s | %s", timestamp, levelStr, location, message)

	default: // NORMAL
		consoleMsg = fmt.Sprintf("[%s] %s | %s", coloredLevel, timestamp, message)
		fileMsg = fmt.Sprintf("%s [%s] %s", timestamp, levelStr, message)
	}

	if l.consoleOut != nil {
		fmt.Fprintln(l.consoleOut, consoleMsg)
	}

	if l.fileOut != nil {
		fmt.Fprintln(l.fileOut, fileMsg)
	}

	if level == FATAL {
		os.Exit(1)
	}
}

func caller() (string, int) {
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return "unknown", 0
	}
	return filepath.Base(file), line
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }
func (l *Logger) Fatal(format string, args ...interface{}) { l.log(FATAL, format, args...) }

// Package-level default, for code paths that have no injected logger.
var (
	defaultMu sync.RWMutex
	defaultL  = &Logger{level: INFO, mode: NORMAL, consoleOut: os.Stdout}
)

func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultL = l
	defaultMu.Unlock()
}

func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultL
}

func Debug(format string, args ...interface{}) { Default().Debug(format, args...) }
func Info(format string, args ...interface{})  { Default().Info(format, args...) }
func Warn(format string, args ...interface{})  { Default().Warn(format, args...) }
func Error(format string, args ...interface{}) { Default().Error(format, args...) }
