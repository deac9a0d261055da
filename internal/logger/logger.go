package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

// String returns the upper case level name.
func (l Level) String() string {
	if l < TRACE || int(l) >= len(levelNames) {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText makes JSON entries carry the level name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Component names the part of the engine an entry comes from.
type Component string

const (
	ComponentApp        Component = "app"
	ComponentDownloader Component = "downloader"
	ComponentPlayerCode Component = "playercode"
	ComponentCipher     Component = "cipher"
	ComponentPlayer     Component = "player"
	ComponentDash       Component = "dash"
	ComponentJavaScript Component = "javascript"
)

// Components lists every known component.
var Components = []Component{
	ComponentApp,
	ComponentDownloader,
	ComponentPlayerCode,
	ComponentCipher,
	ComponentPlayer,
	ComponentDash,
	ComponentJavaScript,
}

// Format represents the log output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatColor
)

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	Components map[Component]bool
	ShowCaller bool
	Timestamp  bool
}

// DefaultConfig logs INFO and above from the app component to stdout.
func DefaultConfig() *Config {
	components := make(map[Component]bool, len(Components))
	for _, c := range Components {
		components[c] = c == ComponentApp
	}
	return &Config{
		Level:      INFO,
		Format:     FormatText,
		Output:     os.Stdout,
		Components: components,
	}
}

// Entry represents a single log entry
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     Level                  `json:"level"`
	Component Component              `json:"component"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// Logger writes entries of enabled components at or above its level.
type Logger struct {
	config  *Config
	mu      sync.RWMutex
	writeMu sync.Mutex
}

// New creates a logger; a nil config means DefaultConfig.
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Components == nil {
		config.Components = make(map[Component]bool)
	}
	return &Logger{config: config}
}

// WithComponent returns a logger that tags entries with component.
func (l *Logger) WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

// SetLevel changes the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

// SetFormat changes the log format
func (l *Logger) SetFormat(format Format) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Format = format
}

// SetOutput changes the log output
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Output = w
}

// EnableComponent enables logging for a specific component
func (l *Logger) EnableComponent(component Component) {
	l.setComponent(component, true)
}

// DisableComponent disables logging for a specific component
func (l *Logger) DisableComponent(component Component) {
	l.setComponent(component, false)
}

func (l *Logger) setComponent(component Component, on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = on
}

func (l *Logger) enabled(level Level, component Component) bool {
	return level >= l.config.Level && l.config.Components[component]
}

// emit is called through exactly two ComponentLogger frames.
func (l *Logger) emit(level Level, component Component, message string, fields map[string]interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.enabled(level, component) {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Component: component,
		Message:   message,
		Fields:    fields,
	}
	if l.config.ShowCaller {
		entry.Caller = callerOf(4)
	}

	var line string
	switch l.config.Format {
	case FormatJSON:
		data, err := json.Marshal(entry)
		if err != nil {
			data = []byte(fmt.Sprintf(`{"level":%q,"message":%q,"error":%q}`, level, message, err.Error()))
		}
		line = string(data)
	case FormatColor:
		line = render(entry, l.config.Timestamp, colored)
	default:
		line = render(entry, l.config.Timestamp, plain)
	}

	l.writeMu.Lock()
	fmt.Fprintln(l.config.Output, line)
	l.writeMu.Unlock()
}

// style wraps the parts of a rendered line.
type style struct {
	timestamp, component, caller, key, value func(string) string
	level                                    func(Level, string) string
}

func identity(s string) string { return s }

var plain = style{
	timestamp: identity,
	component: identity,
	caller:    identity,
	key:       identity,
	value:     identity,
	level:     func(_ Level, s string) string { return s },
}

func ansi(code string) func(string) string {
	return func(s string) string { return "\033[" + code + "m" + s + "\033[0m" }
}

var levelColors = map[Level]string{
	TRACE: "37",
	DEBUG: "94",
	INFO:  "92",
	WARN:  "93",
	ERROR: "91",
}

var colored = style{
	timestamp: ansi("90"),
	component: ansi("36"),
	caller:    ansi("90"),
	key:       ansi("33"),
	value:     ansi("32"),
	level: func(l Level, s string) string {
		code, ok := levelColors[l]
		if !ok {
			return s
		}
		return ansi(code)(s)
	},
}

func render(entry Entry, timestamp bool, st style) string {
	parts := make([]string, 0, 6)
	if timestamp {
		parts = append(parts, st.timestamp(entry.Timestamp.Format("2006-01-02 15:04:05")))
	}
	parts = append(parts,
		st.level(entry.Level, "["+entry.Level.String()+"]"),
		st.component("["+string(entry.Component)+"]"),
		entry.Message)
	if entry.Caller != "" {
		parts = append(parts, st.caller("("+entry.Caller+")"))
	}
	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, st.key(k)+"="+st.value(fmt.Sprint(entry.Fields[k])))
		}
	}
	return strings.Join(parts, " ")
}

// callerOf returns file:line of the frame skip levels above it.
func callerOf(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// ComponentLogger logs for one component, optionally with bound fields.
type ComponentLogger struct {
	logger    *Logger
	component Component
	fields    map[string]interface{}
}

// With returns a copy that adds fields to every entry.
func (cl *ComponentLogger) With(fields map[string]interface{}) *ComponentLogger {
	return &ComponentLogger{logger: cl.logger, component: cl.component, fields: merge(cl.fields, fields)}
}

// Enabled reports whether messages at level would be written.
func (cl *ComponentLogger) Enabled(level Level) bool {
	cl.logger.mu.RLock()
	defer cl.logger.mu.RUnlock()
	return cl.logger.enabled(level, cl.component)
}

func (cl *ComponentLogger) Trace(message string, fields ...map[string]interface{}) {
	cl.log(TRACE, message, fields)
}

func (cl *ComponentLogger) Debug(message string, fields ...map[string]interface{}) {
	cl.log(DEBUG, message, fields)
}

func (cl *ComponentLogger) Info(message string, fields ...map[string]interface{}) {
	cl.log(INFO, message, fields)
}

func (cl *ComponentLogger) Warn(message string, fields ...map[string]interface{}) {
	cl.log(WARN, message, fields)
}

func (cl *ComponentLogger) Error(message string, fields ...map[string]interface{}) {
	cl.log(ERROR, message, fields)
}

func (cl *ComponentLogger) log(level Level, message string, fields []map[string]interface{}) {
	merged := cl.fields
	for _, f := range fields {
		merged = merge(merged, f)
	}
	cl.logger.emit(level, cl.component, message, merged)
}

// merge returns a new map with b's keys over a's; the inputs are not
// modified.
func merge(a, b map[string]interface{}) map[string]interface{} {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	config := DefaultConfig()
	config.Output = io.Discard
	config.Level = ERROR + 1
	return New(config)
}

var (
	globalMu     sync.RWMutex
	globalLogger = New(DefaultConfig())
)

// SetGlobalLogger replaces the logger used by WithComponent.
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// WithComponent returns a component logger from global logger
func WithComponent(component Component) *ComponentLogger {
	return GetGlobalLogger().WithComponent(component)
}
