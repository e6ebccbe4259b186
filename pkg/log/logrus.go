package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// LogFileName is the file created under the configured log directory.
	LogFileName = "swerve.log"

	// ComponentField is rendered ahead of the message instead of with the
	// trailing fields.
	ComponentField = "component"

	defaultTimestampFormat = "2006/01/02 15:04:05.000000"
)

var _ Logger = (*logrusLogger)(nil)

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger returns a Logger writing to stdout and, when logDir is set,
// appending to logDir/swerve.log. An unparsable level falls back to info.
func NewLogrusLogger(logLevel string, logDir string) (Logger, error) {
	out := io.Writer(os.Stdout)
	if logDir != "" {
		f, err := openLogFile(logDir)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(os.Stdout, f)
	}

	level, levelErr := logrus.ParseLevel(logLevel)
	if levelErr != nil {
		level = logrus.InfoLevel
	}
	l := newLogrus(out, level)
	if levelErr != nil {
		l.entry.Warnf("Unknown log level %q, using %s", logLevel, level)
	}
	return l, nil
}

// NewNopLogger returns a Logger that discards everything. Fatalf does not exit.
func NewNopLogger() Logger {
	l := newLogrus(io.Discard, logrus.PanicLevel)
	l.entry.Logger.ExitFunc = func(int) {}
	return l
}

func newLogrus(out io.Writer, level logrus.Level) *logrusLogger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&SimpleFormatter{TimestampFormat: defaultTimestampFormat})
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", dir, err)
	}
	path := filepath.Join(dir, LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
	}
	return f, nil
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

// SimpleFormatter writes one line per entry:
//
//	2025/04/06 17:30:00.000000 [INF] robot: Mode changed to teleop module=2
//
// The component field, when present, prefixes the message. Other fields
// follow it sorted by key.
type SimpleFormatter struct {
	TimestampFormat string
}

// Format implements logrus.Formatter.
func (f *SimpleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	b.WriteString(entry.Time.Format(tsFormat))
	fmt.Fprintf(b, " [%s] ", levelTag(entry.Level))

	if c, ok := entry.Data[ComponentField]; ok {
		fmt.Fprintf(b, "%v: ", c)
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != ComponentField {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// levelTag returns the three letter tag for a level, e.g. WAR for warning.
func levelTag(level logrus.Level) string {
	tag := strings.ToUpper(level.String())
	if len(tag) > 3 {
		tag = tag[:3]
	}
	return tag
}
