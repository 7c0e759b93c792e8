package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Format string `yaml:"format" toml:"format" validate:"omitempty,oneof=json text simple compact"`
	// Output is stderr (default), stdout, or a file path. Stdout is reserved for command results.
	Output string `yaml:"output,omitempty" toml:"output,omitempty"`
}

// prefixFields are rendered as [value] before the message, in this order.
var prefixFields = []string{"component", "interface", "pass"}

// shortPass is how many characters of a pass id the compact format keeps.
const shortPass = 8

// CompactFormatter renders "[LEVEL][component][interface][pass] message (k=v, ...)".
type CompactFormatter struct {
	ShowTime bool
}

// Format renders a single log entry
func (f *CompactFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	if f.ShowTime {
		fmt.Fprintf(b, "[%s]", entry.Time.Format("15:04:05"))
	}
	fmt.Fprintf(b, "[%s]", strings.ToUpper(entry.Level.String()))

	for _, key := range prefixFields {
		v, ok := entry.Data[key]
		if !ok {
			continue
		}
		s := fmt.Sprint(v)
		if key == "pass" && len(s) > shortPass {
			s = s[:shortPass]
		}
		fmt.Fprintf(b, "[%s]", s)
	}

	b.WriteString(" ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if !isPrefixField(k) {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%v", k, entry.Data[k])
		}
		fmt.Fprintf(b, " (%s)", strings.Join(pairs, ", "))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func isPrefixField(key string) bool {
	for _, k := range prefixFields {
		if k == key {
			return true
		}
	}
	return false
}

const timestampFormat = "2006-01-02 15:04:05"

// InitLogger initializes the global logger with the provided configuration.
// Unknown levels and formats fall back to info and text with a warning.
func InitLogger(config LogConfig) {
	Logger = logrus.New()

	out, err := openOutput(config.Output)
	if err != nil {
		out = os.Stderr
		defer Logger.WithError(err).Warn("Falling back to stderr")
	}
	Logger.SetOutput(out)

	level := logrus.InfoLevel
	if config.Level != "" {
		if level, err = logrus.ParseLevel(config.Level); err != nil {
			level = logrus.InfoLevel
			defer Logger.Warnf("Invalid log level '%s', defaulting to 'info'", config.Level)
		}
	}
	Logger.SetLevel(level)

	Logger.SetFormatter(formatterFor(config.Format))
	if _, ok := formatters[strings.ToLower(config.Format)]; !ok && config.Format != "" {
		defer Logger.Warnf("Invalid log format '%s', defaulting to 'text'", config.Format)
	}

	Logger.Debugf("Logger initialized with level: %s, format: %s", level, config.Format)
}

var formatters = map[string]func() logrus.Formatter{
	"json": func() logrus.Formatter {
		return &logrus.JSONFormatter{TimestampFormat: timestampFormat}
	},
	"text": func() logrus.Formatter {
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampFormat}
	},
	"simple":  func() logrus.Formatter { return &CompactFormatter{} },
	"compact": func() logrus.Formatter { return &CompactFormatter{ShowTime: true} },
}

func formatterFor(format string) logrus.Formatter {
	if newFormatter, ok := formatters[strings.ToLower(format)]; ok {
		return newFormatter()
	}
	return formatters["text"]()
}

func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return f, nil
}

// GetLogger returns the global logger, initializing it with defaults on first use.
func GetLogger() *logrus.Logger {
	if Logger == nil {
		InitLogger(LogConfig{})
	}
	return Logger
}

// WithComponent returns an entry tagged with the emitting component.
func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}

// WithInterface returns an entry tagged with the managed interface.
func WithInterface(iface string) *logrus.Entry {
	return GetLogger().WithField("interface", iface)
}

// WithError returns an entry carrying err.
func WithError(err error) *logrus.Entry {
	return GetLogger().WithError(err)
}

// WithComponentAndInterface returns an entry tagged with the component and the managed interface.
func WithComponentAndInterface(component, iface string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"component": component,
		"interface": iface,
	})
}
