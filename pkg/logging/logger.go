package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
)

// NewLogger creates a new hclog logger with standard settings
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv("LANDFORGE_JSON_LOG") == "1"

	colour := hclog.ColorOff
	if f, ok := output.(*os.File); ok && !jsonFormat && isatty.IsTerminal(f.Fd()) {
		colour = hclog.ForceColor
	}

	if !jsonFormat {
		output = NewPrefixWriter("🏰 ", output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		Color:      colour,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// GetLogLevel returns the configured log level from environment
func GetLogLevel() string {
	level := os.Getenv("LANDFORGE_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	return level
}

// OrNull returns logger, or a null logger when it is nil.
func OrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
