// Package log tags slog output with the component that wrote it and
// carries a request-scoped logger through HTTP handlers.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a slog.Logger bound to one component.
type Logger struct {
	*slog.Logger
	base      *slog.Logger // without the component attribute
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	// JSON selects the JSON handler instead of text.
	JSON bool
	// Output defaults to stdout.
	Output io.Writer
	// Handler, when set, replaces Level, JSON and Output.
	Handler slog.Handler
}

// New returns a logger whose records carry component=config.Component
// (ComponentApp when empty).
func New(config Config) *Logger {
	h := config.Handler
	if h == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: config.Level}
		if config.JSON {
			h = slog.NewJSONHandler(out, opts)
		} else {
			h = slog.NewTextHandler(out, opts)
		}
	}
	if config.Component == "" {
		config.Component = ComponentApp
	}
	return wrap(slog.New(h), config.Component)
}

func wrap(l *slog.Logger, component string) *Logger {
	return &Logger{Logger: l.With(FieldComponent, component), base: l, component: component}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), base: l.base.With(args...), component: l.component}
}

// WithComponent returns a logger for another component sharing l's handler
// and attributes.
func (l *Logger) WithComponent(component string) *Logger {
	return wrap(l.base, component)
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs logger as the slog default, so package-level slog
// calls in services and workers share its handler.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
