package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LevelTrace is below slog.LevelDebug and enables source locations.
const LevelTrace = slog.Level(-8)

// Options describes how the logger should be built.
type Options struct {
	// Quiet limits stderr output to errors.
	Quiet bool
	// Verbose raises the level: 1 info, 2 debug, 3+ trace.
	Verbose int
	// Debug forces debug level.
	Debug bool
	// Trace forces trace level.
	Trace bool

	// Color colors the level names on stderr.
	Color bool

	// FilePath enables a rotating JSON log file. Empty means none.
	FilePath string
	// MaxSizeMB is the rotation threshold (default 10).
	MaxSizeMB int
	// MaxFiles is the number of rotated files kept (default 5).
	MaxFiles int

	// Stderr overrides the terminal sink, mainly for tests.
	Stderr io.Writer
}

// Level maps the verbosity flags to a slog level. Default is warn.
func Level(opts Options) slog.Level {
	switch {
	case opts.Trace:
		return LevelTrace
	case opts.Debug:
		return slog.LevelDebug
	case opts.Quiet:
		return slog.LevelError
	}
	switch {
	case opts.Verbose >= 3:
		return LevelTrace
	case opts.Verbose == 2:
		return slog.LevelDebug
	case opts.Verbose == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Setup builds the logger and returns it with a cleanup function that
// flushes and closes the log file, if any.
func Setup(opts Options) (*slog.Logger, func(), error) {
	level := Level(opts)
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level:       level,
			AddSource:   level <= LevelTrace,
			ReplaceAttr: levelNames(opts.Color),
		}),
	}
	cleanup := func() {}

	if opts.FilePath != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		maxFiles := opts.MaxFiles
		if maxFiles <= 0 {
			maxFiles = 5
		}
		writer, err := NewRotatingWriter(opts.FilePath, maxSize, maxFiles)
		if err != nil {
			return nil, nil, err
		}
		fileLevel := level
		if fileLevel > slog.LevelInfo {
			fileLevel = slog.LevelInfo
		}
		handlers = append(handlers, slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:       fileLevel,
			ReplaceAttr: levelNames(false),
		}))
		cleanup = func() {
			_ = writer.Sync()
			_ = writer.Close()
		}
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), cleanup, nil
	}
	return slog.New(fanout(handlers)), cleanup, nil
}

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var levelStyles = map[slog.Level]lipgloss.Style{
	LevelTrace:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	slog.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	slog.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("154")),
	slog.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	slog.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
}

// levelNames names LevelTrace and optionally colors level values.
func levelNames(color bool) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 || a.Key != slog.LevelKey {
			return a
		}
		level, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		name := level.String()
		if level == LevelTrace {
			name = "TRACE"
		}
		if color {
			if style, ok := levelStyles[level]; ok {
				name = style.Render(name)
			}
		}
		return slog.String(slog.LevelKey, name)
	}
}

// fanout sends every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
