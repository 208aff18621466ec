// Package output provides consistent CLI output: styled status lines for
// humans and JSON/YAML envelopes for machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how structured results are rendered.
type Format int

const (
	// FormatText is human-readable output.
	FormatText Format = iota
	// FormatJSON is indented JSON.
	FormatJSON
	// FormatYAML is YAML.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "text"
	}
}

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	styles Styles
	quiet  bool
}

// New creates a Writer without color.
func New(out io.Writer) *Writer {
	return &Writer{
		out:    out,
		styles: NoColorStyles(),
	}
}

// NewStyled creates a Writer that colors status lines when color is true.
func NewStyled(out io.Writer, color bool) *Writer {
	return &Writer{
		out:    out,
		styles: GetStyles(!color),
	}
}

// SetQuiet suppresses Status, Success and Progress. Error, Plain, List
// and Encode still write.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// Status prints a status message with an optional icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if w.quiet {
		return
	}
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "%s\n", msg)
	}
}

// Success prints a success message in the accent color.
func (w *Writer) Success(msg string) {
	w.Status("", w.styles.Success.Render(msg))
}

// Error prints an error message. Not affected by quiet.
func (w *Writer) Error(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Error.Render(msg))
}

// Plain writes s verbatim, adding a trailing newline if it lacks one.
// Used for payload output such as --print; never styled or suppressed.
func (w *Writer) Plain(s string) {
	_, _ = io.WriteString(w.out, s)
	if s != "" && !strings.HasSuffix(s, "\n") {
		_, _ = io.WriteString(w.out, "\n")
	}
}

// List prints one item per line, dimming none.
func (w *Writer) List(items []string) {
	for _, item := range items {
		_, _ = fmt.Fprintln(w.out, item)
	}
}

// Progress prints an in-place progress bar with message.
func (w *Writer) Progress(current, total int, msg string) {
	if w.quiet || total <= 0 {
		return
	}

	pct := float64(current) / float64(total) * 100
	bar := w.styles.Progress.Render(renderProgressBar(current, total, 30))

	_, _ = fmt.Fprintf(w.out, "\r[%s] %.0f%% %s", bar, pct, msg)

	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

// Encode writes v as JSON or YAML. FormatText falls back to JSON.
func (w *Writer) Encode(format Format, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}
}

// renderProgressBar creates a text progress bar.
func renderProgressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
