// Package compose merges several templates into one deduplicated block.
//
// Lines are compared after trimming surrounding whitespace and each one
// is emitted at most once, under the first tag whose template contains it.
// The order of tags therefore decides which section keeps a shared line.
package compose

import (
	"log/slog"
	"strings"
)

// Resolver provides template text by tag.
type Resolver interface {
	Resolve(tag string) (string, bool)
}

// Section holds the lines one template contributed.
type Section struct {
	Tag   string
	Lines []string
}

// Result is the outcome of composing a list of tags.
type Result struct {
	Sections []Section
	// Missing lists tags no source could resolve, in request order.
	Missing []string
}

// Compose resolves tags in the given order and keeps only lines that no
// earlier template already emitted. Blank lines are dropped. Templates
// left with no new lines produce no section.
func Compose(tags []string, resolver Resolver) Result {
	return ComposeWithLogger(tags, resolver, slog.Default())
}

// ComposeWithLogger is Compose with an explicit logger for missing-template
// warnings.
func ComposeWithLogger(tags []string, resolver Resolver, logger *slog.Logger) Result {
	var res Result
	seen := make(map[string]struct{})

	for _, tag := range tags {
		text, ok := resolver.Resolve(tag)
		if !ok {
			logger.Warn("template not found", slog.String("tag", tag))
			res.Missing = append(res.Missing, tag)
			continue
		}

		var lines []string
		for _, line := range strings.Split(text, "\n") {
			// CRLF templates render with LF endings.
			line = strings.TrimSuffix(line, "\r")
			key := strings.TrimSpace(line)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			lines = append(lines, line)
		}

		if len(lines) > 0 {
			res.Sections = append(res.Sections, Section{Tag: tag, Lines: lines})
		}
	}
	return res
}

// Tags returns the tags that contributed a section.
func (r Result) Tags() []string {
	out := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		out[i] = s.Tag
	}
	return out
}

// Empty reports whether no section was produced.
func (r Result) Empty() bool { return len(r.Sections) == 0 }

// SectionHeader returns the label line introducing a tag's section.
func SectionHeader(tag string) string {
	return "# === " + tag + " ==="
}

// Render formats the sections. Each section starts with its label, every
// line ends with a newline, and sections are separated by one blank line.
func (r Result) Render() string {
	var b strings.Builder
	for i, s := range r.Sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(SectionHeader(s.Tag))
		b.WriteByte('\n')
		for _, line := range s.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
