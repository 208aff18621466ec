// Package merge places a generated block into an existing ignore file.
//
// A generated block starts with a header line beginning with HeaderPrefix.
// In Replace mode the first such block is swapped for the new one; the
// block ends just before the next line that starts with Delimiter and is
// not itself a generated header, or at end of file. Everything before and
// after the block is kept byte for byte.
package merge

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Delimiter starts any section banner line.
	Delimiter = "# ----"

	// HeaderPrefix identifies a generated block.
	HeaderPrefix = "# ---- ignr (detected:"

	dateLayout = "2006-01-02"
)

// Mode selects how a block is combined with existing content.
type Mode int

const (
	// Replace swaps the previous generated block, appending if none exists.
	Replace Mode = iota
	// Append always adds the block to the end.
	Append
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Append:
		return "append"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Header returns the banner line for a block, including its newline.
// The date is rendered in UTC.
func Header(tags []string, at time.Time) string {
	return fmt.Sprintf("%s %s) @ %s ----\n", HeaderPrefix, strings.Join(tags, ","), at.UTC().Format(dateLayout))
}

// Block assembles a complete generated block: header, one blank line, body.
func Block(tags []string, at time.Time, body string) string {
	return Header(tags, at) + "\n" + body
}

// Merge combines block with existing file content. hasExisting is false
// when the target file does not exist yet, in which case block is
// returned as is.
func Merge(existing string, hasExisting bool, block string, mode Mode) string {
	if !hasExisting {
		return block
	}
	if mode == Replace {
		if start, end, ok := Locate(existing); ok {
			return existing[:start] + block + existing[end:]
		}
	}
	return appendBlock(existing, block)
}

// Locate finds the first generated block in content and returns its byte
// range. The newline that precedes the closing delimiter line stays
// outside the range so the separator before user content survives a
// replacement.
func Locate(content string) (start, end int, ok bool) {
	start = strings.Index(content, HeaderPrefix)
	if start < 0 {
		return 0, 0, false
	}

	pos := start + len(HeaderPrefix)
	for {
		idx := strings.Index(content[pos:], "\n"+Delimiter)
		if idx < 0 {
			return start, len(content), true
		}
		nl := pos + idx
		if !strings.HasPrefix(content[nl+1:], HeaderPrefix) {
			return start, nl, true
		}
		pos = nl + 1 + len(HeaderPrefix)
	}
}

// appendBlock separates the block from existing content by one blank line.
func appendBlock(existing, block string) string {
	if existing == "" {
		return block
	}
	if !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}
	return existing + "\n" + block
}
