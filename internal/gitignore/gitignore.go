package gitignore

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
)

// Verdict is the outcome of matching one path against a rule set.
type Verdict int

const (
	// NoMatch means no rule in the set mentions the path.
	NoMatch Verdict = iota
	// Ignore means the last matching rule excludes the path.
	Ignore
	// Include means the last matching rule is a negation ("!pattern").
	Include
)

// Matcher holds the compiled rules of a single ignore file.
type Matcher struct {
	base  string
	rules []rule
}

type rule struct {
	source   string
	regex    *regexp.Regexp
	negate   bool
	dirOnly  bool
	anchored bool
}

// New creates an empty Matcher whose rules apply below base.
// An empty base means the walk root.
func New(base string) *Matcher {
	return &Matcher{base: strings.Trim(base, "/")}
}

// Parse compiles every rule found in content.
func Parse(content, base string) *Matcher {
	m := New(base)
	for _, line := range strings.Split(content, "\n") {
		m.Add(line)
	}
	return m
}

// Load reads and compiles an ignore file.
func Load(file, base string) (*Matcher, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore file: %w", err)
	}

	m := New(base)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		m.Add(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse ignore file %s: %w", file, err)
	}
	return m, nil
}

// Base returns the directory the rules are scoped to.
func (m *Matcher) Base() string { return m.base }

// Len returns the number of compiled rules.
func (m *Matcher) Len() int { return len(m.rules) }

// Add compiles a single line. Blank lines and comments are skipped.
func (m *Matcher) Add(line string) {
	line = trimTrailingSpace(strings.TrimSuffix(line, "\r"))
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	r := rule{source: line}
	switch {
	case strings.HasPrefix(line, `\#`), strings.HasPrefix(line, `\!`):
		line = line[1:]
	case strings.HasPrefix(line, "!"):
		r.negate = true
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if line == "" {
		return
	}

	// A slash anywhere but the end ties the pattern to the base directory.
	if strings.Contains(line, "/") {
		r.anchored = true
		line = strings.TrimPrefix(line, "/")
	}

	re, err := regexp.Compile("^" + translate(line) + "$")
	if err != nil {
		return
	}
	r.regex = re
	m.rules = append(m.rules, r)
}

// Verdict reports what the rules say about rel, a root-relative path.
// Paths outside the matcher's base always yield NoMatch.
func (m *Matcher) Verdict(rel string, isDir bool) Verdict {
	rel = strings.Trim(rel, "/")
	if m.base != "" {
		if !strings.HasPrefix(rel, m.base+"/") {
			return NoMatch
		}
		rel = rel[len(m.base)+1:]
	}
	if rel == "" {
		return NoMatch
	}

	name := path.Base(rel)
	verdict := NoMatch
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		subject := name
		if r.anchored {
			subject = rel
		}
		if !r.regex.MatchString(subject) {
			continue
		}
		if r.negate {
			verdict = Include
		} else {
			verdict = Ignore
		}
	}
	return verdict
}

// Ignored is shorthand for Verdict(rel, isDir) == Ignore.
func (m *Matcher) Ignored(rel string, isDir bool) bool {
	return m.Verdict(rel, isDir) == Ignore
}

// Stack combines matchers from the outermost directory inwards.
// Nil entries are allowed and skipped.
type Stack []*Matcher

// Ignored evaluates rel against every matcher. A decision from a deeper
// matcher overrides a shallower one. Only rel itself is checked; callers
// walking a tree are expected to prune ignored directories.
func (s Stack) Ignored(rel string, isDir bool) bool {
	verdict := NoMatch
	for _, m := range s {
		if m == nil {
			continue
		}
		if v := m.Verdict(rel, isDir); v != NoMatch {
			verdict = v
		}
	}
	return verdict == Ignore
}

// PathIgnored is like Ignored but also reports true when any parent
// directory of rel is ignored, since git never looks inside those.
func (s Stack) PathIgnored(rel string, isDir bool) bool {
	rel = strings.Trim(rel, "/")
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if s.Ignored(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return s.Ignored(rel, isDir)
}

func trimTrailingSpace(s string) string {
	for strings.HasSuffix(s, " ") {
		if strings.HasSuffix(s, `\ `) {
			return s
		}
		s = s[:len(s)-1]
	}
	return s
}

// translate turns a glob into an unanchored regular expression body.
func translate(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' && (i == 0 || glob[i-1] == '/') {
				switch {
				case i+2 == len(glob):
					b.WriteString(".*")
					i++
					continue
				case glob[i+2] == '/':
					b.WriteString("(?:.*/)?")
					i += 2
					continue
				}
			}
			for i+1 < len(glob) && glob[i+1] == '*' {
				i++
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if class == "" {
				b.WriteString(`\[`)
				continue
			}
			if class[0] == '!' {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(string(glob[i])))
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}
