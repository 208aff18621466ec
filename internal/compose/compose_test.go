package compose

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapResolver serves templates from memory.
type mapResolver map[string]string

func (m mapResolver) Resolve(tag string) (string, bool) {
	text, ok := m[tag]
	return text, ok
}

func TestCompose_Basic(t *testing.T) {
	r := mapResolver{
		"go":   "# Go\n*.exe\nvendor/\n",
		"rust": "/target/\n*.exe\n",
	}

	res := Compose([]string{"go", "rust"}, r)

	assert.Empty(t, res.Missing)
	assert.Equal(t, "# === go ===\n# Go\n*.exe\nvendor/\n\n# === rust ===\n/target/\n", res.Render())
	assert.Equal(t, []string{"go", "rust"}, res.Tags())
}

func TestCompose_SurvivorshipFollowsOrder(t *testing.T) {
	r := mapResolver{
		"a": "x\ny\n",
		"b": "y\nz\n",
	}

	ab := Compose([]string{"a", "b"}, r)
	assert.Equal(t, []Section{{Tag: "a", Lines: []string{"x", "y"}}, {Tag: "b", Lines: []string{"z"}}}, ab.Sections)

	ba := Compose([]string{"b", "a"}, r)
	assert.Equal(t, []Section{{Tag: "b", Lines: []string{"y", "z"}}, {Tag: "a", Lines: []string{"x"}}}, ba.Sections)
}

func TestCompose_DedupComparesTrimmed(t *testing.T) {
	r := mapResolver{
		"a": "  *.log\t\r\n",
		"b": "*.log\n  build/  \n",
	}

	res := Compose([]string{"a", "b"}, r)

	require.Len(t, res.Sections, 2)
	assert.Equal(t, []string{"  *.log\t"}, res.Sections[0].Lines, "original spacing retained")
	assert.Equal(t, []string{"  build/  "}, res.Sections[1].Lines)
}

func TestCompose_NormalizesCRLF(t *testing.T) {
	tests := []struct {
		name string
		tmpl map[string]string
		tags []string
		want string
	}{
		{
			name: "crlf only",
			tmpl: map[string]string{"a": "x\r\ny\r\n"},
			tags: []string{"a"},
			want: "# === a ===\nx\ny\n",
		},
		{
			name: "crlf dedups against lf",
			tmpl: map[string]string{"a": "bin/\r\n", "b": "bin/\nobj/\n"},
			tags: []string{"a", "b"},
			want: "# === a ===\nbin/\n\n# === b ===\nobj/\n",
		},
		{
			name: "spacing before cr kept",
			tmpl: map[string]string{"a": "  *.tmp \r\n"},
			tags: []string{"a"},
			want: "# === a ===\n  *.tmp \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compose(tt.tags, mapResolver(tt.tmpl))
			assert.Equal(t, tt.want, res.Render())
			assert.NotContains(t, res.Render(), "\r")
		})
	}
}

func TestCompose_DedupWithinTemplate(t *testing.T) {
	res := Compose([]string{"a"}, mapResolver{"a": "x\nx\n\n\nx\ny\n"})

	assert.Equal(t, "# === a ===\nx\ny\n", res.Render())
}

func TestCompose_EmptySectionsOmitted(t *testing.T) {
	r := mapResolver{
		"a":     "x\ny\n",
		"dupes": "y\n x \n",
		"blank": "  \n\t\n\n",
		"c":     "z\n",
	}

	res := Compose([]string{"a", "dupes", "blank", "c"}, r)

	assert.Equal(t, []string{"a", "c"}, res.Tags())
	assert.Equal(t, "# === a ===\nx\ny\n\n# === c ===\nz\n", res.Render())
}

func TestCompose_MissingTagDoesNotAbort(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	res := ComposeWithLogger([]string{"go", "cobol", "rust", "fortran"}, mapResolver{
		"go":   "bin/\n",
		"rust": "target/\n",
	}, logger)

	assert.Equal(t, []string{"cobol", "fortran"}, res.Missing)
	assert.Equal(t, []string{"go", "rust"}, res.Tags())
	assert.Equal(t, 2, strings.Count(buf.String(), "template not found"))
}

func TestCompose_AllMissing(t *testing.T) {
	res := ComposeWithLogger([]string{"x", "y"}, mapResolver{}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.True(t, res.Empty())
	assert.Equal(t, "", res.Render())
	assert.Equal(t, []string{"x", "y"}, res.Missing)
}

func TestCompose_Deterministic(t *testing.T) {
	r := mapResolver{
		"a": "1\n2\n3\n",
		"b": "3\n4\n",
		"c": "4\n5\n1\n",
	}
	tags := []string{"c", "a", "b"}

	assert.Equal(t, Compose(tags, r).Render(), Compose(tags, r).Render())
}

func TestCompose_DedupMonotonic(t *testing.T) {
	r := mapResolver{
		"a": "x\ny\n",
		"b": "y\nz\n",
		"c": "z\nw\n",
	}

	count := func(tags ...string) int {
		n := 0
		for _, s := range Compose(tags, r).Sections {
			n += len(s.Lines)
		}
		return n
	}

	assert.LessOrEqual(t, count("a"), count("a", "b"))
	assert.LessOrEqual(t, count("a", "b"), count("a", "b", "c"))
	assert.Equal(t, 4, count("a", "b", "c"), "each distinct line once")
}
