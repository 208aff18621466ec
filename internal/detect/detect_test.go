package detect

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (and their parent directories) under root.
// Entries ending in "/" are created as empty directories.
func writeTree(t *testing.T, root string, entries map[string]string) {
	t.Helper()
	for rel, content := range entries {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func noHost() Options {
	return Options{MaxDepth: 10, Ceiling: 10}
}

// =============================================================================
// Manifests and Extensions
// =============================================================================

func TestDetect_Manifests(t *testing.T) {
	tests := []struct {
		file string
		want []string
	}{
		{file: "Cargo.toml", want: []string{"rust"}},
		{file: "package.json", want: []string{"node"}},
		{file: "uv.lock", want: []string{"python"}},
		{file: "go.sum", want: []string{"go"}},
		{file: "pom.xml", want: []string{"java"}},
		{file: "Makefile", want: []string{"cpp"}},
		{file: "Rakefile", want: []string{"ruby"}},
		{file: "cabal.project", want: []string{"haskell"}},
		{file: "pubspec.yaml", want: []string{"dart"}},
		{file: "terraform.tf", want: []string{"terraform"}},
		{file: "ansible.cfg", want: []string{"ansible"}},
		{file: "docker-compose.yaml", want: []string{"docker"}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, map[string]string{tt.file: ""})

			tags, err := Detect(root, noHost())
			require.NoError(t, err)
			assert.Equal(t, tt.want, tags.Sorted())
		})
	}
}

func TestDetect_Extensions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/main.rs":      "",
		"scripts/tool.pyi": "",
		"web/app.tsx":      "",
		"App.csproj":       "",
		"lib/util.hxx":     "",
		"Main.kt":          "",
		"notes.txt":        "",
		".bashrc":          "",
	})

	tags, err := Detect(root, noHost())
	require.NoError(t, err)

	assert.Equal(t, []string{"cpp", "csharp", "kotlin", "node", "python", "rust"}, tags.Sorted())
}

func TestDetect_ExtensionIsCaseSensitive(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"MAIN.RS": ""})

	tags, err := Detect(root, noHost())
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestDetect_GradleKtsHeuristic(t *testing.T) {
	t.Run("path mentions the language", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{"kotlin/app/build.gradle.kts": ""})

		tags, err := Detect(root, noHost())
		require.NoError(t, err)
		assert.Equal(t, []string{"java", "kotlin"}, tags.Sorted())
	})

	t.Run("plain gradle project", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{"app/build.gradle.kts": ""})

		tags, err := Detect(root, noHost())
		require.NoError(t, err)
		assert.Equal(t, []string{"java"}, tags.Sorted())
	})
}

// =============================================================================
// Editors and Host OS
// =============================================================================

func TestDetect_IDEDirectories(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".vscode/":   "",
		".idea/":     "",
		".nvim/":     "",
		".emacs.d/":  "",
		"misc/.vim":  "a file, not a directory",
		"pkg/lib.go": "",
	})

	t.Run("enabled", func(t *testing.T) {
		opts := noHost()
		opts.DetectIDE = true

		tags, err := Detect(root, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"emacs", "go", "intellij", "vim", "vscode"}, tags.Sorted())
	})

	t.Run("disabled", func(t *testing.T) {
		tags, err := Detect(root, noHost())
		require.NoError(t, err)
		assert.Equal(t, []string{"go"}, tags.Sorted())
	})
}

func TestDetect_HostOS(t *testing.T) {
	want, known := osTags[runtime.GOOS]
	if !known {
		t.Skip("no OS tag for this platform")
	}

	root := t.TempDir()
	opts := noHost()
	opts.DetectOS = true

	tags, err := Detect(root, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{want}, tags.Sorted())

	opts.DetectOS = false
	tags, err = Detect(root, opts)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

// =============================================================================
// Traversal
// =============================================================================

func TestDetect_DepthLimit(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Cargo.toml":          "",
		"a/package.json":      "",
		"a/b/go.mod":          "",
		"a/b/c/Gemfile":       "",
		"a/b/c/d/mix.exs":     "",
		"a/b/c/d/e/build.zig": "",
	})

	tests := []struct {
		name    string
		depth   int
		ceiling int
		want    []string
	}{
		{name: "direct children only", depth: 1, ceiling: 10, want: []string{"rust"}},
		{name: "two levels", depth: 2, ceiling: 10, want: []string{"node", "rust"}},
		{name: "ceiling clamps request", depth: 10, ceiling: 3, want: []string{"go", "node", "rust"}},
		{name: "request below ceiling", depth: 4, ceiling: 10, want: []string{"go", "node", "ruby", "rust"}},
		{name: "unset depth uses ceiling", depth: 0, ceiling: 0, want: []string{"elixir", "go", "node", "ruby", "rust", "zig"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags, err := Detect(root, Options{MaxDepth: tt.depth, Ceiling: tt.ceiling})
			require.NoError(t, err)
			assert.Equal(t, tt.want, tags.Sorted())
		})
	}
}

func TestDetect_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":                  "node_modules/\n*.py\n",
		"node_modules/pkg/index.js":   "",
		"node_modules/pkg/Cargo.toml": "",
		"tool.py":                     "",
		"main.go":                     "",
		"web/.gitignore":              "!keep.py\nbuild/\n",
		"web/keep.py":                 "",
		"web/build/App.java":          "",
	})

	tags, err := Detect(root, noHost())
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "python"}, tags.Sorted())
}

func TestDetect_RespectsInfoExclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".git/info/exclude":        "scratch/\n",
		".git/config":              "",
		".git/hooks/pre-commit.rb": "",
		"scratch/test.rb":          "",
		"main.go":                  "",
	})

	tags, err := Detect(root, noHost())
	require.NoError(t, err)

	assert.Equal(t, []string{"go"}, tags.Sorted(), ".git is never entered")
}

func TestDetect_IncludesHiddenEntries(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{".config/tool/settings.py": ""})

	tags, err := Detect(root, noHost())
	require.NoError(t, err)
	assert.True(t, tags.Has("python"))
}

func TestDetect_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Dockerfile":    "",
		"api/main.go":   "",
		"web/index.tsx": "",
		".vscode/":      "",
	})

	d, err := New()
	require.NoError(t, err)

	opts := Options{DetectIDE: true, DetectOS: true}
	first, err := d.Detect(root, opts)
	require.NoError(t, err)
	second, err := d.Detect(root, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Sorted(), second.Sorted())
}

func TestDetector_InvalidateCache(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.go": "", "tool.py": ""})

	d, err := New()
	require.NoError(t, err)

	tags, err := d.Detect(root, noHost())
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "python"}, tags.Sorted())

	writeTree(t, root, map[string]string{".gitignore": "*.py\n"})
	d.InvalidateCache()

	tags, err = d.Detect(root, noHost())
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, tags.Sorted())
}

func TestDetect_RereadsIgnoreFilesEachCall(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"go.mod":            "",
		"vendor/Cargo.toml": "",
	})

	d, err := New()
	require.NoError(t, err)

	tags, err := d.Detect(root, noHost())
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, tags.Sorted())

	// Both the root and vendor/ were cached as having no ignore file.
	writeTree(t, root, map[string]string{".gitignore": "vendor/\n"})

	tags, err = d.Detect(root, noHost())
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, tags.Sorted())

	require.NoError(t, os.Remove(filepath.Join(root, ".gitignore")))

	tags, err = d.Detect(root, noHost())
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, tags.Sorted())
}

func TestDetect_RootErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := Detect(filepath.Join(t.TempDir(), "missing"), noHost())

		var rootErr *RootError
		require.ErrorAs(t, err, &rootErr)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("root is a file", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{"file.txt": ""})

		_, err := Detect(filepath.Join(root, "file.txt"), noHost())

		var rootErr *RootError
		assert.ErrorAs(t, err, &rootErr)
	})
}

// =============================================================================
// TagSet
// =============================================================================

func TestTagSet(t *testing.T) {
	s := NewTagSet("Go", " rust ", "")
	s.Add("GO", "python")
	s.Merge(NewTagSet("zig"))

	assert.Equal(t, []string{"go", "python", "rust", "zig"}, s.Sorted())
	assert.True(t, s.Has("Rust"))
	assert.False(t, s.Has("java"))
}

func TestValidTag(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{tag: "go", want: true},
		{tag: "c++", want: true},
		{tag: "visualstudiocode", want: true},
		{tag: " Rust ", want: true},
		{tag: "", want: false},
		{tag: "   ", want: false},
		{tag: "foo bar", want: false},
		{tag: "foo\tbar", want: false},
		{tag: "go,rust", want: false},
		{tag: "../etc/passwd", want: false},
		{tag: "a/b", want: false},
		{tag: `a\b`, want: false},
		{tag: "..", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTag(tt.tag))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "rs", extension("main.rs"))
	assert.Equal(t, "gz", extension("a.tar.gz"))
	assert.Equal(t, "", extension(".bashrc"))
	assert.Equal(t, "", extension("Makefile"))
}

func TestDetector_PathIgnored(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":     "build/\n*.log\n",
		"sub/.gitignore": "local.txt\n",
		"sub/local.txt":  "",
	})

	d, err := New()
	require.NoError(t, err)

	tests := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{rel: ".git", isDir: true, want: true},
		{rel: ".git/index", want: true},
		{rel: "build", isDir: true, want: true},
		{rel: "build/out/main.rs", want: true},
		{rel: "debug.log", want: true},
		{rel: "sub/local.txt", want: true},
		{rel: "local.txt", want: false},
		{rel: "src/main.rs", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, d.PathIgnored(root, tt.rel, tt.isDir))
		})
	}
}
