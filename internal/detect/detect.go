package detect

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/byteowlz/ignr/internal/gitignore"
)

// matcherCacheSize bounds the number of parsed ignore files kept in memory.
const matcherCacheSize = 1000

// hostOSTag is resolved once per process.
var hostOSTag = osTags[runtime.GOOS]

// Detector walks directory trees and reports technology tags.
// A Detector may be reused; parsed ignore files are cached per directory
// until InvalidateCache is called.
type Detector struct {
	matchers *lru.Cache[string, *gitignore.Matcher]
	mu       sync.Mutex
	logger   *slog.Logger
}

// New creates a Detector.
func New() (*Detector, error) {
	cache, err := lru.New[string, *gitignore.Matcher](matcherCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ignore matcher cache: %w", err)
	}
	return &Detector{matchers: cache, logger: slog.Default()}, nil
}

// WithLogger sets the logger used for skipped-entry diagnostics.
func (d *Detector) WithLogger(logger *slog.Logger) *Detector {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// Detect is a convenience wrapper that runs a fresh Detector once.
func Detect(root string, opts Options) (TagSet, error) {
	d, err := New()
	if err != nil {
		return nil, err
	}
	return d.Detect(root, opts)
}

// Detect walks root and returns the tags implied by what it finds.
//
// Entries excluded by .gitignore files (root and nested) or by
// .git/info/exclude are skipped, hidden entries are included, and the
// .git directory is never entered. Unreadable entries below the root are
// skipped. Only a root that cannot be opened produces an error.
//
// Ignore files are read fresh on every call; the matcher cache only
// spans a single walk.
func (d *Detector) Detect(root string, opts Options) (TagSet, error) {
	d.InvalidateCache()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &RootError{Path: root, Err: err}
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &RootError{Path: absRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &RootError{Path: absRoot, Err: errors.New("not a directory")}
	}
	if _, err := os.ReadDir(absRoot); err != nil {
		return nil, &RootError{Path: absRoot, Err: err}
	}

	tags := NewTagSet()
	maxDepth := opts.effectiveDepth()
	exclude := d.excludeMatcher(absRoot)

	walkErr := filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, err error) error {
		if path == absRoot {
			return nil
		}
		if err != nil {
			d.logger.Debug("skipping unreadable entry",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/") + 1
		isDir := entry.IsDir()

		if isDir && entry.Name() == ".git" {
			return filepath.SkipDir
		}
		if d.ignored(absRoot, rel, isDir, exclude) {
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}

		classify(tags, entry.Name(), path, isDir, opts.DetectIDE)

		if isDir && depth >= maxDepth {
			return filepath.SkipDir
		}
		return nil
	})
	if walkErr != nil {
		return nil, &RootError{Path: absRoot, Err: walkErr}
	}

	if opts.DetectOS && hostOSTag != "" {
		tags.Add(hostOSTag)
	}

	d.logger.Debug("detection complete",
		slog.String("root", absRoot),
		slog.Int("max_depth", maxDepth),
		slog.Int("tags", len(tags)))

	return tags, nil
}

// InvalidateCache drops every cached ignore matcher. Detect calls it
// before each walk; PathIgnored callers use it when .gitignore files
// may have changed.
func (d *Detector) InvalidateCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.matchers.Purge()
}

// classify applies the lookup tables to a single entry.
func classify(tags TagSet, name, path string, isDir, detectIDE bool) {
	if mapped, ok := manifestTags[name]; ok {
		tags.Add(mapped...)
		if name == kotlinManifest && strings.Contains(path, "kotlin") {
			tags.Add("kotlin")
		}
	}

	if tag, ok := extensionTags[extension(name)]; ok {
		tags.Add(tag)
	}

	if detectIDE && isDir {
		if tag, ok := ideTags[name]; ok {
			tags.Add(tag)
		}
	}
}

// extension returns the text after the last dot. Names whose only dot is
// the leading one (".bashrc") have no extension.
func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i+1:]
}

// ignored consults .git/info/exclude and every .gitignore from the root
// down to the entry's parent directory.
func (d *Detector) ignored(absRoot, rel string, isDir bool, exclude *gitignore.Matcher) bool {
	stack := gitignore.Stack{exclude, d.matcherFor(absRoot, "")}

	dir := rel
	var bases []string
	for {
		idx := strings.LastIndexByte(dir, '/')
		if idx < 0 {
			break
		}
		dir = dir[:idx]
		bases = append(bases, dir)
	}
	for i := len(bases) - 1; i >= 0; i-- {
		stack = append(stack, d.matcherFor(filepath.Join(absRoot, filepath.FromSlash(bases[i])), bases[i]))
	}

	return stack.Ignored(rel, isDir)
}

// matcherFor returns the parsed .gitignore of dir, or nil when it has none.
// Absence is cached too.
func (d *Detector) matcherFor(dir, base string) *gitignore.Matcher {
	d.mu.Lock()
	m, ok := d.matchers.Get(dir)
	d.mu.Unlock()
	if ok {
		return m
	}

	m, err := gitignore.Load(filepath.Join(dir, ".gitignore"), base)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.logger.Debug("skipping unreadable .gitignore",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
		}
		m = nil
	}

	d.mu.Lock()
	d.matchers.Add(dir, m)
	d.mu.Unlock()
	return m
}

// excludeMatcher loads .git/info/exclude when the root is a repository.
func (d *Detector) excludeMatcher(absRoot string) *gitignore.Matcher {
	m, err := gitignore.Load(filepath.Join(absRoot, ".git", "info", "exclude"), "")
	if err != nil {
		return nil
	}
	return m
}

// RootError reports that the traversal root could not be opened.
type RootError struct {
	Path string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Path, e.Err)
}

func (e *RootError) Unwrap() error { return e.Err }

// PathIgnored reports whether rel (slash-separated, relative to root) or
// any of its parent directories is excluded by the ignore files Detect
// would honor. Used to filter file-system events.
func (d *Detector) PathIgnored(root, rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	if rel == ".git" || strings.HasPrefix(rel, ".git/") {
		return true
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}

	stack := gitignore.Stack{d.excludeMatcher(absRoot), d.matcherFor(absRoot, "")}
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		base := strings.Join(parts[:i], "/")
		stack = append(stack, d.matcherFor(filepath.Join(absRoot, filepath.FromSlash(base)), base))
	}
	return stack.PathIgnored(rel, isDir)
}
