// Package generate runs the ignr pipeline: detect technologies, resolve
// and compose their templates, and merge the result into an ignore file.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/byteowlz/ignr/internal/compose"
	"github.com/byteowlz/ignr/internal/detect"
	ierrors "github.com/byteowlz/ignr/internal/errors"
	"github.com/byteowlz/ignr/internal/lockfile"
	"github.com/byteowlz/ignr/internal/merge"
)

// TargetName is the file written inside the project directory.
const TargetName = ".gitignore"

// Options configures a single run.
type Options struct {
	// Dir is the project directory. Empty means the working directory.
	Dir string

	// Depth is the requested detection depth (--depth).
	Depth int

	// Detection carries the configured ceiling and OS/IDE switches.
	Detection detect.Options

	// NoDetect skips the tree walk; only Add and AlwaysInclude are used.
	NoDetect bool

	// Add lists tags requested explicitly.
	Add []string

	// AlwaysInclude lists tags from configuration.
	AlwaysInclude []string

	// Force allows running outside a git repository.
	Force bool

	// Mode selects replace or append merging.
	Mode merge.Mode

	// DryRun computes everything but writes nothing.
	DryRun bool

	// Print computes the block without reading or writing the target.
	Print bool

	// LockDir holds the lock file for the target. Empty disables locking.
	LockDir string
}

// Result describes what a run produced.
type Result struct {
	// Dir is the absolute project directory.
	Dir string `json:"dir" yaml:"dir"`

	// Target is the ignore file path.
	Target string `json:"target" yaml:"target"`

	// Tags is the sorted tag list used for composition.
	Tags []string `json:"detected" yaml:"detected"`

	// Missing lists tags without a template.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`

	// Block is the managed block: header, blank line, composed body.
	Block string `json:"content" yaml:"content"`

	// Content is the full file after merging. Empty for Print runs.
	Content string `json:"-" yaml:"-"`

	// Written reports whether Target was updated.
	Written bool `json:"written" yaml:"written"`
}

// Empty reports whether no tags were found or requested.
func (r *Result) Empty() bool { return len(r.Tags) == 0 }

// Generator wires the pipeline stages together. A Generator is safe to
// reuse across runs; ignore files are re-read by every detection.
type Generator struct {
	detector *detect.Detector
	resolver compose.Resolver
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Generator.
func New(detector *detect.Detector, resolver compose.Resolver) *Generator {
	return &Generator{
		detector: detector,
		resolver: resolver,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// WithLogger sets the logger for pipeline diagnostics.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithClock overrides the header timestamp source.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	if now != nil {
		g.now = now
	}
	return g
}

// Detector returns the detector used by the generator.
func (g *Generator) Detector() *detect.Detector { return g.detector }

// Tags resolves the project directory, enforces the git check and
// returns the sorted union of detected, added and always-included tags.
func (g *Generator) Tags(opts Options) (string, []string, error) {
	dir, err := projectDir(opts.Dir)
	if err != nil {
		return "", nil, err
	}

	if err := validateTags(opts.Add, "requested"); err != nil {
		return "", nil, err
	}
	if err := validateTags(opts.AlwaysInclude, "always_include"); err != nil {
		return "", nil, err
	}

	if !opts.Force {
		if err := requireGitRepo(dir); err != nil {
			return "", nil, err
		}
	}

	tags := detect.NewTagSet()
	if !opts.NoDetect {
		detectOpts := opts.Detection
		detectOpts.MaxDepth = opts.Depth
		found, err := g.detector.Detect(dir, detectOpts)
		if err != nil {
			return "", nil, ierrors.New(ierrors.ErrCodeRootUnreadable,
				fmt.Sprintf("cannot scan %s", dir), err).
				WithSuggestion("Check the directory exists and is readable")
		}
		tags.Merge(found)
	}
	tags.Add(opts.Add...)
	tags.Add(opts.AlwaysInclude...)

	return dir, tags.Sorted(), nil
}

// validateTags rejects tags that cannot appear in the header or name a
// template file. Blank entries are ignored.
func validateTags(tags []string, origin string) error {
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		if !detect.ValidTag(tag) {
			return ierrors.ValidationError(fmt.Sprintf("invalid %s tag %q", origin, tag), nil).
				WithDetail("tag", tag).
				WithSuggestion("Tags are single words without spaces, commas or path separators")
		}
	}
	return nil
}

// Run executes the pipeline. With no tags it returns an empty Result and
// writes nothing.
func (g *Generator) Run(ctx context.Context, opts Options) (*Result, error) {
	dir, tags, err := g.Tags(opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Dir:    dir,
		Target: filepath.Join(dir, TargetName),
		Tags:   tags,
	}
	if res.Empty() {
		g.logger.Info("no technologies detected", slog.String("dir", dir))
		return res, nil
	}

	composed := compose.ComposeWithLogger(tags, g.resolver, g.logger)
	res.Missing = composed.Missing
	res.Block = merge.Block(tags, g.now(), composed.Render())

	if opts.Print {
		return res, nil
	}

	write := func() error {
		existing, hasExisting, err := readTarget(res.Target)
		if err != nil {
			return err
		}
		res.Content = merge.Merge(existing, hasExisting, res.Block, opts.Mode)
		if opts.DryRun {
			g.logger.Info("dry-run: would write ignore file",
				slog.String("path", res.Target),
				slog.String("mode", opts.Mode.String()))
			return nil
		}
		if err := writeTarget(res.Target, res.Content); err != nil {
			return err
		}
		res.Written = true
		return nil
	}

	if opts.LockDir == "" || opts.DryRun {
		err = write()
	} else {
		err = lockfile.ForTarget(opts.LockDir, res.Target).Do(ctx, write)
	}
	if err != nil {
		return nil, err
	}

	g.logger.Debug("generated ignore file",
		slog.String("path", res.Target),
		slog.Int("tags", len(tags)),
		slog.Int("missing", len(res.Missing)),
		slog.Bool("written", res.Written))
	return res, nil
}

// projectDir makes dir absolute, following symlinks when possible.
func projectDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", ierrors.New(ierrors.ErrCodeInvalidPath,
			fmt.Sprintf("invalid directory %q", dir), err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

// requireGitRepo fails unless dir or one of its parents holds .git.
func requireGitRepo(dir string) error {
	for current := dir; ; {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return ierrors.New(ierrors.ErrCodeNotGitRepo, "Not in a git repository", nil).
		WithDetail("dir", dir).
		WithSuggestion("Use --force to create .gitignore anyway")
}

// readTarget returns the current file contents. A missing file is not an
// error; anything else is.
func readTarget(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, ierrors.New(ierrors.ErrCodeTargetUnreadable,
			fmt.Sprintf("cannot read %s", path), err).
			WithSuggestion("Check the file permissions or use --print")
	}
	return string(data), true, nil
}

// writeTarget replaces path atomically via a temp file in the same dir.
func writeTarget(path, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return writeError(path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return writeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return writeError(path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return writeError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return writeError(path, err)
	}
	return nil
}

func writeError(path string, err error) error {
	return ierrors.New(ierrors.ErrCodeWriteFailed, fmt.Sprintf("cannot write %s", path), err)
}
