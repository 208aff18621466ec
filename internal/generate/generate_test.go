package generate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteowlz/ignr/internal/config"
	"github.com/byteowlz/ignr/internal/detect"
	ierrors "github.com/byteowlz/ignr/internal/errors"
	"github.com/byteowlz/ignr/internal/merge"
	"github.com/byteowlz/ignr/internal/watcher"
)

type mapResolver map[string]string

func (m mapResolver) Resolve(tag string) (string, bool) {
	text, ok := m[tag]
	return text, ok
}

var fixedNow = time.Date(2026, 10, 17, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))

func newGenerator(t *testing.T, templates mapResolver) *Generator {
	t.Helper()
	d, err := detect.New()
	require.NoError(t, err)
	return New(d, templates).WithClock(func() time.Time { return fixedNow })
}

// newRepo creates a temp directory that looks like a git checkout.
func newRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

var rustTemplates = mapResolver{
	"rust":   "/target/\nCargo.lock\n",
	"node":   "node_modules/\n*.log\n",
	"python": "__pycache__/\n*.log\n",
}

const rustBlock = "# ---- ignr (detected: rust) @ 2026-10-18 ----\n\n# === rust ===\n/target/\nCargo.lock\n"

func TestRun_WritesNewFile(t *testing.T) {
	root := newRepo(t, map[string]string{"Cargo.toml": ""})
	g := newGenerator(t, rustTemplates)

	res, err := g.Run(context.Background(), Options{Dir: root})
	require.NoError(t, err)

	assert.True(t, res.Written)
	assert.Equal(t, []string{"rust"}, res.Tags)
	assert.Equal(t, rustBlock, res.Block)
	assert.Equal(t, rustBlock, readFile(t, filepath.Join(root, TargetName)))
}

func TestRun_ReplacePreservesUserContent(t *testing.T) {
	existing := "# mine\n.env\n" +
		"# ---- ignr (detected: go) @ 2020-01-01 ----\n\nbin/\n" +
		"\n# ---- user section ----\nsecrets/\n"
	root := newRepo(t, map[string]string{"Cargo.toml": "", TargetName: existing})
	g := newGenerator(t, rustTemplates)

	_, err := g.Run(context.Background(), Options{Dir: root})
	require.NoError(t, err)

	want := "# mine\n.env\n" + rustBlock + "\n# ---- user section ----\nsecrets/\n"
	assert.Equal(t, want, readFile(t, filepath.Join(root, TargetName)))

	// A second run leaves the file unchanged.
	_, err = g.Run(context.Background(), Options{Dir: root})
	require.NoError(t, err)
	assert.Equal(t, want, readFile(t, filepath.Join(root, TargetName)))
}

func TestRun_AppendMode(t *testing.T) {
	root := newRepo(t, map[string]string{"Cargo.toml": "", TargetName: "*.tmp"})
	g := newGenerator(t, rustTemplates)

	_, err := g.Run(context.Background(), Options{Dir: root, Mode: merge.Append})
	require.NoError(t, err)

	assert.Equal(t, "*.tmp\n\n"+rustBlock, readFile(t, filepath.Join(root, TargetName)))
}

func TestRun_TagUnion(t *testing.T) {
	root := newRepo(t, map[string]string{"Cargo.toml": ""})
	g := newGenerator(t, rustTemplates)

	res, err := g.Run(context.Background(), Options{
		Dir:           root,
		Add:           []string{"Python", " node "},
		AlwaysInclude: []string{"RUST", "Zig"},
		Print:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"node", "python", "rust", "zig"}, res.Tags)
	assert.Equal(t, []string{"zig"}, res.Missing)
	assert.Contains(t, res.Block, "# ---- ignr (detected: node,python,rust,zig) @ 2026-10-18 ----\n")
	// *.log is emitted once, under node which sorts first.
	assert.Contains(t, res.Block, "# === node ===\nnode_modules/\n*.log\n")
	assert.Contains(t, res.Block, "# === python ===\n__pycache__/\n\n")
}

func TestRun_RejectsInvalidTags(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "embedded space", opts: Options{Add: []string{"foo bar"}}},
		{name: "comma", opts: Options{Add: []string{"go,rust"}}},
		{name: "path escape", opts: Options{Add: []string{"../secrets"}}},
		{name: "separator in always_include", opts: Options{AlwaysInclude: []string{"a/b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRepo(t, map[string]string{"Cargo.toml": ""})
			g := newGenerator(t, rustTemplates)
			tt.opts.Dir = root

			_, err := g.Run(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Equal(t, ierrors.ErrCodeInvalidInput, ierrors.GetCode(err))
			assert.NoFileExists(t, filepath.Join(root, TargetName))
		})
	}
}

func TestTags_ReusedGeneratorSeesIgnoreEdits(t *testing.T) {
	root := newRepo(t, map[string]string{"go.mod": "", "vendor/Cargo.toml": ""})
	g := newGenerator(t, rustTemplates)
	opts := Options{Dir: root}

	_, tags, err := g.Tags(opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, tags)

	require.NoError(t, os.WriteFile(filepath.Join(root, TargetName), []byte("vendor/\n"), 0o644))

	_, tags, err = g.Tags(opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, tags)
}

func TestRun_NotGitRepo(t *testing.T) {
	root := t.TempDir()
	g := newGenerator(t, rustTemplates)

	_, err := g.Run(context.Background(), Options{Dir: root})
	require.Error(t, err)
	assert.Equal(t, ierrors.ErrCodeNotGitRepo, ierrors.GetCode(err))
	assert.NoFileExists(t, filepath.Join(root, TargetName))
}

func TestRun_GitRepoFoundInParent(t *testing.T) {
	root := newRepo(t, map[string]string{"svc/Cargo.toml": ""})
	g := newGenerator(t, rustTemplates)

	res, err := g.Run(context.Background(), Options{Dir: filepath.Join(root, "svc")})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "svc", TargetName))
	assert.Equal(t, []string{"rust"}, res.Tags)
}

func TestRun_ForceOutsideRepo(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"), nil, 0o644))
	g := newGenerator(t, rustTemplates)

	res, err := g.Run(context.Background(), Options{Dir: root, Force: true})
	require.NoError(t, err)
	assert.True(t, res.Written)
}

func TestRun_NoTags(t *testing.T) {
	root := newRepo(t, map[string]string{"Cargo.toml": ""})
	g := newGenerator(t, rustTemplates)

	res, err := g.Run(context.Background(), Options{Dir: root, NoDetect: true})
	require.NoError(t, err)

	assert.True(t, res.Empty())
	assert.False(t, res.Written)
	assert.NoFileExists(t, filepath.Join(root, TargetName))
}

func TestRun_AllTemplatesMissing(t *testing.T) {
	root := newRepo(t, nil)
	g := newGenerator(t, mapResolver{})

	res, err := g.Run(context.Background(), Options{Dir: root, NoDetect: true, Add: []string{"cobol"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"cobol"}, res.Missing)
	assert.Equal(t, "# ---- ignr (detected: cobol) @ 2026-10-18 ----\n\n", readFile(t, filepath.Join(root, TargetName)))
}

func TestRun_DryRun(t *testing.T) {
	root := newRepo(t, map[string]string{"Cargo.toml": "", TargetName: "keep\n"})
	g := newGenerator(t, rustTemplates)

	res, err := g.Run(context.Background(), Options{Dir: root, DryRun: true})
	require.NoError(t, err)

	assert.False(t, res.Written)
	assert.Equal(t, "keep\n\n"+rustBlock, res.Content)
	assert.Equal(t, "keep\n", readFile(t, filepath.Join(root, TargetName)))
}

func TestRun_PrintSkipsTarget(t *testing.T) {
	root := newRepo(t, map[string]string{"Cargo.toml": ""})
	// An unreadable target does not matter when printing.
	require.NoError(t, os.Mkdir(filepath.Join(root, TargetName), 0o755))
	g := newGenerator(t, rustTemplates)

	res, err := g.Run(context.Background(), Options{Dir: root, Print: true})
	require.NoError(t, err)

	assert.Equal(t, rustBlock, res.Block)
	assert.Empty(t, res.Content)
	assert.False(t, res.Written)
}

func TestRun_UnreadableTarget(t *testing.T) {
	root := newRepo(t, map[string]string{"Cargo.toml": ""})
	require.NoError(t, os.Mkdir(filepath.Join(root, TargetName), 0o755))
	g := newGenerator(t, rustTemplates)

	_, err := g.Run(context.Background(), Options{Dir: root})
	require.Error(t, err)
	assert.Equal(t, ierrors.ErrCodeTargetUnreadable, ierrors.GetCode(err))
}

func TestRun_RootUnreadable(t *testing.T) {
	g := newGenerator(t, rustTemplates)

	_, err := g.Run(context.Background(), Options{
		Dir:   filepath.Join(t.TempDir(), "missing"),
		Force: true,
	})
	require.Error(t, err)
	assert.Equal(t, ierrors.ErrCodeRootUnreadable, ierrors.GetCode(err))
}

func TestRun_DepthLimitsDetection(t *testing.T) {
	root := newRepo(t, map[string]string{"a/b/Cargo.toml": ""})
	g := newGenerator(t, rustTemplates)

	shallow, err := g.Run(context.Background(), Options{Dir: root, Depth: 2, Print: true})
	require.NoError(t, err)
	assert.Empty(t, shallow.Tags)

	deep, err := g.Run(context.Background(), Options{Dir: root, Depth: 3, Print: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, deep.Tags)
}

func TestRun_WithLockDir(t *testing.T) {
	root := newRepo(t, map[string]string{"Cargo.toml": ""})
	lockDir := filepath.Join(t.TempDir(), "locks")
	g := newGenerator(t, rustTemplates)

	res, err := g.Run(context.Background(), Options{Dir: root, LockDir: lockDir})
	require.NoError(t, err)
	assert.True(t, res.Written)

	entries, err := os.ReadDir(lockDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// No temp files are left behind next to the target.
	files, err := filepath.Glob(filepath.Join(root, TargetName+".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWatch_RegeneratesOnChange(t *testing.T) {
	root := newRepo(t, map[string]string{"Cargo.toml": ""})
	g := newGenerator(t, rustTemplates)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan *Result, 8)
	done := make(chan error, 1)
	go func() {
		done <- g.Watch(ctx, Options{Dir: root}, watcher.Options{DebounceWindow: 50 * time.Millisecond},
			func(res *Result, err error) {
				if err == nil {
					runs <- res
				}
			})
	}()

	first := <-runs
	assert.Equal(t, []string{"rust"}, first.Tags)

	// Give the watcher time to register directories.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644))

	select {
	case second := <-runs:
		assert.Equal(t, []string{"node", "rust"}, second.Tags)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for regeneration")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}

	assert.Contains(t, readFile(t, filepath.Join(root, TargetName)), "# === node ===")
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Detection.MaxDepth = 4
	cfg.Detection.DetectOS = false
	cfg.Templates.AlwaysInclude = []string{"vim"}

	opts := OptionsFromConfig(cfg, config.Paths{CacheDir: "/cache"})

	assert.Equal(t, 4, opts.Depth)
	assert.Equal(t, 4, opts.Detection.Ceiling)
	assert.False(t, opts.Detection.DetectOS)
	assert.Equal(t, cfg.Detection.DetectIDE, opts.Detection.DetectIDE)
	assert.Equal(t, []string{"vim"}, opts.AlwaysInclude)
	assert.Equal(t, filepath.Join("/cache", "locks"), opts.LockDir)
}
