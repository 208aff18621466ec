package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/byteowlz/ignr/internal/errors"
)

// testEnv points every XDG location at temp directories.
type testEnv struct {
	configFile   string
	templatesDir string
}

func isolate(t *testing.T) testEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))
	t.Setenv("IGNR_DETECTION__DETECT_OS", "false")
	t.Setenv("IGNR_DETECTION__DETECT_IDE", "false")
	return testEnv{
		configFile:   filepath.Join(base, "config", "ignr", "config.yaml"),
		templatesDir: filepath.Join(base, "data", "ignr", "templates"),
	}
}

// execute runs the CLI and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// newRepo creates a directory that looks like a git checkout.
func newRepo(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	return root
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sc := range cmd.Commands() {
		names[sc.Name()] = true
	}
	for _, want := range []string{"generate", "list", "sync", "init", "config", "completion", "version", "mcp"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestRootCmd_GenerateAliases(t *testing.T) {
	cmd := NewRootCmd()

	for _, alias := range []string{"gen", "g"} {
		found, _, err := cmd.Find([]string{alias})
		require.NoError(t, err)
		assert.Equal(t, "generate", found.Name())
	}
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "ignr")
	assert.Contains(t, out, "generate")
}

func TestRootCmd_FirstRunWritesConfigAndSeeds(t *testing.T) {
	env := isolate(t)

	_, _, err := execute(t, "list")
	require.NoError(t, err)

	assert.FileExists(t, env.configFile)
	assert.FileExists(t, filepath.Join(env.templatesDir, "rust.gitignore"))
}

func TestRootCmd_DryRunSkipsFirstRun(t *testing.T) {
	env := isolate(t)

	_, _, err := execute(t, "--dry-run", "list")
	require.NoError(t, err)

	assert.NoFileExists(t, env.configFile)
	assert.NoDirExists(t, env.templatesDir)
}

func TestRootCmd_FlagValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "json and yaml", args: []string{"--json", "--yaml", "list"}},
		{name: "bad color mode", args: []string{"--color", "sometimes", "list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ierrors.ErrCodeInvalidInput, ierrors.GetCode(err))
		})
	}
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	env := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(env.configFile), 0o755))
	require.NoError(t, os.WriteFile(env.configFile, []byte("detection:\n  max_depth: 0\n"), 0o644))

	_, _, err := execute(t, "list")
	require.Error(t, err)
	assert.Equal(t, ierrors.ErrCodeConfigInvalid, ierrors.GetCode(err))
}

func TestRootCmd_ConfigFlagDirectory(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	out, _, err := execute(t, "--config", dir, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml")+"\n", out)
}

func TestRootCmd_VerboseLogsToStderr(t *testing.T) {
	isolate(t)

	out, stderr, err := execute(t, "-v", "list")
	require.NoError(t, err)
	assert.Contains(t, stderr, "seeded built-in templates")
	assert.NotContains(t, out, "seeded")
}

func TestRootCmd_LogFile(t *testing.T) {
	isolate(t)
	logFile := filepath.Join(t.TempDir(), "ignr.log")

	_, _, err := execute(t, "--log-file", logFile, "list")
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"seeded built-in templates"`)
}

func TestExecuteRoot_PrintsErrors(t *testing.T) {
	tests := []struct {
		name  string
		json  bool
		check func(t *testing.T, stderr string)
	}{
		{
			name: "text",
			check: func(t *testing.T, stderr string) {
				assert.Contains(t, stderr, "Error: Not in a git repository")
				assert.Contains(t, stderr, "Code: "+ierrors.ErrCodeNotGitRepo)
			},
		},
		{
			name: "json",
			json: true,
			check: func(t *testing.T, stderr string) {
				var got struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				require.NoError(t, json.Unmarshal([]byte(stderr), &got))
				assert.Equal(t, ierrors.ErrCodeNotGitRepo, got.Code)
				assert.Equal(t, "Not in a git repository", got.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()

			args := []string{"--no-color", "generate", "--dir", dir}
			if tt.json {
				args = append(args, "--json")
			}

			cmd, a := newRoot()
			var stdout, stderr bytes.Buffer
			cmd.SetOut(&stdout)
			cmd.SetErr(&stderr)
			cmd.SetArgs(args)

			err := executeRoot(context.Background(), cmd, a)

			require.Error(t, err)
			assert.Equal(t, ierrors.ErrCodeNotGitRepo, ierrors.GetCode(err))
			tt.check(t, stderr.String())
		})
	}
}
