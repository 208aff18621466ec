package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Paths are the filesystem locations ignr works with.
type Paths struct {
	ConfigFile string `json:"config_file" yaml:"config_file"`
	DataDir    string `json:"data_dir" yaml:"data_dir"`
	CacheDir   string `json:"cache_dir" yaml:"cache_dir"`
}

// DiscoverPaths resolves the config file and default data/cache
// directories. A non-empty override names the config file, or a
// directory that contains it.
func DiscoverPaths(override string) (Paths, error) {
	var p Paths

	if override != "" {
		expanded, err := ExpandPath(override)
		if err != nil {
			return p, err
		}
		if dirExists(expanded) {
			expanded = filepath.Join(expanded, ConfigFileName)
		}
		p.ConfigFile = expanded
	} else {
		dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
		if err != nil {
			return p, err
		}
		p.ConfigFile = filepath.Join(dir, ConfigFileName)
	}

	var err error
	if p.DataDir, err = xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")); err != nil {
		return p, err
	}
	if p.CacheDir, err = xdgDir("XDG_CACHE_HOME", ".cache"); err != nil {
		return p, err
	}
	return p, nil
}

// WithOverrides applies the paths section of cfg.
func (p Paths) WithOverrides(cfg *Config) (Paths, error) {
	if cfg.Paths.DataDir != "" {
		dir, err := ExpandPath(cfg.Paths.DataDir)
		if err != nil {
			return p, err
		}
		p.DataDir = dir
	}
	if cfg.Paths.CacheDir != "" {
		dir, err := ExpandPath(cfg.Paths.CacheDir)
		if err != nil {
			return p, err
		}
		p.CacheDir = dir
	}
	return p, nil
}

// TemplatesDir is where synced and seeded templates live.
func (p Paths) TemplatesDir() string {
	return filepath.Join(p.DataDir, "templates")
}

// LocksDir holds lock files for generated targets.
func (p Paths) LocksDir() string {
	return filepath.Join(p.CacheDir, "locks")
}

// EnsureDirs creates the data and cache directories.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.DataDir, p.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// xdgDir returns $env/ignr, falling back to ~/<fallback>/ignr.
func xdgDir(env, fallback string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine home directory: %w", err)
	}
	return filepath.Join(home, fallback, AppName), nil
}

// ExpandPath expands a leading ~ and $VAR / ${VAR} references.
// Referencing an unset variable is an error.
func ExpandPath(path string) (string, error) {
	var missing string
	expanded := os.Expand(path, func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok && missing == "" {
			missing = key
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("expanding path %q: environment variable %s is not set", path, missing)
	}

	if expanded == "~" || strings.HasPrefix(expanded, "~/") || strings.HasPrefix(expanded, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding path %q: %w", path, err)
		}
		expanded = filepath.Join(home, expanded[1:])
	}
	return expanded, nil
}
