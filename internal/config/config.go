// Package config loads ignr's user configuration.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults (NewConfig)
//  2. The user config file ($XDG_CONFIG_HOME/ignr/config.yaml or --config)
//  3. Environment variables (IGNR_<SECTION>__<KEY>)
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/byteowlz/ignr/configs"
)

const (
	// AppName names the XDG subdirectories.
	AppName = "ignr"

	// ConfigFileName is the file looked up inside the config directory.
	ConfigFileName = "config.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "IGNR"

	// DefaultTemplateURL is a gitignore.io compatible API.
	DefaultTemplateURL = "https://www.toptal.com/developers/gitignore/api"

	// DefaultMaxDepth bounds detection when nothing else is configured.
	DefaultMaxDepth = 10
)

// Config is the complete user configuration.
type Config struct {
	Templates TemplatesConfig `yaml:"templates" json:"templates"`
	Detection DetectionConfig `yaml:"detection" json:"detection"`
	Paths     PathsConfig     `yaml:"paths" json:"paths"`
}

// TemplatesConfig controls where templates come from.
type TemplatesConfig struct {
	// TemplateDir holds user-maintained <tag>.gitignore files.
	TemplateDir string `yaml:"template_dir,omitempty" json:"template_dir,omitempty"`

	// TemplateURL is the remote API used by "ignr sync".
	TemplateURL string `yaml:"template_url" json:"template_url"`

	// PreferLocal consults TemplateDir before synced and built-in templates.
	PreferLocal bool `yaml:"prefer_local" json:"prefer_local"`

	// AlwaysInclude lists tags added to every generation.
	AlwaysInclude []string `yaml:"always_include" json:"always_include"`
}

// DetectionConfig tunes technology detection.
type DetectionConfig struct {
	MaxDepth  int  `yaml:"max_depth" json:"max_depth"`
	DetectOS  bool `yaml:"detect_os" json:"detect_os"`
	DetectIDE bool `yaml:"detect_ide" json:"detect_ide"`
}

// PathsConfig overrides the XDG data and cache locations.
type PathsConfig struct {
	DataDir  string `yaml:"data_dir,omitempty" json:"data_dir,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Templates: TemplatesConfig{
			TemplateURL:   DefaultTemplateURL,
			PreferLocal:   true,
			AlwaysInclude: []string{},
		},
		Detection: DetectionConfig{
			MaxDepth:  DefaultMaxDepth,
			DetectOS:  true,
			DetectIDE: true,
		},
	}
}

// Load builds the effective configuration from defaults, the file at
// path (if it exists), and the environment.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" && fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML decodes path on top of the current values, so keys missing
// from the file keep their defaults and explicit false values stick.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.Templates.AlwaysInclude == nil {
		c.Templates.AlwaysInclude = []string{}
	}
	return nil
}

// envKey builds IGNR_<SECTION>__<KEY>.
func envKey(section, key string) string {
	return EnvPrefix + "_" + strings.ToUpper(section) + "__" + strings.ToUpper(key)
}

// applyEnvOverrides applies IGNR_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v, ok := os.LookupEnv(envKey("templates", "template_dir")); ok {
		c.Templates.TemplateDir = v
	}
	if v, ok := os.LookupEnv(envKey("templates", "template_url")); ok {
		c.Templates.TemplateURL = v
	}
	if err := envBool(envKey("templates", "prefer_local"), &c.Templates.PreferLocal); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(envKey("templates", "always_include")); ok {
		c.Templates.AlwaysInclude = splitList(v)
	}

	if v, ok := os.LookupEnv(envKey("detection", "max_depth")); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", envKey("detection", "max_depth"), v, err)
		}
		c.Detection.MaxDepth = n
	}
	if err := envBool(envKey("detection", "detect_os"), &c.Detection.DetectOS); err != nil {
		return err
	}
	if err := envBool(envKey("detection", "detect_ide"), &c.Detection.DetectIDE); err != nil {
		return err
	}

	if v, ok := os.LookupEnv(envKey("paths", "data_dir")); ok {
		c.Paths.DataDir = v
	}
	if v, ok := os.LookupEnv(envKey("paths", "cache_dir")); ok {
		c.Paths.CacheDir = v
	}
	return nil
}

func envBool(key string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	*dst = b
	return nil
}

// splitList parses a comma-separated list, dropping empty items.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Detection.MaxDepth < 1 {
		return fmt.Errorf("detection.max_depth must be at least 1, got %d", c.Detection.MaxDepth)
	}

	if c.Templates.TemplateURL != "" {
		u, err := url.Parse(c.Templates.TemplateURL)
		if err != nil {
			return fmt.Errorf("templates.template_url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("templates.template_url must use http or https, got %q", c.Templates.TemplateURL)
		}
	}

	for _, tag := range c.Templates.AlwaysInclude {
		if strings.ContainsAny(tag, " \t/\\") {
			return fmt.Errorf("templates.always_include entry %q must be a plain tag", tag)
		}
	}
	return nil
}

// TemplateDir returns the expanded custom template directory, or "".
func (c *Config) TemplateDir() (string, error) {
	if c.Templates.TemplateDir == "" {
		return "", nil
	}
	return ExpandPath(c.Templates.TemplateDir)
}

// WriteDefault writes the commented default configuration to path,
// creating parent directories as needed.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// EnsureFile writes the default configuration when path does not exist.
// It reports whether a file was created.
func EnsureFile(path string) (bool, error) {
	if fileExists(path) {
		return false, nil
	}
	if err := WriteDefault(path); err != nil {
		return false, err
	}
	return true, nil
}

// FindGitRoot walks up from startDir looking for a .git entry (directory
// or worktree file). It returns the repository root and whether one was
// found.
func FindGitRoot(startDir string) (string, bool, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to get absolute path: %w", err)
	}

	current := absDir
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current, true, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return absDir, false, nil
		}
		current = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
