// Package cmd provides the CLI commands for ignr.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/byteowlz/ignr/internal/config"
	"github.com/byteowlz/ignr/internal/detect"
	ierrors "github.com/byteowlz/ignr/internal/errors"
	"github.com/byteowlz/ignr/internal/generate"
	"github.com/byteowlz/ignr/internal/logging"
	"github.com/byteowlz/ignr/internal/output"
	"github.com/byteowlz/ignr/internal/templates"
	"github.com/byteowlz/ignr/pkg/version"
)

// setupAnnotation controls how much of the runtime a command needs.
const setupAnnotation = "ignr/setup"

const (
	// setupNone configures logging and color only.
	setupNone = "none"
	// setupPaths also resolves file locations but does not read the
	// config file or write anything.
	setupPaths = "paths"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	quiet      bool
	verbose    int
	debug      bool
	trace      bool
	json       bool
	yaml       bool
	noColor    bool
	color      string
	dryRun     bool
	yes        bool
	logFile    string
}

// app is the runtime state built before a command runs.
type app struct {
	flags   globalFlags
	cfg     *config.Config
	paths   config.Paths
	logger  *slog.Logger
	color   bool
	cleanup func()
}

// NewRootCmd creates the root command for the ignr CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

func newRoot() (*cobra.Command, *app) {
	a := &app{
		cfg:    config.NewConfig(),
		logger: slog.Default(),
	}

	cmd := &cobra.Command{
		Use:   "ignr",
		Short: "Generate .gitignore files from the technologies in a project",
		Long: `ignr scans a project, detects the languages, build tools and editors in
use, and writes a matching .gitignore.

The generated rules live in a managed section that is replaced on every
run. Everything else in the file is left alone.`,
		Version:            version.Version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	cmd.SetVersionTemplate("ignr version {{.Version}}\n")
	cmd.CompletionOptions.DisableDefaultCmd = true

	f := cmd.PersistentFlags()
	f.StringVar(&a.flags.configPath, "config", "", "Config file or directory (default $XDG_CONFIG_HOME/ignr/config.yaml)")
	f.BoolVarP(&a.flags.quiet, "quiet", "q", false, "Only print errors and requested output")
	f.CountVarP(&a.flags.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	f.BoolVar(&a.flags.debug, "debug", false, "Enable debug logging")
	f.BoolVar(&a.flags.trace, "trace", false, "Enable trace logging with source locations")
	f.BoolVar(&a.flags.json, "json", false, "Output as JSON")
	f.BoolVar(&a.flags.yaml, "yaml", false, "Output as YAML")
	f.BoolVar(&a.flags.noColor, "no-color", false, "Disable colored output")
	f.StringVar(&a.flags.color, "color", string(output.ColorAuto), "Color mode: auto, always, never")
	f.BoolVar(&a.flags.dryRun, "dry-run", false, "Show what would change without writing files")
	f.BoolVarP(&a.flags.yes, "yes", "y", false, "Assume yes for confirmations")
	f.StringVar(&a.flags.logFile, "log-file", "", "Also write JSON logs to this file (rotated)")

	cmd.AddCommand(newGenerateCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newSyncCmd(a))
	cmd.AddCommand(newInitCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newCompletionCmd())
	cmd.AddCommand(newVersionCmd(a))
	cmd.AddCommand(newMCPCmd(a))

	return cmd, a
}

// Execute runs the root command until it finishes or the process is
// interrupted. A failure is printed to stderr before it is returned.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, a := newRoot()
	return executeRoot(ctx, cmd, a)
}

// executeRoot runs cmd and reports a failure on its error stream, as JSON
// when --json is set.
func executeRoot(ctx context.Context, cmd *cobra.Command, a *app) error {
	defer a.close()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		a.printError(cmd.ErrOrStderr(), err)
	}
	return err
}

func (a *app) printError(w io.Writer, err error) {
	if a.flags.json {
		data, jerr := ierrors.FormatJSON(err)
		if jerr == nil {
			_, _ = fmt.Fprintln(w, string(data))
			return
		}
	}
	output.NewStyled(w, a.color).Error(strings.TrimRight(ierrors.FormatForCLI(err), "\n"))
}

// setup configures color and logging, then loads configuration. On the
// first run it writes the default config file and seeds the built-in
// templates, unless --dry-run is set.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.flags.json && a.flags.yaml {
		return ierrors.ValidationError("--json and --yaml cannot be used together", nil)
	}
	mode, err := output.ParseColorMode(a.flags.color)
	if err != nil {
		return ierrors.ValidationError(err.Error(), err)
	}
	a.color = output.ColorEnabled(mode, a.flags.noColor, cmd.OutOrStdout())
	output.ApplyColorProfile(a.color)

	logger, cleanup, err := logging.Setup(logging.Options{
		Quiet:    a.flags.quiet,
		Verbose:  a.flags.verbose,
		Debug:    a.flags.debug,
		Trace:    a.flags.trace,
		Color:    output.ColorEnabled(mode, a.flags.noColor, cmd.ErrOrStderr()),
		FilePath: a.flags.logFile,
		Stderr:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return ierrors.New(ierrors.ErrCodeWriteFailed, "failed to open log file", err).
			WithDetail("path", a.flags.logFile)
	}
	a.logger = logger
	a.cleanup = cleanup
	slog.SetDefault(logger)

	level := setupLevel(cmd)
	if level == setupNone {
		return nil
	}

	paths, err := config.DiscoverPaths(a.flags.configPath)
	if err != nil {
		return ierrors.ConfigError("failed to resolve configuration paths", err)
	}
	a.paths = paths
	if level == setupPaths {
		return nil
	}

	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return ierrors.ConfigError(err.Error(), err).
			WithDetail("path", paths.ConfigFile).
			WithSuggestion("Fix the file or run 'ignr config reset'")
	}
	if a.paths, err = paths.WithOverrides(cfg); err != nil {
		return ierrors.ConfigError("invalid paths in configuration", err)
	}
	a.cfg = cfg

	a.logger.Debug("configuration loaded",
		slog.String("config_file", a.paths.ConfigFile),
		slog.String("data_dir", a.paths.DataDir),
		slog.String("cache_dir", a.paths.CacheDir))

	if a.flags.dryRun {
		return nil
	}
	return a.firstRun(cmd.Context())
}

func (a *app) firstRun(ctx context.Context) error {
	created, err := config.EnsureFile(a.paths.ConfigFile)
	if err != nil {
		return ierrors.ConfigError("failed to write default configuration", err).
			WithDetail("path", a.paths.ConfigFile)
	}
	if created {
		a.logger.Info("created default config", slog.String("path", a.paths.ConfigFile))
	}

	n, err := templates.Seed(ctx, a.paths.TemplatesDir())
	if err != nil {
		return ierrors.New(ierrors.ErrCodeDataDir, "failed to seed built-in templates", err).
			WithDetail("dir", a.paths.TemplatesDir())
	}
	if n > 0 {
		a.logger.Info("seeded built-in templates",
			slog.Int("count", n),
			slog.String("dir", a.paths.TemplatesDir()))
	}
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	a.close()
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// setupLevel returns the nearest setup annotation on cmd or its parents.
func setupLevel(cmd *cobra.Command) string {
	switch cmd.Name() {
	case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return setupNone
	}
	for c := cmd; c != nil; c = c.Parent() {
		if level, ok := c.Annotations[setupAnnotation]; ok {
			return level
		}
	}
	return ""
}

func (a *app) format() output.Format {
	switch {
	case a.flags.json:
		return output.FormatJSON
	case a.flags.yaml:
		return output.FormatYAML
	default:
		return output.FormatText
	}
}

func (a *app) writer(cmd *cobra.Command) *output.Writer {
	w := output.NewStyled(cmd.OutOrStdout(), a.color)
	w.SetQuiet(a.flags.quiet)
	return w
}

func (a *app) resolver() (*templates.Resolver, error) {
	custom, err := a.cfg.TemplateDir()
	if err != nil {
		return nil, ierrors.ConfigError("invalid templates.template_dir", err)
	}
	return templates.NewResolver(templates.Options{
		CustomDir:   custom,
		DataDir:     a.paths.TemplatesDir(),
		PreferLocal: a.cfg.Templates.PreferLocal,
	}).WithLogger(a.logger), nil
}

func (a *app) generator() (*generate.Generator, *templates.Resolver, error) {
	resolver, err := a.resolver()
	if err != nil {
		return nil, nil, err
	}
	d, err := detect.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create detector: %w", err)
	}
	return generate.New(d.WithLogger(a.logger), resolver).WithLogger(a.logger), resolver, nil
}
