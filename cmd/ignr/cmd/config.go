package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/byteowlz/ignr/internal/config"
	ierrors "github.com/byteowlz/ignr/internal/errors"
	"github.com/byteowlz/ignr/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or reset the configuration",
		Long: `Inspect or reset the user configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. Config file ($XDG_CONFIG_HOME/ignr/config.yaml or --config)
  3. Environment variables (IGNR_<SECTION>__<KEY>)`,
		Example: `  # Show effective configuration
  ignr config show

  # Show it as JSON
  ignr config show --json

  # Print the config file path
  ignr config path`,
	}

	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigPathCmd(a))
	cmd.AddCommand(newConfigResetCmd(a))

	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := a.writer(cmd)
			format := a.format()
			if format == output.FormatText {
				format = output.FormatYAML
			}
			return w.Encode(format, a.cfg)
		},
	}
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the config file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{setupAnnotation: setupPaths},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), a.paths.ConfigFile)
			return err
		},
	}
}

func newConfigResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default configuration",
		Long: `Replace the config file with the commented defaults. The previous file is
backed up next to it (config.yaml.bak.<timestamp>, newest 3 kept).`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{setupAnnotation: setupPaths},
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := a.writer(cmd)
			path := a.paths.ConfigFile

			if a.flags.dryRun {
				w.Status("", "Would reset config at "+path)
				return nil
			}
			if err := backupConfig(w, a.logger, path); err != nil {
				return err
			}
			if err := config.WriteDefault(path); err != nil {
				return ierrors.ConfigError("failed to write configuration", err).WithDetail("path", path)
			}
			w.Success("Reset config at " + path)
			return nil
		},
	}
}

// backupConfig copies path aside before it is overwritten.
func backupConfig(w *output.Writer, logger *slog.Logger, path string) error {
	backup, err := config.Backup(path)
	if err != nil {
		return ierrors.ConfigError("failed to back up configuration", err).WithDetail("path", path)
	}
	if backup != "" {
		logger.Info("backed up config", slog.String("backup", backup))
		w.Status("", "Backed up previous config to "+backup)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
