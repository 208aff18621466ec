package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/byteowlz/ignr/internal/config"
	ierrors "github.com/byteowlz/ignr/internal/errors"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file",
		Long: `Write the commented default configuration to the config path
($XDG_CONFIG_HOME/ignr/config.yaml unless --config is given).

An existing file is kept unless --force or --yes is set; it is backed up
before being replaced.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{setupAnnotation: setupPaths},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, a, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, a *app, force bool) error {
	w := a.writer(cmd)
	path := a.paths.ConfigFile

	exists := fileExists(path)
	if exists && !(force || a.flags.yes) {
		return ierrors.New(ierrors.ErrCodeConfigExists, fmt.Sprintf("config already exists at %s", path), nil).
			WithSuggestion("Use --force to overwrite")
	}

	if a.flags.dryRun {
		w.Status("", "Would write default config to "+path)
		return nil
	}

	if exists {
		if err := backupConfig(w, a.logger, path); err != nil {
			return err
		}
	}
	if err := config.WriteDefault(path); err != nil {
		return ierrors.ConfigError("failed to write configuration", err).WithDetail("path", path)
	}

	a.logger.Info("wrote default config", slog.String("path", path))
	w.Success("Created config at " + path)
	return nil
}
