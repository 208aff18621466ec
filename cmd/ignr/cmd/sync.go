package cmd

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	ierrors "github.com/byteowlz/ignr/internal/errors"
	"github.com/byteowlz/ignr/internal/output"
	"github.com/byteowlz/ignr/internal/remote"
)

func newSyncCmd(a *app) *cobra.Command {
	var (
		url         string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download templates from the template service",
		Long: `Fetch the template index from templates.template_url and download every
listed template into the data directory. Templates that fail to download
are counted and skipped.`,
		Example: `  # Sync from the configured service
  ignr sync

  # Sync from another gitignore.io compatible API
  ignr sync --url https://gitignore.example.com/api`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, a, url, concurrency)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Template service URL (overrides templates.template_url)")
	cmd.Flags().IntVar(&concurrency, "concurrency", remote.DefaultConcurrency, "Parallel downloads")

	return cmd
}

func runSync(cmd *cobra.Command, a *app, url string, concurrency int) error {
	if url == "" {
		url = a.cfg.Templates.TemplateURL
	}
	if url == "" {
		return ierrors.ConfigError("No template URL configured", nil).
			WithSuggestion("Set templates.template_url in config or use --url")
	}

	w := a.writer(cmd)
	text := a.format() == output.FormatText
	dir := a.paths.TemplatesDir()

	if a.flags.dryRun {
		w.Status("", fmt.Sprintf("Would sync templates from %s to %s", url, dir))
		return nil
	}

	opts := remote.Options{
		URL:         url,
		Dir:         dir,
		Concurrency: concurrency,
	}
	if text {
		var mu sync.Mutex
		opts.OnFound = func(n int) {
			w.Status("", fmt.Sprintf("Found %d templates", n))
		}
		if output.IsTTY(cmd.OutOrStdout()) {
			opts.OnProgress = func(done, total int) {
				mu.Lock()
				defer mu.Unlock()
				w.Progress(done, total, "downloading")
			}
		}
	}

	report, err := remote.NewSyncer(opts).WithLogger(a.logger).Sync(cmd.Context())
	if err != nil {
		return err
	}

	if !text {
		return w.Encode(a.format(), report)
	}
	w.Success(fmt.Sprintf("Synced %d templates (%d failed)", report.Synced, report.Failed))
	return nil
}
