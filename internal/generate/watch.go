package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/byteowlz/ignr/internal/watcher"
)

// RunFunc receives the outcome of every run made by Watch.
type RunFunc func(res *Result, err error)

// Watch runs the pipeline once, then again after every debounced batch of
// changes below the project directory, until ctx is cancelled. Writes to
// the target file itself are not treated as changes.
func (g *Generator) Watch(ctx context.Context, opts Options, wopts watcher.Options, onRun RunFunc) error {
	dir, err := projectDir(opts.Dir)
	if err != nil {
		return err
	}
	opts.Dir = dir

	res, err := g.Run(ctx, opts)
	onRun(res, err)
	if err != nil {
		return err
	}

	wopts.Skip = append(wopts.Skip,
		"/"+TargetName,
		"/"+TargetName+".*.tmp",
	)
	w, err := watcher.New(wopts, g.detector)
	if err != nil {
		return err
	}
	w.WithLogger(g.logger)
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startErr := make(chan error, 1)
	go func() { startErr <- w.Start(ctx, dir) }()

	g.logger.Info("watching for changes", slog.String("dir", dir))

	errs := w.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-startErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			g.logger.Warn("watch error", slog.String("error", err.Error()))
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			g.logger.Debug("change detected",
				slog.Int("events", len(batch)),
				slog.String("first", filepath.FromSlash(batch[0].Path)),
				slog.Bool("ignore_rules_changed", watcher.HasIgnoreChange(batch)))

			g.detector.InvalidateCache()
			res, err := g.Run(ctx, opts)
			onRun(res, err)
		}
	}
}
