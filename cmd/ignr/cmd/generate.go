package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/byteowlz/ignr/internal/config"
	ierrors "github.com/byteowlz/ignr/internal/errors"
	"github.com/byteowlz/ignr/internal/generate"
	"github.com/byteowlz/ignr/internal/merge"
	"github.com/byteowlz/ignr/internal/output"
	"github.com/byteowlz/ignr/internal/watcher"
)

const noTagsMessage = "No technologies detected and none specified"

// emptyReport is the structured output when there is nothing to generate.
type emptyReport struct {
	Detected []string `json:"detected" yaml:"detected"`
	Message  string   `json:"message" yaml:"message"`
}

// printReport is the structured output of --print.
type printReport struct {
	Detected []string `json:"detected" yaml:"detected"`
	Content  string   `json:"content" yaml:"content"`
}

type generateFlags struct {
	print      bool
	appendMode bool
	noDetect   bool
	add        []string
	dir        string
	depth      int
	force      bool
	watch      bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen", "g"},
		Short:   "Generate or update .gitignore",
		Long: `Detect the technologies in a project and write the matching templates
into the managed section of its .gitignore.

Tags are the sorted union of detected technologies, --add, and
templates.always_include from the configuration. Lines shared by several
templates are written once, under the first template that has them.

Outside a git repository generate refuses to write unless --force is set.`,
		Example: `  # Generate for the current directory
  ignr generate

  # Add templates that detection cannot find
  ignr gen -t terraform -t docker

  # Preview the managed section
  ignr g --print

  # Keep .gitignore up to date while you work
  ignr generate --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, a, f)
		},
	}

	cmd.Flags().BoolVarP(&f.print, "print", "p", false, "Print the managed section instead of writing it")
	cmd.Flags().BoolVarP(&f.appendMode, "append", "a", false, "Append a new section instead of replacing the existing one")
	cmd.Flags().BoolVar(&f.noDetect, "no-detect", false, "Skip detection and use only --add and always_include")
	cmd.Flags().StringSliceVarP(&f.add, "add", "t", nil, "Template to include (repeatable)")
	cmd.Flags().StringVarP(&f.dir, "dir", "d", "", "Project directory (default current directory)")
	cmd.Flags().IntVar(&f.depth, "depth", config.DefaultMaxDepth, "Maximum detection depth, capped by detection.max_depth")
	cmd.Flags().BoolVarP(&f.force, "force", "f", false, "Write even outside a git repository")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Regenerate whenever the project changes")

	return cmd
}

func runGenerate(cmd *cobra.Command, a *app, f generateFlags) error {
	gen, _, err := a.generator()
	if err != nil {
		return err
	}

	opts := generate.OptionsFromConfig(a.cfg, a.paths)
	opts.Dir = f.dir
	if cmd.Flags().Changed("depth") {
		if f.depth < 1 {
			return ierrors.ValidationError(fmt.Sprintf("--depth must be at least 1, got %d", f.depth), nil)
		}
		opts.Depth = f.depth
	}
	opts.Add = f.add
	opts.NoDetect = f.noDetect
	opts.Force = f.force
	opts.Print = f.print
	opts.DryRun = a.flags.dryRun
	if f.appendMode {
		opts.Mode = merge.Append
	}

	if f.watch {
		if f.print {
			return ierrors.ValidationError("--watch cannot be combined with --print", nil)
		}
		return runWatch(cmd, a, gen, opts)
	}

	res, err := gen.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return reportGenerate(cmd, a, res, opts)
}

func reportGenerate(cmd *cobra.Command, a *app, res *generate.Result, opts generate.Options) error {
	w := a.writer(cmd)
	format := a.format()

	switch {
	case res.Empty():
		if format != output.FormatText {
			return w.Encode(format, emptyReport{Detected: []string{}, Message: noTagsMessage})
		}
		w.Plain(noTagsMessage + ". Use --add to specify templates.")
		return nil

	case opts.Print:
		if format != output.FormatText {
			return w.Encode(format, printReport{Detected: res.Tags, Content: res.Block})
		}
		w.Plain(res.Block)
		return nil

	case format != output.FormatText:
		return w.Encode(format, res)

	case opts.DryRun:
		w.Status("", "Detected: "+strings.Join(res.Tags, ", "))
		w.Status("", "Would write to: "+res.Target)
		return nil
	}

	w.Success("Generated .gitignore with: " + strings.Join(res.Tags, ", "))
	return nil
}

func runWatch(cmd *cobra.Command, a *app, gen *generate.Generator, opts generate.Options) error {
	w := a.writer(cmd)
	w.Status("", "Watching for changes (Ctrl+C to stop)")

	return gen.Watch(cmd.Context(), opts, watcher.DefaultOptions(), func(res *generate.Result, err error) {
		if err != nil {
			a.logger.Error("generate failed", ierrors.LogAttrs(err)...)
			return
		}
		if err := reportGenerate(cmd, a, res, opts); err != nil {
			a.logger.Warn("failed to report result", slog.String("error", err.Error()))
		}
	})
}
