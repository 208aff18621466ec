package cmd

import (
	"github.com/spf13/cobra"

	"github.com/byteowlz/ignr/internal/output"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List available templates",
		Long: `List every template tag that generate can use: custom templates,
templates fetched by "ignr sync", and the built-in set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver, err := a.resolver()
			if err != nil {
				return err
			}
			names := resolver.ListAvailable()
			if names == nil {
				names = []string{}
			}

			w := a.writer(cmd)
			if format := a.format(); format != output.FormatText {
				return w.Encode(format, names)
			}
			w.List(names)
			return nil
		},
	}
}
