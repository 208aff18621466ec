package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ignrmcp "github.com/byteowlz/ignr/internal/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve ignr over the Model Context Protocol",
		Long: `Run an MCP server on stdin/stdout exposing the detect, generate and
list_templates tools and the ignr://config resource.

Stdout carries protocol messages only; logs go to stderr and --log-file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, resolver, err := a.generator()
			if err != nil {
				return err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			server, err := ignrmcp.NewServer(gen, resolver, a.cfg, a.paths, cwd)
			if err != nil {
				return err
			}
			return server.WithLogger(a.logger).Serve(cmd.Context())
		},
	}
}
