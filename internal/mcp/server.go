package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"

	"github.com/byteowlz/ignr/internal/config"
	"github.com/byteowlz/ignr/internal/generate"
	"github.com/byteowlz/ignr/internal/merge"
	"github.com/byteowlz/ignr/pkg/version"
)

// ConfigURI is the resource exposing the effective configuration.
const ConfigURI = "ignr://config"

// TemplateLister lists available template tags.
type TemplateLister interface {
	ListAvailable() []string
}

// Server is the ignr MCP server.
type Server struct {
	mcp       *mcp.Server
	generator *generate.Generator
	templates TemplateLister
	config    *config.Config
	paths     config.Paths
	rootPath  string
	logger    *slog.Logger
}

// NewServer creates a new MCP server. Relative "dir" arguments are
// resolved against rootPath.
func NewServer(gen *generate.Generator, templates TemplateLister, cfg *config.Config, paths config.Paths, rootPath string) (*Server, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if templates == nil {
		return nil, errors.New("template lister is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		generator: gen,
		templates: templates,
		config:    cfg,
		paths:     paths,
		rootPath:  rootPath,
		logger:    slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "ignr",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// WithLogger sets the server logger.
func (s *Server) WithLogger(logger *slog.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "detect",
		Description: "Detect the technologies used in a project directory (languages, build tools, editors, host OS). Returns sorted tags that name .gitignore templates.",
	}, s.detectHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "generate",
		Description: "Generate or update the managed section of a project's .gitignore from detected technologies and extra tags. Content outside the managed section is preserved.",
	}, s.generateHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_templates",
		Description: "List every template tag available from custom, synced and built-in sources.",
	}, s.listTemplatesHandler)

	s.logger.Debug("MCP tools registered", slog.Int("count", 3))
}

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        "config",
		URI:         ConfigURI,
		Description: "Effective ignr configuration",
		MIMEType:    "application/yaml",
	}, s.configHandler)
}

// baseOptions builds generator options for dir from configuration.
func (s *Server) baseOptions(dir string, depth int) (generate.Options, error) {
	opts := generate.OptionsFromConfig(s.config, s.paths)
	if depth < 0 {
		return opts, NewInvalidParamsError("depth must not be negative")
	}
	if depth > 0 {
		opts.Depth = depth
	}
	opts.Dir = s.resolveDir(dir)
	return opts, nil
}

func (s *Server) resolveDir(dir string) string {
	if dir == "" {
		return s.rootPath
	}
	if filepath.IsAbs(dir) || s.rootPath == "" {
		return dir
	}
	return filepath.Join(s.rootPath, dir)
}

func (s *Server) detectHandler(ctx context.Context, _ *mcp.CallToolRequest, input DetectInput) (
	*mcp.CallToolResult,
	DetectOutput,
	error,
) {
	opts, err := s.baseOptions(input.Dir, input.Depth)
	if err != nil {
		return nil, DetectOutput{}, err
	}
	opts.Force = true

	dir, tags, err := s.generator.Tags(opts)
	if err != nil {
		return nil, DetectOutput{}, MapError(err)
	}
	if tags == nil {
		tags = []string{}
	}
	return nil, DetectOutput{Dir: dir, Tags: tags}, nil
}

func (s *Server) generateHandler(ctx context.Context, _ *mcp.CallToolRequest, input GenerateInput) (
	*mcp.CallToolResult,
	GenerateOutput,
	error,
) {
	opts, err := s.baseOptions(input.Dir, input.Depth)
	if err != nil {
		return nil, GenerateOutput{}, err
	}
	opts.Add = input.Add
	opts.NoDetect = input.NoDetect
	opts.Force = input.Force
	opts.DryRun = input.DryRun
	opts.Print = input.Print
	if input.Append {
		opts.Mode = merge.Append
	}

	res, err := s.generator.Run(ctx, opts)
	if err != nil {
		s.logger.Warn("generate tool failed", slog.String("error", err.Error()))
		return nil, GenerateOutput{}, MapError(err)
	}

	out := GenerateOutput{
		Target:  res.Target,
		Tags:    res.Tags,
		Missing: res.Missing,
		Content: res.Block,
		Written: res.Written,
	}
	switch {
	case res.Empty():
		out.Tags = []string{}
		out.Message = "No technologies detected and none specified"
	case res.Written:
		out.Message = "Generated .gitignore with: " + strings.Join(res.Tags, ", ")
	case opts.DryRun:
		out.Message = "Would write to: " + res.Target
	}
	return nil, out, nil
}

func (s *Server) listTemplatesHandler(_ context.Context, _ *mcp.CallToolRequest, _ ListTemplatesInput) (
	*mcp.CallToolResult,
	ListTemplatesOutput,
	error,
) {
	names := s.templates.ListAvailable()
	if names == nil {
		names = []string{}
	}
	return nil, ListTemplatesOutput{Templates: names}, nil
}

func (s *Server) configHandler(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	data, err := yaml.Marshal(s.config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      ConfigURI,
				MIMEType: "application/yaml",
				Text:     string(data),
			},
		},
	}, nil
}

// Serve runs the server on stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}
