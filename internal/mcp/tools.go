package mcp

// DetectInput defines the input schema for the detect tool.
type DetectInput struct {
	Dir   string `json:"dir,omitempty" jsonschema:"project directory, absolute or relative to the server's working directory"`
	Depth int    `json:"depth,omitempty" jsonschema:"maximum traversal depth, capped by configuration"`
}

// DetectOutput defines the output schema for the detect tool.
type DetectOutput struct {
	Dir  string   `json:"dir" jsonschema:"absolute project directory"`
	Tags []string `json:"tags" jsonschema:"detected technology tags in sorted order"`
}

// GenerateInput defines the input schema for the generate tool.
type GenerateInput struct {
	Dir      string   `json:"dir,omitempty" jsonschema:"project directory, absolute or relative to the server's working directory"`
	Add      []string `json:"add,omitempty" jsonschema:"extra template tags to include"`
	NoDetect bool     `json:"no_detect,omitempty" jsonschema:"skip detection and use only the given tags"`
	Depth    int      `json:"depth,omitempty" jsonschema:"maximum traversal depth, capped by configuration"`
	Append   bool     `json:"append,omitempty" jsonschema:"append a new block instead of replacing the managed one"`
	Force    bool     `json:"force,omitempty" jsonschema:"allow writing outside a git repository"`
	DryRun   bool     `json:"dry_run,omitempty" jsonschema:"compute the result without writing"`
	Print    bool     `json:"print,omitempty" jsonschema:"return the generated block without touching the file"`
}

// GenerateOutput defines the output schema for the generate tool.
type GenerateOutput struct {
	Target  string   `json:"target,omitempty" jsonschema:"path of the ignore file"`
	Tags    []string `json:"detected" jsonschema:"tags used for composition"`
	Missing []string `json:"missing,omitempty" jsonschema:"tags that had no template"`
	Content string   `json:"content,omitempty" jsonschema:"the generated managed block"`
	Written bool     `json:"written" jsonschema:"true if the ignore file was updated"`
	Message string   `json:"message,omitempty" jsonschema:"human-readable summary"`
}

// ListTemplatesInput defines the input schema for the list_templates tool (no parameters).
type ListTemplatesInput struct{}

// ListTemplatesOutput defines the output schema for the list_templates tool.
type ListTemplatesOutput struct {
	Templates []string `json:"templates" jsonschema:"available template tags in sorted order"`
}
