package detect

// manifestTags maps exact file names to the tags they imply.
var manifestTags = map[string][]string{
	"Cargo.toml": {"rust"},

	"package.json": {"node"},

	"requirements.txt": {"python"},
	"pyproject.toml":   {"python"},
	"setup.py":         {"python"},
	"Pipfile":          {"python"},
	"uv.lock":          {"python"},

	"go.mod": {"go"},
	"go.sum": {"go"},

	"pom.xml":          {"java"},
	"build.gradle":     {"java"},
	"build.gradle.kts": {"java"},

	"CMakeLists.txt": {"cpp"},
	"Makefile":       {"cpp"},
	"configure.ac":   {"cpp"},

	"Gemfile":  {"ruby"},
	"Rakefile": {"ruby"},

	"Package.swift": {"swift"},
	"composer.json": {"php"},
	"build.sbt":     {"scala"},
	"mix.exs":       {"elixir"},

	"stack.yaml":    {"haskell"},
	"cabal.project": {"haskell"},

	"build.zig":    {"zig"},
	"pubspec.yaml": {"dart"},

	"main.tf":      {"terraform"},
	"terraform.tf": {"terraform"},

	"playbook.yml": {"ansible"},
	"ansible.cfg":  {"ansible"},

	"Dockerfile":          {"docker"},
	"docker-compose.yml":  {"docker"},
	"docker-compose.yaml": {"docker"},
}

// kotlinManifest also implies kotlin when its path mentions "kotlin".
const kotlinManifest = "build.gradle.kts"

// extensionTags maps file extensions (without the dot) to tags.
var extensionTags = map[string]string{
	"rs": "rust",

	"py":  "python",
	"pyw": "python",
	"pyi": "python",

	"js":  "node",
	"jsx": "node",
	"ts":  "node",
	"tsx": "node",
	"mjs": "node",
	"cjs": "node",

	"go":   "go",
	"java": "java",

	"cs":     "csharp",
	"fs":     "csharp",
	"vb":     "csharp",
	"csproj": "csharp",
	"sln":    "csharp",
	"fsproj": "csharp",

	"c":   "cpp",
	"cpp": "cpp",
	"cc":  "cpp",
	"cxx": "cpp",
	"h":   "cpp",
	"hpp": "cpp",
	"hxx": "cpp",

	"rb":    "ruby",
	"swift": "swift",
	"kt":    "kotlin",
	"kts":   "kotlin",
	"php":   "php",
	"scala": "scala",
	"sc":    "scala",
	"ex":    "elixir",
	"exs":   "elixir",
	"hs":    "haskell",
	"lhs":   "haskell",
	"zig":   "zig",
	"dart":  "dart",

	"tf":     "terraform",
	"tfvars": "terraform",
}

// ideTags maps editor directory names to tags.
var ideTags = map[string]string{
	".vscode":  "vscode",
	".idea":    "intellij",
	".vim":     "vim",
	".nvim":    "vim",
	".emacs.d": "emacs",
}

// osTags maps runtime.GOOS values to tags. Other platforms get no OS tag.
var osTags = map[string]string{
	"linux":   "linux",
	"darwin":  "macos",
	"windows": "windows",
}
