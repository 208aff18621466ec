package generate

import (
	"github.com/byteowlz/ignr/internal/config"
	"github.com/byteowlz/ignr/internal/detect"
)

// OptionsFromConfig returns run options seeded from configuration. The
// detection depth starts at the configured ceiling; callers narrow it
// with flags.
func OptionsFromConfig(cfg *config.Config, paths config.Paths) Options {
	return Options{
		Depth: cfg.Detection.MaxDepth,
		Detection: detect.Options{
			Ceiling:   cfg.Detection.MaxDepth,
			DetectOS:  cfg.Detection.DetectOS,
			DetectIDE: cfg.Detection.DetectIDE,
		},
		AlwaysInclude: append([]string(nil), cfg.Templates.AlwaysInclude...),
		LockDir:       paths.LocksDir(),
	}
}
