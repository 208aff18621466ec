package templates

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/byteowlz/ignr/internal/lockfile"
)

// Seed copies the built-in templates into dir when dir is missing or
// empty. It returns the number of files written. A directory that already
// has entries is left untouched.
func Seed(ctx context.Context, dir string) (int, error) {
	written := 0
	err := lockfile.ForDir(dir).Do(ctx, func() error {
		entries, err := os.ReadDir(dir)
		if err == nil && len(entries) > 0 {
			return nil
		}
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read templates directory: %w", err)
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create templates directory: %w", err)
		}

		builtins, err := fs.ReadDir(builtinFS, builtinDir)
		if err != nil {
			return fmt.Errorf("failed to list built-in templates: %w", err)
		}
		for _, e := range builtins {
			data, err := fs.ReadFile(builtinFS, builtinDir+"/"+e.Name())
			if err != nil {
				return fmt.Errorf("failed to read built-in template %s: %w", e.Name(), err)
			}
			if err := os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644); err != nil {
				return fmt.Errorf("failed to write template %s: %w", e.Name(), err)
			}
			written++
		}
		return nil
	})
	return written, err
}
