// Package templates locates ignore-file templates by technology tag.
//
// Templates come from three places: a user-maintained custom directory,
// the managed data directory (seeded from the built-ins and refreshed by
// "ignr sync"), and the set compiled into the binary. A Resolver consults
// them in an order chosen by the prefer_local setting.
package templates

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileExt is the suffix every template file carries.
const FileExt = ".gitignore"

// Source names.
const (
	SourceCustom  = "custom"
	SourceData    = "data"
	SourceBuiltin = "builtin"
)

// Source provides template text by tag.
type Source interface {
	// Name identifies the source in logs and diagnostics.
	Name() string

	// Lookup returns the template for tag. Tags compare case-insensitively.
	Lookup(tag string) (string, bool)

	// Tags lists every tag the source can serve, lower-cased.
	Tags() []string
}

// DirSource serves "<tag>.gitignore" files from a directory.
// Files are read on every lookup.
type DirSource struct {
	name string
	dir  string
}

// NewDirSource creates a source over dir. An empty dir serves nothing.
func NewDirSource(name, dir string) *DirSource {
	return &DirSource{name: name, dir: dir}
}

// Name returns the source name.
func (s *DirSource) Name() string { return s.name }

// Dir returns the directory the source reads from.
func (s *DirSource) Dir() string { return s.dir }

// Lookup reads the template for tag, matching the file stem case-insensitively.
func (s *DirSource) Lookup(tag string) (string, bool) {
	if s.dir == "" || !lookupable(tag) {
		return "", false
	}
	tag = strings.ToLower(tag)

	if data, err := os.ReadFile(filepath.Join(s.dir, tag+FileExt)); err == nil {
		return string(data), true
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		stem, ok := templateStem(e)
		if !ok || !strings.EqualFold(stem, tag) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return "", false
		}
		return string(data), true
	}
	return "", false
}

// Tags lists the template stems found in the directory.
func (s *DirSource) Tags() []string {
	if s.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	return stems(entries)
}

//go:embed builtin/*.gitignore
var builtinFS embed.FS

const builtinDir = "builtin"

type builtinSource struct{}

// Builtin returns the source backed by templates compiled into the binary.
func Builtin() Source { return builtinSource{} }

func (builtinSource) Name() string { return SourceBuiltin }

func (builtinSource) Lookup(tag string) (string, bool) {
	if !lookupable(tag) {
		return "", false
	}
	data, err := fs.ReadFile(builtinFS, builtinDir+"/"+strings.ToLower(tag)+FileExt)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (builtinSource) Tags() []string {
	entries, err := fs.ReadDir(builtinFS, builtinDir)
	if err != nil {
		return nil
	}
	return stems(entries)
}

// BuiltinNames lists the compiled-in template tags in sorted order.
func BuiltinNames() []string {
	return builtinSource{}.Tags()
}

// lookupable reports whether tag can be turned into a file name inside a
// template directory.
func lookupable(tag string) bool {
	return tag != "" && !strings.Contains(tag, "..") && !strings.ContainsAny(tag, `/\`)
}

func templateStem(e fs.DirEntry) (string, bool) {
	if e.IsDir() {
		return "", false
	}
	name := e.Name()
	if !strings.HasSuffix(name, FileExt) || len(name) == len(FileExt) {
		return "", false
	}
	return strings.TrimSuffix(name, FileExt), true
}

func stems(entries []fs.DirEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if stem, ok := templateStem(e); ok {
			out = append(out, strings.ToLower(stem))
		}
	}
	sort.Strings(out)
	return out
}
