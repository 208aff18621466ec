package templates

import (
	"log/slog"
	"sort"
)

// Options selects the template directories and their precedence.
type Options struct {
	// CustomDir holds user-maintained templates. Empty disables it.
	CustomDir string

	// DataDir is the managed templates directory.
	DataDir string

	// PreferLocal puts CustomDir first. Otherwise it is consulted last.
	PreferLocal bool
}

// Resolver finds templates across an ordered list of sources.
type Resolver struct {
	sources []Source
	logger  *slog.Logger
}

// NewResolver builds the source order from opts:
//
//	PreferLocal: custom, data, builtin
//	otherwise:   data, builtin, custom
func NewResolver(opts Options) *Resolver {
	custom := NewDirSource(SourceCustom, opts.CustomDir)
	data := NewDirSource(SourceData, opts.DataDir)

	var sources []Source
	if opts.PreferLocal {
		sources = []Source{custom, data, Builtin()}
	} else {
		sources = []Source{data, Builtin(), custom}
	}
	return NewResolverFromSources(sources...)
}

// NewResolverFromSources uses the given sources in order.
func NewResolverFromSources(sources ...Source) *Resolver {
	return &Resolver{sources: sources, logger: slog.Default()}
}

// WithLogger sets the logger for lookup diagnostics.
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Sources returns the sources in lookup order.
func (r *Resolver) Sources() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Resolve returns the first template found for tag.
func (r *Resolver) Resolve(tag string) (string, bool) {
	text, _, ok := r.ResolveFrom(tag)
	return text, ok
}

// ResolveFrom is like Resolve but also reports which source served the tag.
func (r *Resolver) ResolveFrom(tag string) (text, source string, ok bool) {
	for _, s := range r.sources {
		if text, ok := s.Lookup(tag); ok {
			r.logger.Debug("template resolved",
				slog.String("tag", tag),
				slog.String("source", s.Name()))
			return text, s.Name(), true
		}
	}
	return "", "", false
}

// ListAvailable returns every tag any source can serve, sorted and
// without duplicates.
func (r *Resolver) ListAvailable() []string {
	seen := make(map[string]struct{})
	for _, s := range r.sources {
		for _, tag := range s.Tags() {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
