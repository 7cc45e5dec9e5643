// Package theme resolves theme references into located, named theme records.
//
// A theme reference is classified into one of three kinds: a remote stylesheet
// URL, a local CSS file, or an installable package specifier. Classification
// only locates and names the theme; downloading or installing it is the
// responsibility of a later pipeline stage.
package theme

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/vivliostyle/viola-savepdf/internal/fsops"
)

// Kind discriminates the resolved identity of a theme.
type Kind string

const (
	// KindURI is a remote stylesheet loaded directly by URL.
	KindURI Kind = "uri"

	// KindFile is a local CSS file copied into the workspace.
	KindFile Kind = "file"

	// KindPackage is a registry package or local package directory
	// installed into the themes directory.
	KindPackage Kind = "package"
)

// stylesheetExt is the extension that marks a bare file reference as a theme.
const stylesheetExt = ".css"

// packageStoreDir is the node-style store under the themes directory where
// package themes are installed.
const packageStoreDir = "node_modules"

// Ref is a raw theme reference as declared in a project file or entry:
// a specifier plus an optional import sub-path inside the package.
type Ref struct {
	Specifier string
	Import    string
}

// ParsedTheme is a theme's resolved identity.
type ParsedTheme struct {
	// Kind discriminates the variant.
	Kind Kind

	// Name is the theme's display name (URL basename, file basename,
	// or declared package name).
	Name string

	// Specifier is the reference as the user wrote it.
	Specifier string

	// Source is the absolute path the theme content is read from
	// (file and local-directory package variants only).
	Source string

	// Location is where the theme will live once staged: the full URL for
	// uri themes, the workspace copy destination for file themes, or the
	// package store path for package themes.
	Location string

	// Import is the optional sub-path imported from a package theme.
	Import string
}

// Context carries the directories against which references are resolved.
type Context struct {
	// EntryContextDir is the directory relative references resolve against.
	EntryContextDir string

	// WorkspaceDir is the build staging directory.
	WorkspaceDir string

	// ThemesDir is the directory package themes are installed under.
	ThemesDir string
}

// Resolver classifies theme references.
type Resolver struct {
	fs fsops.FS
}

// NewResolver creates a Resolver backed by the given filesystem.
func NewResolver(fs fsops.FS) *Resolver {
	return &Resolver{fs: fs}
}

// Parse classifies a theme reference into a ParsedTheme.
// Classification order: absolute URI, existing local stylesheet file,
// then installable package specifier. The first match wins.
func (r *Resolver) Parse(ref Ref, ctx Context) (ParsedTheme, error) {
	spec := strings.TrimSpace(ref.Specifier)
	if spec == "" {
		return ParsedTheme{}, fmt.Errorf("%w: empty theme specifier", ErrInvalidSpecifier)
	}

	if u, ok := parseAbsoluteURL(spec); ok {
		return ParsedTheme{
			Kind:      KindURI,
			Name:      path.Base(u.Path),
			Specifier: spec,
			Location:  spec,
			Import:    ref.Import,
		}, nil
	}

	if strings.HasSuffix(spec, stylesheetExt) {
		abs := spec
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(ctx.EntryContextDir, spec)
		}
		abs = filepath.Clean(abs)
		exists, err := r.fs.Exists(abs)
		if err != nil {
			return ParsedTheme{}, fmt.Errorf("failed to check theme file %s: %w", abs, err)
		}
		if exists {
			return ParsedTheme{
				Kind:      KindFile,
				Name:      filepath.Base(abs),
				Specifier: spec,
				Source:    abs,
				Location:  fileThemeLocation(abs, ctx),
				Import:    ref.Import,
			}, nil
		}
	}

	return r.parsePackage(ref, spec, ctx)
}

// fileThemeLocation computes a file theme's workspace copy destination,
// preserving the stylesheet's path relative to the entry-context directory
// so same-named files in different directories get distinct destinations.
// Files outside the context directory fall back to their basename.
func fileThemeLocation(abs string, ctx Context) string {
	rel, err := filepath.Rel(ctx.EntryContextDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(abs)
	}
	return filepath.Join(ctx.WorkspaceDir, "themes", rel)
}

// parsePackage resolves an installable package specifier: a registry
// name[@version] or a local directory containing package metadata. Anything
// else, in particular remote git or tarball specifiers, is rejected.
func (r *Resolver) parsePackage(ref Ref, spec string, ctx Context) (ParsedTheme, error) {
	if isRemoteSpecifier(spec) {
		return ParsedTheme{}, fmt.Errorf("%w: %q is not a registry package or local directory", ErrInvalidSpecifier, spec)
	}

	if looksLikePath(spec) {
		dir := spec
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(ctx.EntryContextDir, spec)
		}
		dir = filepath.Clean(dir)
		name, err := r.readPackageName(dir)
		if err != nil {
			return ParsedTheme{}, err
		}
		return ParsedTheme{
			Kind:      KindPackage,
			Name:      name,
			Specifier: spec,
			Source:    dir,
			Location:  filepath.Join(ctx.ThemesDir, packageStoreDir, name),
			Import:    ref.Import,
		}, nil
	}

	name, err := registryPackageName(spec)
	if err != nil {
		return ParsedTheme{}, err
	}
	return ParsedTheme{
		Kind:      KindPackage,
		Name:      name,
		Specifier: spec,
		Location:  filepath.Join(ctx.ThemesDir, packageStoreDir, name),
		Import:    ref.Import,
	}, nil
}

// readPackageName reads the declared name from <dir>/package.json.
func (r *Resolver) readPackageName(dir string) (string, error) {
	metaPath := filepath.Join(dir, "package.json")
	data, err := r.fs.ReadFile(metaPath)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a package directory (no readable package.json)", ErrInvalidSpecifier, dir)
	}
	var meta struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", fmt.Errorf("%w: invalid package.json in %q: %v", ErrInvalidSpecifier, dir, err)
	}
	if meta.Name == "" {
		return "", fmt.Errorf("%w: package.json in %q declares no name", ErrInvalidSpecifier, dir)
	}
	return meta.Name, nil
}

// parseAbsoluteURL reports whether spec is a valid absolute http(s) URL.
func parseAbsoluteURL(spec string) (*url.URL, bool) {
	u, err := url.Parse(spec)
	if err != nil || u.Host == "" {
		return nil, false
	}
	switch u.Scheme {
	case "http", "https":
		return u, true
	}
	return nil, false
}

// looksLikePath reports whether spec is written as a filesystem path
// rather than a registry package name.
func looksLikePath(spec string) bool {
	return filepath.IsAbs(spec) ||
		strings.HasPrefix(spec, "./") ||
		strings.HasPrefix(spec, "../") ||
		spec == "." || spec == ".."
}

// isRemoteSpecifier reports whether spec names a non-registry remote source.
// These are rejected: resolving them would fetch and execute arbitrary
// remote content outside the registry trust model.
func isRemoteSpecifier(spec string) bool {
	if strings.Contains(spec, "://") {
		return true
	}
	for _, prefix := range []string{"git+", "github:", "git:", "bitbucket:", "gitlab:"} {
		if strings.HasPrefix(spec, prefix) {
			return true
		}
	}
	return strings.HasSuffix(spec, ".tgz") || strings.HasSuffix(spec, ".tar.gz")
}

// registryPackageName validates a registry specifier and returns the bare
// package name with any version suffix stripped. Scoped names are supported.
func registryPackageName(spec string) (string, error) {
	name := spec
	// The version separator is the last '@' past position zero, so scoped
	// names like @vivliostyle/theme-techbook@1.0.0 parse correctly.
	if i := strings.LastIndex(spec, "@"); i > 0 {
		name = spec[:i]
	}
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", fmt.Errorf("%w: malformed package specifier %q", ErrInvalidSpecifier, spec)
	}
	if strings.HasPrefix(name, "@") {
		parts := strings.Split(name, "/")
		if len(parts) != 2 || parts[0] == "@" || parts[1] == "" {
			return "", fmt.Errorf("%w: malformed scoped package specifier %q", ErrInvalidSpecifier, spec)
		}
	} else if strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: malformed package specifier %q", ErrInvalidSpecifier, spec)
	}
	return name, nil
}
