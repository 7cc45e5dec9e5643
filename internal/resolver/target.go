package resolver

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/vivliostyle/viola-savepdf/internal/fsops"
)

// renderedExt is the extension a manuscript's rendered document carries.
const renderedExt = ".html"

// indexDocName is appended to URL paths that name no document.
const indexDocName = "index.html"

// targetForFileSource computes the canonical output path for a local
// manuscript: the workspace directory plus the source's path relative to
// the entry-context directory, with the manuscript extension rewritten to
// the rendered-document extension. Sources outside the context directory
// fall back to their basename.
func targetForFileSource(srcPath, contextDir, workspaceDir string) string {
	rel, err := filepath.Rel(contextDir, srcPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(srcPath)
	}
	ext := filepath.Ext(rel)
	rel = rel[:len(rel)-len(ext)] + renderedExt
	return filepath.Join(workspaceDir, rel)
}

// targetForURISource computes the mirror path for a URL-sourced entry:
// the URL's path component rooted under the source's mirror directory,
// with an index document name appended when the path names no document.
func targetForURISource(u *url.URL, rootDir string) string {
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") || path.Ext(p) == "" {
		p = path.Join(p, indexDocName)
	}
	return filepath.Join(rootDir, filepath.FromSlash(strings.TrimPrefix(p, "/")))
}

// aliasPlanner resolves source=target collisions by staging content at a
// uniquely prefixed temporary sibling path and recording an alias back to
// the canonical location.
type aliasPlanner struct {
	fs      fsops.FS
	prefix  string
	aliases []ExportAlias
}

func newAliasPlanner(fs fsops.FS, prefix string) *aliasPlanner {
	return &aliasPlanner{fs: fs, prefix: prefix}
}

// resolve runs the collision check for one entry. When the computed target
// is filesystem-identical to the entry's own source path (possible only
// for file sources), the entry's effective target becomes a staged sibling
// and an alias records the canonical path. Otherwise the target passes
// through unchanged.
func (p *aliasPlanner) resolve(src *EntrySource, target string) (string, error) {
	if src == nil || src.Kind != SourceFile {
		return target, nil
	}
	if filepath.Clean(target) != filepath.Clean(src.Path) {
		return target, nil
	}
	return p.stage(target)
}

// stage allocates a staging path for target, registers the alias, and
// touches an empty placeholder so downstream existence checks succeed.
func (p *aliasPlanner) stage(target string) (string, error) {
	tmp := filepath.Join(filepath.Dir(target), p.prefix+filepath.Base(target))
	p.aliases = append(p.aliases, ExportAlias{Source: tmp, Target: target})
	if err := p.fs.Touch(tmp); err != nil {
		return "", fmt.Errorf("failed to create staging placeholder: %w", err)
	}
	return tmp, nil
}
