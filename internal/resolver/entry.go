package resolver

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/vivliostyle/viola-savepdf/internal/mediatype"
	"github.com/vivliostyle/viola-savepdf/internal/metadata"
	"github.com/vivliostyle/viola-savepdf/internal/project"
	"github.com/vivliostyle/viola-savepdf/internal/theme"
)

// Defaults applied when neither the entry nor the project declares a value.
const (
	defaultTOCTitle   = "Table of Contents"
	defaultTOCDocName = "index.html"
	defaultCoverAlt   = "Cover image"
	defaultCoverDoc   = "cover.html"
)

// resolveEntry classifies one raw entry declaration by its declared role
// and applies the per-kind defaulting rules. Every resolved theme is folded
// into the shared index.
func (r *Resolver) resolveEntry(rc *resolveContext, decl project.EntryDecl) (Entry, error) {
	switch decl.Rel {
	case project.RelContents:
		return r.resolveContents(rc, decl)
	case project.RelCover:
		return r.resolveCover(rc, decl)
	default:
		return r.resolveManuscript(rc, decl)
	}
}

// resolveManuscript resolves an ordinary manuscript entry. Input is
// mandatory and its media type must be one of the accepted manuscript
// kinds.
func (r *Resolver) resolveManuscript(rc *resolveContext, decl project.EntryDecl) (Entry, error) {
	if decl.Path == "" {
		return nil, fmt.Errorf("%w: manuscript entry declares no path", ErrMissingFile)
	}
	src, err := r.makeSource(rc, decl.Path)
	if err != nil {
		return nil, err
	}
	if src.Kind == SourceFile && !mediatype.IsManuscript(src.MediaType) {
		mt := src.MediaType
		if mt == "" {
			mt = "unknown"
		}
		return nil, fmt.Errorf("%w: %s is %s, expected markdown, HTML, or XHTML", ErrUnsupportedManuscript, src.Path, mt)
	}

	meta, err := r.extractMeta(rc, src)
	if err != nil {
		return nil, err
	}
	explicit, err := r.parseRefs(rc, decl.Theme)
	if err != nil {
		return nil, err
	}

	themes := firstThemeSet(explicit, meta.Themes, rc.rootThemes)
	rc.index.AddAll(themes)

	target, err := rc.planner.resolve(src, r.targetFor(rc, src))
	if err != nil {
		return nil, err
	}

	return &ManuscriptEntry{EntryBase: EntryBase{
		Title:  coalesce(decl.Title, meta.Title),
		Themes: themes,
		Source: src,
		Target: target,
	}}, nil
}

// resolveContents resolves the table-of-contents entry. A declared path
// naming a missing file is reinterpreted as the output path (an older
// schema shape) with a warning rather than an error.
func (r *Resolver) resolveContents(rc *resolveContext, decl project.EntryDecl) (Entry, error) {
	src, meta, output, err := r.resolveTemplateInput(rc, decl, "contents")
	if err != nil {
		return nil, err
	}
	explicit, err := r.parseRefs(rc, decl.Theme)
	if err != nil {
		return nil, err
	}

	themes := firstThemeSet(explicit, meta.Themes, rc.rootThemes)
	rc.index.AddAll(themes)

	toc := rc.toc()
	title := coalesce(decl.Title, meta.Title, toc.Title, defaultTOCTitle)

	target := output
	if target == "" && src != nil {
		target = r.targetFor(rc, src)
	}
	if target == "" {
		target = filepath.Join(rc.workspaceDir, coalesce(toc.HTMLPath, defaultTOCDocName))
	}
	target, err = rc.planner.resolve(src, target)
	if err != nil {
		return nil, err
	}

	return &ContentsEntry{
		EntryBase: EntryBase{
			Title:  title,
			Themes: themes,
			Source: src,
			Target: target,
		},
		TOCTitle:     title,
		SectionDepth: coalesce(decl.SectionDepth, toc.SectionDepth),
	}, nil
}

// resolveCover resolves the cover entry. Covers never inherit root themes,
// and a resolvable cover image is mandatory.
func (r *Resolver) resolveCover(rc *resolveContext, decl project.EntryDecl) (Entry, error) {
	src, meta, output, err := r.resolveTemplateInput(rc, decl, "cover")
	if err != nil {
		return nil, err
	}
	explicit, err := r.parseRefs(rc, decl.Theme)
	if err != nil {
		return nil, err
	}

	themes := firstThemeSet(explicit, meta.Themes)
	rc.index.AddAll(themes)

	cover := rc.cover()
	imageSrc := coalesce(decl.ImageSrc, cover.Src)
	if imageSrc == "" {
		return nil, fmt.Errorf("%w: no image declared for the cover page; set the cover property in the project file or imageSrc on the entry", ErrMissingCoverImage)
	}
	imagePath := absAgainst(rc.contextDir, imageSrc)
	exists, err := r.fs.Exists(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check cover image %s: %w", imagePath, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: cover image %s", ErrMissingFile, imagePath)
	}

	target := output
	if target == "" && src != nil {
		target = r.targetFor(rc, src)
	}
	if target == "" {
		target = filepath.Join(rc.workspaceDir, coalesce(cover.HTMLPath, defaultCoverDoc))
	}
	target, err = rc.planner.resolve(src, target)
	if err != nil {
		return nil, err
	}

	return &CoverEntry{
		EntryBase: EntryBase{
			Title:  coalesce(decl.Title, meta.Title),
			Themes: themes,
			Source: src,
			Target: target,
		},
		ImageSrc: imagePath,
		ImageAlt: coalesce(decl.ImageAlt, cover.Name, defaultCoverAlt),
	}, nil
}

// resolveTemplateInput handles the shared contents/cover input rules: an
// existing path is the page template, a missing one is reinterpreted as
// the output path for backward compatibility.
func (r *Resolver) resolveTemplateInput(rc *resolveContext, decl project.EntryDecl, role string) (src *EntrySource, meta metadata.Metadata, output string, err error) {
	if decl.Output != "" {
		output = absAgainst(rc.contextDir, decl.Output)
	}
	if decl.Path == "" {
		return nil, metadata.Metadata{}, output, nil
	}

	abs := absAgainst(rc.contextDir, decl.Path)
	exists, err := r.fs.Exists(abs)
	if err != nil {
		return nil, metadata.Metadata{}, "", fmt.Errorf("failed to check %s template %s: %w", role, abs, err)
	}
	if !exists {
		r.rep.Warnf("%s entry path %q does not exist; treating it as the output path (declare output instead of path)", role, decl.Path)
		if output == "" {
			output = abs
		}
		return nil, metadata.Metadata{}, output, nil
	}

	src, err = r.makeSource(rc, decl.Path)
	if err != nil {
		return nil, metadata.Metadata{}, "", err
	}
	meta, err = r.extractMeta(rc, src)
	if err != nil {
		return nil, metadata.Metadata{}, "", err
	}
	return src, meta, output, nil
}

// makeSource classifies a raw entry path into a file or uri source.
func (r *Resolver) makeSource(rc *resolveContext, raw string) (*EntrySource, error) {
	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return &EntrySource{
			Kind:    SourceURI,
			URL:     u,
			RootDir: filepath.Join(rc.workspaceDir, u.Host),
		}, nil
	}

	abs := absAgainst(rc.contextDir, raw)
	exists, err := r.fs.Exists(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to check manuscript %s: %w", abs, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrMissingFile, abs)
	}
	return &EntrySource{
		Kind:      SourceFile,
		Path:      abs,
		MediaType: mediatype.DetectFromPath(abs),
	}, nil
}

// targetFor computes the canonical output path for a source by its kind.
func (r *Resolver) targetFor(rc *resolveContext, src *EntrySource) string {
	switch src.Kind {
	case SourceFile:
		return targetForFileSource(src.Path, rc.contextDir, rc.workspaceDir)
	case SourceURI:
		return targetForURISource(src.URL, src.RootDir)
	}
	// Source kinds are exhaustive; reaching this is a defect upstream.
	return ""
}

// extractMeta reads implicit metadata for file sources. URL sources are
// fetched by a later stage, so they carry no implicit metadata here.
func (r *Resolver) extractMeta(rc *resolveContext, src *EntrySource) (metadata.Metadata, error) {
	if src == nil || src.Kind != SourceFile {
		return metadata.Metadata{}, nil
	}
	return r.meta.Extract(src.MediaType, src.Path, rc.tctx)
}

// parseRefs resolves an explicit per-entry theme override. Nil in, nil out:
// the distinction drives the fallback chain.
func (r *Resolver) parseRefs(rc *resolveContext, refs theme.RefList) ([]theme.ParsedTheme, error) {
	if refs == nil {
		return nil, nil
	}
	parsed := make([]theme.ParsedTheme, 0, len(refs))
	for _, ref := range refs {
		t, err := r.themes.Parse(ref, rc.tctx)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, t)
	}
	return parsed, nil
}

// absAgainst resolves p against dir unless it is already absolute.
func absAgainst(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
