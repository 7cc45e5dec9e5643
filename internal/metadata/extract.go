// Package metadata recovers implicit titles and theme overrides from
// manuscript files without running the full document transformation.
//
// Markdown manuscripts are inspected for a leading YAML front-matter block;
// when the block declares no title, the first top-level heading in the
// document body is used instead. HTML manuscripts get a lightweight scan
// for their <title> tag. Absence of metadata is never an error.
package metadata

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/vivliostyle/viola-savepdf/internal/fsops"
	"github.com/vivliostyle/viola-savepdf/internal/mediatype"
	"github.com/vivliostyle/viola-savepdf/internal/theme"
)

// Metadata is what a manuscript implicitly declares about itself.
type Metadata struct {
	// Title is the implicit document title, or empty when none was found.
	Title string

	// Themes are the resolved theme overrides declared in front matter.
	// Nil means no override was declared; the caller's fallback chain applies.
	Themes []theme.ParsedTheme
}

// Extractor reads manuscript metadata.
type Extractor struct {
	fs     fsops.FS
	themes *theme.Resolver
}

// NewExtractor creates an Extractor using the given filesystem and
// theme resolver.
func NewExtractor(fs fsops.FS, themes *theme.Resolver) *Extractor {
	return &Extractor{fs: fs, themes: themes}
}

// Extract reads the manuscript at path and returns its implicit metadata.
// The media type selects the extraction strategy; unknown types yield
// empty metadata.
func (e *Extractor) Extract(mediaType, path string, tctx theme.Context) (Metadata, error) {
	switch mediaType {
	case mediatype.Markdown:
		return e.extractMarkdown(path, tctx)
	case mediatype.HTML, mediatype.XHTML:
		return e.extractHTMLTitle(path)
	}
	return Metadata{}, nil
}

// frontMatter is the subset of VFM front matter the resolver cares about.
type frontMatter struct {
	Title string        `yaml:"title"`
	Theme theme.RefList `yaml:"theme"`
}

func (e *Extractor) extractMarkdown(path string, tctx theme.Context) (Metadata, error) {
	data, err := e.fs.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read manuscript %s: %w", path, err)
	}

	head, body := splitFrontMatter(data)

	var meta Metadata
	if head != nil {
		var fm frontMatter
		if err := yaml.Unmarshal(head, &fm); err != nil {
			return Metadata{}, fmt.Errorf("invalid front matter in %s: %w", path, err)
		}
		meta.Title = fm.Title
		if fm.Theme != nil {
			themes := make([]theme.ParsedTheme, 0, len(fm.Theme))
			for _, ref := range fm.Theme {
				parsed, err := e.themes.Parse(ref, tctx)
				if err != nil {
					return Metadata{}, fmt.Errorf("theme declared in %s: %w", path, err)
				}
				themes = append(themes, parsed)
			}
			meta.Themes = themes
		}
	}

	if meta.Title == "" {
		meta.Title = firstHeading(body)
	}
	return meta, nil
}

// splitFrontMatter separates a leading YAML front-matter block from the
// markdown body. The block opens with "---" on the first line and closes
// with "---" or "...". Returns a nil head when no block is present.
func splitFrontMatter(data []byte) (head, body []byte) {
	s := string(data)
	nl := strings.IndexByte(s, '\n')
	if nl < 0 || strings.TrimRight(s[:nl], "\r") != "---" {
		return nil, data
	}

	headStart := nl + 1
	offset := headStart
	for offset < len(s) {
		lineLen := strings.IndexByte(s[offset:], '\n')
		lineEnd := offset + lineLen + 1
		if lineLen < 0 {
			lineLen = len(s) - offset
			lineEnd = len(s)
		}
		line := strings.TrimRight(s[offset:offset+lineLen], "\r")
		if line == "---" || line == "..." {
			return data[headStart:offset], data[lineEnd:]
		}
		offset = lineEnd
	}
	// Unterminated block: treat the whole document as body.
	return nil, data
}

// firstHeading returns the text of the first level-1 or level-2 heading in
// the markdown body, or empty when the document has none.
func firstHeading(body []byte) string {
	parser := goldmark.New().Parser()
	doc := parser.Parse(text.NewReader(body))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > 2 {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(nodeText(h, body))
		return ast.WalkStop, nil
	})
	return title
}

// nodeText concatenates the raw text segments under a node.
func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
		default:
			sb.WriteString(nodeText(c, src))
		}
	}
	return sb.String()
}

// extractHTMLTitle scans for the first <title> tag textually. This is a
// substring scan, not a parse; HTML manuscripts carry no theme overrides.
func (e *Extractor) extractHTMLTitle(path string) (Metadata, error) {
	data, err := e.fs.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read manuscript %s: %w", path, err)
	}
	s := string(data)
	lower := strings.ToLower(s)

	open := strings.Index(lower, "<title")
	if open < 0 {
		return Metadata{}, nil
	}
	gt := strings.Index(s[open:], ">")
	if gt < 0 {
		return Metadata{}, nil
	}
	start := open + gt + 1
	end := strings.Index(lower[start:], "</title")
	if end < 0 {
		return Metadata{}, nil
	}
	return Metadata{Title: strings.TrimSpace(s[start : start+end])}, nil
}
