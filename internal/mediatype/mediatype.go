// Package mediatype detects content media types from file extensions.
//
// Detection is extension-based only. The resolver never sniffs file contents;
// the extension is the contract between the manuscript author and the build.
package mediatype

import (
	"mime"
	"path/filepath"
	"strings"
)

// Media types the build pipeline understands.
const (
	Markdown = "text/markdown"
	HTML     = "text/html"
	XHTML    = "application/xhtml+xml"
)

// Extension types that the standard mime table either misses or maps
// differently across platforms.
var overrides = map[string]string{
	".md":       Markdown,
	".markdown": Markdown,
	".html":     HTML,
	".htm":      HTML,
	".xhtml":    XHTML,
	".xht":      XHTML,
}

// DetectFromPath returns the media type for a file path based on its
// extension, or the empty string when the extension is unknown.
func DetectFromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := overrides[ext]; ok {
		return mt
	}
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		return ""
	}
	// Strip any charset parameter the mime table appends.
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// IsManuscript reports whether mt is one of the accepted manuscript types.
func IsManuscript(mt string) bool {
	switch mt {
	case Markdown, HTML, XHTML:
		return true
	}
	return false
}
