package resolver

import (
	"net/url"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vivliostyle/viola-savepdf/internal/theme"
)

// SourceKind discriminates where manuscript content comes from.
type SourceKind string

const (
	// SourceFile is a local filesystem path.
	SourceFile SourceKind = "file"

	// SourceURI is a URL whose fetched mirror is stored under RootDir.
	SourceURI SourceKind = "uri"
)

// EntrySource describes where one entry's content comes from.
type EntrySource struct {
	// Kind discriminates the variant.
	Kind SourceKind

	// Path is the absolute filesystem path (file sources).
	Path string

	// MediaType is the detected content media type (file sources).
	MediaType string

	// URL is the remote location (uri sources).
	URL *url.URL

	// RootDir is the directory root under which the fetched mirror is
	// stored (uri sources).
	RootDir string
}

// Entry is one page to be produced in the output publication. The three
// variants are ManuscriptEntry, ContentsEntry, and CoverEntry; dispatch
// sites type-switch over them and treat fallthrough as a defect.
type Entry interface {
	// Base returns the fields shared by every entry kind.
	Base() *EntryBase

	entry()
}

// EntryBase carries the fields shared by every entry kind.
type EntryBase struct {
	// Title is the resolved page title, possibly empty.
	Title string

	// Themes are the theme identities in effect for this entry.
	Themes []theme.ParsedTheme

	// Source is where the content comes from. Nil for synthesized
	// contents and cover pages that have no template input.
	Source *EntrySource

	// Target is the effective build-time output path. When a staging
	// alias was registered this is the temporary path; the alias's
	// Target carries the canonical location.
	Target string
}

// ManuscriptEntry is an ordinary manuscript page.
type ManuscriptEntry struct {
	EntryBase
}

// ContentsEntry is the generated table-of-contents page.
type ContentsEntry struct {
	EntryBase

	// TOCTitle is the heading shown above the generated list.
	TOCTitle string

	// SectionDepth is the heading-depth cutoff for listed sections.
	SectionDepth int
}

// CoverEntry is the generated cover page.
type CoverEntry struct {
	EntryBase

	// ImageSrc is the absolute path of the cover image.
	ImageSrc string

	// ImageAlt is the image's alternative text.
	ImageAlt string
}

// Base returns the shared entry fields.
func (e *ManuscriptEntry) Base() *EntryBase { return &e.EntryBase }

// Base returns the shared entry fields.
func (e *ContentsEntry) Base() *EntryBase { return &e.EntryBase }

// Base returns the shared entry fields.
func (e *CoverEntry) Base() *EntryBase { return &e.EntryBase }

func (*ManuscriptEntry) entry() {}
func (*ContentsEntry) entry()   {}
func (*CoverEntry) entry()      {}

// OutputFormat discriminates output target formats.
type OutputFormat string

const (
	// FormatPDF renders to a single PDF file.
	FormatPDF OutputFormat = "pdf"

	// FormatEPUB packages an EPUB container.
	FormatEPUB OutputFormat = "epub"

	// FormatWebPub copies the web publication directory.
	FormatWebPub OutputFormat = "webpub"
)

// EPUBVersion is the only EPUB version the packager produces.
const EPUBVersion = "3.0"

// PreflightPressReady marks a PDF output for press-ready preflight.
const PreflightPressReady = "press-ready"

// OutputConfig is one normalized output target.
type OutputConfig struct {
	// Format discriminates the variant.
	Format OutputFormat

	// Path is the absolute output path.
	Path string

	// Preflight is the PDF preflight mode, empty or "press-ready".
	Preflight string

	// Version is the EPUB version tag (epub outputs only).
	Version string
}

// ViewerInputKind discriminates how the renderer loads the resolved plan.
type ViewerInputKind string

const (
	// ViewerGenerateManifest generates a publication manifest from the
	// entry sequence and loads it.
	ViewerGenerateManifest ViewerInputKind = "generate-manifest"

	// ViewerLoadManifest loads an existing publication manifest.
	ViewerLoadManifest ViewerInputKind = "load-manifest"

	// ViewerWebbookURL loads a raw webbook URL directly.
	ViewerWebbookURL ViewerInputKind = "webbook-url"

	// ViewerEPUB loads an EPUB container.
	ViewerEPUB ViewerInputKind = "epub"

	// ViewerEPUBOPF loads an EPUB package document.
	ViewerEPUBOPF ViewerInputKind = "epub-opf"
)

// ViewerInput tells the renderer how to load the resolved plan.
type ViewerInput struct {
	// Kind discriminates the variant.
	Kind ViewerInputKind

	// ManifestPath is where the generated or existing publication
	// manifest lives (webpub-manifest).
	ManifestPath string

	// URL is the webbook entry URL (webbook-url).
	URL string

	// EpubPath is the EPUB container path (epub).
	EpubPath string

	// OpfPath is the EPUB package document path (epub-opf).
	OpfPath string
}

// ExportAlias records that content staged at Source must ultimately be
// materialized at Target. Created only when an entry's canonical target
// would coincide with its own source path; consumed by the packager.
type ExportAlias struct {
	Source string
	Target string
}

// ServerConfig is the preview server bind address.
type ServerConfig struct {
	Host     string
	Port     int
	BasePath string
}

// TaskConfig is the terminal artifact of resolution: everything the
// document transformer, renderer, packager, and preview server need.
// It is owned exclusively by the composer during construction and is
// immutable once returned.
type TaskConfig struct {
	// ContextDir is the directory relative project paths resolve against.
	ContextDir string

	// WorkspaceDir is the staging area for rendered documents, mirrored
	// themes, and the manifest.
	WorkspaceDir string

	// ThemesDir is where package themes are installed.
	ThemesDir string

	Title    string
	Author   string
	Language string

	// Entries is the reading-order sequence of pages to produce.
	Entries []Entry

	// ViewerInput tells the renderer how to load the result.
	ViewerInput ViewerInput

	// Outputs are the normalized output targets; never empty.
	Outputs []OutputConfig

	// Themes is every theme referenced anywhere in the plan, deduplicated,
	// in first-reference order.
	Themes []theme.ParsedTheme

	// Aliases map temporary staging paths to their canonical locations.
	Aliases []ExportAlias

	// ManifestPath is where the publication manifest is written in
	// project mode and staged markdown mode.
	ManifestPath string

	Size       string
	CropMarks  bool
	PressReady bool
	Timeout    time.Duration
	Browser    string
	Proxy      string
	Sandbox    bool
	Server     ServerConfig
	LogLevel   string

	// Vite is the opaque bundler passthrough from the project file,
	// forwarded verbatim.
	Vite yaml.Node
}
