package resolver

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vivliostyle/viola-savepdf/internal/clock"
	"github.com/vivliostyle/viola-savepdf/internal/fsops"
	"github.com/vivliostyle/viola-savepdf/internal/mediatype"
	"github.com/vivliostyle/viola-savepdf/internal/metadata"
	"github.com/vivliostyle/viola-savepdf/internal/project"
	"github.com/vivliostyle/viola-savepdf/internal/theme"
)

// Input format names accepted by the --format override and produced by
// inference.
const (
	InputMarkdown = "markdown"
	InputWebbook  = "webbook"
	InputWebpub   = "webpub"
	InputEPUB     = "epub"
	InputEPUBOPF  = "epub-opf"
)

// Environment variable overriding the workspace directory name.
const workspaceDirEnv = "VIOLA_WORKSPACE_DIR"

// defaultWorkspaceDirName is the staging directory created next to the
// project file.
const defaultWorkspaceDirName = ".viola"

// manifestDocName is the publication manifest filename under the
// workspace directory.
const manifestDocName = "publication.json"

// Defaults for per-run scalar options.
const (
	defaultTimeout = 120 * time.Second
	defaultBrowser = "chromium"
	defaultHost    = "localhost"
	defaultPort    = 13000
	defaultLogLvl  = "info"
)

// InlineOptions are the CLI-derived overrides merged over the project file.
type InlineOptions struct {
	// CWD is the working directory inline paths resolve against.
	CWD string

	// ConfigPath is an explicit project file path. When empty the context
	// directory is searched for one.
	ConfigPath string

	// Input is a single ad-hoc input path or URL. Non-empty Input selects
	// single-input mode even when a project file is present.
	Input string

	// InputFormat overrides input format inference.
	InputFormat string

	// Outputs replace the project's declared output list when non-empty.
	Outputs []project.OutputDecl

	// Theme overrides the root theme set.
	Theme string

	Title      string
	Author     string
	Size       string
	CropMarks  bool
	PressReady bool
	Timeout    time.Duration
	Browser    string
	Proxy      string
	NoSandbox  bool
	Host       string
	Port       int
	LogLevel   string
}

// Resolver composes build plans. It is stateless across calls; all
// accumulation (theme index, alias list) lives in per-call context.
type Resolver struct {
	fs     fsops.FS
	clk    clock.Clock
	rep    Reporter
	themes *theme.Resolver
	meta   *metadata.Extractor
}

// New creates a Resolver. A nil reporter discards warnings.
func New(fs fsops.FS, clk clock.Clock, rep Reporter) *Resolver {
	if rep == nil {
		rep = NopReporter{}
	}
	tr := theme.NewResolver(fs)
	return &Resolver{
		fs:     fs,
		clk:    clk,
		rep:    rep,
		themes: tr,
		meta:   metadata.NewExtractor(fs, tr),
	}
}

// resolveContext is the shared state of one resolution call. The theme
// index and alias planner accumulate during the single-pass traversal and
// are folded into the returned plan.
type resolveContext struct {
	contextDir   string
	workspaceDir string
	themesDir    string

	cfg        *project.Config
	rootThemes []theme.ParsedTheme

	index   *theme.Index
	planner *aliasPlanner
	tctx    theme.Context
}

// toc returns the project's table-of-contents declaration, zero when absent.
func (rc *resolveContext) toc() project.TOCDecl {
	if rc.cfg != nil && rc.cfg.TOC != nil {
		return *rc.cfg.TOC
	}
	return project.TOCDecl{}
}

// cover returns the project's cover declaration, zero when absent.
func (rc *resolveContext) cover() project.CoverDecl {
	if rc.cfg != nil && rc.cfg.Cover != nil {
		return *rc.cfg.Cover
	}
	return project.CoverDecl{}
}

// Resolve merges every configuration source into one build plan. It either
// returns a complete plan or fails; no partial writes reach final output
// locations.
func (r *Resolver) Resolve(opts InlineOptions) (*TaskConfig, error) {
	contextDir, err := filepath.Abs(coalesce(opts.CWD, "."))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath, err = project.Find(r.fs, contextDir)
		if err != nil {
			return nil, err
		}
	} else if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(contextDir, cfgPath)
	}

	var cfg *project.Config
	if cfgPath != "" {
		cfg, err = project.Load(r.fs, cfgPath)
		if err != nil {
			return nil, err
		}
		contextDir = filepath.Dir(cfgPath)
	}

	if cfg == nil && opts.Input == "" {
		return nil, fmt.Errorf("no input given and no project file found in %s", contextDir)
	}

	// In pure single-input mode the input's directory is the context and
	// the workspace: staging aliases keep the source untouched.
	if cfg == nil && !isURL(opts.Input) {
		abs := absAgainst(contextDir, opts.Input)
		contextDir = filepath.Dir(abs)
	}

	workspaceName := workspaceDirName()
	if cfg != nil {
		workspaceName = coalesce(cfg.WorkspaceDir, workspaceName)
	} else {
		workspaceName = "."
	}
	workspaceDir := absAgainst(contextDir, workspaceName)
	themesDir := filepath.Join(workspaceDir, "themes")

	rc := &resolveContext{
		contextDir:   contextDir,
		workspaceDir: workspaceDir,
		themesDir:    themesDir,
		cfg:          cfg,
		index:        theme.NewIndex(),
		planner:      newAliasPlanner(r.fs, stagingPrefix(r.clk)),
		tctx: theme.Context{
			EntryContextDir: contextDir,
			WorkspaceDir:    workspaceDir,
			ThemesDir:       themesDir,
		},
	}

	rc.rootThemes, err = r.rootThemeSet(rc, opts)
	if err != nil {
		return nil, err
	}

	pkg := project.ReadPackageMeta(r.fs, contextDir)

	if opts.Input != "" || cfg == nil {
		return r.composeSingleInput(rc, opts, pkg)
	}
	return r.composeProject(rc, opts, pkg)
}

// rootThemeSet resolves the project-wide default themes: the CLI override
// wins over the project file's declaration.
func (r *Resolver) rootThemeSet(rc *resolveContext, opts InlineOptions) ([]theme.ParsedTheme, error) {
	if opts.Theme != "" {
		t, err := r.themes.Parse(theme.Ref{Specifier: opts.Theme}, rc.tctx)
		if err != nil {
			return nil, err
		}
		return []theme.ParsedTheme{t}, nil
	}
	if rc.cfg == nil || rc.cfg.Theme == nil {
		return nil, nil
	}
	return r.parseRefs(rc, rc.cfg.Theme)
}

// composeProject resolves a project file's entry list in declaration order,
// auto-inserting the configured contents and cover pages when the list does
// not declare them explicitly.
func (r *Resolver) composeProject(rc *resolveContext, opts InlineOptions, pkg project.PackageMeta) (*TaskConfig, error) {
	cfg := rc.cfg

	entries := make([]Entry, 0, len(cfg.Entry)+2)
	for _, decl := range cfg.Entry {
		e, err := r.resolveEntry(rc, decl)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	var hasContents, hasCover bool
	for _, e := range entries {
		switch e.(type) {
		case *ContentsEntry:
			hasContents = true
		case *CoverEntry:
			hasCover = true
		}
	}

	if cfg.TOC != nil && !cfg.TOC.Disabled() && !hasContents {
		e, err := r.resolveContents(rc, project.EntryDecl{Rel: project.RelContents})
		if err != nil {
			return nil, err
		}
		entries = append([]Entry{e}, entries...)
	}
	if cfg.Cover != nil && !hasCover {
		e, err := r.resolveCover(rc, project.EntryDecl{Rel: project.RelCover})
		if err != nil {
			return nil, err
		}
		entries = append([]Entry{e}, entries...)
	}

	title := coalesce(opts.Title, cfg.Title, pkg.Name)
	if title == "" && len(cfg.Entry) == 1 && len(entries) > 0 {
		title = entries[len(entries)-1].Base().Title
	}
	if title == "" && len(cfg.Output) > 0 {
		title = outputStem(cfg.Output[0].Path)
	}

	decls := opts.Outputs
	if len(decls) == 0 {
		decls = cfg.Output
	}
	pressReady := opts.PressReady || cfg.PressReady
	outputs, err := normalizeOutputs(decls, title, rc.contextDir, pressReady)
	if err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(rc.workspaceDir, manifestDocName)
	task := r.newTask(rc, opts, pkg)
	task.Title = title
	task.Entries = entries
	task.Outputs = outputs
	task.ManifestPath = manifestPath
	task.ViewerInput = ViewerInput{Kind: ViewerGenerateManifest, ManifestPath: manifestPath}
	rc.seal(task)
	return task, nil
}

// composeSingleInput classifies one ad-hoc input by declared or inferred
// format and builds the plan for it.
func (r *Resolver) composeSingleInput(rc *resolveContext, opts InlineOptions, pkg project.PackageMeta) (*TaskConfig, error) {
	input := opts.Input
	format := opts.InputFormat
	if format == "" {
		inferred, err := inferInputFormat(input)
		if err != nil {
			return nil, err
		}
		format = inferred
	}

	task := r.newTask(rc, opts, pkg)
	var entryTitle string

	switch format {
	case InputMarkdown:
		src, err := r.makeSource(rc, input)
		if err != nil {
			return nil, err
		}
		if src.Kind != SourceFile || src.MediaType != mediatype.Markdown {
			return nil, fmt.Errorf("%w: %s is not a markdown manuscript", ErrUnsupportedManuscript, input)
		}
		meta, err := r.extractMeta(rc, src)
		if err != nil {
			return nil, err
		}
		// A --theme flag is an explicit override; project root themes
		// only apply when the manuscript declares none of its own.
		var explicit []theme.ParsedTheme
		if opts.Theme != "" {
			explicit = rc.rootThemes
		}
		themes := firstThemeSet(explicit, meta.Themes, rc.rootThemes)
		rc.index.AddAll(themes)

		stem := strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
		target, err := rc.planner.stage(filepath.Join(rc.workspaceDir, stem+renderedExt))
		if err != nil {
			return nil, err
		}
		manifestPath, err := rc.planner.stage(filepath.Join(rc.workspaceDir, manifestDocName))
		if err != nil {
			return nil, err
		}

		entryTitle = meta.Title
		task.Entries = []Entry{&ManuscriptEntry{EntryBase: EntryBase{
			Title:  meta.Title,
			Themes: themes,
			Source: src,
			Target: target,
		}}}
		task.ManifestPath = manifestPath
		task.ViewerInput = ViewerInput{Kind: ViewerGenerateManifest, ManifestPath: manifestPath}

	case InputWebbook:
		u, err := normalizeWebbookURL(rc, input)
		if err != nil {
			return nil, err
		}
		task.ViewerInput = ViewerInput{Kind: ViewerWebbookURL, URL: u}

	case InputWebpub:
		abs, err := r.requireFile(rc, input, "publication manifest")
		if err != nil {
			return nil, err
		}
		task.ManifestPath = abs
		task.ViewerInput = ViewerInput{Kind: ViewerLoadManifest, ManifestPath: abs}

	case InputEPUB:
		abs, err := r.requireFile(rc, input, "EPUB container")
		if err != nil {
			return nil, err
		}
		task.ViewerInput = ViewerInput{Kind: ViewerEPUB, EpubPath: abs}

	case InputEPUBOPF:
		abs, err := r.requireFile(rc, input, "EPUB package document")
		if err != nil {
			return nil, err
		}
		task.ViewerInput = ViewerInput{Kind: ViewerEPUBOPF, OpfPath: abs}

	default:
		// Format variants are exhaustive above; anything else is a
		// classification defect, not user input.
		return nil, fmt.Errorf("%w: %q", ErrUnknownInputFormat, format)
	}

	var cfgTitle string
	var cfgPress bool
	var decls []project.OutputDecl
	if rc.cfg != nil {
		cfgTitle = rc.cfg.Title
		cfgPress = rc.cfg.PressReady
		decls = rc.cfg.Output
	}
	title := coalesce(opts.Title, cfgTitle, entryTitle, pkg.Name)
	if len(opts.Outputs) > 0 {
		decls = opts.Outputs
	}
	outputs, err := normalizeOutputs(decls, title, rc.contextDir, opts.PressReady || cfgPress)
	if err != nil {
		return nil, err
	}

	task.Title = title
	task.Outputs = outputs
	rc.seal(task)
	return task, nil
}

// newTask builds the plan skeleton shared by both composer variants:
// directories, scalar options, and the accumulated theme and alias state.
// Entries, outputs, title, and viewer input are filled in by the variant.
func (r *Resolver) newTask(rc *resolveContext, opts InlineOptions, pkg project.PackageMeta) *TaskConfig {
	task := &TaskConfig{
		ContextDir:   rc.contextDir,
		WorkspaceDir: rc.workspaceDir,
		ThemesDir:    rc.themesDir,
		Sandbox:      !opts.NoSandbox,
		Server: ServerConfig{
			Host: coalesce(opts.Host, defaultHost),
			Port: coalesce(opts.Port, defaultPort),
		},
		Timeout:  coalesce(opts.Timeout, defaultTimeout),
		Browser:  coalesce(opts.Browser, defaultBrowser),
		Proxy:    opts.Proxy,
		Size:     opts.Size,
		LogLevel: coalesce(opts.LogLevel, defaultLogLvl),
		Author:   coalesce(opts.Author, pkg.Author),
	}
	task.CropMarks = opts.CropMarks
	task.PressReady = opts.PressReady

	if cfg := rc.cfg; cfg != nil {
		task.Language = cfg.Language
		task.Author = coalesce(opts.Author, cfg.Author, pkg.Author)
		task.Size = coalesce(opts.Size, cfg.Size)
		task.CropMarks = opts.CropMarks || cfg.CropMarks
		task.PressReady = opts.PressReady || cfg.PressReady
		task.Timeout = coalesce(opts.Timeout, cfg.Timeout.Std(), defaultTimeout)
		task.Browser = coalesce(opts.Browser, cfg.Browser, defaultBrowser)
		task.Proxy = coalesce(opts.Proxy, cfg.Proxy)
		if cfg.Sandbox != nil && !opts.NoSandbox {
			task.Sandbox = *cfg.Sandbox
		}
		if cfg.Server != nil {
			task.Server.Host = coalesce(opts.Host, cfg.Server.Host, defaultHost)
			task.Server.Port = coalesce(opts.Port, cfg.Server.Port, defaultPort)
			task.Server.BasePath = cfg.Server.BasePath
		}
		task.Vite = cfg.Vite
	}
	return task
}

// seal folds the accumulated theme index and alias list into the plan.
// Called exactly once per resolution, after the last entry is resolved.
func (rc *resolveContext) seal(task *TaskConfig) {
	task.Themes = rc.index.Themes()
	task.Aliases = rc.planner.aliases
}

// requireFile resolves input against the context directory and fails when
// it does not exist.
func (r *Resolver) requireFile(rc *resolveContext, input, what string) (string, error) {
	abs := absAgainst(rc.contextDir, input)
	exists, err := r.fs.Exists(abs)
	if err != nil {
		return "", fmt.Errorf("failed to check %s %s: %w", what, abs, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s %s", ErrMissingFile, what, abs)
	}
	return abs, nil
}

// inferInputFormat classifies a single ad-hoc input by shape and extension.
func inferInputFormat(input string) (string, error) {
	if isURL(input) {
		return InputWebbook, nil
	}
	base := filepath.Base(input)
	switch strings.ToLower(filepath.Ext(input)) {
	case ".md", ".markdown":
		return InputMarkdown, nil
	case ".json", ".jsonld":
		return InputWebpub, nil
	case ".epub":
		return InputEPUB, nil
	case ".opf":
		return InputEPUBOPF, nil
	case ".html", ".htm", ".xhtml", ".xht":
		return InputWebbook, nil
	}
	if base == manifestDocName {
		return InputWebpub, nil
	}
	return "", fmt.Errorf("%w: cannot classify input %q", ErrUnknownInputFormat, input)
}

// normalizeWebbookURL ensures a webbook location ends in a path segment or
// an explicit document extension. Local paths are kept as filesystem paths.
func normalizeWebbookURL(rc *resolveContext, input string) (string, error) {
	if !isURL(input) {
		return absAgainst(rc.contextDir, input), nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid webbook URL %q: %w", input, err)
	}
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		u.Path += indexDocName
	}
	return u.String(), nil
}

// isURL reports whether s is an absolute http(s) URL.
func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// workspaceDirName returns the workspace directory name, overridable via
// the environment.
func workspaceDirName() string {
	if v := os.Getenv(workspaceDirEnv); v != "" {
		return v
	}
	return defaultWorkspaceDirName
}

// outputStem returns the filename of an output path without its extension.
func outputStem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
