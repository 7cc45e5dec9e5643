package resolver

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveProjectMode(t *testing.T) {
	r, _ := newTestResolver(t)

	t.Run("single entry no output synthesizes default pdf", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.md"), "Body without a title.\n")
		writeFile(t, filepath.Join(dir, "viola.yaml"), "entry:\n  - a.md\n")

		task, err := r.Resolve(InlineOptions{CWD: dir})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if len(task.Outputs) != 1 {
			t.Fatalf("len(Outputs) = %d, want 1", len(task.Outputs))
		}
		want := filepath.Join(dir, "output.pdf")
		if task.Outputs[0].Format != FormatPDF || task.Outputs[0].Path != want {
			t.Errorf("Outputs[0] = %+v, want default pdf at %q", task.Outputs[0], want)
		}
		if task.ViewerInput.Kind != ViewerGenerateManifest {
			t.Errorf("ViewerInput.Kind = %q, want generate-manifest", task.ViewerInput.Kind)
		}
		wantManifest := filepath.Join(dir, ".viola", "publication.json")
		if task.ManifestPath != wantManifest {
			t.Errorf("ManifestPath = %q, want %q", task.ManifestPath, wantManifest)
		}
	})

	t.Run("extracted title names the default output", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.md"), "---\ntitle: My Story\n---\n")
		writeFile(t, filepath.Join(dir, "viola.yaml"), "entry:\n  - a.md\n")

		task, err := r.Resolve(InlineOptions{CWD: dir})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if task.Title != "My Story" {
			t.Errorf("Title = %q, want My Story", task.Title)
		}
		want := filepath.Join(dir, "My Story.pdf")
		if task.Outputs[0].Path != want {
			t.Errorf("Outputs[0].Path = %q, want %q", task.Outputs[0].Path, want)
		}
	})

	t.Run("declared output filename is the title fallback", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.md"), "x\n")
		writeFile(t, filepath.Join(dir, "b.md"), "y\n")
		writeFile(t, filepath.Join(dir, "viola.yaml"), "entry:\n  - a.md\n  - b.md\noutput: fancy-book.pdf\n")

		task, err := r.Resolve(InlineOptions{CWD: dir})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if task.Title != "fancy-book" {
			t.Errorf("Title = %q, want fancy-book", task.Title)
		}
	})

	t.Run("entries resolve in declaration order", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "one.md"), "---\ntitle: One\n---\n")
		writeFile(t, filepath.Join(dir, "two.md"), "---\ntitle: Two\n---\n")
		writeFile(t, filepath.Join(dir, "viola.yaml"), "title: T\nentry:\n  - one.md\n  - two.md\n")

		task, err := r.Resolve(InlineOptions{CWD: dir})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if len(task.Entries) != 2 {
			t.Fatalf("len(Entries) = %d, want 2", len(task.Entries))
		}
		if task.Entries[0].Base().Title != "One" || task.Entries[1].Base().Title != "Two" {
			t.Errorf("entry order = [%s %s], want [One Two]",
				task.Entries[0].Base().Title, task.Entries[1].Base().Title)
		}
	})

	t.Run("configured toc and cover are prepended", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.md"), "x\n")
		writeFile(t, filepath.Join(dir, "cover.png"), "png")
		writeFile(t, filepath.Join(dir, "viola.yaml"), `title: T
entry:
  - a.md
toc:
  title: Contents
cover: cover.png
`)

		task, err := r.Resolve(InlineOptions{CWD: dir})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if len(task.Entries) != 3 {
			t.Fatalf("len(Entries) = %d, want 3 (cover, contents, manuscript)", len(task.Entries))
		}
		if _, ok := task.Entries[0].(*CoverEntry); !ok {
			t.Errorf("Entries[0] = %T, want *CoverEntry", task.Entries[0])
		}
		if _, ok := task.Entries[1].(*ContentsEntry); !ok {
			t.Errorf("Entries[1] = %T, want *ContentsEntry", task.Entries[1])
		}
		if _, ok := task.Entries[2].(*ManuscriptEntry); !ok {
			t.Errorf("Entries[2] = %T, want *ManuscriptEntry", task.Entries[2])
		}
	})

	t.Run("explicit toc entry is not duplicated", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.md"), "x\n")
		writeFile(t, filepath.Join(dir, "viola.yaml"), `title: T
entry:
  - a.md
  - rel: contents
toc: true
`)

		task, err := r.Resolve(InlineOptions{CWD: dir})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		var contentsCount int
		for _, e := range task.Entries {
			if _, ok := e.(*ContentsEntry); ok {
				contentsCount++
			}
		}
		if contentsCount != 1 {
			t.Errorf("contents entries = %d, want 1", contentsCount)
		}
		// The explicit entry keeps its declared position.
		if _, ok := task.Entries[1].(*ContentsEntry); !ok {
			t.Errorf("Entries[1] = %T, want declared *ContentsEntry in place", task.Entries[1])
		}
	})

	t.Run("theme dedup across entries", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "theme.css"), "body{}")
		writeFile(t, filepath.Join(dir, "a.md"), "---\ntheme: ./theme.css\n---\n")
		writeFile(t, filepath.Join(dir, "b.md"), "---\ntheme: ./theme.css\n---\n")
		writeFile(t, filepath.Join(dir, "viola.yaml"), "title: T\nentry:\n  - a.md\n  - b.md\n")

		task, err := r.Resolve(InlineOptions{CWD: dir})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if len(task.Themes) != 1 {
			t.Errorf("len(Themes) = %d, want 1 after dedup", len(task.Themes))
		}
	})

	t.Run("package metadata fallbacks", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.md"), "x\n")
		writeFile(t, filepath.Join(dir, "b.md"), "y\n")
		writeFile(t, filepath.Join(dir, "package.json"), `{"name": "pkg-book", "author": "Pkg Author"}`)
		writeFile(t, filepath.Join(dir, "viola.yaml"), "entry:\n  - a.md\n  - b.md\n")

		task, err := r.Resolve(InlineOptions{CWD: dir})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if task.Title != "pkg-book" {
			t.Errorf("Title = %q, want package name fallback", task.Title)
		}
		if task.Author != "Pkg Author" {
			t.Errorf("Author = %q, want package author fallback", task.Author)
		}
	})
}

func TestResolveSingleInputMarkdown(t *testing.T) {
	r, _ := newTestResolver(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sample.md"), "# Sample\n\nHello.\n")

	task, err := r.Resolve(InlineOptions{CWD: dir, Input: "sample.md"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if task.ViewerInput.Kind != ViewerGenerateManifest {
		t.Errorf("ViewerInput.Kind = %q, want generate-manifest", task.ViewerInput.Kind)
	}
	if len(task.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(task.Entries))
	}

	e := task.Entries[0].Base()
	base := filepath.Base(e.Target)
	if !strings.HasPrefix(base, ".viola-") || !strings.HasSuffix(base, ".sample.html") {
		t.Errorf("Target basename = %q, want <prefix>sample.html", base)
	}
	if filepath.Dir(e.Target) != task.WorkspaceDir {
		t.Errorf("Target dir = %q, want workspace %q", filepath.Dir(e.Target), task.WorkspaceDir)
	}

	if len(task.Aliases) != 2 {
		t.Fatalf("len(Aliases) = %d, want 2 (document and manifest)", len(task.Aliases))
	}
	wantDoc := filepath.Join(task.WorkspaceDir, "sample.html")
	if task.Aliases[0].Target != wantDoc || task.Aliases[0].Source != e.Target {
		t.Errorf("Aliases[0] = %+v, want {%s %s}", task.Aliases[0], e.Target, wantDoc)
	}
	wantManifest := filepath.Join(task.WorkspaceDir, "publication.json")
	if task.Aliases[1].Target != wantManifest {
		t.Errorf("Aliases[1].Target = %q, want %q", task.Aliases[1].Target, wantManifest)
	}
	if task.ManifestPath != task.Aliases[1].Source {
		t.Errorf("ManifestPath = %q, want staged manifest %q", task.ManifestPath, task.Aliases[1].Source)
	}

	if task.Title != "Sample" {
		t.Errorf("Title = %q, want heading-derived Sample", task.Title)
	}
}

func TestResolveSingleInputTwiceStagesDistinctPaths(t *testing.T) {
	r, _ := newTestResolver(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sample.md"), "Hello.\n")

	first, err := r.Resolve(InlineOptions{CWD: dir, Input: "sample.md"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	second, err := r.Resolve(InlineOptions{CWD: dir, Input: "sample.md"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if first.Entries[0].Base().Target == second.Entries[0].Base().Target {
		t.Error("both runs staged the same target path, want distinct")
	}
	if first.Aliases[0].Target != second.Aliases[0].Target {
		t.Errorf("alias targets differ across runs: %q vs %q",
			first.Aliases[0].Target, second.Aliases[0].Target)
	}
}

func TestResolveSingleInputFormats(t *testing.T) {
	r, _ := newTestResolver(t)

	t.Run("webbook url normalized", func(t *testing.T) {
		task, err := r.Resolve(InlineOptions{CWD: t.TempDir(), Input: "https://example.com/book/"})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if task.ViewerInput.Kind != ViewerWebbookURL {
			t.Errorf("Kind = %q, want webbook-url", task.ViewerInput.Kind)
		}
		if task.ViewerInput.URL != "https://example.com/book/index.html" {
			t.Errorf("URL = %q, want trailing index.html", task.ViewerInput.URL)
		}
	})

	t.Run("webbook url with document segment untouched", func(t *testing.T) {
		task, err := r.Resolve(InlineOptions{CWD: t.TempDir(), Input: "https://example.com/book/toc"})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if task.ViewerInput.URL != "https://example.com/book/toc" {
			t.Errorf("URL = %q, want unchanged", task.ViewerInput.URL)
		}
	})

	t.Run("existing manifest", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "publication.json"), "{}")
		task, err := r.Resolve(InlineOptions{CWD: dir, Input: "publication.json"})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if task.ViewerInput.Kind != ViewerLoadManifest {
			t.Errorf("Kind = %q, want load-manifest", task.ViewerInput.Kind)
		}
		if task.ViewerInput.ManifestPath != filepath.Join(dir, "publication.json") {
			t.Errorf("ManifestPath = %q, want resolved manifest", task.ViewerInput.ManifestPath)
		}
	})

	t.Run("epub container", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "book.epub"), "PK")
		task, err := r.Resolve(InlineOptions{CWD: dir, Input: "book.epub"})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if task.ViewerInput.Kind != ViewerEPUB {
			t.Errorf("Kind = %q, want epub", task.ViewerInput.Kind)
		}
	})

	t.Run("epub package document", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "content.opf"), "<package/>")
		task, err := r.Resolve(InlineOptions{CWD: dir, Input: "content.opf"})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if task.ViewerInput.Kind != ViewerEPUBOPF {
			t.Errorf("Kind = %q, want epub-opf", task.ViewerInput.Kind)
		}
	})

	t.Run("missing epub fails", func(t *testing.T) {
		_, err := r.Resolve(InlineOptions{CWD: t.TempDir(), Input: "missing.epub"})
		if !errors.Is(err, ErrMissingFile) {
			t.Errorf("error = %v, want ErrMissingFile", err)
		}
	})

	t.Run("unclassifiable input fails", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "data.bin"), "x")
		_, err := r.Resolve(InlineOptions{CWD: dir, Input: "data.bin"})
		if !errors.Is(err, ErrUnknownInputFormat) {
			t.Errorf("error = %v, want ErrUnknownInputFormat", err)
		}
	})
}

func TestResolveScalarMerge(t *testing.T) {
	r, _ := newTestResolver(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "x\n")
	writeFile(t, filepath.Join(dir, "viola.yaml"), `title: T
entry:
  - a.md
size: A4
timeout: 90
browser: firefox
server:
  host: 0.0.0.0
  port: 14000
`)

	t.Run("project values apply", func(t *testing.T) {
		task, err := r.Resolve(InlineOptions{CWD: dir})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if task.Size != "A4" || task.Browser != "firefox" {
			t.Errorf("Size/Browser = %q/%q, want A4/firefox", task.Size, task.Browser)
		}
		if task.Timeout.Seconds() != 90 {
			t.Errorf("Timeout = %v, want 90s", task.Timeout)
		}
		if task.Server.Host != "0.0.0.0" || task.Server.Port != 14000 {
			t.Errorf("Server = %+v, want 0.0.0.0:14000", task.Server)
		}
		if !task.Sandbox {
			t.Error("Sandbox = false, want default true")
		}
	})

	t.Run("inline flags win", func(t *testing.T) {
		task, err := r.Resolve(InlineOptions{
			CWD:       dir,
			Size:      "letter",
			Browser:   "chromium",
			Port:      15000,
			NoSandbox: true,
		})
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if task.Size != "letter" || task.Browser != "chromium" || task.Server.Port != 15000 {
			t.Errorf("merged scalars = %q/%q/%d, want CLI values", task.Size, task.Browser, task.Server.Port)
		}
		if task.Sandbox {
			t.Error("Sandbox = true, want disabled by flag")
		}
	})
}

func TestResolveNoInputNoProject(t *testing.T) {
	r, _ := newTestResolver(t)
	_, err := r.Resolve(InlineOptions{CWD: t.TempDir()})
	if err == nil {
		t.Fatal("Resolve() succeeded, want error when nothing to build")
	}
}

func TestCoalesce(t *testing.T) {
	if got := coalesce("", "second", "third"); got != "second" {
		t.Errorf("coalesce = %q, want second", got)
	}
	if got := coalesce("", ""); got != "" {
		t.Errorf("coalesce = %q, want zero value", got)
	}
	if got := coalesce(0, 7); got != 7 {
		t.Errorf("coalesce = %d, want 7", got)
	}
}
