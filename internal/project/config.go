// Package project defines the declarative project file (viola.yaml) and the
// package metadata fallbacks read alongside it.
//
// The schema is permissive about shapes: entries, outputs, themes, the table
// of contents, and the cover may each be declared as a bare scalar or as a
// full object. Custom unmarshallers normalize every shorthand into the full
// form so the resolver only ever sees one shape.
package project

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vivliostyle/viola-savepdf/internal/theme"
)

// Config is the parsed project file.
type Config struct {
	Title    string        `yaml:"title"`
	Author   string        `yaml:"author"`
	Language string        `yaml:"language"`
	Theme    theme.RefList `yaml:"theme"`
	Entry    []EntryDecl   `yaml:"entry"`
	Output   OutputList    `yaml:"output"`
	TOC      *TOCDecl      `yaml:"toc"`
	Cover    *CoverDecl    `yaml:"cover"`

	Size       string   `yaml:"size"`
	CropMarks  bool     `yaml:"cropMarks"`
	PressReady bool     `yaml:"pressReady"`
	Timeout    Duration `yaml:"timeout"`
	Browser    string   `yaml:"browser"`
	Proxy      string   `yaml:"proxy"`
	Sandbox    *bool    `yaml:"sandbox"`

	WorkspaceDir string      `yaml:"workspaceDir"`
	Server       *ServerDecl `yaml:"server"`

	// Vite is a free-form bundler passthrough config. The resolver treats
	// it as opaque and forwards it verbatim.
	Vite yaml.Node `yaml:"vite"`
}

// EntryDecl declares one page of the publication: a bare path string or an
// object carrying per-entry overrides.
type EntryDecl struct {
	Path   string        `yaml:"path"`
	Rel    string        `yaml:"rel"`
	Title  string        `yaml:"title"`
	Theme  theme.RefList `yaml:"theme"`
	Output string        `yaml:"output"`

	// Contents-only fields.
	SectionDepth int `yaml:"sectionDepth"`

	// Cover-only fields.
	ImageSrc string `yaml:"imageSrc"`
	ImageAlt string `yaml:"imageAlt"`
}

// Entry roles. Anything without a role is an ordinary manuscript.
const (
	RelContents = "contents"
	RelCover    = "cover"
)

// UnmarshalYAML accepts either a bare path string or a full entry object.
func (e *EntryDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Path = node.Value
		return nil
	}
	type plain EntryDecl
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("failed to decode entry: %w", err)
	}
	*e = EntryDecl(p)
	return nil
}

// OutputDecl declares one output target: a bare path string or an object
// with an explicit format and per-format options.
type OutputDecl struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"`
	Preflight string `yaml:"preflight"`
}

// UnmarshalYAML accepts either a bare path string or a full output object.
func (o *OutputDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		o.Path = node.Value
		return nil
	}
	type plain OutputDecl
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("failed to decode output: %w", err)
	}
	*o = OutputDecl(p)
	return nil
}

// OutputList accepts a single output or a sequence of outputs.
type OutputList []OutputDecl

// UnmarshalYAML normalizes a single declaration into a one-element list.
func (l *OutputList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var decls []OutputDecl
		if err := node.Decode(&decls); err != nil {
			return err
		}
		*l = decls
		return nil
	}
	var one OutputDecl
	if err := one.UnmarshalYAML(node); err != nil {
		return err
	}
	*l = OutputList{one}
	return nil
}

// TOCDecl configures the generated table of contents. Accepted shorthands:
// a boolean enables the default contents page, a string names its output
// path, and an object sets everything explicitly.
type TOCDecl struct {
	Title        string `yaml:"title"`
	HTMLPath     string `yaml:"htmlPath"`
	SectionDepth int    `yaml:"sectionDepth"`

	disabled bool
}

// UnmarshalYAML accepts bool, string, or object forms.
func (d *TOCDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var enabled bool
		if err := node.Decode(&enabled); err == nil {
			d.disabled = !enabled
			return nil
		}
		d.HTMLPath = node.Value
		return nil
	}
	type plain TOCDecl
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("failed to decode toc: %w", err)
	}
	*d = TOCDecl(p)
	return nil
}

// Disabled reports whether the project explicitly declared "toc: false".
func (d *TOCDecl) Disabled() bool {
	return d != nil && d.disabled
}

// CoverDecl configures the generated cover page. A bare string is the
// cover image source.
type CoverDecl struct {
	Src      string `yaml:"src"`
	Name     string `yaml:"name"`
	HTMLPath string `yaml:"htmlPath"`
}

// UnmarshalYAML accepts a bare image path or an object.
func (d *CoverDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.Src = node.Value
		return nil
	}
	type plain CoverDecl
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("failed to decode cover: %w", err)
	}
	*d = CoverDecl(p)
	return nil
}

// ServerDecl configures the preview server bind address.
type ServerDecl struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	BasePath string `yaml:"basePath"`
}

// Duration decodes either a bare number of seconds or a Go duration string
// such as "90s" or "2m".
type Duration time.Duration

// UnmarshalYAML decodes the two accepted duration forms.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var secs float64
	if err := node.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("failed to decode timeout: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
