package resolver

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vivliostyle/viola-savepdf/internal/project"
)

// defaultOutputStem names the synthesized PDF output when no project title
// is known.
const defaultOutputStem = "output"

// normalizeOutputs expands the declared output list into absolute,
// format-typed output descriptors. When nothing is declared a single PDF
// output is synthesized from the project title. Already-absolute declared
// paths pass through unchanged, so feeding normalized outputs back in is
// a no-op.
func normalizeOutputs(decls []project.OutputDecl, title, contextDir string, pressReady bool) ([]OutputConfig, error) {
	if len(decls) == 0 {
		stem := title
		if stem == "" {
			stem = defaultOutputStem
		}
		out := OutputConfig{
			Format: FormatPDF,
			Path:   filepath.Join(contextDir, stem+".pdf"),
		}
		if pressReady {
			out.Preflight = PreflightPressReady
		}
		return []OutputConfig{out}, nil
	}

	outputs := make([]OutputConfig, 0, len(decls))
	for _, decl := range decls {
		out, err := normalizeOutput(decl, contextDir, pressReady)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func normalizeOutput(decl project.OutputDecl, contextDir string, pressReady bool) (OutputConfig, error) {
	p := decl.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(contextDir, p)
	}

	format, err := outputFormat(decl)
	if err != nil {
		return OutputConfig{}, err
	}

	out := OutputConfig{Format: format, Path: p}
	switch format {
	case FormatPDF:
		if decl.Preflight != "" {
			out.Preflight = decl.Preflight
		} else if pressReady {
			out.Preflight = PreflightPressReady
		}
	case FormatEPUB:
		out.Version = EPUBVersion
	case FormatWebPub:
		// Passes through aside from path resolution.
	}
	return out, nil
}

// outputFormat determines the output format from the explicit declaration
// or the path extension. Extension-less paths are webpub directories.
func outputFormat(decl project.OutputDecl) (OutputFormat, error) {
	if decl.Format != "" {
		switch OutputFormat(decl.Format) {
		case FormatPDF, FormatEPUB, FormatWebPub:
			return OutputFormat(decl.Format), nil
		}
		return "", fmt.Errorf("%w: %q for output %q", ErrUnknownOutputFormat, decl.Format, decl.Path)
	}
	switch strings.ToLower(filepath.Ext(decl.Path)) {
	case ".pdf":
		return FormatPDF, nil
	case ".epub":
		return FormatEPUB, nil
	case "":
		return FormatWebPub, nil
	}
	return "", fmt.Errorf("%w: cannot infer format for output %q", ErrUnknownOutputFormat, decl.Path)
}
