package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vivliostyle/viola-savepdf/internal/project"
	"github.com/vivliostyle/viola-savepdf/internal/resolver"
)

var (
	planConfig      string
	planOutputs     []string
	planOutFormat   string
	planInputFormat string
	planTheme       string
	planTitle       string
	planAuthor      string
	planSize        string
	planCropMarks   bool
	planPressReady  bool
	planTimeout     time.Duration
	planBrowser     string
	planProxy       string
	planNoSandbox   bool
	planHost        string
	planPort        int
	planLogLevel    string
)

var planCmd = &cobra.Command{
	Use:   "plan [input]",
	Short: "Resolve the publication description into a build plan",
	Long: `Resolve the project file in the current directory (or the given single
input) into a complete build plan and print it.

The plan lists every entry in reading order, the deduplicated theme set,
the normalized outputs, and any staging aliases.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}

		opts := resolver.InlineOptions{
			CWD:         cwd,
			ConfigPath:  planConfig,
			InputFormat: planInputFormat,
			Theme:       planTheme,
			Title:       planTitle,
			Author:      planAuthor,
			Size:        planSize,
			CropMarks:   planCropMarks,
			PressReady:  planPressReady,
			Timeout:     planTimeout,
			Browser:     planBrowser,
			Proxy:       planProxy,
			NoSandbox:   planNoSandbox,
			Host:        planHost,
			Port:        planPort,
			LogLevel:    planLogLevel,
		}
		if len(args) > 0 {
			opts.Input = args[0]
		}
		for _, out := range planOutputs {
			opts.Outputs = append(opts.Outputs, project.OutputDecl{
				Path:   out,
				Format: planOutFormat,
			})
		}

		task, err := newResolver().Resolve(opts)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(task)
		}
		printPlan(task)
		return nil
	},
}

func init() {
	f := planCmd.Flags()
	f.StringVarP(&planConfig, "config", "c", "", "Path to the project file")
	f.StringArrayVarP(&planOutputs, "output", "o", nil, "Output path (repeatable; format inferred from extension)")
	f.StringVarP(&planOutFormat, "format", "f", "", "Force the format of declared outputs (pdf, epub, webpub)")
	f.StringVar(&planInputFormat, "input-format", "", "Force the input format (markdown, webbook, webpub, epub, epub-opf)")
	f.StringVarP(&planTheme, "theme", "T", "", "Theme specifier overriding the project themes")
	f.StringVar(&planTitle, "title", "", "Publication title override")
	f.StringVar(&planAuthor, "author", "", "Publication author override")
	f.StringVarP(&planSize, "size", "s", "", "Page size (e.g. A4, letter, 182mm,257mm)")
	f.BoolVar(&planCropMarks, "crop-marks", false, "Render crop marks")
	f.BoolVar(&planPressReady, "press-ready", false, "Produce press-ready PDF output")
	f.DurationVar(&planTimeout, "timeout", 0, "Rendering timeout")
	f.StringVar(&planBrowser, "browser", "", "Browser to render with (chromium, firefox, webkit)")
	f.StringVar(&planProxy, "proxy-server", "", "Proxy server for the renderer")
	f.BoolVar(&planNoSandbox, "no-sandbox", false, "Disable the browser sandbox")
	f.StringVar(&planHost, "host", "", "Preview server host")
	f.IntVar(&planPort, "port", 0, "Preview server port")
	f.StringVar(&planLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// printPlan prints a human-readable plan summary.
func printPlan(task *resolver.TaskConfig) {
	PrintSection("Plan")
	if task.Title != "" {
		PrintLabelValue("Title", task.Title)
	}
	if task.Author != "" {
		PrintLabelValue("Author", task.Author)
	}
	PrintLabelValue("Context", task.ContextDir)
	PrintLabelValue("Workspace", task.WorkspaceDir)
	PrintLabelValue("Viewer input", viewerSummary(task.ViewerInput))

	if len(task.Entries) > 0 {
		PrintSection("Entries")
		for _, e := range task.Entries {
			PrintLabelValue(entryKindName(e), entrySummary(e))
		}
	}

	if len(task.Themes) > 0 {
		PrintSection("Themes")
		for _, t := range task.Themes {
			PrintLabelValue(string(t.Kind), t.Name)
		}
	}

	PrintSection("Outputs")
	for _, out := range task.Outputs {
		PrintLabelValue(string(out.Format), out.Path)
	}

	if len(task.Aliases) > 0 {
		PrintSection("Staging aliases")
		for _, a := range task.Aliases {
			PrintLabelValue(a.Source, a.Target)
		}
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Plan resolved: %d entries, %d outputs", len(task.Entries), len(task.Outputs)))
}

// entryKindName names an entry's kind for display.
func entryKindName(e resolver.Entry) string {
	switch e.(type) {
	case *resolver.ManuscriptEntry:
		return "manuscript"
	case *resolver.ContentsEntry:
		return "contents"
	case *resolver.CoverEntry:
		return "cover"
	}
	return "unknown"
}

func entrySummary(e resolver.Entry) string {
	b := e.Base()
	if b.Title != "" {
		return fmt.Sprintf("%s → %s", b.Title, b.Target)
	}
	return b.Target
}

func viewerSummary(v resolver.ViewerInput) string {
	switch v.Kind {
	case resolver.ViewerGenerateManifest:
		return fmt.Sprintf("generate manifest at %s", v.ManifestPath)
	case resolver.ViewerLoadManifest:
		return fmt.Sprintf("load manifest %s", v.ManifestPath)
	case resolver.ViewerWebbookURL:
		return fmt.Sprintf("load webbook %s", v.URL)
	case resolver.ViewerEPUB:
		return fmt.Sprintf("load EPUB %s", v.EpubPath)
	case resolver.ViewerEPUBOPF:
		return fmt.Sprintf("load OPF %s", v.OpfPath)
	}
	return string(v.Kind)
}
