package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vivliostyle/viola-savepdf/internal/clock"
	"github.com/vivliostyle/viola-savepdf/internal/fsops"
	"github.com/vivliostyle/viola-savepdf/internal/project"
	"github.com/vivliostyle/viola-savepdf/internal/theme"
)

// captureReporter records warnings for assertions.
type captureReporter struct {
	warnings []string
}

func (c *captureReporter) Warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func fixedClock(t *testing.T) clock.Clock {
	t.Helper()
	return clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

// newTestResolver builds a resolver against the real filesystem with a
// fixed clock and a capturing reporter.
func newTestResolver(t *testing.T) (*Resolver, *captureReporter) {
	t.Helper()
	rep := &captureReporter{}
	return New(fsops.NewRealFS(), fixedClock(t), rep), rep
}

// newTestContext builds a resolveContext the way Resolve does, for tests
// that exercise classifier internals directly.
func newTestContext(t *testing.T, r *Resolver, contextDir, workspaceDir string, cfg *project.Config) *resolveContext {
	t.Helper()
	themesDir := filepath.Join(workspaceDir, "themes")
	return &resolveContext{
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
}

// writeFile writes a fixture file, creating parents.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
}
