package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vivliostyle/viola-savepdf/internal/clock"
	"github.com/vivliostyle/viola-savepdf/internal/fsops"
	"github.com/vivliostyle/viola-savepdf/internal/resolver"
)

// captureReporter records resolver warnings for assertions.
type captureReporter struct {
	warnings []string
}

func (c *captureReporter) Warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// setupResolver builds a resolver over the real filesystem with a pinned
// clock, plus a temp project directory to resolve against.
func setupResolver(t *testing.T) (*resolver.Resolver, *captureReporter, string) {
	t.Helper()
	rep := &captureReporter{}
	clk := clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	r := resolver.New(fsops.NewRealFS(), clk, rep)
	return r, rep, t.TempDir()
}

// writeFile creates a file with parent directories under dir.
func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	return path
}
