package cli

import (
	"encoding/json"
	"os"

	"github.com/vivliostyle/viola-savepdf/internal/clock"
	"github.com/vivliostyle/viola-savepdf/internal/fsops"
	"github.com/vivliostyle/viola-savepdf/internal/resolver"
)

// newResolver creates a resolver with real implementations of all
// dependencies.
func newResolver() *resolver.Resolver {
	return resolver.New(fsops.NewRealFS(), clock.System{}, warnReporter{})
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
