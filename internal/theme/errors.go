package theme

import "errors"

// ErrInvalidSpecifier indicates a theme specifier that is malformed or
// names a disallowed source.
var ErrInvalidSpecifier = errors.New("invalid theme specifier")
