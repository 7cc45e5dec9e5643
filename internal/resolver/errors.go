package resolver

import "errors"

var (
	// ErrMissingFile indicates a manuscript, cover image, or explicit
	// template path was absent when mandatory.
	ErrMissingFile = errors.New("missing required file")

	// ErrUnsupportedManuscript indicates a manuscript whose media type is
	// outside the accepted kinds.
	ErrUnsupportedManuscript = errors.New("unsupported manuscript type")

	// ErrMissingCoverImage indicates a cover entry with no resolvable
	// cover image source.
	ErrMissingCoverImage = errors.New("missing cover image")

	// ErrUnknownInputFormat indicates an input that fell through every
	// known format variant. Dispatch sites are meant to be exhaustive, so
	// hitting this is a defensive condition, not a user-facing one.
	ErrUnknownInputFormat = errors.New("unknown input format")

	// ErrUnknownOutputFormat indicates a declared output whose format is
	// not one of pdf, epub, or webpub.
	ErrUnknownOutputFormat = errors.New("unknown output format")
)
