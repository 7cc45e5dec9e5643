package theme

// Index accumulates every theme referenced during one resolution pass,
// deduplicated by identity. Two references that normalize to the same disk
// or URL location are the same theme. The index lives for exactly one
// resolution call and is not mutated afterward.
type Index struct {
	order []ParsedTheme
	seen  map[string]struct{}
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{seen: make(map[string]struct{})}
}

// Add records a theme in the index. Themes whose identity is already
// present are ignored, preserving first-reference order.
func (x *Index) Add(t ParsedTheme) {
	key := t.identity()
	if _, ok := x.seen[key]; ok {
		return
	}
	x.seen[key] = struct{}{}
	x.order = append(x.order, t)
}

// AddAll records each theme in order.
func (x *Index) AddAll(themes []ParsedTheme) {
	for _, t := range themes {
		x.Add(t)
	}
}

// Themes returns the accumulated themes in first-reference order.
func (x *Index) Themes() []ParsedTheme {
	return x.order
}

// Len returns the number of distinct themes in the index.
func (x *Index) Len() int {
	return len(x.order)
}

// identity is the dedup key: the resolved location (URL for uri themes,
// copy destination for files, store path for packages) plus the source
// path, which keeps distinct on-disk themes distinct even when their
// destinations would coincide.
func (t ParsedTheme) identity() string {
	return string(t.Kind) + "\x00" + t.Location + "\x00" + t.Source
}
