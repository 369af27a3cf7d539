package files

// Record is one file found under a comparison root.
type Record struct {
	// RelPath is the matching key: slash separated and relative to the root,
	// or the lowercased file name in flat mode.
	RelPath string
	Path    string
}

// Mapping maps matching keys to the files found under Root.
type Mapping struct {
	Root    string
	Records map[string]Record
	// Duplicates lists keys that more than one file collapsed onto.
	Duplicates []string
}

func (m Mapping) Len() int {
	return len(m.Records)
}

// Match is the result of intersecting two mappings. All slices are sorted.
type Match struct {
	Common  []string
	OnlyInA []string
	OnlyInB []string
}

func (m Match) Empty() bool {
	return len(m.Common) == 0
}

// Lines is a decoded text file.
type Lines struct {
	Lines    []string
	Encoding string
	// Fallback is set when the detected encoding failed and another was used.
	Fallback bool
	// Lossy is set when invalid bytes were dropped or replaced.
	Lossy bool
}
