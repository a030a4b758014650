package pending

// Flags is a bit set of modifiers carried by a pending change, as named in
// spec.md §3.
type Flags uint8

const (
	// Recursive indicates that the path (and, if it's a directory, all of
	// its descendants) needs to be crawled rather than stat'd once.
	Recursive Flags = 1 << iota
	// ViaNotify indicates that this pending change arrived directly from
	// the watcher rather than from a recursive crawl re-enqueuing one of
	// its own descendants.
	ViaNotify
	// IsDesynced indicates that this change was generated during desync
	// recovery, where cookie observations must be ignored.
	IsDesynced
	// CrawlOnly forces the path reconciler to treat this path as a
	// directory that needs crawling, bypassing the root-path/CrawlOnly
	// check that would otherwise route it to a single-path stat.
	CrawlOnly
	// NonrecursiveScan indicates that this directory was added directly by
	// the watcher (as opposed to being discovered during a recursive
	// crawl), which the crawler uses to decide whether it must stat every
	// child on this pass.
	NonrecursiveScan
)

// Has reports whether f contains every bit in other.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// Any reports whether f contains any bit in other.
func (f Flags) Any(other Flags) bool {
	return f&other != 0
}
