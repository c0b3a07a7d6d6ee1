package ports

// CachePort is the content-hash-keyed local artifact store. Entries are
// written once under their immutable key and never mutated in place.
type CachePort interface {
	// Path returns the cache location for a hash key and whether an entry
	// exists there.
	Path(hash string) (string, bool)

	// Put stores content under its hash key and returns the entry path.
	// Storing an already-present key is a no-op.
	Put(hash string, content []byte) (string, error)
}
