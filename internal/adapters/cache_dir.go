package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/cespare/xxhash/v2"

	"envbuilder/internal/ports"
)

// HashContent digests artifact content into the cache key format.
func HashContent(content []byte) string {
	return fmt.Sprintf("xxh64:%016x", xxhash.Sum64(content))
}

// CacheDirAdapter is the content-hash-keyed artifact store. Entries are
// written once under their immutable key via temp-file rename, which
// keeps concurrent writers of the same key safe: whichever rename lands
// last installs identical bytes.
type CacheDirAdapter struct {
	Dir string
}

func NewCacheDirAdapter(dir string) CacheDirAdapter {
	return CacheDirAdapter{Dir: dir}
}

func (a CacheDirAdapter) Path(hash string) (string, bool) {
	path := filepath.Join(a.Dir, entryName(hash))
	if _, err := os.Stat(path); err != nil {
		return path, false
	}
	return path, true
}

func (a CacheDirAdapter) Put(hash string, content []byte) (string, error) {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create cache directory").
			WithCause(err)
	}
	path, ok := a.Path(hash)
	if ok {
		return path, nil
	}
	tmp, err := os.CreateTemp(a.Dir, ".staging-*")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stage cache entry").
			WithCause(err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write cache entry").
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to close cache entry").
			WithCause(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to commit cache entry").
			WithCause(err)
	}
	return path, nil
}

// entryName flattens a "xxh64:<hex>" key into a filename.
func entryName(hash string) string {
	return strings.ReplaceAll(hash, ":", "-")
}

var _ ports.CachePort = CacheDirAdapter{}
