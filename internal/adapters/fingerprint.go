package adapters

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/cespare/xxhash/v2"
)

// FingerprintTree digests an environment tree: sorted relative paths and
// file contents feed one xxh64 stream. Equal fingerprints mean equal
// trees, which is how reproducibility is asserted.
func FingerprintTree(root string) (string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to walk environment tree").
			WithCause(err)
	}
	sort.Strings(paths)

	digest := xxhash.New()
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to relativize environment path").
				WithCause(err)
		}
		digest.WriteString(filepath.ToSlash(rel))
		digest.Write([]byte{0})
		file, err := os.Open(path)
		if err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read environment file").
				WithCause(err)
		}
		_, err = io.Copy(digest, file)
		file.Close()
		if err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to hash environment file").
				WithCause(err)
		}
		digest.Write([]byte{0})
	}
	return fmt.Sprintf("xxh64:%016x", digest.Sum64()), nil
}
