package adapters

import (
	"archive/tar"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/zstd"

	"envbuilder/internal/types"
)

// launcherTemplate resolves the interpreter from PATH at run time, which
// is what keeps the bundle relocatable.
const launcherTemplate = `#!/bin/sh
here="$(cd "$(dirname "$0")/.." && pwd)"
export PYTHONPATH="$here/lib"
exec python3 -m %s "$@"
`

// BundleAdapter finalizes an application environment: launcher script and
// optional compressed archive.
type BundleAdapter struct{}

func NewBundleAdapter() BundleAdapter {
	return BundleAdapter{}
}

// WriteLauncher places the executable entry script at bin/<name>.
func (a BundleAdapter) WriteLauncher(envRoot string, manifest types.Manifest) error {
	entrypoint := manifest.Entrypoint
	if entrypoint == "" {
		entrypoint = moduleName(manifest.Metadata.Name)
	}
	binDir := filepath.Join(envRoot, "bin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return bundleError(manifest.Metadata.Name, err)
	}
	path := filepath.Join(binDir, manifest.Metadata.Name)
	content := fmt.Sprintf(launcherTemplate, entrypoint)
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		return bundleError(manifest.Metadata.Name, err)
	}
	return os.Chtimes(path, epoch, epoch)
}

// Archive writes a deterministic <envRoot>.tar.zst next to the bundle and
// returns its path. Entries are sorted, timestamps zeroed, and ownership
// dropped so identical trees archive identically.
func (a BundleAdapter) Archive(envRoot string) (string, error) {
	archivePath := envRoot + ".tar.zst"
	out, err := os.Create(archivePath)
	if err != nil {
		return "", bundleError(filepath.Base(envRoot), err)
	}
	defer out.Close()

	encoder, err := zstd.NewWriter(out)
	if err != nil {
		return "", bundleError(filepath.Base(envRoot), err)
	}
	writer := tar.NewWriter(encoder)

	var paths []string
	err = filepath.WalkDir(envRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return "", bundleError(filepath.Base(envRoot), err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := addTarEntry(writer, envRoot, path); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", bundleError(filepath.Base(envRoot), err)
	}
	if err := encoder.Close(); err != nil {
		return "", bundleError(filepath.Base(envRoot), err)
	}
	return archivePath, nil
}

func addTarEntry(writer *tar.Writer, envRoot string, path string) error {
	rel, err := filepath.Rel(envRoot, path)
	if err != nil {
		return bundleError(path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return bundleError(path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return bundleError(path, err)
	}
	header := &tar.Header{
		Name:    filepath.ToSlash(rel),
		Mode:    int64(info.Mode().Perm()),
		Size:    int64(len(content)),
		ModTime: epoch,
		Format:  tar.FormatPAX,
	}
	if err := writer.WriteHeader(header); err != nil {
		return bundleError(path, err)
	}
	if _, err := writer.Write(content); err != nil {
		return bundleError(path, err)
	}
	return nil
}

// moduleName converts a distribution name to its default importable
// module name.
func moduleName(name string) string {
	out := []rune(name)
	for i, r := range out {
		if r == '-' || r == '.' {
			out[i] = '_'
		}
	}
	return string(out)
}

func bundleError(name string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("environment build failed: bundle %s", name)).
		WithCause(cause)
}
