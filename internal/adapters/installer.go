package adapters

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/gzip"

	"envbuilder/internal/ports"
	"envbuilder/internal/types"
)

// libDir is the subtree of an environment that holds installed packages.
const libDir = "lib"

// epoch is the fixed timestamp applied to every installed file so that
// two materializations of the same dependency set are byte-identical.
var epoch = time.Unix(0, 0)

// InstallerAdapter unpacks fetched artifacts into an environment tree.
// Wheels are zip archives; sdists are gzipped tarballs.
type InstallerAdapter struct{}

func NewInstallerAdapter() InstallerAdapter {
	return InstallerAdapter{}
}

func (a InstallerAdapter) Install(artifact types.Artifact, archivePath string, envRoot string) error {
	target := filepath.Join(envRoot, libDir)
	switch artifact.Kind {
	case types.ArtifactKindWheel:
		return extractZip(archivePath, target)
	case types.ArtifactKindSdist:
		return extractTarGz(archivePath, target)
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown artifact kind: %s", artifact.Kind))
	}
}

// InstallWorkspacePackage copies a member package's source directory into
// the tree, skipping build and VCS directories.
func (a InstallerAdapter) InstallWorkspacePackage(manifest types.Manifest, envRoot string) error {
	source := filepath.Dir(manifest.Path)
	target := filepath.Join(envRoot, libDir, manifest.Metadata.Name)

	var paths []string
	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if shouldSkipWorkspaceDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return installError(manifest.Metadata.Name, err)
	}
	sort.Strings(paths)
	for _, path := range paths {
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return installError(manifest.Metadata.Name, err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return installError(manifest.Metadata.Name, err)
		}
		if err := writeInstalled(filepath.Join(target, rel), content); err != nil {
			return installError(manifest.Metadata.Name, err)
		}
	}
	return nil
}

func extractZip(archivePath string, target string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return installError(filepath.Base(archivePath), err)
	}
	defer reader.Close()

	files := append([]*zip.File(nil), reader.File...)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	for _, file := range files {
		if strings.HasSuffix(file.Name, "/") {
			continue
		}
		path, err := securePath(target, file.Name)
		if err != nil {
			return err
		}
		entry, err := file.Open()
		if err != nil {
			return installError(file.Name, err)
		}
		content, err := io.ReadAll(entry)
		entry.Close()
		if err != nil {
			return installError(file.Name, err)
		}
		if err := writeInstalled(path, content); err != nil {
			return installError(file.Name, err)
		}
	}
	return nil
}

func extractTarGz(archivePath string, target string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return installError(filepath.Base(archivePath), err)
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		return installError(filepath.Base(archivePath), err)
	}
	defer gz.Close()

	reader := tar.NewReader(gz)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return installError(filepath.Base(archivePath), err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		path, err := securePath(target, header.Name)
		if err != nil {
			return err
		}
		content, err := io.ReadAll(reader)
		if err != nil {
			return installError(header.Name, err)
		}
		if err := writeInstalled(path, content); err != nil {
			return installError(header.Name, err)
		}
	}
}

// writeInstalled creates a file with fixed mode and timestamp.
func writeInstalled(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return err
	}
	return os.Chtimes(path, epoch, epoch)
}

// securePath joins an archive member name under target, rejecting names
// that escape the tree.
func securePath(target string, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("archive entry escapes target: %s", name))
	}
	return filepath.Join(target, cleaned), nil
}

func installError(name string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("environment build failed: install %s", name)).
		WithCause(cause)
}

var _ ports.InstallerPort = InstallerAdapter{}
