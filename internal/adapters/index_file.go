package adapters

import (
	"fmt"
	"os"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"envbuilder/internal/ports"
	"envbuilder/internal/shared"
	"envbuilder/internal/types"
)

// IndexFileAdapter serves the package index from a local yaml document.
// The document is loaded lazily and cached for the process lifetime.
type IndexFileAdapter struct {
	Path   string
	cached types.IndexFile
	loaded bool
}

func NewIndexFileAdapter(path string) *IndexFileAdapter {
	return &IndexFileAdapter{Path: path}
}

func (a *IndexFileAdapter) AvailableVersions(name string) ([]string, error) {
	index, err := a.load()
	if err != nil {
		return nil, err
	}
	return availableVersions(index, name), nil
}

func (a *IndexFileAdapter) Release(name string, version string) (types.Release, error) {
	index, err := a.load()
	if err != nil {
		return types.Release{}, err
	}
	return release(index, name, version)
}

func (a *IndexFileAdapter) load() (types.IndexFile, error) {
	if a.loaded {
		return a.cached, nil
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("index file not found").
			WithCause(err)
	}
	index, err := parseIndex(data)
	if err != nil {
		return types.IndexFile{}, err
	}
	a.cached = index
	a.loaded = true
	return a.cached, nil
}

// parseIndex decodes an index document and normalizes its package names.
func parseIndex(data []byte) (types.IndexFile, error) {
	var index types.IndexFile
	if err := yaml.Unmarshal(data, &index); err != nil {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid index format").
			WithCause(err)
	}
	normalized := map[string]map[string]types.Release{}
	for name, releases := range index.Packages {
		normalized[shared.NormalizePackageName(name)] = releases
	}
	index.Packages = normalized
	return index, nil
}

func availableVersions(index types.IndexFile, name string) []string {
	releases, ok := index.Packages[shared.NormalizePackageName(name)]
	if !ok {
		return nil
	}
	versions := make([]string, 0, len(releases))
	for version := range releases {
		versions = append(versions, version)
	}
	sort.Strings(versions)
	return versions
}

func release(index types.IndexFile, name string, version string) (types.Release, error) {
	releases, ok := index.Packages[shared.NormalizePackageName(name)]
	if ok {
		if entry, ok := releases[version]; ok {
			return entry, nil
		}
	}
	return types.Release{}, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("no distribution for %s %s in index", name, version))
}

var _ ports.IndexPort = (*IndexFileAdapter)(nil)
