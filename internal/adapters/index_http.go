package adapters

import (
	"io"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"envbuilder/internal/ports"
	"envbuilder/internal/shared"
	"envbuilder/internal/types"
)

// IndexHTTPAdapter serves the package index from an HTTP endpoint that
// returns the same yaml document the file adapter reads. The document is
// fetched once per process.
type IndexHTTPAdapter struct {
	URL    string
	Client *http.Client
	cached types.IndexFile
	loaded bool
}

func NewIndexHTTPAdapter(url string) *IndexHTTPAdapter {
	return &IndexHTTPAdapter{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *IndexHTTPAdapter) AvailableVersions(name string) ([]string, error) {
	index, err := a.load()
	if err != nil {
		return nil, err
	}
	return availableVersions(index, name), nil
}

func (a *IndexHTTPAdapter) Release(name string, version string) (types.Release, error) {
	index, err := a.load()
	if err != nil {
		return types.Release{}, err
	}
	return release(index, name, version)
}

func (a *IndexHTTPAdapter) load() (types.IndexFile, error) {
	if a.loaded {
		return a.cached, nil
	}
	resp, err := a.Client.Get(a.URL)
	if err != nil {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to fetch index").
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to fetch index").
			WithCause(shared.HTTPStatusError(resp.StatusCode, a.URL))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.IndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to read index response").
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

var _ ports.IndexPort = (*IndexHTTPAdapter)(nil)
