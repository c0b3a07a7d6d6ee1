package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"envbuilder/internal/ports"
	"envbuilder/internal/types"
)

const defaultFetchWorkers = 4

// FetcherAdapter downloads artifacts into the cache with a bounded
// worker pool. Each artifact is an immutable object keyed by its content
// hash, so fetches need no ordering between them. A transient failure is
// retried once before the build fails.
type FetcherAdapter struct {
	Cache   ports.CachePort
	BaseDir string
	Client  *http.Client
	Workers int
}

func NewFetcherAdapter(cache ports.CachePort, baseDir string, workers int) FetcherAdapter {
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	return FetcherAdapter{
		Cache:   cache,
		BaseDir: baseDir,
		Client:  &http.Client{Timeout: 60 * time.Second},
		Workers: workers,
	}
}

func (a FetcherAdapter) FetchAll(ctx context.Context, packages []types.ResolvedPackage) (map[string]ports.FetchedArtifact, error) {
	results := map[string]ports.FetchedArtifact{}
	var mu sync.Mutex

	workers := pool.New().WithMaxGoroutines(a.Workers).WithErrors().WithContext(ctx)
	for _, pkg := range packages {
		if pkg.Workspace {
			continue
		}
		pkg := pkg
		workers.Go(func(ctx context.Context) error {
			path, err := a.fetchOne(ctx, pkg)
			if err != nil {
				return err
			}
			mu.Lock()
			results[pkg.Name] = ports.FetchedArtifact{Package: pkg.Name, Path: path}
			mu.Unlock()
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchOne returns the cache path of a package's artifact, downloading it
// if the cache has no entry for its hash.
func (a FetcherAdapter) fetchOne(ctx context.Context, pkg types.ResolvedPackage) (string, error) {
	if path, ok := a.Cache.Path(pkg.Artifact.Hash); ok {
		log.Ctx(ctx).Debug().Str("package", pkg.Name).Msg("artifact cache hit")
		return path, nil
	}
	content, err := a.obtain(ctx, pkg)
	if err != nil {
		if !isTransient(err) {
			return "", buildError(pkg.Name, err)
		}
		log.Ctx(ctx).Warn().Str("package", pkg.Name).Err(err).Msg("transient fetch failure, retrying once")
		content, err = a.obtain(ctx, pkg)
		if err != nil {
			return "", buildError(pkg.Name, err)
		}
	}
	if pkg.Artifact.Hash != "" && HashContent(content) != pkg.Artifact.Hash {
		return "", buildError(pkg.Name, fmt.Errorf("artifact hash mismatch: want %s got %s",
			pkg.Artifact.Hash, HashContent(content)))
	}
	return a.Cache.Put(pkg.Artifact.Hash, content)
}

func (a FetcherAdapter) obtain(ctx context.Context, pkg types.ResolvedPackage) ([]byte, error) {
	if pkg.Artifact.URL != "" {
		return a.download(ctx, pkg.Artifact.URL)
	}
	if pkg.Artifact.Path == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("artifact for %s has neither url nor path", pkg.Name))
	}
	path := pkg.Artifact.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.BaseDir, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("artifact file missing: %s", path)).
			WithCause(err)
	}
	return content, nil
}

func (a FetcherAdapter) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid artifact url: %s", url)).
			WithCause(err)
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("failed to fetch %s", url)).
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("failed to fetch %s: status %d", url, resp.StatusCode)).
			WithCause(fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("failed to fetch %s: status %d", url, resp.StatusCode))
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("failed to read %s", url)).
			WithCause(err)
	}
	return content, nil
}

// isTransient classifies errors worth one automatic retry: network and
// server-side failures, not missing artifacts or bad input.
func isTransient(err error) bool {
	return errbuilder.CodeOf(err) == errbuilder.CodeUnavailable
}

func buildError(name string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("environment build failed: fetch %s", name)).
		WithCause(cause)
}

var _ ports.FetcherPort = FetcherAdapter{}
