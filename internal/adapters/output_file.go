package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"envbuilder/internal/ports"
	"envbuilder/internal/types"
)

const (
	lockFileName    = "deps.lock"
	reportFileName  = "resolution.report"
	envManifestDir  = ".envbuilder"
	envManifestName = "env.manifest"
)

type OutputFileAdapter struct {
	Dir string
}

func NewOutputFileAdapter(dir string) OutputFileAdapter {
	return OutputFileAdapter{Dir: dir}
}

func (a OutputFileAdapter) WriteLock(entries []types.LockEntry) error {
	path, err := a.ensurePath(lockFileName)
	if err != nil {
		return err
	}
	ordered := append([]types.LockEntry(nil), entries...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Package < ordered[j].Package
	})
	var lines []string
	for _, entry := range ordered {
		lines = append(lines, fmt.Sprintf("%s==%s %s %s", entry.Package, entry.Version, entry.Kind, entry.Hash))
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

func (a OutputFileAdapter) WriteResolutionReport(report types.ResolutionReport) error {
	path, err := a.ensurePath(reportFileName)
	if err != nil {
		return err
	}
	ordered := append([]types.ResolutionRecord(nil), report.Records...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Package != ordered[j].Package {
			return ordered[i].Package < ordered[j].Package
		}
		if ordered[i].Action != ordered[j].Action {
			return ordered[i].Action < ordered[j].Action
		}
		return ordered[i].Value < ordered[j].Value
	})
	var lines []string
	for _, record := range ordered {
		lines = append(lines, fmt.Sprintf("%s,%s,%s,%s", record.Package, record.Action, record.Value, record.Source))
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

func (a OutputFileAdapter) WriteEnvManifest(envRoot string, manifest types.EnvManifest) error {
	dir := filepath.Join(envRoot, envManifestDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create environment metadata directory").
			WithCause(err)
	}
	sort.Slice(manifest.Packages, func(i, j int) bool {
		return manifest.Packages[i].Package < manifest.Packages[j].Package
	})
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode environment manifest").
			WithCause(err)
	}
	return os.WriteFile(filepath.Join(dir, envManifestName), data, 0644)
}

func (a OutputFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}

var _ ports.OutputPort = OutputFileAdapter{}
