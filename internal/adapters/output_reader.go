package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"envbuilder/internal/ports"
	"envbuilder/internal/types"
)

// OutputReaderAdapter parses previously written lock outputs so inspect
// can summarize a resolution without re-running it.
type OutputReaderAdapter struct{}

func NewOutputReaderAdapter() OutputReaderAdapter {
	return OutputReaderAdapter{}
}

func (a OutputReaderAdapter) ReadLock(dir string) ([]types.LockEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, lockFileName))
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("lock file not found; run resolve first").
			WithCause(err)
	}
	var entries []types.LockEntry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("malformed lock line: %s", line))
		}
		name, version, found := strings.Cut(fields[0], "==")
		if !found {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("malformed lock line: %s", line))
		}
		entries = append(entries, types.LockEntry{
			Package: name,
			Version: version,
			Kind:    types.ArtifactKind(fields[1]),
			Hash:    fields[2],
		})
	}
	return entries, nil
}

func (a OutputReaderAdapter) ReadResolutionReport(dir string) (types.ResolutionReport, error) {
	data, err := os.ReadFile(filepath.Join(dir, reportFileName))
	if err != nil {
		return types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("resolution report not found; run resolve first").
			WithCause(err)
	}
	report := types.ResolutionReport{Records: []types.ResolutionRecord{}}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, ",", 4)
		if len(fields) != 4 {
			return types.ResolutionReport{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("malformed report line: %s", line))
		}
		report.Records = append(report.Records, types.ResolutionRecord{
			Package: fields[0],
			Action:  fields[1],
			Value:   fields[2],
			Source:  fields[3],
		})
	}
	return report, nil
}

var _ ports.OutputReaderPort = OutputReaderAdapter{}
