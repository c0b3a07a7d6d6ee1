package adapters

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"envbuilder/internal/shared"
)

// Dev shell variable names. Behavior is documented in README.md; keep
// the two in sync.
const (
	EnvNoSync                = "ENVBUILDER_NO_SYNC"
	EnvNoInterpreterDownload = "ENVBUILDER_NO_INTERPRETER_DOWNLOAD"
	EnvLibraryPath           = "LD_LIBRARY_PATH"
	EnvModuleSearchPath      = "PYTHONPATH"
	EnvRepoRoot              = "REPO_ROOT"
)

// ShellEnvAdapter assembles the dev shell variable set and runs the
// interactive session.
type ShellEnvAdapter struct{}

func NewShellEnvAdapter() ShellEnvAdapter {
	return ShellEnvAdapter{}
}

// Variables builds the exported variable set for a dev shell rooted at
// envRoot:
//   - ENVBUILDER_NO_SYNC=1 disables implicit re-resolution in-session,
//   - ENVBUILDER_NO_INTERPRETER_DOWNLOAD=1 forbids fetching a different
//     interpreter,
//   - LD_LIBRARY_PATH gains <env>/lib for native shared libraries,
//   - PYTHONPATH is cleared so an ambient installation cannot leak in,
//   - REPO_ROOT records the repository root for downstream tooling.
func (a ShellEnvAdapter) Variables(envRoot string, workspaceRoot string) (map[string]string, error) {
	repoRoot, err := a.repoRoot(workspaceRoot)
	if err != nil {
		return nil, err
	}
	libraryPath := filepath.Join(envRoot, "lib")
	if inherited := os.Getenv(EnvLibraryPath); inherited != "" {
		libraryPath = libraryPath + string(os.PathListSeparator) + inherited
	}
	return map[string]string{
		EnvNoSync:                "1",
		EnvNoInterpreterDownload: "1",
		EnvLibraryPath:           libraryPath,
		EnvModuleSearchPath:      "",
		EnvRepoRoot:              repoRoot,
	}, nil
}

// repoRoot resolves the enclosing repository root via the version
// control system, falling back to the workspace root outside a checkout.
func (a ShellEnvAdapter) repoRoot(workspaceRoot string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = workspaceRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		abs, absErr := filepath.Abs(workspaceRoot)
		if absErr != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to resolve workspace root").
				WithCause(absErr)
		}
		return abs, nil
	}
	return strings.TrimSpace(string(output)), nil
}

// Enter replaces PATH's head with the environment's bin directory, applies
// the variable set, and runs an interactive shell. The session's exit
// code is returned.
func (a ShellEnvAdapter) Enter(envRoot string, variables map[string]string) (int, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	env := mergeEnviron(os.Environ(), variables)
	env = append(env, "PATH="+filepath.Join(envRoot, "bin")+string(os.PathListSeparator)+os.Getenv("PATH"))

	cmd := exec.Command(shell)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to start shell").
		WithCause(shared.CommandError(nil, err))
}

// mergeEnviron overrides inherited variables with the dev shell set,
// keeping output order deterministic.
func mergeEnviron(inherited []string, overrides map[string]string) []string {
	var out []string
	for _, entry := range inherited {
		sep := strings.IndexByte(entry, '=')
		if sep < 0 {
			out = append(out, entry)
			continue
		}
		if _, ok := overrides[entry[:sep]]; ok {
			continue
		}
		out = append(out, entry)
	}
	for _, key := range sortedVarNames(overrides) {
		out = append(out, fmt.Sprintf("%s=%s", key, overrides[key]))
	}
	return out
}

func sortedVarNames(overrides map[string]string) []string {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
