package extras

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/seshmux/internal/execution"
)

const (
	// DefaultReservedDirectory is the directory inside a repository that holds worktrees and is never treated as an extra.
	DefaultReservedDirectory = "worktrees"

	gitProgram = "git"

	logMessageCandidatesListed = "extras candidates listed"
	logMessageSymlinkDropped   = "extras candidate is a symlink"
	logFieldCandidateCount     = "candidates"
	logFieldPath               = "path"
)

var (
	untrackedListingArguments = []string{"ls-files", "-z", "--others", "--exclude-standard"}
	ignoredListingArguments   = []string{"ls-files", "-z", "--others", "--ignored", "--exclude-standard"}
)

// CollectorOptions configures ListCandidates.
type CollectorOptions struct {
	ReservedDirectory string
	Logger            *zap.Logger
}

func (options CollectorOptions) reservedDirectory() string {
	if options.ReservedDirectory == "" {
		return DefaultReservedDirectory
	}
	return options.ReservedDirectory
}

func (options CollectorOptions) logger() *zap.Logger {
	if options.Logger == nil {
		return zap.NewNop()
	}
	return options.Logger
}

// ListCandidates returns the sorted, deduplicated untracked and ignored paths of the repository,
// excluding the reserved directory and symlinks.
func ListCandidates(executionContext context.Context, repositoryRoot string, runner execution.Runner, options CollectorOptions) ([]string, error) {
	untrackedEntries, untrackedError := listGitEntries(executionContext, repositoryRoot, runner, untrackedListingArguments)
	if untrackedError != nil {
		return nil, untrackedError
	}
	ignoredEntries, ignoredError := listGitEntries(executionContext, repositoryRoot, runner, ignoredListingArguments)
	if ignoredError != nil {
		return nil, ignoredError
	}

	reservedDirectory := options.reservedDirectory()
	logger := options.logger()
	uniqueCandidates := make(map[string]struct{}, len(untrackedEntries)+len(ignoredEntries))
	for _, rawEntry := range append(untrackedEntries, ignoredEntries...) {
		normalizedPath, normalizeError := NormalizeRelativePath(rawEntry)
		if normalizeError != nil {
			return nil, normalizeError
		}
		if isUnderReservedDirectory(normalizedPath, reservedDirectory) {
			continue
		}
		if isSymlink(filepath.Join(repositoryRoot, filepath.FromSlash(normalizedPath))) {
			logger.Debug(logMessageSymlinkDropped, zap.String(logFieldPath, normalizedPath))
			continue
		}
		uniqueCandidates[normalizedPath] = struct{}{}
	}

	candidates := make([]string, 0, len(uniqueCandidates))
	for candidate := range uniqueCandidates {
		candidates = append(candidates, candidate)
	}
	sort.Strings(candidates)
	logger.Debug(logMessageCandidatesListed, zap.Int(logFieldCandidateCount, len(candidates)))
	return candidates, nil
}

func listGitEntries(executionContext context.Context, repositoryRoot string, runner execution.Runner, arguments []string) ([]string, error) {
	commandLine := gitProgram + " " + strings.Join(arguments, " ")
	output, runError := runner.Run(executionContext, gitProgram, arguments, repositoryRoot)
	if runError != nil {
		return nil, &ExecuteError{Command: commandLine, Err: runError}
	}
	if output.ExitCode != 0 {
		return nil, &CommandFailedError{Command: commandLine, ExitCode: output.ExitCode, Stderr: strings.TrimSpace(output.Stderr)}
	}

	var entries []string
	for _, rawEntry := range bytes.Split(output.Stdout, []byte{0}) {
		if len(rawEntry) == 0 {
			continue
		}
		entries = append(entries, string(rawEntry))
	}
	return entries, nil
}

// isSymlink treats a path that vanished between listing and inspection as a regular entry.
func isSymlink(absolutePath string) bool {
	fileInformation, statError := os.Lstat(absolutePath)
	if statError != nil {
		return false
	}
	return fileInformation.Mode()&fs.ModeSymlink != 0
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
