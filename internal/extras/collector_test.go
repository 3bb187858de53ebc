package extras

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/seshmux/internal/execution"
	"github.com/tyemirov/seshmux/internal/execution/executiontest"
)

func nulJoined(entries ...string) []byte {
	if len(entries) == 0 {
		return nil
	}
	return []byte(strings.Join(entries, "\x00") + "\x00")
}

func writeFixtureFile(testingHandle *testing.T, rootDirectory string, relativePath string, content string) {
	testingHandle.Helper()
	absolutePath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
	require.NoError(testingHandle, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testingHandle, os.WriteFile(absolutePath, []byte(content), 0o644))
}

func TestListCandidatesMergesAndFilters(testingHandle *testing.T) {
	repositoryRoot := testingHandle.TempDir()
	writeFixtureFile(testingHandle, repositoryRoot, ".env", "SECRET=1")
	writeFixtureFile(testingHandle, repositoryRoot, "target/a.o", "obj")
	require.NoError(testingHandle, os.Symlink(filepath.Join(repositoryRoot, ".env"), filepath.Join(repositoryRoot, "env-link")))

	runner := executiontest.NewRecordingRunner()
	runner.Respond(untrackedListingArguments, executiontest.Response{
		Output: execution.Output{Stdout: nulJoined(".env", "env-link", "worktrees/feature/file", "vanished.txt")},
	})
	runner.Respond(ignoredListingArguments, executiontest.Response{
		Output: execution.Output{Stdout: nulJoined("target/a.o", ".env")},
	})

	candidates, listError := ListCandidates(context.Background(), repositoryRoot, runner, CollectorOptions{})
	require.NoError(testingHandle, listError)
	require.Equal(testingHandle, []string{".env", "target/a.o", "vanished.txt"}, candidates)

	invocations := runner.Invocations()
	require.Len(testingHandle, invocations, 2)
	for _, invocation := range invocations {
		require.Equal(testingHandle, gitProgram, invocation.Program)
		require.Equal(testingHandle, repositoryRoot, invocation.WorkingDirectory)
		require.Contains(testingHandle, invocation.Arguments, "-z")
	}
}

func TestListCandidatesCustomReservedDirectory(testingHandle *testing.T) {
	repositoryRoot := testingHandle.TempDir()
	runner := executiontest.NewRecordingRunner()
	runner.Respond(untrackedListingArguments, executiontest.Response{Output: execution.Output{Stdout: nulJoined(".trees/x", "worktrees/y")}})
	runner.Respond(ignoredListingArguments, executiontest.Response{})

	candidates, listError := ListCandidates(context.Background(), repositoryRoot, runner, CollectorOptions{ReservedDirectory: ".trees"})
	require.NoError(testingHandle, listError)
	require.Equal(testingHandle, []string{"worktrees/y"}, candidates)
}

func TestListCandidatesErrors(testingHandle *testing.T) {
	testCases := []struct {
		name      string
		untracked executiontest.Response
		ignored   executiontest.Response
		assertion func(*testing.T, error)
	}{
		{
			name:      "launch failure",
			untracked: executiontest.Response{Err: errors.New("no git")},
			assertion: func(subTestHandle *testing.T, listError error) {
				var executeError *ExecuteError
				require.True(subTestHandle, errors.As(listError, &executeError))
				require.Contains(subTestHandle, executeError.Command, "ls-files")
			},
		},
		{
			name:      "non-zero exit",
			untracked: executiontest.Response{},
			ignored:   executiontest.Response{Output: execution.Output{ExitCode: 128, Stderr: "fatal: not a git repository\n"}},
			assertion: func(subTestHandle *testing.T, listError error) {
				var commandFailedError *CommandFailedError
				require.True(subTestHandle, errors.As(listError, &commandFailedError))
				require.Equal(subTestHandle, 128, commandFailedError.ExitCode)
				require.Equal(subTestHandle, "fatal: not a git repository", commandFailedError.Stderr)
				require.Contains(subTestHandle, commandFailedError.Command, "--ignored")
			},
		},
		{
			name:      "invalid entry",
			untracked: executiontest.Response{Output: execution.Output{Stdout: nulJoined("../escape")}},
			assertion: func(subTestHandle *testing.T, listError error) {
				var invalidPathError *InvalidPathError
				require.True(subTestHandle, errors.As(listError, &invalidPathError))
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(subTestHandle *testing.T) {
			runner := executiontest.NewRecordingRunner()
			runner.Respond(untrackedListingArguments, testCase.untracked)
			runner.Respond(ignoredListingArguments, testCase.ignored)
			_, listError := ListCandidates(context.Background(), subTestHandle.TempDir(), runner, CollectorOptions{})
			require.Error(subTestHandle, listError)
			testCase.assertion(subTestHandle, listError)
		})
	}
}
