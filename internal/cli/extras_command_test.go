package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/seshmux/internal/execution"
	"github.com/tyemirov/seshmux/internal/execution/executiontest"
	"github.com/tyemirov/seshmux/internal/registry"
	"github.com/tyemirov/seshmux/internal/types"
)

var (
	untrackedArguments = []string{"ls-files", "-z", "--others", "--exclude-standard"}
	ignoredArguments   = []string{"ls-files", "-z", "--others", "--ignored", "--exclude-standard"}
)

type recordingCopier struct {
	copied []string
}

func (copier *recordingCopier) Copy(text string) error {
	copier.copied = append(copier.copied, text)
	return nil
}

type repositoryFixture struct {
	root   string
	runner *executiontest.RecordingRunner
}

// newRepositoryFixture creates a git repository holding one untracked file and an ignored node_modules tree.
func newRepositoryFixture(testingHandle *testing.T) repositoryFixture {
	testingHandle.Helper()
	root := testingHandle.TempDir()
	_, initError := git.PlainInit(root, false)
	require.NoError(testingHandle, initError)

	files := map[string]string{
		".env":                      "TOKEN=1\n",
		"node_modules/pkg/index.js": "module.exports = 1\n",
		"node_modules/pkg/lib.js":   "module.exports = 2\n",
	}
	for relativePath, contents := range files {
		absolutePath := filepath.Join(root, filepath.FromSlash(relativePath))
		require.NoError(testingHandle, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
		require.NoError(testingHandle, os.WriteFile(absolutePath, []byte(contents), 0o600))
	}

	runner := executiontest.NewRecordingRunner()
	runner.Respond(untrackedArguments, executiontest.Response{Output: execution.Output{Stdout: []byte(".env\x00")}})
	runner.Respond(ignoredArguments, executiontest.Response{Output: execution.Output{
		Stdout: []byte("node_modules/pkg/index.js\x00node_modules/pkg/lib.js\x00"),
	}})
	return repositoryFixture{root: root, runner: runner}
}

func newTestApplication(testingHandle *testing.T, runner execution.Runner) (*application, *recordingCopier) {
	testingHandle.Helper()
	testingHandle.Setenv("HOME", testingHandle.TempDir())
	copier := &recordingCopier{}
	return &application{
		workingDirectory: testingHandle.TempDir(),
		logger:           zap.NewNop(),
		runner:           runner,
		clipboard:        copier,
	}, copier
}

func executeCommand(testingHandle *testing.T, app *application, arguments ...string) (string, error) {
	testingHandle.Helper()
	rootCommand := createRootCommand(app)
	var outputBuffer bytes.Buffer
	rootCommand.SetOut(&outputBuffer)
	rootCommand.SetErr(&outputBuffer)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, arguments))
	executionError := rootCommand.ExecuteContext(context.Background())
	return outputBuffer.String(), executionError
}

func TestScanCommandJSONReport(testingHandle *testing.T) {
	fixture := newRepositoryFixture(testingHandle)
	app, _ := newTestApplication(testingHandle, fixture.runner)

	outputText, scanError := executeCommand(testingHandle, app, "extras", "scan", "--format", "json", fixture.root)
	require.NoError(testingHandle, scanError)

	var reports []types.ScanReport
	require.NoError(testingHandle, json.Unmarshal([]byte(outputText), &reports))
	require.Len(testingHandle, reports, 1)
	report := reports[0]
	require.Equal(testingHandle, fixture.root, report.Repository)
	require.Equal(testingHandle, 3, report.CandidateCount)
	require.Equal(testingHandle, 1, report.FilteredCount)
	require.Equal(testingHandle, []types.BucketOutput{{Bucket: "node_modules", Count: 2, Skipped: true}}, report.Buckets)
	require.Equal(testingHandle, []string{".env"}, report.Selected)

	_, statError := os.Stat(filepath.Join(fixture.root, "worktrees", registry.FileName))
	require.True(testingHandle, os.IsNotExist(statError))
}

func TestScanCommandRawReportAndClipboard(testingHandle *testing.T) {
	fixture := newRepositoryFixture(testingHandle)
	app, copier := newTestApplication(testingHandle, fixture.runner)

	outputText, scanError := executeCommand(testingHandle, app, "extras", "scan", "--copy", fixture.root, filepath.Join(fixture.root, "node_modules"))
	require.NoError(testingHandle, scanError)
	require.Equal(testingHandle, 1, strings.Count(outputText, "Repository: "))
	require.Contains(testingHandle, outputText, "[skip] node_modules (2)")
	require.Contains(testingHandle, outputText, ".env")
	require.Equal(testingHandle, []string{filepath.Join(fixture.root, ".env") + "\n"}, copier.copied)
}

func TestScanCommandRejectsUnknownFormat(testingHandle *testing.T) {
	fixture := newRepositoryFixture(testingHandle)
	app, _ := newTestApplication(testingHandle, fixture.runner)

	_, scanError := executeCommand(testingHandle, app, "extras", "scan", "--format", "yaml", fixture.root)
	require.Error(testingHandle, scanError)
	require.Contains(testingHandle, scanError.Error(), "invalid format value")
	require.Empty(testingHandle, fixture.runner.Invocations())
}

func TestCopyCommandSkipsFlaggedBucketsAndFlushesDeferredRules(testingHandle *testing.T) {
	fixture := newRepositoryFixture(testingHandle)
	app, _ := newTestApplication(testingHandle, fixture.runner)
	destination := filepath.Join(testingHandle.TempDir(), "feature")

	outputText, copyError := executeCommand(testingHandle, app, "extras", "copy", "--repo", fixture.root, "--dest", destination, "--persist")
	require.NoError(testingHandle, copyError)
	require.Contains(testingHandle, outputText, "Copied 1 path")

	copiedContents, readError := os.ReadFile(filepath.Join(destination, ".env"))
	require.NoError(testingHandle, readError)
	require.Equal(testingHandle, "TOKEN=1\n", string(copiedContents))
	_, statError := os.Stat(filepath.Join(destination, "node_modules"))
	require.True(testingHandle, os.IsNotExist(statError))

	store := registry.NewFileStore(registry.FileStoreOptions{})
	loaded, loadError := store.LoadSkipRules(fixture.root)
	require.NoError(testingHandle, loadError)
	require.False(testingHandle, loaded.RegistryMissing)
	require.Equal(testingHandle, []string{"node_modules"}, loaded.ConfiguredRules)
}

func TestCopyCommandNoSkipKeepsFlaggedBuckets(testingHandle *testing.T) {
	fixture := newRepositoryFixture(testingHandle)
	app, _ := newTestApplication(testingHandle, fixture.runner)
	destination := filepath.Join(testingHandle.TempDir(), "feature")
	require.NoError(testingHandle, os.WriteFile(filepath.Join(fixture.root, "node_modules", "pkg", "package.json"), []byte("{}\n"), 0o600))

	_, copyError := executeCommand(testingHandle, app, "extras", "copy", "--repo", fixture.root, "--dest", destination, "--no-skip", "yes")
	require.NoError(testingHandle, copyError)
	require.FileExists(testingHandle, filepath.Join(destination, "node_modules", "pkg", "index.js"))
	require.FileExists(testingHandle, filepath.Join(destination, "node_modules", "pkg", "lib.js"))
	require.NoFileExists(testingHandle, filepath.Join(destination, "node_modules", "pkg", "package.json"))
	require.NoFileExists(testingHandle, filepath.Join(fixture.root, "worktrees", registry.FileName))
}

func TestCopyCommandExplicitPaths(testingHandle *testing.T) {
	testCases := []struct {
		name          string
		paths         []string
		expectedError string
		expectedFiles []string
	}{
		{
			name:          "copies_listed_extra",
			paths:         []string{".env"},
			expectedFiles: []string{".env"},
		},
		{
			name:          "rejects_path_that_is_not_an_extra",
			paths:         []string{"README.md"},
			expectedError: "is not an extra",
		},
		{
			name:          "rejects_skipped_bucket",
			paths:         []string{"node_modules/pkg/index.js"},
			expectedError: "is not an extra",
		},
		{
			name:          "rejects_escaping_path",
			paths:         []string{"../outside"},
			expectedError: "invalid extras path",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(subTestHandle *testing.T) {
			fixture := newRepositoryFixture(subTestHandle)
			app, _ := newTestApplication(subTestHandle, fixture.runner)
			destination := filepath.Join(subTestHandle.TempDir(), "feature")

			arguments := append([]string{"extras", "copy", "--repo", fixture.root, "--dest", destination}, testCase.paths...)
			_, copyError := executeCommand(subTestHandle, app, arguments...)
			if testCase.expectedError != "" {
				require.Error(subTestHandle, copyError)
				require.Contains(subTestHandle, copyError.Error(), testCase.expectedError)
				require.NoDirExists(subTestHandle, destination)
				return
			}
			require.NoError(subTestHandle, copyError)
			for _, expectedFile := range testCase.expectedFiles {
				require.FileExists(subTestHandle, filepath.Join(destination, filepath.FromSlash(expectedFile)))
			}
		})
	}
}

func TestCopyCommandRequiresDestination(testingHandle *testing.T) {
	fixture := newRepositoryFixture(testingHandle)
	app, _ := newTestApplication(testingHandle, fixture.runner)

	_, copyError := executeCommand(testingHandle, app, "extras", "copy", "--repo", fixture.root)
	require.EqualError(testingHandle, copyError, errorDestinationRequired)

	_, copyError = executeCommand(testingHandle, app, "extras", "copy", "--repo", fixture.root, "--dest", fixture.root)
	require.Error(testingHandle, copyError)
	require.Contains(testingHandle, copyError.Error(), "is the repository itself")
}

func TestCopyCommandReportsCollectFailure(testingHandle *testing.T) {
	fixture := newRepositoryFixture(testingHandle)
	fixture.runner.Respond(ignoredArguments, executiontest.Response{Output: execution.Output{ExitCode: 128, Stderr: "fatal: broken index"}})
	app, _ := newTestApplication(testingHandle, fixture.runner)

	_, copyError := executeCommand(testingHandle, app, "extras", "copy", "--repo", fixture.root, "--dest", filepath.Join(testingHandle.TempDir(), "feature"))
	require.Error(testingHandle, copyError)
	require.Contains(testingHandle, copyError.Error(), "broken index")
}
