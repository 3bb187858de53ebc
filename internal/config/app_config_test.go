package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func boolPointer(value bool) *bool {
	pointer := value
	return &pointer
}

func TestLoadApplicationConfigurationMergesSources(testingHandle *testing.T) {
	testCases := []struct {
		name            string
		globalContent   string
		localContent    string
		explicitPath    string
		expectReserved  string
		expectRules     []string
		expectTick      time.Duration
		expectFormat    string
		expectClipboard *bool
		expectLogLevel  string
	}{
		{
			name:            "local_overrides_global",
			globalContent:   "extras:\n  reserved_directory: trees\n  default_skip_rules: [target]\nscan:\n  format: json\n  clipboard: true\nlog:\n  level: debug\n",
			localContent:    "extras:\n  default_skip_rules: [node_modules, node_modules]\n  tick: 200ms\nscan:\n  clipboard: false\n",
			expectReserved:  "trees",
			expectRules:     []string{"node_modules"},
			expectTick:      200 * time.Millisecond,
			expectFormat:    "json",
			expectClipboard: boolPointer(false),
			expectLogLevel:  "debug",
		},
		{
			name:          "explicit_path_only",
			globalContent: "",
			localContent:  "scan:\n  format: xml\n",
			explicitPath:  "custom.yaml",
			expectRules:   []string{},
			expectTick:    DefaultTick,
			expectFormat:  DefaultFormat,
		},
		{
			name:         "nothing_configured",
			expectRules:  []string{},
			expectTick:   DefaultTick,
			expectFormat: DefaultFormat,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(subTestHandle *testing.T) {
			homeDirectory := subTestHandle.TempDir()
			subTestHandle.Setenv("HOME", homeDirectory)
			subTestHandle.Setenv("USERPROFILE", homeDirectory)
			workingDirectory := subTestHandle.TempDir()

			if testCase.globalContent != "" {
				globalDirectory := filepath.Join(homeDirectory, ".seshmux")
				require.NoError(subTestHandle, os.MkdirAll(globalDirectory, 0o755))
				require.NoError(subTestHandle, os.WriteFile(filepath.Join(globalDirectory, "config.yaml"), []byte(testCase.globalContent), 0o600))
			}
			if testCase.localContent != "" {
				require.NoError(subTestHandle, os.WriteFile(filepath.Join(workingDirectory, ".seshmux.yaml"), []byte(testCase.localContent), 0o600))
			}

			configuration, loadError := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory, ExplicitFilePath: testCase.explicitPath})
			require.NoError(subTestHandle, loadError)
			require.Equal(subTestHandle, testCase.expectReserved, configuration.Extras.ReservedDirectory)
			require.Equal(subTestHandle, testCase.expectRules, configuration.Extras.DefaultSkipRules)
			require.Equal(subTestHandle, testCase.expectTick, configuration.Extras.EffectiveTick())
			require.Equal(subTestHandle, testCase.expectFormat, configuration.Scan.EffectiveFormat())
			require.Equal(subTestHandle, testCase.expectClipboard, configuration.Scan.Clipboard)
			require.Equal(subTestHandle, testCase.expectLogLevel, configuration.Log.Level)
		})
	}
}

func TestLoadApplicationConfigurationRejectsDirectory(testingHandle *testing.T) {
	testingHandle.Setenv("HOME", testingHandle.TempDir())
	workingDirectory := testingHandle.TempDir()
	require.NoError(testingHandle, os.MkdirAll(filepath.Join(workingDirectory, ".seshmux.yaml"), 0o755))

	_, loadError := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory})
	require.ErrorContains(testingHandle, loadError, "is a directory")
}
