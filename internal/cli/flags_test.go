package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestRegisterBooleanFlagParsesValues(testingHandle *testing.T) {
	testingHandle.Parallel()

	testCases := []struct {
		name         string
		defaultValue bool
		arguments    []string
		expected     bool
		expectError  bool
	}{
		{name: "defaults_to_false", defaultValue: false, arguments: []string{}, expected: false},
		{name: "sets_true_without_value", defaultValue: false, arguments: []string{"--persist"}, expected: true},
		{name: "sets_false_with_equals", defaultValue: true, arguments: []string{"--persist=false"}, expected: false},
		{name: "sets_false_with_no_literal", defaultValue: true, arguments: []string{"--persist", "no"}, expected: false},
		{name: "sets_true_with_on_literal", defaultValue: false, arguments: []string{"--persist", "on"}, expected: true},
		{name: "leaves_following_path_alone", defaultValue: false, arguments: []string{"--persist", ".env"}, expected: true},
		{name: "rejects_unknown_literal", defaultValue: false, arguments: []string{"--persist=maybe"}, expectError: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(subTestHandle *testing.T) {
			subTestHandle.Parallel()
			command := &cobra.Command{Use: "boolean-test"}
			flagValue := !testCase.defaultValue
			registerBooleanFlag(command.Flags(), &flagValue, "persist", testCase.defaultValue, "save skip rules")
			parseError := command.ParseFlags(normalizeBooleanFlagArguments(command, testCase.arguments))
			if testCase.expectError {
				require.Error(subTestHandle, parseError)
				return
			}
			require.NoError(subTestHandle, parseError)
			require.Equal(subTestHandle, testCase.expected, flagValue)
		})
	}
}

func TestNormalizeBooleanFlagArgumentsStopsAtTerminator(testingHandle *testing.T) {
	command := &cobra.Command{Use: "boolean-test"}
	var persist bool
	registerBooleanFlag(command.Flags(), &persist, "persist", false, "save skip rules")

	normalized := normalizeBooleanFlagArguments(command, []string{"--persist", "yes", "--", "--persist", "no"})
	require.Equal(testingHandle, []string{"--persist=yes", "--", "--persist", "no"}, normalized)
}

func TestNormalizeFormat(testingHandle *testing.T) {
	testCases := []struct {
		input    string
		expected string
		valid    bool
	}{
		{input: "raw", expected: "raw", valid: true},
		{input: " JSON ", expected: "json", valid: true},
		{input: "Xml", expected: "xml", valid: true},
		{input: "toon", valid: false},
	}
	for _, testCase := range testCases {
		normalized, formatError := normalizeFormat(testCase.input)
		if !testCase.valid {
			require.Error(testingHandle, formatError)
			continue
		}
		require.NoError(testingHandle, formatError)
		require.Equal(testingHandle, testCase.expected, normalized)
	}
}
