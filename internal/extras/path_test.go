package extras

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNormalizeRelativePath verifies canonical forms and rejections.
func TestNormalizeRelativePath(testingHandle *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expected      string
		expectInvalid bool
	}{
		{name: "plain", input: "nested/file.txt", expected: "nested/file.txt"},
		{name: "current directory segments", input: "./nested/./file.txt", expected: "nested/file.txt"},
		{name: "repeated separators", input: "nested//file.txt", expected: "nested/file.txt"},
		{name: "trailing slash", input: "target/", expected: "target"},
		{name: "absolute", input: "/etc/passwd", expectInvalid: true},
		{name: "parent escape", input: "../outside", expectInvalid: true},
		{name: "inner parent", input: "nested/../file", expectInvalid: true},
		{name: "drive prefix", input: "C:/windows", expectInvalid: true},
		{name: "empty", input: "", expectInvalid: true},
		{name: "only current directory", input: "./.", expectInvalid: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(subTestHandle *testing.T) {
			subTestHandle.Parallel()
			normalized, normalizeError := NormalizeRelativePath(testCase.input)
			if testCase.expectInvalid {
				var invalidPathError *InvalidPathError
				require.True(subTestHandle, errors.As(normalizeError, &invalidPathError))
				require.Equal(subTestHandle, testCase.input, invalidPathError.Path)
				return
			}
			require.NoError(subTestHandle, normalizeError)
			require.Equal(subTestHandle, testCase.expected, normalized)
		})
	}
}

func TestNormalizeRelativePathIsIdempotent(testingHandle *testing.T) {
	inputs := []string{"a/./b//c", "a/b/", "./x"}
	for _, input := range inputs {
		first, firstError := NormalizeRelativePath(input)
		require.NoError(testingHandle, firstError)
		second, secondError := NormalizeRelativePath(first)
		require.NoError(testingHandle, secondError)
		require.Equal(testingHandle, first, second)
	}
}
