package extras

import (
	"fmt"
	"strings"
)

const (
	invalidPathMessageFormat   = "invalid extras path '%s'"
	executeMessageFormat       = "failed to execute %s: %v"
	commandFailedMessageFormat = "%s failed with exit status %d: %s"
	commandFailedNoStderr      = "%s failed with exit status %d"
	copyMessageFormat          = "failed to copy %s to %s: %v"
)

// InvalidPathError reports a path that is absolute, escapes the repository, or normalizes to nothing.
type InvalidPathError struct {
	Path string
}

func (invalidPathError *InvalidPathError) Error() string {
	return fmt.Sprintf(invalidPathMessageFormat, invalidPathError.Path)
}

// ExecuteError reports that an external command could not be launched.
type ExecuteError struct {
	Command string
	Err     error
}

func (executeError *ExecuteError) Error() string {
	return fmt.Sprintf(executeMessageFormat, executeError.Command, executeError.Err)
}

func (executeError *ExecuteError) Unwrap() error {
	return executeError.Err
}

// CommandFailedError reports a command that ran and exited with a non-zero status.
type CommandFailedError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (commandFailedError *CommandFailedError) Error() string {
	trimmedStderr := strings.TrimSpace(commandFailedError.Stderr)
	if trimmedStderr == "" {
		return fmt.Sprintf(commandFailedNoStderr, commandFailedError.Command, commandFailedError.ExitCode)
	}
	return fmt.Sprintf(commandFailedMessageFormat, commandFailedError.Command, commandFailedError.ExitCode, trimmedStderr)
}

// CopyError reports a filesystem failure while materializing a selection.
type CopyError struct {
	Source      string
	Destination string
	Err         error
}

func (copyError *CopyError) Error() string {
	return fmt.Sprintf(copyMessageFormat, copyError.Source, copyError.Destination, copyError.Err)
}

func (copyError *CopyError) Unwrap() error {
	return copyError.Err
}
