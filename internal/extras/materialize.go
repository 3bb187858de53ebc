package extras

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	directoryPermissions = 0o755

	logMessageSelectionSkipped = "extras selection skipped"
	logMessageFileCopied       = "extras file copied"
	logFieldReason             = "reason"
	reasonReserved             = "reserved directory"
	reasonMissing              = "missing"
	reasonSymlink              = "symlink"
)

// CopyOptions configures CopySelected.
type CopyOptions struct {
	ReservedDirectory string
	Logger            *zap.Logger
}

type materializer struct {
	repositoryRoot    string
	destinationRoot   string
	reservedDirectory string
	logger            *zap.Logger
}

// CopySelected copies each selected repository-relative path into destinationRoot.
// Symlinks, missing sources, and paths under the reserved directory are skipped silently.
// Directories are copied recursively under the same rules.
func CopySelected(repositoryRoot string, destinationRoot string, selected []string, options CopyOptions) error {
	instance := materializer{
		repositoryRoot:    repositoryRoot,
		destinationRoot:   destinationRoot,
		reservedDirectory: options.ReservedDirectory,
		logger:            options.Logger,
	}
	if instance.reservedDirectory == "" {
		instance.reservedDirectory = DefaultReservedDirectory
	}
	if instance.logger == nil {
		instance.logger = zap.NewNop()
	}

	for _, selectedPath := range selected {
		normalizedPath, normalizeError := NormalizeRelativePath(selectedPath)
		if normalizeError != nil {
			return normalizeError
		}
		if isUnderReservedDirectory(normalizedPath, instance.reservedDirectory) {
			instance.logger.Debug(logMessageSelectionSkipped, zap.String(logFieldPath, normalizedPath), zap.String(logFieldReason, reasonReserved))
			continue
		}
		if copyError := instance.copyPath(normalizedPath); copyError != nil {
			return copyError
		}
	}
	return nil
}

func (instance materializer) copyPath(normalizedPath string) error {
	sourcePath := filepath.Join(instance.repositoryRoot, filepath.FromSlash(normalizedPath))
	destinationPath := filepath.Join(instance.destinationRoot, filepath.FromSlash(normalizedPath))

	fileInformation, statError := os.Lstat(sourcePath)
	if statError != nil {
		if isNotExist(statError) {
			instance.logger.Debug(logMessageSelectionSkipped, zap.String(logFieldPath, normalizedPath), zap.String(logFieldReason, reasonMissing))
			return nil
		}
		return &CopyError{Source: sourcePath, Destination: destinationPath, Err: statError}
	}

	switch {
	case fileInformation.Mode()&fs.ModeSymlink != 0:
		instance.logger.Debug(logMessageSelectionSkipped, zap.String(logFieldPath, normalizedPath), zap.String(logFieldReason, reasonSymlink))
		return nil
	case fileInformation.IsDir():
		return instance.copyDirectory(normalizedPath, sourcePath, destinationPath)
	case fileInformation.Mode().IsRegular():
		return instance.copyFile(sourcePath, destinationPath, fileInformation.Mode().Perm())
	default:
		return nil
	}
}

func (instance materializer) copyDirectory(normalizedPath string, sourcePath string, destinationPath string) error {
	if mkdirError := os.MkdirAll(destinationPath, directoryPermissions); mkdirError != nil {
		return &CopyError{Source: sourcePath, Destination: destinationPath, Err: mkdirError}
	}
	directoryEntries, readError := os.ReadDir(sourcePath)
	if readError != nil {
		return &CopyError{Source: sourcePath, Destination: destinationPath, Err: readError}
	}
	for _, directoryEntry := range directoryEntries {
		childPath := normalizedPath + pathSeparator + directoryEntry.Name()
		if isUnderReservedDirectory(childPath, instance.reservedDirectory) {
			continue
		}
		if copyError := instance.copyPath(childPath); copyError != nil {
			return copyError
		}
	}
	return nil
}

func (instance materializer) copyFile(sourcePath string, destinationPath string, permissions fs.FileMode) error {
	if mkdirError := os.MkdirAll(filepath.Dir(destinationPath), directoryPermissions); mkdirError != nil {
		return &CopyError{Source: sourcePath, Destination: destinationPath, Err: mkdirError}
	}
	sourceFile, openError := os.Open(sourcePath)
	if openError != nil {
		if isNotExist(openError) {
			return nil
		}
		return &CopyError{Source: sourcePath, Destination: destinationPath, Err: openError}
	}
	defer sourceFile.Close()

	destinationFile, createError := os.OpenFile(destinationPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, permissions)
	if createError != nil {
		return &CopyError{Source: sourcePath, Destination: destinationPath, Err: createError}
	}
	if _, copyError := io.Copy(destinationFile, sourceFile); copyError != nil {
		destinationFile.Close()
		return &CopyError{Source: sourcePath, Destination: destinationPath, Err: copyError}
	}
	if closeError := destinationFile.Close(); closeError != nil {
		return &CopyError{Source: sourcePath, Destination: destinationPath, Err: closeError}
	}
	instance.logger.Debug(logMessageFileCopied, zap.String(logFieldPath, destinationPath))
	return nil
}
