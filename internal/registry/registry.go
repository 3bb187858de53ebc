// Package registry persists per-repository extras settings inside the reserved worktrees directory.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the registry file stored inside the reserved directory.
	FileName = "seshmux.yaml"
	// CurrentVersion is the only registry schema version this package reads and writes.
	CurrentVersion = 1

	defaultReservedDirectory = "worktrees"
	lockFileSuffix           = ".lock"
	temporaryFilePattern     = ".seshmux-*.yaml"
	directoryPermissions     = 0o755
	filePermissions          = 0o644

	errorReadFormat        = "failed to read registry %s: %w"
	errorParseFormat       = "failed to parse registry %s: %w"
	errorVersionFormat     = "unsupported registry version in %s: expected %d, found %d"
	errorEncodeFormat      = "failed to encode registry %s: %w"
	errorLockFormat        = "failed to lock registry %s: %w"
	errorWriteFormat       = "failed to write registry %s: %w"
	errorCreateDirFormat   = "failed to create registry directory %s: %w"
	logMessageRegistrySave = "extras skip rules saved"
	logFieldRegistryPath   = "registry"
	logFieldRuleCount      = "rules"
)

var defaultSkipRules = []string{
	"target",
	"node_modules",
	".next",
	".nuxt",
	".svelte-kit",
	"dist",
	"build",
	"out",
	"coverage",
	".cache",
	"__pycache__",
	".pytest_cache",
	".mypy_cache",
	".ruff_cache",
	".tox",
	".nox",
	".venv",
	"venv",
	"vendor",
	"vendor/bundle",
	".gradle",
	"DerivedData",
	"Pods",
	"Carthage",
	".terraform",
	".serverless",
	"cdk.out",
	".dart_tool",
}

// DefaultSkipRules returns the built-in always-skip patterns in normalized order.
func DefaultSkipRules() []string {
	return NormalizeRules(defaultSkipRules)
}

// SkipRulesLoad is the result of loading skip rules for a repository.
// Rules are the effective rules for a run; ConfiguredRules are the ones the user saved explicitly.
type SkipRulesLoad struct {
	Rules           []string
	ConfiguredRules []string
	RegistryMissing bool
}

// Store loads and saves always-skip rules for a repository.
type Store interface {
	LoadSkipRules(repositoryRoot string) (SkipRulesLoad, error)
	SaveSkipRules(repositoryRoot string, rules []string) error
}

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	ReservedDirectory string
	DefaultRules      []string
	Logger            *zap.Logger
}

// FileStore keeps the registry as YAML inside the reserved directory of each repository.
type FileStore struct {
	reservedDirectory string
	defaultRules      []string
	logger            *zap.Logger
}

// NewFileStore constructs a FileStore. Empty options fall back to the built-in defaults.
func NewFileStore(options FileStoreOptions) *FileStore {
	store := &FileStore{
		reservedDirectory: options.ReservedDirectory,
		defaultRules:      NormalizeRules(options.DefaultRules),
		logger:            options.Logger,
	}
	if store.reservedDirectory == "" {
		store.reservedDirectory = defaultReservedDirectory
	}
	if len(store.defaultRules) == 0 {
		store.defaultRules = DefaultSkipRules()
	}
	if store.logger == nil {
		store.logger = zap.NewNop()
	}
	return store
}

type registryDocument struct {
	Version  int                    `yaml:"version"`
	Settings registrySettings       `yaml:"settings"`
	Other    map[string]interface{} `yaml:",inline"`
}

type registrySettings struct {
	Extras extrasSettings         `yaml:"extras"`
	Other  map[string]interface{} `yaml:",inline"`
}

type extrasSettings struct {
	AlwaysSkipBuckets *[]string              `yaml:"always_skip_buckets,omitempty"`
	Other             map[string]interface{} `yaml:",inline"`
}

// Path returns the registry file location for a repository.
func (store *FileStore) Path(repositoryRoot string) string {
	return filepath.Join(repositoryRoot, store.reservedDirectory, FileName)
}

// LoadSkipRules reads the configured rules without ever writing. A missing registry yields the defaults.
func (store *FileStore) LoadSkipRules(repositoryRoot string) (SkipRulesLoad, error) {
	registryPath := store.Path(repositoryRoot)
	document, exists, readError := readDocument(registryPath)
	if readError != nil {
		return SkipRulesLoad{}, readError
	}
	if !exists {
		return SkipRulesLoad{Rules: append([]string(nil), store.defaultRules...), RegistryMissing: true}, nil
	}
	if document.Settings.Extras.AlwaysSkipBuckets == nil {
		return SkipRulesLoad{Rules: append([]string(nil), store.defaultRules...)}, nil
	}
	configuredRules := NormalizeRules(*document.Settings.Extras.AlwaysSkipBuckets)
	return SkipRulesLoad{Rules: configuredRules, ConfiguredRules: append([]string(nil), configuredRules...)}, nil
}

// SaveSkipRules replaces the configured rules, keeping every other registry field intact.
func (store *FileStore) SaveSkipRules(repositoryRoot string, rules []string) error {
	registryPath := store.Path(repositoryRoot)
	registryDirectory := filepath.Dir(registryPath)
	if mkdirError := os.MkdirAll(registryDirectory, directoryPermissions); mkdirError != nil {
		return fmt.Errorf(errorCreateDirFormat, registryDirectory, mkdirError)
	}

	fileLock := flock.New(registryPath + lockFileSuffix)
	if lockError := fileLock.Lock(); lockError != nil {
		return fmt.Errorf(errorLockFormat, registryPath, lockError)
	}
	defer fileLock.Unlock()

	document, exists, readError := readDocument(registryPath)
	if readError != nil {
		return readError
	}
	if !exists {
		document = registryDocument{Version: CurrentVersion}
	}
	normalizedRules := NormalizeRules(rules)
	document.Settings.Extras.AlwaysSkipBuckets = &normalizedRules

	encoded, encodeError := yaml.Marshal(&document)
	if encodeError != nil {
		return fmt.Errorf(errorEncodeFormat, registryPath, encodeError)
	}
	if writeError := atomicWrite(registryPath, encoded); writeError != nil {
		return fmt.Errorf(errorWriteFormat, registryPath, writeError)
	}
	store.logger.Debug(logMessageRegistrySave, zap.String(logFieldRegistryPath, registryPath), zap.Int(logFieldRuleCount, len(normalizedRules)))
	return nil
}

func readDocument(registryPath string) (registryDocument, bool, error) {
	contents, readError := os.ReadFile(registryPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return registryDocument{}, false, nil
		}
		return registryDocument{}, false, fmt.Errorf(errorReadFormat, registryPath, readError)
	}
	var document registryDocument
	if parseError := yaml.Unmarshal(contents, &document); parseError != nil {
		return registryDocument{}, false, fmt.Errorf(errorParseFormat, registryPath, parseError)
	}
	if document.Version != CurrentVersion {
		return registryDocument{}, false, fmt.Errorf(errorVersionFormat, registryPath, CurrentVersion, document.Version)
	}
	return document, true, nil
}

func atomicWrite(targetPath string, contents []byte) error {
	temporaryFile, createError := os.CreateTemp(filepath.Dir(targetPath), temporaryFilePattern)
	if createError != nil {
		return createError
	}
	temporaryPath := temporaryFile.Name()
	renamed := false
	defer func() {
		if !renamed {
			temporaryFile.Close()
			os.Remove(temporaryPath)
		}
	}()

	if _, writeError := temporaryFile.Write(contents); writeError != nil {
		return writeError
	}
	if syncError := temporaryFile.Sync(); syncError != nil {
		return syncError
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return closeError
	}
	if chmodError := os.Chmod(temporaryPath, filePermissions); chmodError != nil {
		return chmodError
	}
	if renameError := os.Rename(temporaryPath, targetPath); renameError != nil {
		return renameError
	}
	renamed = true
	return nil
}

// NormalizeRules trims values, drops blanks and duplicates, and sorts the result.
func NormalizeRules(rules []string) []string {
	unique := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		trimmedRule := strings.Trim(strings.TrimSpace(rule), "/")
		if trimmedRule == "" {
			continue
		}
		unique[trimmedRule] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for rule := range unique {
		normalized = append(normalized, rule)
	}
	sort.Strings(normalized)
	return normalized
}
