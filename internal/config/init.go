package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tyemirov/seshmux/internal/registry"
	"github.com/tyemirov/seshmux/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes .seshmux.yaml into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes ~/.seshmux/config.yaml.
	InitTargetGlobal InitTarget = "global"

	starterReservedDirectory = "worktrees"
	starterLogLevel          = "info"
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

type starterDocument struct {
	Extras starterExtras `yaml:"extras"`
	Scan   starterScan   `yaml:"scan"`
	Log    starterLog    `yaml:"log"`
}

type starterExtras struct {
	ReservedDirectory string   `yaml:"reserved_directory"`
	Tick              string   `yaml:"tick"`
	DefaultSkipRules  []string `yaml:"default_skip_rules"`
}

type starterScan struct {
	Format    string `yaml:"format"`
	Clipboard bool   `yaml:"clipboard"`
}

type starterLog struct {
	Level string `yaml:"level"`
}

// StarterConfiguration renders the configuration written by InitializeConfiguration.
// It spells out the built-in skip rules so they can be edited in place.
func StarterConfiguration() ([]byte, error) {
	document := starterDocument{
		Extras: starterExtras{
			ReservedDirectory: starterReservedDirectory,
			Tick:              DefaultTick.String(),
			DefaultSkipRules:  registry.DefaultSkipRules(),
		},
		Scan: starterScan{Format: DefaultFormat},
		Log:  starterLog{Level: starterLogLevel},
	}
	contents, marshalErr := yaml.Marshal(document)
	if marshalErr != nil {
		return nil, fmt.Errorf("render starter configuration: %w", marshalErr)
	}
	return contents, nil
}

// InitializeConfiguration writes the starter configuration to the requested target and returns its path.
func InitializeConfiguration(options InitOptions) (string, error) {
	destinationPath, resolveErr := resolveInitPath(options)
	if resolveErr != nil {
		return "", resolveErr
	}

	_, statErr := os.Stat(destinationPath)
	switch {
	case statErr == nil && !options.Force:
		return "", fmt.Errorf("configuration file already exists at %s", destinationPath)
	case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, statErr)
	}

	contents, renderErr := StarterConfiguration()
	if renderErr != nil {
		return "", renderErr
	}
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return "", fmt.Errorf("create configuration directory %s: %w", filepath.Dir(destinationPath), err)
	}
	if err := os.WriteFile(destinationPath, contents, 0o600); err != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, err)
	}
	return destinationPath, nil
}

func resolveInitPath(options InitOptions) (string, error) {
	switch options.Target {
	case "", InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", err)
			}
			workingDirectory = current
		}
		return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
	case InitTargetGlobal:
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", err)
		}
		return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName), nil
	default:
		return "", fmt.Errorf("unsupported init target %q", options.Target)
	}
}
