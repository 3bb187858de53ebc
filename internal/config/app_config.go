// Package config loads seshmux settings from the global and per-repository configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/tyemirov/seshmux/internal/utils"
)

const (
	// DefaultTick is the interval at which interactive hosts poll the pipeline.
	DefaultTick = 50 * time.Millisecond
	// DefaultFormat is the output format of extras scan.
	DefaultFormat = "raw"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds seshmux settings.
type ApplicationConfiguration struct {
	Extras ExtrasConfiguration `mapstructure:"extras"`
	Scan   ScanConfiguration   `mapstructure:"scan"`
	Log    LogConfiguration    `mapstructure:"log"`
}

// ExtrasConfiguration configures the extras pipeline.
type ExtrasConfiguration struct {
	ReservedDirectory string        `mapstructure:"reserved_directory"`
	DefaultSkipRules  []string      `mapstructure:"default_skip_rules"`
	Tick              time.Duration `mapstructure:"tick"`
}

// ScanConfiguration defines defaults for the extras scan command.
type ScanConfiguration struct {
	Format    string `mapstructure:"format"`
	Clipboard *bool  `mapstructure:"clipboard"`
}

// LogConfiguration controls logging.
type LogConfiguration struct {
	Level string `mapstructure:"level"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)
	merged.Extras.DefaultSkipRules = utils.CompactRuleList(merged.Extras.DefaultSkipRules)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName)
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Extras = result.Extras.merge(override.Extras)
	result.Scan = result.Scan.merge(override.Scan)
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	return result
}

func (config ExtrasConfiguration) merge(override ExtrasConfiguration) ExtrasConfiguration {
	result := config
	if override.ReservedDirectory != "" {
		result.ReservedDirectory = override.ReservedDirectory
	}
	if len(override.DefaultSkipRules) > 0 {
		result.DefaultSkipRules = append([]string{}, override.DefaultSkipRules...)
	}
	if override.Tick > 0 {
		result.Tick = override.Tick
	}
	return result
}

func (config ScanConfiguration) merge(override ScanConfiguration) ScanConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

// EffectiveTick returns the configured poll interval or DefaultTick.
func (config ExtrasConfiguration) EffectiveTick() time.Duration {
	if config.Tick <= 0 {
		return DefaultTick
	}
	return config.Tick
}

// EffectiveFormat returns the configured scan format or DefaultFormat.
func (config ScanConfiguration) EffectiveFormat() string {
	if config.Format == "" {
		return DefaultFormat
	}
	return config.Format
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
