package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tyemirov/seshmux/internal/config"
)

const (
	configUse                  = "config"
	configShortDescription     = "manage seshmux configuration files"
	configInitUse              = "init"
	configInitShortDescription = "write the default configuration"
	configInitLongDescription  = `Write the default configuration to ./.seshmux.yaml, or to ~/.seshmux/config.yaml with --global.
An existing file is kept unless --force is given.`
	globalFlagName           = "global"
	forceFlagName            = "force"
	globalFlagDescription    = "write the global configuration instead of the local one"
	forceFlagDescription     = "overwrite an existing configuration file"
	configurationWrittenText = "Configuration written to %s\n"
)

func createConfigCommand(app *application) *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	configCommand.AddCommand(createConfigInitCommand(app))
	return configCommand
}

func createConfigInitCommand(app *application) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   configInitUse,
		Short: configInitShortDescription,
		Long:  configInitLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.workingDirectory,
			})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(command.OutOrStdout(), configurationWrittenText, destinationPath)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
