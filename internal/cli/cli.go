// Package cli provides the seshmux command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/seshmux/internal/config"
	"github.com/tyemirov/seshmux/internal/execution"
	"github.com/tyemirov/seshmux/internal/registry"
	"github.com/tyemirov/seshmux/internal/services/clipboard"
	"github.com/tyemirov/seshmux/internal/services/pipeline"
	"github.com/tyemirov/seshmux/internal/utils"
)

const (
	versionFlagName      = "version"
	configFlagName       = "config"
	logLevelFlagName     = "log-level"
	versionTemplate      = "seshmux version: %s\n"
	rootUse              = "seshmux"
	rootShortDescription = "seshmux command line interface"
	rootLongDescription  = `seshmux prepares git worktrees.
It finds the untracked and ignored files of a repository, flags large generated directories,
and copies the extras you keep into a new worktree.`
	versionFlagDescription  = "display application version"
	configFlagDescription   = "path to a configuration file used instead of ./" + utils.LocalConfigFileName
	logLevelFlagDescription = "log level (debug, info, warn, error)"
)

// application holds the state shared by every command of one invocation.
type application struct {
	configFilePath   string
	logLevel         string
	showVersion      bool
	workingDirectory string

	configuration config.ApplicationConfiguration
	logger        *zap.Logger
	runner        execution.Runner
	clipboard     clipboard.Copier
}

// Execute runs the seshmux application with the process arguments.
func Execute(ctx context.Context) error {
	app := &application{clipboard: clipboard.NewService()}
	rootCommand := createRootCommand(app)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(app *application) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if app.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
			return app.initialize()
		},
	}
	registerBooleanFlag(rootCommand.PersistentFlags(), &app.showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.configFilePath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.logLevel, logLevelFlagName, "", logLevelFlagDescription)
	rootCommand.AddCommand(
		createExtrasCommand(app),
		createConfigCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// initialize loads configuration and builds the logger unless a test already supplied one.
func (app *application) initialize() error {
	configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: app.workingDirectory,
		ExplicitFilePath: app.configFilePath,
	})
	if configurationError != nil {
		return configurationError
	}
	app.configuration = configuration
	if app.logger != nil {
		return nil
	}
	level := app.logLevel
	if level == "" {
		level = configuration.Log.Level
	}
	logger, loggerError := utils.NewApplicationLogger(level)
	if loggerError != nil {
		return loggerError
	}
	app.logger = logger
	return nil
}

func (app *application) reservedDirectory() string {
	return app.configuration.Extras.ReservedDirectory
}

// newController wires a controller to the git collector and the registry file of each repository.
// Controllers are not shared between repositories processed in parallel.
func (app *application) newController(ctx context.Context) *pipeline.Controller {
	loader := pipeline.NewSystemLoader(ctx, pipeline.SystemLoaderOptions{
		Runner:            app.runner,
		ReservedDirectory: app.reservedDirectory(),
		Logger:            app.logger,
	})
	store := registry.NewFileStore(registry.FileStoreOptions{
		ReservedDirectory: app.reservedDirectory(),
		DefaultRules:      app.configuration.Extras.DefaultSkipRules,
		Logger:            app.logger,
	})
	return pipeline.NewController(pipeline.Options{Loader: loader, Store: store, Logger: app.logger})
}
