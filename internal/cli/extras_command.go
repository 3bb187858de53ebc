package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tyemirov/seshmux/internal/extras"
	"github.com/tyemirov/seshmux/internal/output"
	"github.com/tyemirov/seshmux/internal/repository"
	"github.com/tyemirov/seshmux/internal/services/clipboard"
	"github.com/tyemirov/seshmux/internal/services/pipeline"
	"github.com/tyemirov/seshmux/internal/tui"
	"github.com/tyemirov/seshmux/internal/types"
)

const (
	extrasUse              = "extras"
	extrasShortDescription = "inspect and copy untracked and ignored files"
	scanUse                = "scan [paths...]"
	copyUse                = "copy [paths...]"
	pickUse                = "pick"
	scanAlias              = "s"
	scanShortDescription   = "report the extras of one or more repositories (" + scanAlias + ")"
	copyShortDescription   = "copy extras into a destination without prompting"
	pickShortDescription   = "choose extras interactively and copy them"

	scanLongDescription = `Collect the untracked and ignored files of each repository, flag large directories,
skip them as the default decision does, and print the remaining extras.
Use --format to select raw, json, or xml output and --copy to place the selected paths on the clipboard.`
	scanUsageExample = `  # Report the current repository
  seshmux extras scan

  # Report two repositories as JSON
  seshmux extras scan --format json ../api ../web`
	copyLongDescription = `Run the extras pipeline for a repository and copy the result into --dest.
Flagged directories are skipped unless --no-skip is given; --persist saves the skipped
directories as always-skip rules of the repository. Paths limit the copy to those extras.`
	copyUsageExample = `  # Copy every extra except flagged directories
  seshmux extras copy --dest ../feature-worktree

  # Copy two files and remember the skipped directories
  seshmux extras copy --dest ../feature-worktree --persist .env config/local.yaml`
	pickLongDescription = `Open an interactive picker for the extras of a repository and copy the accepted selection into --dest.`

	formatFlagName         = "format"
	copyFlagName           = "copy"
	destinationFlagName    = "dest"
	repositoryFlagName     = "repo"
	noSkipFlagName         = "no-skip"
	persistFlagName        = "persist"
	timeoutFlagName        = "timeout"
	formatFlagDescription  = "output format"
	copyFlagDescription    = "copy the selected paths to the clipboard"
	destinationDescription = "directory the extras are copied into"
	repositoryDescription  = "path inside the source repository"
	noSkipFlagDescription  = "keep flagged directories that are not locked by a saved rule"
	persistFlagDescription = "save the skipped directories as always-skip rules"
	timeoutFlagDescription = "abandon a headless run after this duration (0 waits indefinitely)"
	defaultPath            = "."

	copiedSummaryFormat          = "Copied %d %s from %s to %s\n"
	errorDestinationRequired     = "--" + destinationFlagName + " is required"
	errorDestinationIsRootFormat = "destination %s is the repository itself"
	errorNotCandidateFormat      = "%s is not an extra of %s"
	errorPersistAfterCopyFormat  = "extras copied to %s, but failed to persist extras skip settings: %w"
	errorClipboardCopyFormat     = "failed to copy selected paths to the clipboard: %w"
	errorNotInteractive          = "extras pick requires an interactive terminal"
	logMessagePersistFailed      = "extras skip settings were not persisted"
	logFieldDestination          = "destination"
)

func createExtrasCommand(app *application) *cobra.Command {
	var timeout time.Duration

	extrasCommand := &cobra.Command{
		Use:   extrasUse,
		Short: extrasShortDescription,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	extrasCommand.PersistentFlags().DurationVar(&timeout, timeoutFlagName, 0, timeoutFlagDescription)
	extrasCommand.AddCommand(
		createScanCommand(app, &timeout),
		createCopyCommand(app, &timeout),
		createPickCommand(app),
	)
	return extrasCommand
}

// boundedContext applies the --timeout of the extras group to a headless run.
func boundedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func createScanCommand(app *application, timeout *time.Duration) *cobra.Command {
	var outputFormat string
	var clipboardEnabled bool

	scanCommand := &cobra.Command{
		Use:     scanUse,
		Aliases: []string{scanAlias},
		Short:   scanShortDescription,
		Long:    scanLongDescription,
		Example: scanUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			if !command.Flags().Changed(formatFlagName) {
				outputFormat = app.configuration.Scan.EffectiveFormat()
			}
			normalizedFormat, formatError := normalizeFormat(outputFormat)
			if formatError != nil {
				return formatError
			}
			if !command.Flags().Changed(copyFlagName) && app.configuration.Scan.Clipboard != nil {
				clipboardEnabled = *app.configuration.Scan.Clipboard
			}
			ctx, cancel := boundedContext(command.Context(), *timeout)
			defer cancel()
			return app.runScan(ctx, command.OutOrStdout(), arguments, normalizedFormat, clipboardEnabled)
		},
	}
	scanCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	registerBooleanFlag(scanCommand.Flags(), &clipboardEnabled, copyFlagName, false, copyFlagDescription)
	return scanCommand
}

type copyCommandOptions struct {
	repositoryPath string
	destination    string
	keepFlagged    bool
	persist        bool
	paths          []string
}

func createCopyCommand(app *application, timeout *time.Duration) *cobra.Command {
	var options copyCommandOptions

	copyCommand := &cobra.Command{
		Use:     copyUse,
		Short:   copyShortDescription,
		Long:    copyLongDescription,
		Example: copyUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			options.paths = arguments
			ctx, cancel := boundedContext(command.Context(), *timeout)
			defer cancel()
			return app.runCopy(ctx, command.OutOrStdout(), options)
		},
	}
	copyCommand.Flags().StringVar(&options.destination, destinationFlagName, "", destinationDescription)
	copyCommand.Flags().StringVar(&options.repositoryPath, repositoryFlagName, defaultPath, repositoryDescription)
	registerBooleanFlag(copyCommand.Flags(), &options.keepFlagged, noSkipFlagName, false, noSkipFlagDescription)
	registerBooleanFlag(copyCommand.Flags(), &options.persist, persistFlagName, false, persistFlagDescription)
	return copyCommand
}

func createPickCommand(app *application) *cobra.Command {
	var repositoryPath string
	var destination string

	pickCommand := &cobra.Command{
		Use:   pickUse,
		Short: pickShortDescription,
		Long:  pickLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if !output.IsInteractiveTerminal() {
				return errors.New(errorNotInteractive)
			}
			return app.runPick(command.OutOrStdout(), repositoryPath, destination)
		},
	}
	pickCommand.Flags().StringVar(&destination, destinationFlagName, "", destinationDescription)
	pickCommand.Flags().StringVar(&repositoryPath, repositoryFlagName, defaultPath, repositoryDescription)
	return pickCommand
}

// runScan processes every repository on its own controller and renders the reports in argument order.
func (app *application) runScan(ctx context.Context, writer io.Writer, paths []string, format string, clipboardEnabled bool) error {
	repositories, resolveError := openRepositories(paths)
	if resolveError != nil {
		return resolveError
	}

	reports := make([]*types.ScanReport, len(repositories))
	group, groupContext := errgroup.WithContext(ctx)
	for position, opened := range repositories {
		position, opened := position, opened
		group.Go(func() error {
			report, scanError := app.scanRepository(groupContext, opened)
			if scanError != nil {
				return scanError
			}
			reports[position] = report
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return waitError
	}

	renderer, rendererError := output.NewReportRenderer(format, writer)
	if rendererError != nil {
		return rendererError
	}
	for _, report := range reports {
		if renderError := renderer.Render(report); renderError != nil {
			return renderError
		}
	}
	if flushError := renderer.Flush(); flushError != nil {
		return flushError
	}

	if !clipboardEnabled {
		return nil
	}
	var selectedPaths []string
	for _, report := range reports {
		for _, selectedPath := range report.Selected {
			selectedPaths = append(selectedPaths, filepath.Join(report.Repository, filepath.FromSlash(selectedPath)))
		}
	}
	if copyError := clipboard.CopyPaths(app.clipboard, selectedPaths); copyError != nil {
		return fmt.Errorf(errorClipboardCopyFormat, copyError)
	}
	return nil
}

func (app *application) scanRepository(ctx context.Context, opened *repository.Repository) (*types.ScanReport, error) {
	repositoryRoot := opened.Root()
	controller := app.newController(ctx)
	outcome, runError := runPipeline(ctx, controller, repositoryRoot, nil, app.configuration.Extras.EffectiveTick())
	if runError != nil {
		return nil, runError
	}
	branchName, branchError := opened.BranchName()
	if branchError != nil {
		return nil, branchError
	}

	index := controller.Index()
	index.SelectAll()
	report := &types.ScanReport{
		Repository:     repositoryRoot,
		Branch:         branchName,
		CandidateCount: controller.CandidateCount(),
		FilteredCount:  controller.FilteredCount(),
		Buckets:        make([]types.BucketOutput, 0, len(outcome.choices)),
		Selected:       index.SelectedForCopy(),
		Tree:           output.BuildTreeNodes(index),
	}
	for _, choice := range outcome.choices {
		report.Buckets = append(report.Buckets, types.BucketOutput{
			Bucket:  choice.Bucket,
			Count:   choice.Count,
			Skipped: choice.Skip,
			Locked:  choice.Locked,
		})
	}
	return report, nil
}

// runCopy materializes the headless selection, then flushes any deferred skip rules.
func (app *application) runCopy(ctx context.Context, writer io.Writer, options copyCommandOptions) error {
	opened, destinationRoot, resolveError := resolveCopyTargets(options.repositoryPath, options.destination)
	if resolveError != nil {
		return resolveError
	}
	repositoryRoot := opened.Root()

	controller := app.newController(ctx)
	decide := func(decision *extras.SkipDecision) {
		if options.keepFlagged {
			decision.KeepAll()
		}
		decision.SetPersist(options.persist)
	}
	outcome, runError := runPipeline(ctx, controller, repositoryRoot, decide, app.configuration.Extras.EffectiveTick())
	if runError != nil {
		return runError
	}

	index := controller.Index()
	selected, selectionError := explicitSelection(index, repositoryRoot, options.paths)
	if selectionError != nil {
		return selectionError
	}
	if len(options.paths) == 0 {
		index.SelectAll()
		selected = index.SelectedForCopy()
	}
	return app.materialize(writer, controller, repositoryRoot, destinationRoot, selected, outcome.persistError)
}

func (app *application) runPick(writer io.Writer, repositoryPath string, destination string) error {
	opened, destinationRoot, resolveError := resolveCopyTargets(repositoryPath, destination)
	if resolveError != nil {
		return resolveError
	}
	repositoryRoot := opened.Root()

	// The picker owns the controller from here; background workers use a context that outlives the program.
	controller := app.newController(context.Background())
	result, pickError := tui.RunPicker(tui.PickerOptions{
		Controller:     controller,
		RepositoryRoot: repositoryRoot,
		Tick:           app.configuration.Extras.EffectiveTick(),
	})
	if pickError != nil {
		return pickError
	}
	return app.materialize(writer, controller, repositoryRoot, destinationRoot, result.Selected, result.PersistError)
}

// materialize copies the leaves of selected and only then writes skip rules whose persistence was deferred.
func (app *application) materialize(writer io.Writer, controller *pipeline.Controller, repositoryRoot string, destinationRoot string, selected []string, persistError error) error {
	copyPaths := selected
	if index := controller.Index(); index != nil {
		copyPaths = index.ExpandSelection(selected)
	}
	copyError := extras.CopySelected(repositoryRoot, destinationRoot, copyPaths, extras.CopyOptions{
		ReservedDirectory: app.reservedDirectory(),
		Logger:            app.logger,
	})
	if copyError != nil {
		controller.Cancel()
		return copyError
	}
	label := "paths"
	if len(selected) == 1 {
		label = "path"
	}
	fmt.Fprintf(writer, copiedSummaryFormat, len(selected), label, repositoryRoot, destinationRoot)

	flushError := controller.FlushPendingPersist()
	if combined := errors.Join(persistError, flushError); combined != nil {
		app.logger.Warn(logMessagePersistFailed, zap.String(logFieldDestination, destinationRoot), zap.Error(combined))
		return fmt.Errorf(errorPersistAfterCopyFormat, destinationRoot, combined)
	}
	return nil
}

func openRepositories(paths []string) ([]*repository.Repository, error) {
	seenRoots := make(map[string]struct{}, len(paths))
	repositories := make([]*repository.Repository, 0, len(paths))
	for _, inputPath := range paths {
		opened, openError := repository.Open(inputPath)
		if openError != nil {
			return nil, openError
		}
		if _, seen := seenRoots[opened.Root()]; seen {
			continue
		}
		seenRoots[opened.Root()] = struct{}{}
		repositories = append(repositories, opened)
	}
	return repositories, nil
}

func resolveCopyTargets(repositoryPath string, destination string) (*repository.Repository, string, error) {
	if destination == "" {
		return nil, "", errors.New(errorDestinationRequired)
	}
	opened, openError := repository.Open(repositoryPath)
	if openError != nil {
		return nil, "", openError
	}
	destinationRoot, absoluteError := filepath.Abs(destination)
	if absoluteError != nil {
		return nil, "", absoluteError
	}
	if filepath.Clean(destinationRoot) == filepath.Clean(opened.Root()) {
		return nil, "", fmt.Errorf(errorDestinationIsRootFormat, destinationRoot)
	}
	return opened, destinationRoot, nil
}

// explicitSelection validates operator-supplied paths against the built index.
func explicitSelection(index *extras.Index, repositoryRoot string, paths []string) ([]string, error) {
	selected := make([]string, 0, len(paths))
	for _, inputPath := range paths {
		normalizedPath, normalizeError := extras.NormalizeRelativePath(filepath.ToSlash(inputPath))
		if normalizeError != nil {
			return nil, normalizeError
		}
		if _, exists := index.Node(normalizedPath); !exists {
			return nil, fmt.Errorf(errorNotCandidateFormat, normalizedPath, repositoryRoot)
		}
		selected = append(selected, normalizedPath)
	}
	return selected, nil
}
