// Package tui hosts the extras pipeline in an interactive terminal picker.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tyemirov/seshmux/internal/extras"
	"github.com/tyemirov/seshmux/internal/services/pipeline"
)

const (
	defaultTick       = 50 * time.Millisecond
	defaultMaxVisible = 14
	minimumMaxVisible = 3
	reservedRows      = 10

	titleText          = "Copy extras into the worktree"
	decisionTitleText  = "Large directories found. Skip them?"
	persistOnLabel     = "[x] always skip the selected buckets in this repository"
	persistOffLabel    = "[ ] always skip the selected buckets in this repository"
	skipLabel          = "skip"
	keepLabel          = "keep"
	lockedLabel        = "locked"
	emptyIndexText     = "No extras to copy"
	noMatchesText      = "No entries match the filter"
	filterPrompt       = "/ "
	filterPlaceholder  = "filter"
	progressFormat     = "%s %s  candidates: %d  flagged: %d  kept: %d"
	selectionFormat    = "%d of %d files selected"
	filterStatusFormat = "filter: %s"
	bucketLineFormat   = "%s%s %-6s %s  %d entries"
	indexLineFormat    = "%s%s %s%s %s"
	persistErrorFormat = "skip rules were not saved: %v"
	cursorMarker       = "▸ "
	noCursorMarker     = "  "
	indentUnit         = "  "
	expandedIcon       = "▾"
	collapsedIcon      = "▸"
	fileIcon           = " "
	checkedMark        = "[x]"
	partialMark        = "[-]"
	uncheckedMark      = "[ ]"
)

// ErrPickerCanceled is returned by RunPicker when the operator leaves without accepting.
var ErrPickerCanceled = errors.New("extras selection canceled")

// PickerOptions configures the picker.
type PickerOptions struct {
	Controller     *pipeline.Controller
	RepositoryRoot string
	Tick           time.Duration
}

// PickerResult is the outcome of a picker session.
type PickerResult struct {
	Selected     []string
	Accepted     bool
	PersistError error
}

type pollMsg time.Time

// PickerModel is the bubbletea model driving a pipeline controller.
type PickerModel struct {
	controller     *pipeline.Controller
	repositoryRoot string
	tick           time.Duration

	spinner     spinner.Model
	filterInput textinput.Model
	filtering   bool

	collapsed     map[string]bool
	rows          []extras.VisibleRow
	cursor        int
	viewportStart int
	maxVisible    int

	persistError error
	failure      error
	result       PickerResult
	done         bool
}

// NewPickerModel creates a picker for a controller that has already been started.
func NewPickerModel(options PickerOptions) PickerModel {
	tick := options.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	progressSpinner := spinner.New()
	progressSpinner.Spinner = spinner.Dot

	filterInput := textinput.New()
	filterInput.Prompt = filterPrompt
	filterInput.Placeholder = filterPlaceholder

	return PickerModel{
		controller:     options.Controller,
		repositoryRoot: options.RepositoryRoot,
		tick:           tick,
		spinner:        progressSpinner,
		filterInput:    filterInput,
		collapsed:      make(map[string]bool),
		maxVisible:     defaultMaxVisible,
	}
}

func (model PickerModel) pollCommand() tea.Cmd {
	return tea.Tick(model.tick, func(moment time.Time) tea.Msg {
		return pollMsg(moment)
	})
}

func (model PickerModel) Init() tea.Cmd {
	return tea.Batch(model.spinner.Tick, model.pollCommand())
}

func (model PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		model.maxVisible = min(defaultMaxVisible, msg.Height-reservedRows)
		if model.maxVisible < minimumMaxVisible {
			model.maxVisible = minimumMaxVisible
		}
		model.ensureCursorVisible()
		return model, nil

	case spinner.TickMsg:
		if model.done {
			return model, nil
		}
		var command tea.Cmd
		model.spinner, command = model.spinner.Update(msg)
		return model, command

	case pollMsg:
		return model.handlePoll()

	case tea.KeyMsg:
		switch model.controller.State() {
		case pipeline.StateAwaitingSkipDecision:
			return model.handleDecisionKey(msg)
		case pipeline.StateDone:
			if model.filtering {
				return model.handleFilterKey(msg)
			}
			return model.handleIndexKey(msg)
		default:
			if key.Matches(msg, loadingKeys.Cancel) {
				return model.cancel()
			}
		}
	}
	return model, nil
}

func (model PickerModel) handlePoll() (tea.Model, tea.Cmd) {
	if model.done {
		return model, nil
	}
	if model.controller.Poll() {
		switch model.controller.State() {
		case pipeline.StateDone:
			model.rebuildRows()
		case pipeline.StateFailed:
			model.failure = model.controller.Err()
			model.done = true
			return model, tea.Quit
		}
	}
	return model, model.pollCommand()
}

func (model PickerModel) handleDecisionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	decision := model.controller.Decision()
	switch {
	case key.Matches(msg, decisionKeys.Cancel):
		return model.cancel()
	case key.Matches(msg, decisionKeys.Up):
		decision.MoveUp()
	case key.Matches(msg, decisionKeys.Down):
		decision.MoveDown()
	case key.Matches(msg, decisionKeys.Toggle):
		decision.ToggleCurrent()
	case key.Matches(msg, decisionKeys.Persist):
		decision.TogglePersist()
	case key.Matches(msg, decisionKeys.SkipAll):
		decision.SkipAll()
	case key.Matches(msg, decisionKeys.KeepAll):
		decision.KeepAll()
	case key.Matches(msg, decisionKeys.Confirm):
		if confirmError := model.controller.ConfirmSkipDecision(); confirmError != nil {
			if errors.Is(confirmError, pipeline.ErrNotAwaitingSkipDecision) {
				return model, nil
			}
			model.persistError = confirmError
		}
	}
	return model, nil
}

func (model PickerModel) handleIndexKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	index := model.controller.Index()
	if index == nil {
		index, _ = extras.BuildIndex(model.repositoryRoot, nil, extras.IndexOptions{})
	}
	switch {
	case key.Matches(msg, indexKeys.Quit):
		return model.cancel()
	case key.Matches(msg, indexKeys.Accept):
		model.result = PickerResult{
			Selected:     index.SelectedForCopy(),
			Accepted:     true,
			PersistError: model.persistError,
		}
		model.done = true
		return model, tea.Quit
	case key.Matches(msg, indexKeys.Up):
		if model.cursor > 0 {
			model.cursor--
			model.ensureCursorVisible()
		}
	case key.Matches(msg, indexKeys.Down):
		if model.cursor < len(model.rows)-1 {
			model.cursor++
			model.ensureCursorVisible()
		}
	case key.Matches(msg, indexKeys.Toggle):
		if row, found := model.currentRow(); found {
			index.Toggle(row.Key)
		}
	case key.Matches(msg, indexKeys.Fold):
		if row, found := model.currentRow(); found {
			if node, exists := index.Node(row.Key); exists && node.IsDir {
				model.collapsed[row.Key] = !model.collapsed[row.Key]
				model.rebuildRows()
			}
		}
	case key.Matches(msg, indexKeys.Filter):
		model.filtering = true
		model.filterInput.Focus()
		return model, textinput.Blink
	case key.Matches(msg, indexKeys.All):
		index.SelectAll()
	case key.Matches(msg, indexKeys.None):
		index.SelectNone()
	}
	return model, nil
}

func (model PickerModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, filterKeys.Clear):
		model.filterInput.SetValue("")
		model.filtering = false
		model.filterInput.Blur()
		model.rebuildRows()
		return model, nil
	case key.Matches(msg, filterKeys.Apply):
		model.filtering = false
		model.filterInput.Blur()
		return model, nil
	}
	var command tea.Cmd
	model.filterInput, command = model.filterInput.Update(msg)
	model.rebuildRows()
	return model, command
}

func (model PickerModel) cancel() (tea.Model, tea.Cmd) {
	model.controller.Cancel()
	model.result = PickerResult{PersistError: model.persistError}
	model.done = true
	return model, tea.Quit
}

func (model *PickerModel) rebuildRows() {
	index := model.controller.Index()
	if index == nil {
		model.rows = nil
		return
	}
	model.rows = index.Visible(model.filterInput.Value(), model.collapsed)
	if model.cursor >= len(model.rows) {
		model.cursor = len(model.rows) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
	model.ensureCursorVisible()
}

func (model *PickerModel) ensureCursorVisible() {
	if model.cursor < model.viewportStart {
		model.viewportStart = model.cursor
	}
	if model.cursor >= model.viewportStart+model.maxVisible {
		model.viewportStart = model.cursor - model.maxVisible + 1
	}
}

func (model PickerModel) currentRow() (extras.VisibleRow, bool) {
	if model.cursor < 0 || model.cursor >= len(model.rows) {
		return extras.VisibleRow{}, false
	}
	return model.rows[model.cursor], true
}

func (model PickerModel) View() string {
	if model.done {
		return ""
	}
	var builder strings.Builder
	builder.WriteString(titleStyle.Render(titleText))
	builder.WriteString("\n")
	builder.WriteString(subtitleStyle.Render(model.repositoryRoot))
	builder.WriteString("\n\n")

	switch model.controller.State() {
	case pipeline.StateAwaitingSkipDecision:
		model.renderDecision(&builder)
	case pipeline.StateDone:
		model.renderIndex(&builder)
	default:
		builder.WriteString(subtitleStyle.Render(fmt.Sprintf(
			progressFormat,
			model.spinner.View(),
			model.controller.State(),
			model.controller.CandidateCount(),
			model.controller.FlaggedCount(),
			model.controller.FilteredCount(),
		)))
		builder.WriteString("\n")
		builder.WriteString(helpStyle.Render(loadingKeys.Cancel.Help().Key + " " + loadingKeys.Cancel.Help().Desc))
	}
	return builder.String()
}

func (model PickerModel) renderDecision(builder *strings.Builder) {
	decision := model.controller.Decision()
	builder.WriteString(subtitleStyle.Render(decisionTitleText))
	builder.WriteString("\n\n")
	for position, choice := range decision.Choices() {
		marker := noCursorMarker
		if position == decision.Cursor() {
			marker = cursorMarker
		}
		checkbox := uncheckedStyle.Render(uncheckedMark)
		label := keepLabel
		if choice.Skip {
			checkbox = checkedStyle.Render(checkedMark)
			label = skipLabel
		}
		line := fmt.Sprintf(bucketLineFormat, marker, checkbox, label, choice.Bucket, choice.Count)
		if choice.Locked {
			line += " " + lockedStyle.Render(lockedLabel)
		}
		if position == decision.Cursor() {
			builder.WriteString(cursorItemStyle.Render(line))
		} else {
			builder.WriteString(itemStyle.Render(line))
		}
		builder.WriteString("\n")
	}
	builder.WriteString("\n")
	persistLabel := persistOffLabel
	if decision.Persist() {
		persistLabel = persistOnLabel
	}
	builder.WriteString(itemStyle.Render(persistLabel))
	builder.WriteString("\n")
	builder.WriteString(helpStyle.Render(
		decisionKeys.Toggle.Help().Key + " " + decisionKeys.Toggle.Help().Desc + "  " +
			decisionKeys.Persist.Help().Key + " " + decisionKeys.Persist.Help().Desc + "  " +
			decisionKeys.SkipAll.Help().Key + " " + decisionKeys.SkipAll.Help().Desc + "  " +
			decisionKeys.KeepAll.Help().Key + " " + decisionKeys.KeepAll.Help().Desc + "  " +
			decisionKeys.Confirm.Help().Key + " " + decisionKeys.Confirm.Help().Desc + "  " +
			decisionKeys.Cancel.Help().Key + " " + decisionKeys.Cancel.Help().Desc))
}

func (model PickerModel) renderIndex(builder *strings.Builder) {
	index := model.controller.Index()
	if model.persistError != nil {
		builder.WriteString(errorStyle.Render(fmt.Sprintf(persistErrorFormat, model.persistError)))
		builder.WriteString("\n\n")
	}
	if index == nil || index.Len() == 0 {
		builder.WriteString(subtitleStyle.Render(emptyIndexText))
		builder.WriteString("\n")
		builder.WriteString(helpStyle.Render(indexKeys.Accept.Help().Key + " continue  " + indexKeys.Quit.Help().Key + " quit"))
		return
	}

	files := index.Files()
	selectedFiles := 0
	for _, file := range files {
		if index.IsChecked(file) {
			selectedFiles++
		}
	}
	builder.WriteString(subtitleStyle.Render(fmt.Sprintf(selectionFormat, selectedFiles, len(files))))
	builder.WriteString("\n")
	if model.filtering {
		builder.WriteString(itemStyle.Render(model.filterInput.View()))
		builder.WriteString("\n")
	} else if value := model.filterInput.Value(); value != "" {
		builder.WriteString(subtitleStyle.Render(fmt.Sprintf(filterStatusFormat, value)))
		builder.WriteString("\n")
	}
	builder.WriteString("\n")

	if len(model.rows) == 0 {
		builder.WriteString(subtitleStyle.Render(noMatchesText))
		builder.WriteString("\n")
	}
	end := min(model.viewportStart+model.maxVisible, len(model.rows))
	for position := model.viewportStart; position < end; position++ {
		row := model.rows[position]
		node, _ := index.Node(row.Key)
		marker := noCursorMarker
		if position == model.cursor {
			marker = cursorMarker
		}
		icon := fileIcon
		if node.IsDir {
			icon = expandedIcon
			if model.collapsed[row.Key] && model.filterInput.Value() == "" {
				icon = collapsedIcon
			}
		}
		line := fmt.Sprintf(indexLineFormat, marker, selectionMark(index.SelectionState(row.Key)), strings.Repeat(indentUnit, row.Depth), icon, node.Label)
		if position == model.cursor {
			builder.WriteString(cursorItemStyle.Render(line))
		} else {
			builder.WriteString(itemStyle.Render(line))
		}
		builder.WriteString("\n")
	}

	builder.WriteString(helpStyle.Render(
		indexKeys.Toggle.Help().Key + " " + indexKeys.Toggle.Help().Desc + "  " +
			indexKeys.Fold.Help().Key + " " + indexKeys.Fold.Help().Desc + "  " +
			indexKeys.Filter.Help().Key + " " + indexKeys.Filter.Help().Desc + "  " +
			indexKeys.All.Help().Key + "/" + indexKeys.None.Help().Key + " all/none  " +
			indexKeys.Accept.Help().Key + " " + indexKeys.Accept.Help().Desc + "  " +
			indexKeys.Quit.Help().Key + " " + indexKeys.Quit.Help().Desc))
}

func selectionMark(state extras.SelectionState) string {
	switch state {
	case extras.SelectionFull:
		return checkedStyle.Render(checkedMark)
	case extras.SelectionPartial:
		return partialStyle.Render(partialMark)
	default:
		return uncheckedStyle.Render(uncheckedMark)
	}
}

// Result returns the outcome once the program has quit.
func (model PickerModel) Result() PickerResult {
	return model.result
}

// Failure returns the pipeline error that ended the session.
func (model PickerModel) Failure() error {
	return model.failure
}

func (model PickerModel) Done() bool {
	return model.done
}

// RunPicker starts the pipeline for options.RepositoryRoot and runs the picker until the operator accepts or leaves.
func RunPicker(options PickerOptions) (PickerResult, error) {
	if _, startError := options.Controller.Start(options.RepositoryRoot); startError != nil {
		return PickerResult{}, startError
	}
	program := tea.NewProgram(NewPickerModel(options))
	finalModel, runError := program.Run()
	if runError != nil {
		options.Controller.Cancel()
		return PickerResult{}, runError
	}
	pickerModel := finalModel.(PickerModel)
	if failure := pickerModel.Failure(); failure != nil {
		return PickerResult{}, failure
	}
	result := pickerModel.Result()
	if !result.Accepted {
		return result, ErrPickerCanceled
	}
	return result, nil
}
