// Package pipeline drives the extras collect, classify, decide, and build phases
// on background goroutines and delivers their results to a polling host.
package pipeline

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tyemirov/seshmux/internal/extras"
	"github.com/tyemirov/seshmux/internal/registry"
)

// State is the controller's position in the pipeline.
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateClassifying
	StateAwaitingSkipDecision
	StateBuilding
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:                 "idle",
	StateCollecting:           "collecting",
	StateClassifying:          "classifying",
	StateAwaitingSkipDecision: "awaiting skip decision",
	StateBuilding:             "building",
	StateDone:                 "done",
	StateFailed:               "failed",
}

func (state State) String() string {
	if name, found := stateNames[state]; found {
		return name
	}
	return fmt.Sprintf("state(%d)", int(state))
}

// ErrWorkerDisconnected reports a worker channel that closed before delivering its terminal event.
var ErrWorkerDisconnected = errors.New("extras worker disconnected before delivering its result")

// ErrNotAwaitingSkipDecision is returned when a skip decision is confirmed in any other state.
var ErrNotAwaitingSkipDecision = errors.New("extras pipeline is not awaiting a skip decision")

const (
	errorLoadRulesFormat   = "failed to load extras skip rules for %s: %w"
	errorPersistFormat     = "failed to persist extras skip rules for %s: %w"
	logMessageTokenIssued  = "extras pipeline token issued"
	logMessageStaleEvent   = "extras pipeline event dropped"
	logMessagePersistDefer = "extras skip rules persistence deferred"
	logMessageDisconnected = "extras worker disconnected"
	logFieldState          = "state"
	logFieldEventKind      = "event"
	logFieldEventToken     = "event_token"
)

// Options configures a Controller.
type Options struct {
	Loader Loader
	Store  registry.Store
	Logger *zap.Logger
}

// Controller owns one extras pipeline. It is not safe for concurrent use; the host calls it from one goroutine.
type Controller struct {
	loader Loader
	store  registry.Store
	logger *zap.Logger

	repositoryRoot   string
	state            State
	lastIssuedToken  Token
	activeToken      Token
	receiver         <-chan Event
	terminalReceived bool

	sessionRules    map[string]registry.SkipRulesLoad
	configuredRules []extras.SkipRule
	registryMissing bool

	candidateCount int
	flaggedCount   int
	filteredCount  int
	candidates     []string
	plan           extras.BucketPlan
	decision       *extras.SkipDecision
	index          *extras.Index
	err            error

	pendingPersist     []string
	pendingPersistRoot string
}

// NewController constructs an idle controller.
func NewController(options Options) *Controller {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		loader:       options.Loader,
		store:        options.Store,
		logger:       logger,
		sessionRules: make(map[string]registry.SkipRulesLoad),
	}
}

// Start loads the effective rules for repositoryRoot, invalidates any running pipeline,
// and begins collecting. The session rules loaded for a repository are reused by later starts.
func (controller *Controller) Start(repositoryRoot string) (Token, error) {
	rulesLoad, cached := controller.sessionRules[repositoryRoot]
	if !cached {
		loaded, loadError := controller.store.LoadSkipRules(repositoryRoot)
		if loadError != nil {
			controller.invalidate()
			controller.state = StateFailed
			controller.err = fmt.Errorf(errorLoadRulesFormat, repositoryRoot, loadError)
			return 0, controller.err
		}
		rulesLoad = loaded
		controller.sessionRules[repositoryRoot] = rulesLoad
	}

	token := controller.invalidate()
	controller.repositoryRoot = repositoryRoot
	controller.configuredRules = extras.ParseSkipRules(rulesLoad.ConfiguredRules)
	controller.registryMissing = rulesLoad.RegistryMissing
	controller.activeToken = token
	controller.state = StateCollecting
	controller.receiver = controller.loader.SpawnCollectAndClassify(repositoryRoot, token, extras.ParseSkipRules(rulesLoad.Rules))
	controller.terminalReceived = false
	controller.logger.Debug(logMessageTokenIssued, zap.Uint64(logFieldToken, uint64(token)), zap.String(logFieldRepository, repositoryRoot))
	return token, nil
}

// Cancel invalidates the active token and returns to idle. Running workers finish and are ignored.
func (controller *Controller) Cancel() {
	controller.invalidate()
	controller.pendingPersist = nil
	controller.pendingPersistRoot = ""
}

// invalidate issues a fresh token that no worker carries and clears per-run state.
func (controller *Controller) invalidate() Token {
	controller.lastIssuedToken++
	controller.activeToken = controller.lastIssuedToken
	controller.receiver = nil
	controller.terminalReceived = false
	controller.state = StateIdle
	controller.candidateCount = 0
	controller.flaggedCount = 0
	controller.filteredCount = 0
	controller.candidates = nil
	controller.plan = extras.BucketPlan{}
	controller.decision = nil
	controller.index = nil
	controller.err = nil
	return controller.activeToken
}

// Poll applies every buffered event without blocking and reports whether anything changed.
func (controller *Controller) Poll() bool {
	changed := false
	for controller.receiver != nil {
		select {
		case event, open := <-controller.receiver:
			if !open {
				controller.receiver = nil
				if !controller.terminalReceived {
					controller.logger.Debug(logMessageDisconnected, zap.Uint64(logFieldToken, uint64(controller.activeToken)))
					controller.fail(ErrWorkerDisconnected)
					changed = true
				}
				return changed
			}
			if controller.apply(event) {
				changed = true
			}
		default:
			return changed
		}
	}
	return changed
}

func (controller *Controller) apply(event Event) bool {
	if event.Token != controller.activeToken {
		controller.logger.Debug(
			logMessageStaleEvent,
			zap.String(logFieldEventKind, string(event.Kind)),
			zap.Uint64(logFieldEventToken, uint64(event.Token)),
			zap.Uint64(logFieldToken, uint64(controller.activeToken)),
		)
		return false
	}

	switch event.Kind {
	case EventKindCollecting:
		controller.state = StateCollecting
	case EventKindClassifying:
		controller.state = StateClassifying
		if event.Progress != nil {
			controller.candidateCount = event.Progress.CandidateCount
		}
	case EventKindAwaitingSkipDecision:
		if event.Progress != nil {
			controller.flaggedCount = event.Progress.FlaggedCount
		}
	case EventKindDoneCollect:
		controller.terminalReceived = true
		if event.Collect != nil {
			controller.candidates = event.Collect.Candidates
			controller.plan = event.Collect.Plan
		}
		controller.candidateCount = len(controller.candidates)
		controller.flaggedCount = len(controller.plan.Flagged)
		if controller.plan.IsEmpty() {
			controller.beginBuild(nil)
			return true
		}
		controller.decision = extras.NewSkipDecision(controller.plan, controller.configuredRules)
		controller.state = StateAwaitingSkipDecision
	case EventKindBuilding:
		controller.state = StateBuilding
		if event.Progress != nil {
			controller.filteredCount = event.Progress.FilteredCount
		}
	case EventKindDone:
		controller.terminalReceived = true
		if event.Done == nil {
			controller.fail(ErrWorkerDisconnected)
			return true
		}
		if event.Done.Err != nil {
			controller.fail(event.Done.Err)
			return true
		}
		controller.index = event.Done.Index
		controller.state = StateDone
	default:
		return false
	}
	return true
}

func (controller *Controller) fail(failure error) {
	controller.state = StateFailed
	controller.err = failure
	controller.decision = nil
}

func (controller *Controller) beginBuild(excludedBuckets []string) {
	filtered := extras.FilterExcludedBuckets(controller.candidates, excludedBuckets)
	controller.filteredCount = len(filtered)
	controller.decision = nil
	controller.state = StateBuilding
	controller.terminalReceived = false
	controller.receiver = controller.loader.SpawnBuild(controller.repositoryRoot, filtered, controller.activeToken)
}

// ConfirmSkipDecision filters out the skipped buckets and starts building. When the decision asks to persist,
// the union of configured rules and skipped buckets is saved, or deferred while the registry does not exist yet.
// A persistence failure is returned after the build has been started.
func (controller *Controller) ConfirmSkipDecision() error {
	if controller.state != StateAwaitingSkipDecision || controller.decision == nil {
		return ErrNotAwaitingSkipDecision
	}
	decision := controller.decision
	var persistError error
	if decision.Persist() {
		persistSet := decision.PersistSet(controller.configuredRules)
		if controller.registryMissing {
			controller.pendingPersist = persistSet
			controller.pendingPersistRoot = controller.repositoryRoot
			controller.logger.Debug(logMessagePersistDefer, zap.String(logFieldRepository, controller.repositoryRoot))
		} else {
			persistError = controller.saveRules(controller.repositoryRoot, persistSet)
		}
	}
	controller.beginBuild(decision.SkippedBuckets())
	return persistError
}

// FlushPendingPersist writes deferred skip rules. Hosts call it only after the worktree was created.
func (controller *Controller) FlushPendingPersist() error {
	if controller.pendingPersist == nil {
		return nil
	}
	repositoryRoot := controller.pendingPersistRoot
	rules := controller.pendingPersist
	controller.pendingPersist = nil
	controller.pendingPersistRoot = ""
	return controller.saveRules(repositoryRoot, rules)
}

func (controller *Controller) saveRules(repositoryRoot string, rules []string) error {
	if saveError := controller.store.SaveSkipRules(repositoryRoot, rules); saveError != nil {
		return fmt.Errorf(errorPersistFormat, repositoryRoot, saveError)
	}
	normalizedRules := registry.NormalizeRules(rules)
	controller.sessionRules[repositoryRoot] = registry.SkipRulesLoad{
		Rules:           normalizedRules,
		ConfiguredRules: normalizedRules,
	}
	if repositoryRoot == controller.repositoryRoot {
		controller.configuredRules = extras.ParseSkipRules(normalizedRules)
		controller.registryMissing = false
	}
	return nil
}

// PendingPersist returns the deferred rule set and whether one is waiting.
func (controller *Controller) PendingPersist() ([]string, bool) {
	if controller.pendingPersist == nil {
		return nil, false
	}
	return append([]string{}, controller.pendingPersist...), true
}

func (controller *Controller) State() State {
	return controller.state
}

func (controller *Controller) Token() Token {
	return controller.activeToken
}

func (controller *Controller) RepositoryRoot() string {
	return controller.repositoryRoot
}

// Decision returns the pending skip decision while the controller awaits one.
func (controller *Controller) Decision() *extras.SkipDecision {
	return controller.decision
}

func (controller *Controller) Plan() extras.BucketPlan {
	return controller.plan
}

func (controller *Controller) Candidates() []string {
	return append([]string(nil), controller.candidates...)
}

func (controller *Controller) CandidateCount() int {
	return controller.candidateCount
}

func (controller *Controller) FlaggedCount() int {
	return controller.flaggedCount
}

func (controller *Controller) FilteredCount() int {
	return controller.filteredCount
}

// Index returns the built index once the controller is done.
func (controller *Controller) Index() *extras.Index {
	return controller.index
}

// Err returns the failure that moved the controller to StateFailed.
func (controller *Controller) Err() error {
	return controller.err
}
