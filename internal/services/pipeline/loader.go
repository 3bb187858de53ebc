package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tyemirov/seshmux/internal/execution"
	"github.com/tyemirov/seshmux/internal/extras"
)

// eventBufferSize holds every event a single phase can emit, so workers never block on an abandoned channel.
const eventBufferSize = 8

const (
	logMessageCollectStarted = "extras collect started"
	logMessageBuildStarted   = "extras build started"
	logFieldRepository       = "repository"
	logFieldToken            = "token"
	logFieldCandidates       = "candidates"
)

// Loader starts the background phases of the pipeline. Each returned channel is closed after its terminal event.
type Loader interface {
	SpawnCollectAndClassify(repositoryRoot string, token Token, rules []extras.SkipRule) <-chan Event
	SpawnBuild(repositoryRoot string, candidates []string, token Token) <-chan Event
}

// SystemLoaderOptions configures a SystemLoader.
type SystemLoaderOptions struct {
	Runner            execution.Runner
	ReservedDirectory string
	Logger            *zap.Logger
}

// SystemLoader runs each phase on its own goroutine.
type SystemLoader struct {
	ctx               context.Context
	runner            execution.Runner
	reservedDirectory string
	logger            *zap.Logger
}

// NewSystemLoader constructs a SystemLoader whose workers stop early when ctx is cancelled.
func NewSystemLoader(ctx context.Context, options SystemLoaderOptions) *SystemLoader {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := options.Runner
	if runner == nil {
		runner = execution.NewSystemRunner(logger)
	}
	return &SystemLoader{ctx: ctx, runner: runner, reservedDirectory: options.ReservedDirectory, logger: logger}
}

type emitter struct {
	ctx   context.Context
	out   chan<- Event
	token Token
}

func (e *emitter) send(event Event) bool {
	event.Token = e.token
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	select {
	case <-e.ctx.Done():
		return false
	case e.out <- event:
		return true
	}
}

// SpawnCollectAndClassify lists candidates and classifies them against rules.
func (loader *SystemLoader) SpawnCollectAndClassify(repositoryRoot string, token Token, rules []extras.SkipRule) <-chan Event {
	events := make(chan Event, eventBufferSize)
	ownedRules := append([]extras.SkipRule(nil), rules...)
	loader.logger.Debug(logMessageCollectStarted, zap.String(logFieldRepository, repositoryRoot), zap.Uint64(logFieldToken, uint64(token)))

	go func() {
		defer close(events)
		emit := &emitter{ctx: loader.ctx, out: events, token: token}
		if !emit.send(Event{Kind: EventKindCollecting}) {
			return
		}

		candidates, listError := extras.ListCandidates(loader.ctx, repositoryRoot, loader.runner, extras.CollectorOptions{
			ReservedDirectory: loader.reservedDirectory,
			Logger:            loader.logger,
		})
		if listError != nil {
			emit.send(Event{Kind: EventKindDone, Done: &DoneEvent{Err: listError}})
			return
		}
		if !emit.send(Event{Kind: EventKindClassifying, Progress: &ProgressEvent{CandidateCount: len(candidates)}}) {
			return
		}

		plan := extras.ClassifyBuckets(candidates, ownedRules)
		if !emit.send(Event{Kind: EventKindAwaitingSkipDecision, Progress: &ProgressEvent{CandidateCount: len(candidates), FlaggedCount: len(plan.Flagged)}}) {
			return
		}
		emit.send(Event{Kind: EventKindDoneCollect, Collect: &CollectEvent{Candidates: candidates, Plan: plan}})
	}()
	return events
}

// SpawnBuild builds the selectable index from the filtered candidates.
func (loader *SystemLoader) SpawnBuild(repositoryRoot string, candidates []string, token Token) <-chan Event {
	events := make(chan Event, eventBufferSize)
	ownedCandidates := append([]string(nil), candidates...)
	loader.logger.Debug(logMessageBuildStarted, zap.Int(logFieldCandidates, len(ownedCandidates)), zap.Uint64(logFieldToken, uint64(token)))

	go func() {
		defer close(events)
		emit := &emitter{ctx: loader.ctx, out: events, token: token}
		if !emit.send(Event{Kind: EventKindBuilding, Progress: &ProgressEvent{FilteredCount: len(ownedCandidates)}}) {
			return
		}
		index, buildError := extras.BuildIndex(repositoryRoot, ownedCandidates, extras.IndexOptions{ReservedDirectory: loader.reservedDirectory})
		emit.send(Event{Kind: EventKindDone, Done: &DoneEvent{Index: index, Err: buildError}})
	}()
	return events
}
