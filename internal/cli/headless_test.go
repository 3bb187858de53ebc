package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/seshmux/internal/extras"
	"github.com/tyemirov/seshmux/internal/registry"
	"github.com/tyemirov/seshmux/internal/services/pipeline"
)

// silentLoader starts workers that never report, like a collector stuck on a slow filesystem.
type silentLoader struct{}

func (silentLoader) SpawnCollectAndClassify(string, pipeline.Token, []extras.SkipRule) <-chan pipeline.Event {
	return make(chan pipeline.Event)
}

func (silentLoader) SpawnBuild(string, []string, pipeline.Token) <-chan pipeline.Event {
	return make(chan pipeline.Event)
}

type failingStore struct {
	loadError error
	saveError error
}

func (store failingStore) LoadSkipRules(string) (registry.SkipRulesLoad, error) {
	return registry.SkipRulesLoad{Rules: []string{"target"}}, store.loadError
}

func (store failingStore) SaveSkipRules(string, []string) error {
	return store.saveError
}

// flaggedLoader reports one flagged "target" bucket and builds the index from the filtered candidates.
type flaggedLoader struct{}

func (flaggedLoader) SpawnCollectAndClassify(_ string, token pipeline.Token, _ []extras.SkipRule) <-chan pipeline.Event {
	events := make(chan pipeline.Event, 1)
	events <- pipeline.Event{Kind: pipeline.EventKindDoneCollect, Token: token, Collect: &pipeline.CollectEvent{
		Candidates: []string{"target/app", ".env"},
		Plan:       extras.BucketPlan{Flagged: []extras.FlaggedBucket{{Bucket: "target", Count: 1}}},
	}}
	close(events)
	return events
}

func (flaggedLoader) SpawnBuild(repositoryRoot string, candidates []string, token pipeline.Token) <-chan pipeline.Event {
	events := make(chan pipeline.Event, 1)
	index, buildError := extras.BuildIndex(repositoryRoot, candidates, extras.IndexOptions{})
	events <- pipeline.Event{Kind: pipeline.EventKindDone, Token: token, Done: &pipeline.DoneEvent{Index: index, Err: buildError}}
	close(events)
	return events
}

func TestRunPipelineCancelsOnContextDone(testingHandle *testing.T) {
	controller := pipeline.NewController(pipeline.Options{Loader: silentLoader{}, Store: failingStore{}})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, runError := runPipeline(ctx, controller, testingHandle.TempDir(), nil, time.Millisecond)
	require.ErrorIs(testingHandle, runError, context.DeadlineExceeded)
	require.Equal(testingHandle, pipeline.StateIdle, controller.State())
}

func TestRunPipelineReturnsLoadFailure(testingHandle *testing.T) {
	loadError := errors.New("registry is unreadable")
	controller := pipeline.NewController(pipeline.Options{Loader: silentLoader{}, Store: failingStore{loadError: loadError}})

	_, runError := runPipeline(context.Background(), controller, testingHandle.TempDir(), nil, time.Millisecond)
	require.ErrorIs(testingHandle, runError, loadError)
}

func TestRunPipelineAppliesPolicyAndKeepsPersistFailure(testingHandle *testing.T) {
	saveError := errors.New("disk full")
	controller := pipeline.NewController(pipeline.Options{Loader: flaggedLoader{}, Store: failingStore{saveError: saveError}})

	decide := func(decision *extras.SkipDecision) {
		decision.KeepAll()
		decision.SetPersist(true)
	}
	outcome, runError := runPipeline(context.Background(), controller, testingHandle.TempDir(), decide, time.Millisecond)
	require.NoError(testingHandle, runError)
	require.ErrorIs(testingHandle, outcome.persistError, saveError)
	require.Equal(testingHandle, []extras.SkipChoice{{Bucket: "target", Count: 1, Skip: false}}, outcome.choices)
	require.Equal(testingHandle, pipeline.StateDone, controller.State())
	require.Equal(testingHandle, []string{".env", "target/app"}, controller.Index().Files())
}

func TestBoundedContextAppliesTimeout(testingHandle *testing.T) {
	unbounded, cancelUnbounded := boundedContext(context.Background(), 0)
	defer cancelUnbounded()
	_, hasDeadline := unbounded.Deadline()
	require.False(testingHandle, hasDeadline)

	bounded, cancelBounded := boundedContext(context.Background(), time.Minute)
	defer cancelBounded()
	deadline, hasDeadline := bounded.Deadline()
	require.True(testingHandle, hasDeadline)
	require.WithinDuration(testingHandle, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestScanCommandHonorsTimeoutFlag(testingHandle *testing.T) {
	app, _ := newTestApplication(testingHandle, nil)
	_, parseError := executeCommand(testingHandle, app, "extras", "scan", "--timeout", "soon")
	require.Error(testingHandle, parseError)

	fixture := newRepositoryFixture(testingHandle)
	app, _ = newTestApplication(testingHandle, fixture.runner)
	outputText, scanError := executeCommand(testingHandle, app, "extras", "scan", "--timeout", "1m", "--format", "json", fixture.root)
	require.NoError(testingHandle, scanError)
	require.Contains(testingHandle, outputText, `"selected"`)
}
