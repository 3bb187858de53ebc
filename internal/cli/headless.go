package cli

import (
	"context"
	"time"

	"github.com/tyemirov/seshmux/internal/extras"
	"github.com/tyemirov/seshmux/internal/services/pipeline"
)

// skipPolicy adjusts a pending skip decision before the headless driver confirms it.
type skipPolicy func(decision *extras.SkipDecision)

// headlessOutcome carries what a headless run produced besides the index held by the controller.
type headlessOutcome struct {
	choices      []extras.SkipChoice
	persistError error
}

// runPipeline drives controller to completion without a terminal, polling every tick.
// A skip decision is confirmed as soon as it appears, after decide had a chance to change it.
func runPipeline(ctx context.Context, controller *pipeline.Controller, repositoryRoot string, decide skipPolicy, tick time.Duration) (headlessOutcome, error) {
	var outcome headlessOutcome
	if _, startError := controller.Start(repositoryRoot); startError != nil {
		return outcome, startError
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		controller.Poll()
		switch controller.State() {
		case pipeline.StateAwaitingSkipDecision:
			decision := controller.Decision()
			if decide != nil {
				decide(decision)
			}
			outcome.choices = decision.Choices()
			if confirmError := controller.ConfirmSkipDecision(); confirmError != nil {
				outcome.persistError = confirmError
			}
			continue
		case pipeline.StateDone:
			return outcome, nil
		case pipeline.StateFailed:
			return outcome, controller.Err()
		}

		select {
		case <-ctx.Done():
			controller.Cancel()
			return outcome, ctx.Err()
		case <-ticker.C:
		}
	}
}
