package pipeline

import (
	"time"

	"github.com/tyemirov/seshmux/internal/extras"
)

// Token identifies one collect, classify, decide, build run. Zero is never issued.
type Token uint64

type EventKind string

const (
	EventKindCollecting           EventKind = "collecting"
	EventKindClassifying          EventKind = "classifying"
	EventKindAwaitingSkipDecision EventKind = "awaiting_skip_decision"
	EventKindDoneCollect          EventKind = "done_collect"
	EventKindBuilding             EventKind = "building"
	EventKindDone                 EventKind = "done"
)

// Event is one message from a pipeline worker. Every event carries the token of the run that produced it.
type Event struct {
	Kind      EventKind
	Token     Token
	EmittedAt time.Time

	Progress *ProgressEvent
	Collect  *CollectEvent
	Done     *DoneEvent
}

// IsTerminal reports whether the event ends its worker's phase.
func (event Event) IsTerminal() bool {
	return event.Kind == EventKindDoneCollect || event.Kind == EventKindDone
}

type ProgressEvent struct {
	CandidateCount int
	FlaggedCount   int
	FilteredCount  int
}

type CollectEvent struct {
	Candidates []string
	Plan       extras.BucketPlan
}

// DoneEvent carries either the built index or the failure that ended the run.
type DoneEvent struct {
	Index *extras.Index
	Err   error
}
