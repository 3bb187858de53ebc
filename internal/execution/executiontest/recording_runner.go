// Package executiontest provides a scripted execution.Runner for tests.
package executiontest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tyemirov/seshmux/internal/execution"
)

const unexpectedInvocationFormat = "unexpected invocation: %s %s"

// Response is the scripted result for one invocation.
type Response struct {
	Output execution.Output
	Err    error
}

// Invocation records one call to Run.
type Invocation struct {
	Program          string
	Arguments        []string
	WorkingDirectory string
}

// CommandLine returns the program followed by its arguments.
func (invocation Invocation) CommandLine() string {
	return strings.TrimSpace(invocation.Program + " " + strings.Join(invocation.Arguments, " "))
}

// RecordingRunner answers invocations from a map keyed by the joined argument list and records every call.
type RecordingRunner struct {
	mutex       sync.Mutex
	responses   map[string]Response
	invocations []Invocation
}

// NewRecordingRunner constructs a runner with no scripted responses.
func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{responses: make(map[string]Response)}
}

// Respond scripts the response for the given arguments.
func (runner *RecordingRunner) Respond(arguments []string, response Response) {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	runner.responses[strings.Join(arguments, " ")] = response
}

// Run implements execution.Runner.
func (runner *RecordingRunner) Run(_ context.Context, program string, arguments []string, workingDirectory string) (execution.Output, error) {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()

	copiedArguments := append([]string(nil), arguments...)
	runner.invocations = append(runner.invocations, Invocation{Program: program, Arguments: copiedArguments, WorkingDirectory: workingDirectory})

	response, found := runner.responses[strings.Join(arguments, " ")]
	if !found {
		return execution.Output{}, fmt.Errorf(unexpectedInvocationFormat, program, strings.Join(arguments, " "))
	}
	return response.Output, response.Err
}

// Invocations returns a copy of the recorded calls.
func (runner *RecordingRunner) Invocations() []Invocation {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	return append([]Invocation(nil), runner.invocations...)
}
