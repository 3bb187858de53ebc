// Package execution runs external programs on behalf of the extras pipeline.
package execution

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

const (
	logMessageRunning  = "running command"
	logFieldProgram    = "program"
	logFieldArguments  = "arguments"
	logFieldDirectory  = "directory"
	logFieldExitCode   = "exit_code"
	logMessageFinished = "command finished"
)

// Output captures the result of a command that was launched successfully.
type Output struct {
	ExitCode int
	Stdout   []byte
	Stderr   string
}

// Runner launches a program and reports its output. A non-nil error means the
// program could not be launched; a non-zero ExitCode is reported through Output.
type Runner interface {
	Run(executionContext context.Context, program string, arguments []string, workingDirectory string) (Output, error)
}

// SystemRunner executes programs through os/exec.
type SystemRunner struct {
	logger *zap.Logger
}

// NewSystemRunner constructs a SystemRunner. A nil logger disables logging.
func NewSystemRunner(logger *zap.Logger) *SystemRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemRunner{logger: logger}
}

// Run executes program with arguments inside workingDirectory.
func (runner *SystemRunner) Run(executionContext context.Context, program string, arguments []string, workingDirectory string) (Output, error) {
	runner.logger.Debug(
		logMessageRunning,
		zap.String(logFieldProgram, program),
		zap.String(logFieldArguments, strings.Join(arguments, " ")),
		zap.String(logFieldDirectory, workingDirectory),
	)

	// #nosec G204
	command := exec.CommandContext(executionContext, program, arguments...)
	command.Dir = workingDirectory
	var stdoutBuffer bytes.Buffer
	var stderrBuffer bytes.Buffer
	command.Stdout = &stdoutBuffer
	command.Stderr = &stderrBuffer

	runError := command.Run()
	if runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			return Output{}, runError
		}
		runner.logger.Debug(logMessageFinished, zap.String(logFieldProgram, program), zap.Int(logFieldExitCode, exitError.ExitCode()))
		return Output{ExitCode: exitError.ExitCode(), Stdout: stdoutBuffer.Bytes(), Stderr: stderrBuffer.String()}, nil
	}

	runner.logger.Debug(logMessageFinished, zap.String(logFieldProgram, program), zap.Int(logFieldExitCode, 0))
	return Output{ExitCode: 0, Stdout: stdoutBuffer.Bytes(), Stderr: stderrBuffer.String()}, nil
}
