package execshell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/layerize/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testCommandArgumentConstant                  = "--version"
	testWorkingDirectoryConstant                 = "."
	testStandardErrorOutputConstant              = "failure"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	blockUntilDone   bool
	partialOutput    string
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	if runner.blockUntilDone {
		<-executionContext.Done()
		return execshell.ExecutionResult{StandardOutput: runner.partialOutput, ExitCode: -1}, executionContext.Err()
	}
	return runner.executionResult, runner.executionError
}

type recordingEventObserver struct {
	started   int
	completed int
	failed    int
}

func (observer *recordingEventObserver) CommandStarted(execshell.ShellCommand) {
	observer.started++
}

func (observer *recordingEventObserver) CommandCompleted(execshell.ShellCommand, execshell.ExecutionResult) {
	observer.completed++
}

func (observer *recordingEventObserver) CommandExecutionFailed(execshell.ShellCommand, error) {
	observer.failed++
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner, execshell.ShellExecutorOptions{})
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name              string
		runnerResult      execshell.ExecutionResult
		runnerError       error
		expectErrorType   any
		expectedLogLevels []zapcore.Level
		expectedCompleted int
		expectedFailed    int
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "ok",
				ExitCode:       0,
			},
			expectedLogLevels: []zapcore.Level{zapcore.DebugLevel, zapcore.DebugLevel},
			expectedCompleted: 1,
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardError: testStandardErrorOutputConstant,
				ExitCode:      1,
			},
			expectErrorType:   execshell.CommandFailedError{},
			expectedLogLevels: []zapcore.Level{zapcore.DebugLevel, zapcore.WarnLevel},
			expectedCompleted: 1,
		},
		{
			name:              testExecutionRunnerErrorCaseNameConstant,
			runnerError:       errors.New("runner failure"),
			expectErrorType:   execshell.CommandExecutionError{},
			expectedLogLevels: []zapcore.Level{zapcore.DebugLevel, zapcore.ErrorLevel},
			expectedFailed:    1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)

			recordingRunner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}
			eventObserver := &recordingEventObserver{}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner, execshell.ShellExecutorOptions{Observer: eventObserver})
			require.NoError(testInstance, creationError)

			commandDetails := execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}, WorkingDirectory: testWorkingDirectoryConstant}
			executionResult, executionError := shellExecutor.Execute(context.Background(), execshell.ShellCommand{Name: execshell.CommandGit, Details: commandDetails})

			if testCase.expectErrorType != nil {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.expectErrorType, executionError)
				require.Empty(testInstance, executionResult.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult.StandardOutput, executionResult.StandardOutput)
			}

			recordedEntries := observerLogs.All()
			require.Len(testInstance, recordedEntries, len(testCase.expectedLogLevels))
			for entryIndex, expectedLevel := range testCase.expectedLogLevels {
				require.Equal(testInstance, expectedLevel, recordedEntries[entryIndex].Level)
			}
			require.Equal(testInstance, 1, eventObserver.started)
			require.Equal(testInstance, execshell.CommandGit, recordingRunner.recordedCommands[0].Name)
			require.Equal(testInstance, testCase.expectedCompleted, eventObserver.completed)
			require.Equal(testInstance, testCase.expectedFailed, eventObserver.failed)
		})
	}
}

func TestShellExecutorFailureCarriesResult(testInstance *testing.T) {
	recordingRunner := &recordingCommandRunner{
		executionResult: execshell.ExecutionResult{StandardOutput: "error CS0246", StandardError: "build failed", ExitCode: 1},
	}
	shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner, execshell.ShellExecutorOptions{})
	require.NoError(testInstance, creationError)

	_, executionError := shellExecutor.Execute(context.Background(), execshell.ShellCommand{Name: execshell.CommandDotnet, Details: execshell.CommandDetails{Arguments: []string{"build"}}})

	var commandFailure execshell.CommandFailedError
	require.ErrorAs(testInstance, executionError, &commandFailure)
	require.Equal(testInstance, 1, commandFailure.Result.ExitCode)
	require.Equal(testInstance, "error CS0246\nbuild failed", commandFailure.Result.CombinedOutput())
	require.Contains(testInstance, commandFailure.Error(), "build failed")
}

func TestShellExecutorAppliesCommandTimeout(testInstance *testing.T) {
	recordingRunner := &recordingCommandRunner{blockUntilDone: true, partialOutput: "Determining projects to restore..."}
	shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner, execshell.ShellExecutorOptions{CommandTimeout: 10 * time.Millisecond})
	require.NoError(testInstance, creationError)

	_, executionError := shellExecutor.Execute(context.Background(), execshell.ShellCommand{Name: execshell.CommandDotnet, Details: execshell.CommandDetails{Arguments: []string{"restore"}}})

	require.Error(testInstance, executionError)
	require.ErrorIs(testInstance, executionError, context.DeadlineExceeded)

	var executionFailure execshell.CommandExecutionError
	require.ErrorAs(testInstance, executionError, &executionFailure)
	require.Equal(testInstance, -1, executionFailure.Result.ExitCode)

	capturedResult, hasResult := execshell.FailureResult(executionError)
	require.True(testInstance, hasResult)
	require.Equal(testInstance, "Determining projects to restore...", capturedResult.CombinedOutput())
}

func TestFailureResultIgnoresOtherErrors(testInstance *testing.T) {
	capturedResult, hasResult := execshell.FailureResult(errors.New("unrelated"))
	require.False(testInstance, hasResult)
	require.Empty(testInstance, capturedResult.CombinedOutput())
}

func TestShellExecutorHumanReadableLogging(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zap.DebugLevel)
	recordingRunner := &recordingCommandRunner{}
	shellExecutor, creationError := execshell.NewShellExecutor(zap.New(observerCore), recordingRunner, execshell.ShellExecutorOptions{HumanReadableLogging: true})
	require.NoError(testInstance, creationError)

	_, executionError := shellExecutor.Execute(context.Background(), execshell.ShellCommand{Name: execshell.CommandDotnet, Details: execshell.CommandDetails{Arguments: []string{"restore", "Legacy.sln"}}})
	require.NoError(testInstance, executionError)

	recordedEntries := observerLogs.All()
	require.Len(testInstance, recordedEntries, 2)
	require.Equal(testInstance, "Running restore for Legacy.sln", recordedEntries[0].Message)
	require.Equal(testInstance, "restore succeeded for Legacy.sln", recordedEntries[1].Message)
}
