package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandFailedTemplateConstant             = "%s exited with code %d"
	commandFailedWithOutputTemplateConstant   = "%s exited with code %d: %s"
	commandExecutionFailedTemplateConstant    = "%s could not be executed: %v"
	commandStartedLogMessageConstant          = "Executing external command"
	commandCompletedLogMessageConstant        = "External command completed"
	commandFailedLogMessageConstant           = "External command returned non-zero exit code"
	commandExecutionFailedLogMessageConstant  = "External command could not be executed"
	logFieldCommandNameConstant               = "command"
	logFieldArgumentsConstant                 = "arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardErrorConstant             = "stderr"
	logFieldTimeoutConstant                   = "timeout"
)

// CommandName identifies the executable invoked by the shell executor.
type CommandName string

// Well-known executables.
const (
	CommandDotnet CommandName = CommandName("dotnet")
	CommandGit    CommandName = CommandName("git")
)

// CommandDetails describes the arguments and environment of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable output of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CombinedOutput joins standard output and standard error for diagnostics.
func (result ExecutionResult) CombinedOutput() string {
	standardOutput := strings.TrimSpace(result.StandardOutput)
	standardError := strings.TrimSpace(result.StandardError)
	switch {
	case len(standardOutput) == 0:
		return standardError
	case len(standardError) == 0:
		return standardOutput
	default:
		return standardOutput + "\n" + standardError
	}
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates a nil logger was supplied.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates a nil runner was supplied.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that ran and returned a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failure.
func (failure CommandFailedError) Error() string {
	standardError := strings.TrimSpace(failure.Result.StandardError)
	if len(standardError) == 0 {
		return fmt.Sprintf(commandFailedTemplateConstant, failure.Command.Name, failure.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputTemplateConstant, failure.Command.Name, failure.Result.ExitCode, standardError)
}

// CommandExecutionError reports a command that could not be started or was interrupted.
// Result holds whatever output the process produced before it was stopped.
type CommandExecutionError struct {
	Command ShellCommand
	Result  ExecutionResult
	Cause   error
}

// Error describes the failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionFailedTemplateConstant, failure.Command.Name, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ShellExecutorOptions tunes optional executor behavior.
type ShellExecutorOptions struct {
	HumanReadableLogging bool
	CommandTimeout       time.Duration
	Observer             CommandEventObserver
}

// ShellExecutor runs external commands with logging, lifecycle events and optional timeouts.
type ShellExecutor struct {
	logger        *zap.Logger
	commandRunner CommandRunner
	options       ShellExecutorOptions
	formatter     CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, options ShellExecutorOptions) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	if options.Observer == nil {
		options.Observer = noopCommandEventObserver{}
	}
	return &ShellExecutor{
		logger:        logger,
		commandRunner: commandRunner,
		options:       options,
		formatter:     CommandMessageFormatter{},
	}, nil
}

// Execute runs the command. A non-zero exit code yields CommandFailedError carrying the full result.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	if executor.options.CommandTimeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, executor.options.CommandTimeout)
		defer cancel()
	}

	executor.logStarted(command)
	executor.options.Observer.CommandStarted(command)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError == nil && executionContext.Err() != nil {
		runError = executionContext.Err()
	}
	if runError != nil {
		executor.options.Observer.CommandExecutionFailed(command, runError)
		executor.logExecutionFailure(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Result: executionResult, Cause: runError}
	}

	executor.options.Observer.CommandCompleted(command, executionResult)
	if executionResult.ExitCode != 0 {
		executor.logFailure(command, executionResult)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logCompleted(command)
	return executionResult, nil
}

// FailureResult extracts the captured output carried by CommandFailedError or CommandExecutionError.
func FailureResult(failure error) (ExecutionResult, bool) {
	var commandFailure CommandFailedError
	if errors.As(failure, &commandFailure) {
		return commandFailure.Result, true
	}
	var executionFailure CommandExecutionError
	if errors.As(failure, &executionFailure) {
		return executionFailure.Result, true
	}
	return ExecutionResult{}, false
}

func (executor *ShellExecutor) logStarted(command ShellCommand) {
	if executor.options.HumanReadableLogging {
		executor.logger.Debug(executor.formatter.BuildStartedMessage(command))
		return
	}
	executor.logger.Debug(commandStartedLogMessageConstant, executor.commandFields(command)...)
}

func (executor *ShellExecutor) logCompleted(command ShellCommand) {
	if executor.options.HumanReadableLogging {
		executor.logger.Debug(executor.formatter.BuildSuccessMessage(command))
		return
	}
	executor.logger.Debug(commandCompletedLogMessageConstant, executor.commandFields(command)...)
}

func (executor *ShellExecutor) logFailure(command ShellCommand, result ExecutionResult) {
	if executor.options.HumanReadableLogging {
		executor.logger.Warn(executor.formatter.BuildFailureMessage(command, result))
		return
	}
	fields := append(executor.commandFields(command),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
		zap.String(logFieldStandardErrorConstant, strings.TrimSpace(result.StandardError)),
	)
	executor.logger.Warn(commandFailedLogMessageConstant, fields...)
}

func (executor *ShellExecutor) logExecutionFailure(command ShellCommand, failure error) {
	if executor.options.HumanReadableLogging {
		executor.logger.Error(executor.formatter.BuildExecutionFailureMessage(command, failure))
		return
	}
	fields := append(executor.commandFields(command), zap.Error(failure))
	if executor.options.CommandTimeout > 0 {
		fields = append(fields, zap.Duration(logFieldTimeoutConstant, executor.options.CommandTimeout))
	}
	executor.logger.Error(commandExecutionFailedLogMessageConstant, fields...)
}

func (executor *ShellExecutor) commandFields(command ShellCommand) []zap.Field {
	return []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}
}
