// Package vcs wraps the git operations used during a migration. Git is
// optional: callers fall back to plain file operations when it is absent.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/layerize/internal/execshell"
)

const (
	checkoutSubcommandConstant              = "checkout"
	newBranchFlagConstant                   = "-b"
	moveSubcommandConstant                  = "mv"
	versionFlagConstant                     = "--version"
	requiredValueMessageConstant            = "value required"
	executorNotConfiguredMessageConstant    = "git executor not configured"
	operationErrorWithCauseTemplateConstant = "git %s failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	branchFieldNameConstant                 = "branch"
	sourceFieldNameConstant                 = "source"
	destinationFieldNameConstant            = "destination"
	versionOperationConstant                = "version"
	branchOperationConstant                 = "checkout -b"
	moveOperationConstant                   = "mv"
)

// CommandExecutor is the minimal interface required from execshell.ShellExecutor.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// ErrExecutorNotConfigured indicates the client was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps git failures.
type OperationError struct {
	Operation string
	Cause     error
}

// Error describes the failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// Client runs git in a fixed repository directory.
type Client struct {
	executor         CommandExecutor
	binary           execshell.CommandName
	workingDirectory string
}

// NewClient constructs a git client. An empty binary selects "git".
func NewClient(executor CommandExecutor, binary string, workingDirectory string) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	resolvedBinary := execshell.CommandName(strings.TrimSpace(binary))
	if len(resolvedBinary) == 0 {
		resolvedBinary = execshell.CommandGit
	}
	return &Client{executor: executor, binary: resolvedBinary, workingDirectory: workingDirectory}, nil
}

// Version returns the output of "git --version".
func (client *Client) Version(executionContext context.Context) (string, error) {
	executionResult, executionError := client.run(executionContext, versionOperationConstant, versionFlagConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// CreateBranch creates and switches to a new branch.
func (client *Client) CreateBranch(executionContext context.Context, branchName string) error {
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	_, executionError := client.run(executionContext, branchOperationConstant, checkoutSubcommandConstant, newBranchFlagConstant, trimmedBranchName)
	return executionError
}

// Move performs a tracked move. Paths are interpreted relative to the repository directory.
func (client *Client) Move(executionContext context.Context, sourcePath string, destinationPath string) error {
	if len(strings.TrimSpace(sourcePath)) == 0 {
		return InvalidInputError{FieldName: sourceFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(destinationPath)) == 0 {
		return InvalidInputError{FieldName: destinationFieldNameConstant, Message: requiredValueMessageConstant}
	}
	_, executionError := client.run(executionContext, moveOperationConstant, moveSubcommandConstant, sourcePath, destinationPath)
	return executionError
}

func (client *Client) run(executionContext context.Context, operation string, arguments ...string) (execshell.ExecutionResult, error) {
	executionResult, executionError := client.executor.Execute(executionContext, execshell.ShellCommand{
		Name: client.binary,
		Details: execshell.CommandDetails{
			Arguments:        arguments,
			WorkingDirectory: client.workingDirectory,
		},
	})
	if executionError != nil {
		return execshell.ExecutionResult{}, OperationError{Operation: operation, Cause: executionError}
	}
	return executionResult, nil
}
