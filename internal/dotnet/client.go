package dotnet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/layerize/internal/execshell"
)

const (
	newSubcommandConstant                   = "new"
	solutionSubcommandConstant              = "sln"
	addSubcommandConstant                   = "add"
	removeSubcommandConstant                = "remove"
	referenceSubcommandConstant             = "reference"
	packageSubcommandConstant               = "package"
	restoreSubcommandConstant               = "restore"
	buildSubcommandConstant                 = "build"
	testSubcommandConstant                  = "test"
	nameFlagConstant                        = "-n"
	outputFlagConstant                      = "-o"
	forceFlagConstant                       = "--force"
	noRestoreFlagConstant                   = "--no-restore"
	noBuildFlagConstant                     = "--no-build"
	versionFlagConstant                     = "--version"
	requiredValueMessageConstant            = "value required"
	executorNotConfiguredMessageConstant    = "dotnet executor not configured"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	emptyVersionMessageConstant             = "toolchain reported an empty version"
	kindFieldNameConstant                   = "kind"
	nameFieldNameConstant                   = "name"
	pathFieldNameConstant                   = "path"
	manifestFieldNameConstant               = "manifest"
	projectFieldNameConstant                = "project"
	referenceFieldNameConstant              = "reference"
	packageFieldNameConstant                = "package"
)

// OperationName describes a toolchain workflow supported by the client.
type OperationName string

// Supported operations.
const (
	OperationVersion            = OperationName("Version")
	OperationCreateProject      = OperationName("CreateProject")
	OperationAddToManifest      = OperationName("AddToManifest")
	OperationRemoveFromManifest = OperationName("RemoveFromManifest")
	OperationAddReference       = OperationName("AddReference")
	OperationAddPackage         = OperationName("AddPackage")
	OperationRestore            = OperationName("Restore")
	OperationBuild              = OperationName("Build")
	OperationTest               = OperationName("Test")
)

// CommandExecutor is the minimal interface required from execshell.ShellExecutor.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrEmptyVersion indicates the toolchain answered --version with no text.
	ErrEmptyVersion = errors.New(emptyVersionMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for toolchain operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// Client drives the dotnet CLI through execshell. Every command runs in the working directory
// supplied at construction, so relative project paths resolve against the solution root.
type Client struct {
	executor         CommandExecutor
	binary           execshell.CommandName
	workingDirectory string
}

// NewClient constructs a toolchain client. An empty binary selects "dotnet".
func NewClient(executor CommandExecutor, binary string, workingDirectory string) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	resolvedBinary := execshell.CommandName(strings.TrimSpace(binary))
	if len(resolvedBinary) == 0 {
		resolvedBinary = execshell.CommandDotnet
	}
	return &Client{executor: executor, binary: resolvedBinary, workingDirectory: workingDirectory}, nil
}

// Version returns the trimmed output of --version.
func (client *Client) Version(executionContext context.Context) (string, error) {
	executionResult, executionError := client.run(executionContext, OperationVersion, versionFlagConstant)
	if executionError != nil {
		return "", executionError
	}
	version := strings.TrimSpace(executionResult.StandardOutput)
	if len(version) == 0 {
		return "", OperationError{Operation: OperationVersion, Cause: ErrEmptyVersion}
	}
	return version, nil
}

// CreateProject runs "new <kind> -n <name> -o <path> --force".
func (client *Client) CreateProject(executionContext context.Context, kind string, name string, path string) (execshell.ExecutionResult, error) {
	if validationError := requireValues(map[string]string{kindFieldNameConstant: kind, nameFieldNameConstant: name, pathFieldNameConstant: path}); validationError != nil {
		return execshell.ExecutionResult{}, validationError
	}
	return client.run(executionContext, OperationCreateProject, newSubcommandConstant, kind, nameFlagConstant, name, outputFlagConstant, path, forceFlagConstant)
}

// AddToManifest runs "sln <manifest> add <project>".
func (client *Client) AddToManifest(executionContext context.Context, manifest string, project string) (execshell.ExecutionResult, error) {
	if validationError := requireValues(map[string]string{manifestFieldNameConstant: manifest, projectFieldNameConstant: project}); validationError != nil {
		return execshell.ExecutionResult{}, validationError
	}
	return client.run(executionContext, OperationAddToManifest, solutionSubcommandConstant, manifest, addSubcommandConstant, project)
}

// RemoveFromManifest runs "sln <manifest> remove <project>".
func (client *Client) RemoveFromManifest(executionContext context.Context, manifest string, project string) (execshell.ExecutionResult, error) {
	if validationError := requireValues(map[string]string{manifestFieldNameConstant: manifest, projectFieldNameConstant: project}); validationError != nil {
		return execshell.ExecutionResult{}, validationError
	}
	return client.run(executionContext, OperationRemoveFromManifest, solutionSubcommandConstant, manifest, removeSubcommandConstant, project)
}

// AddReference runs "add <project> reference <reference>".
func (client *Client) AddReference(executionContext context.Context, project string, reference string) (execshell.ExecutionResult, error) {
	if validationError := requireValues(map[string]string{projectFieldNameConstant: project, referenceFieldNameConstant: reference}); validationError != nil {
		return execshell.ExecutionResult{}, validationError
	}
	return client.run(executionContext, OperationAddReference, addSubcommandConstant, project, referenceSubcommandConstant, reference)
}

// AddPackage runs "add <project> package <package>".
func (client *Client) AddPackage(executionContext context.Context, project string, packageIdentifier string) (execshell.ExecutionResult, error) {
	if validationError := requireValues(map[string]string{projectFieldNameConstant: project, packageFieldNameConstant: packageIdentifier}); validationError != nil {
		return execshell.ExecutionResult{}, validationError
	}
	return client.run(executionContext, OperationAddPackage, addSubcommandConstant, project, packageSubcommandConstant, packageIdentifier)
}

// Restore runs "restore <manifest>".
func (client *Client) Restore(executionContext context.Context, manifest string) (execshell.ExecutionResult, error) {
	return client.runPhase(executionContext, OperationRestore, manifest, restoreSubcommandConstant)
}

// Build runs "build <manifest> --no-restore".
func (client *Client) Build(executionContext context.Context, manifest string) (execshell.ExecutionResult, error) {
	return client.runPhase(executionContext, OperationBuild, manifest, buildSubcommandConstant, noRestoreFlagConstant)
}

// Test runs "test <manifest> --no-build".
func (client *Client) Test(executionContext context.Context, manifest string) (execshell.ExecutionResult, error) {
	return client.runPhase(executionContext, OperationTest, manifest, testSubcommandConstant, noBuildFlagConstant)
}

func (client *Client) runPhase(executionContext context.Context, operation OperationName, manifest string, subcommand string, flags ...string) (execshell.ExecutionResult, error) {
	if validationError := requireValues(map[string]string{manifestFieldNameConstant: manifest}); validationError != nil {
		return execshell.ExecutionResult{}, validationError
	}
	arguments := append([]string{subcommand, manifest}, flags...)
	return client.run(executionContext, operation, arguments...)
}

// run executes the command. When the process exits non-zero or is interrupted the captured output
// is still returned alongside the OperationError so callers can report it.
func (client *Client) run(executionContext context.Context, operation OperationName, arguments ...string) (execshell.ExecutionResult, error) {
	command := execshell.ShellCommand{
		Name: client.binary,
		Details: execshell.CommandDetails{
			Arguments:        arguments,
			WorkingDirectory: client.workingDirectory,
		},
	}

	executionResult, executionError := client.executor.Execute(executionContext, command)
	if executionError == nil {
		return executionResult, nil
	}

	if failureResult, hasResult := execshell.FailureResult(executionError); hasResult {
		executionResult = failureResult
	}
	return executionResult, OperationError{Operation: operation, Cause: executionError}
}

func requireValues(values map[string]string) error {
	for _, fieldName := range []string{kindFieldNameConstant, nameFieldNameConstant, pathFieldNameConstant, manifestFieldNameConstant, projectFieldNameConstant, referenceFieldNameConstant, packageFieldNameConstant} {
		value, present := values[fieldName]
		if present && len(strings.TrimSpace(value)) == 0 {
			return InvalidInputError{FieldName: fieldName, Message: requiredValueMessageConstant}
		}
	}
	return nil
}
