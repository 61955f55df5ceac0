package execshell

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	fallbackUnknownValueLabelConstant       = "unknown"
	windowsExecutableSuffixConstant         = ".exe"
	versionFlagConstant                     = "--version"
)

const (
	dotnetNewSubcommandConstant       = "new"
	dotnetSolutionSubcommandConstant  = "sln"
	dotnetAddSubcommandConstant       = "add"
	dotnetRemoveSubcommandConstant    = "remove"
	dotnetReferenceSubcommandConstant = "reference"
	dotnetPackageSubcommandConstant   = "package"
	dotnetRestoreSubcommandConstant   = "restore"
	dotnetBuildSubcommandConstant     = "build"
	dotnetTestSubcommandConstant      = "test"
	dotnetNameFlagConstant            = "-n"
	dotnetOutputFlagConstant          = "-o"
	gitMoveSubcommandConstant         = "mv"
	gitCheckoutSubcommandConstant     = "checkout"
	gitNewBranchFlagConstant          = "-b"
)

const (
	toolVersionStartTemplateConstant            = "Checking %s version"
	toolVersionSuccessTemplateConstant          = "%s is available"
	toolVersionFailureTemplateConstant          = "%s did not report a version (exit code %d%s)"
	toolVersionExecutionFailureTemplateConstant = "%s is not available: %s"

	dotnetNewStartTemplateConstant            = "Creating %s project %s at %s"
	dotnetNewSuccessTemplateConstant          = "Created %s project %s at %s"
	dotnetNewFailureTemplateConstant          = "Failed to create %s project %s at %s (exit code %d%s)"
	dotnetNewExecutionFailureTemplateConstant = "Unable to create %s project %s at %s: %s"

	dotnetSolutionAddStartTemplateConstant               = "Registering %s with %s"
	dotnetSolutionAddSuccessTemplateConstant             = "Registered %s with %s"
	dotnetSolutionAddFailureTemplateConstant             = "Failed to register %s with %s (exit code %d%s)"
	dotnetSolutionAddExecutionFailureTemplateConstant    = "Unable to register %s with %s: %s"
	dotnetSolutionRemoveStartTemplateConstant            = "Removing %s from %s"
	dotnetSolutionRemoveSuccessTemplateConstant          = "Removed %s from %s"
	dotnetSolutionRemoveFailureTemplateConstant          = "Failed to remove %s from %s (exit code %d%s)"
	dotnetSolutionRemoveExecutionFailureTemplateConstant = "Unable to remove %s from %s: %s"

	dotnetReferenceStartTemplateConstant            = "Adding reference %s -> %s"
	dotnetReferenceSuccessTemplateConstant          = "Added reference %s -> %s"
	dotnetReferenceFailureTemplateConstant          = "Failed to add reference %s -> %s (exit code %d%s)"
	dotnetReferenceExecutionFailureTemplateConstant = "Unable to add reference %s -> %s: %s"

	dotnetPackageStartTemplateConstant            = "Adding package %s to %s"
	dotnetPackageSuccessTemplateConstant          = "Added package %s to %s"
	dotnetPackageFailureTemplateConstant          = "Failed to add package %s to %s (exit code %d%s)"
	dotnetPackageExecutionFailureTemplateConstant = "Unable to add package %s to %s: %s"

	dotnetPhaseStartTemplateConstant            = "Running %s for %s"
	dotnetPhaseSuccessTemplateConstant          = "%s succeeded for %s"
	dotnetPhaseFailureTemplateConstant          = "%s failed for %s (exit code %d%s)"
	dotnetPhaseExecutionFailureTemplateConstant = "Unable to run %s for %s: %s"

	gitMoveStartTemplateConstant            = "Moving %s to %s"
	gitMoveSuccessTemplateConstant          = "Moved %s to %s"
	gitMoveFailureTemplateConstant          = "Failed to move %s to %s (exit code %d%s)"
	gitMoveExecutionFailureTemplateConstant = "Unable to move %s to %s: %s"

	gitBranchStartTemplateConstant            = "Creating branch %s in %s"
	gitBranchSuccessTemplateConstant          = "Created branch %s in %s"
	gitBranchFailureTemplateConstant          = "Failed to create branch %s in %s (exit code %d%s)"
	gitBranchExecutionFailureTemplateConstant = "Unable to create branch %s in %s: %s"

	defaultWorkingDirectoryLabelConstant = "current directory"
)

// messageTemplates groups the four lifecycle templates of one command family.
type messageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

// FormatCommandLine renders the command as a shell-quoted line.
func (formatter CommandMessageFormatter) FormatCommandLine(command ShellCommand) string {
	parts := append([]string{string(command.Name)}, command.Details.Arguments...)
	return shellquote.Join(parts...)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 1 && strings.TrimSpace(arguments[0]) == versionFlagConstant {
		toolName := formatter.executableName(command)
		return formatter.render(messageTemplates{
			start:            toolVersionStartTemplateConstant,
			success:          toolVersionSuccessTemplateConstant,
			failure:          toolVersionFailureTemplateConstant,
			executionFailure: toolVersionExecutionFailureTemplateConstant,
		}, []any{toolName}, result, failure, stage)
	}

	switch CommandName(formatter.executableName(command)) {
	case CommandDotnet:
		return formatter.describeDotnetMessage(command, result, failure, stage)
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeDotnetMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(arguments[0]) {
	case dotnetNewSubcommandConstant:
		templateName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
		projectName := formatter.ensureValue(findFlagValue(arguments, dotnetNameFlagConstant))
		outputPath := formatter.ensureValue(findFlagValue(arguments, dotnetOutputFlagConstant))
		return formatter.render(messageTemplates{
			start:            dotnetNewStartTemplateConstant,
			success:          dotnetNewSuccessTemplateConstant,
			failure:          dotnetNewFailureTemplateConstant,
			executionFailure: dotnetNewExecutionFailureTemplateConstant,
		}, []any{templateName, projectName, outputPath}, result, failure, stage)
	case dotnetSolutionSubcommandConstant:
		manifest := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
		action := formatter.argumentAtIndex(arguments, 2)
		project := formatter.ensureValue(formatter.argumentAtIndex(arguments, 3))
		templates := messageTemplates{
			start:            dotnetSolutionAddStartTemplateConstant,
			success:          dotnetSolutionAddSuccessTemplateConstant,
			failure:          dotnetSolutionAddFailureTemplateConstant,
			executionFailure: dotnetSolutionAddExecutionFailureTemplateConstant,
		}
		if action == dotnetRemoveSubcommandConstant {
			templates = messageTemplates{
				start:            dotnetSolutionRemoveStartTemplateConstant,
				success:          dotnetSolutionRemoveSuccessTemplateConstant,
				failure:          dotnetSolutionRemoveFailureTemplateConstant,
				executionFailure: dotnetSolutionRemoveExecutionFailureTemplateConstant,
			}
		}
		return formatter.render(templates, []any{project, manifest}, result, failure, stage)
	case dotnetAddSubcommandConstant:
		project := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
		target := formatter.ensureValue(formatter.argumentAtIndex(arguments, 3))
		switch formatter.argumentAtIndex(arguments, 2) {
		case dotnetReferenceSubcommandConstant:
			return formatter.render(messageTemplates{
				start:            dotnetReferenceStartTemplateConstant,
				success:          dotnetReferenceSuccessTemplateConstant,
				failure:          dotnetReferenceFailureTemplateConstant,
				executionFailure: dotnetReferenceExecutionFailureTemplateConstant,
			}, []any{project, target}, result, failure, stage)
		case dotnetPackageSubcommandConstant:
			return formatter.render(messageTemplates{
				start:            dotnetPackageStartTemplateConstant,
				success:          dotnetPackageSuccessTemplateConstant,
				failure:          dotnetPackageFailureTemplateConstant,
				executionFailure: dotnetPackageExecutionFailureTemplateConstant,
			}, []any{target, project}, result, failure, stage)
		}
	case dotnetRestoreSubcommandConstant, dotnetBuildSubcommandConstant, dotnetTestSubcommandConstant:
		phase := strings.TrimSpace(arguments[0])
		target := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
		return formatter.render(messageTemplates{
			start:            dotnetPhaseStartTemplateConstant,
			success:          dotnetPhaseSuccessTemplateConstant,
			failure:          dotnetPhaseFailureTemplateConstant,
			executionFailure: dotnetPhaseExecutionFailureTemplateConstant,
		}, []any{phase, target}, result, failure, stage)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(arguments[0]) {
	case gitMoveSubcommandConstant:
		source := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
		destination := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
		return formatter.render(messageTemplates{
			start:            gitMoveStartTemplateConstant,
			success:          gitMoveSuccessTemplateConstant,
			failure:          gitMoveFailureTemplateConstant,
			executionFailure: gitMoveExecutionFailureTemplateConstant,
		}, []any{source, destination}, result, failure, stage)
	case gitCheckoutSubcommandConstant:
		branchName := findFlagValue(arguments, gitNewBranchFlagConstant)
		if len(branchName) == 0 {
			break
		}
		return formatter.render(messageTemplates{
			start:            gitBranchStartTemplateConstant,
			success:          gitBranchSuccessTemplateConstant,
			failure:          gitBranchFailureTemplateConstant,
			executionFailure: gitBranchExecutionFailureTemplateConstant,
		}, []any{branchName, formatter.describeWorkingDirectory(command)}, result, failure, stage)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) render(templates messageTemplates, subjects []any, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subjects...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subjects...)
	case messageStageFailure:
		arguments := append(append([]any{}, subjects...), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure, arguments...)
	case messageStageExecutionFailure:
		arguments := append(append([]any{}, subjects...), formatter.describeFailure(failure))
		return fmt.Sprintf(templates.executionFailure, arguments...)
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) executableName(command ShellCommand) string {
	baseName := filepath.Base(strings.TrimSpace(string(command.Name)))
	return strings.TrimSuffix(strings.ToLower(baseName), windowsExecutableSuffixConstant)
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	return fmt.Sprintf(commandLabelTemplateConstant, formatter.FormatCommandLine(command), formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return value
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments)-1; index++ {
		if strings.TrimSpace(arguments[index]) == flag {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
