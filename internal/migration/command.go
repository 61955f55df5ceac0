package migration

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/dotnet"
	"github.com/temirov/layerize/internal/execshell"
	"github.com/temirov/layerize/internal/filesystem"
	"github.com/temirov/layerize/internal/prompt"
	"github.com/temirov/layerize/internal/ui"
	"github.com/temirov/layerize/internal/utils"
	"github.com/temirov/layerize/internal/utils/flags"
	pathutils "github.com/temirov/layerize/internal/utils/path"
	"github.com/temirov/layerize/internal/vcs"
)

const (
	migrateCommandUseConstant                 = "migrate [branch]"
	migrateCommandShortDescriptionConstant    = "Migrate a single-project Web API solution to a layered layout"
	migrateCommandLongDescriptionConstant     = "migrate backs up the legacy project, scaffolds API, Application, Domain, Infrastructure and Tests projects, relocates the entry point and configuration, rewrites namespaces, wires references and verifies the solution. An optional argument names a branch to create before any file changes."
	rootFlagNameConstant                      = "root"
	rootFlagUsageConstant                     = "Solution root directory"
	legacyProjectFlagNameConstant             = "legacy-project"
	legacyProjectFlagUsageConstant            = "Legacy project directory name (derived from the solution manifest when omitted)"
	rootNamespaceFlagNameConstant             = "root-namespace"
	rootNamespaceFlagUsageConstant            = "Root namespace for the generated projects (defaults to the legacy project name)"
	manifestFlagNameConstant                  = "manifest"
	manifestFlagUsageConstant                 = "Solution manifest file name (discovered when omitted)"
	assumeYesFlagNameConstant                 = "yes"
	assumeYesFlagShorthandConstant            = "y"
	assumeYesFlagUsageConstant                = "Accept every confirmation prompt"
	defaultAnswerFlagNameConstant             = "default-answer"
	defaultAnswerFlagUsageConstant            = "Answer used when a prompt receives an empty reply"
	commandTimeoutFlagNameConstant            = "command-timeout"
	commandTimeoutFlagUsageConstant           = "Timeout for each external command (0 disables)"
	reportFileFlagNameConstant                = "report-file"
	reportFileFlagUsageConstant               = "Report file written under the solution root (empty disables)"
	workingDirectoryErrorTemplateConstant     = "unable to determine working directory: %w"
	rootResolutionErrorTemplateConstant       = "unable to resolve solution root: %w"
	executorCreationErrorTemplateConstant     = "unable to construct command executor: %w"
	toolchainCreationErrorTemplateConstant    = "unable to construct build toolchain client: %w"
	orchestratorCreationErrorTemplateConstant = "unable to construct migration orchestrator: %w"
	logMessageMigrationStartingConstant       = "Starting migration"
	logFieldSolutionRootConstant              = "solution_root"
	logFieldBranchConstant                    = "branch"
	logFieldVCSUnavailableReasonConstant      = "reason"
	logMessageVCSClientUnavailableConstant    = "Version control client unavailable"
)

// CommandExecutor runs external commands on behalf of the toolchain and version control clients.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

type commandOptions struct {
	solutionRoot      string
	legacyProjectName string
	rootNamespace     string
	manifestName      string
	branchName        string
	buildToolName     string
	vcsToolName       string
	assumeYes         bool
	defaultAnswer     string
	commandTimeout    time.Duration
	reportFileName    string
}

// CommandBuilder assembles the migrate Cobra command. The optional collaborators replace the
// process-backed defaults in tests.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	WorkingDirectory             string
	Executor                     CommandExecutor
	Toolchain                    Toolchain
	VersionControl               VersionControl
	FileSystem                   filesystem.FileSystem
	Confirmer                    Confirmer
	Clock                        clock.Clock
}

// Build constructs the migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           migrateCommandUseConstant,
		Short:         migrateCommandShortDescriptionConstant,
		Long:          migrateCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          builder.run,
	}
	registerMigrationFlags(command, builder.resolveConfiguration())
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := resolveCommandOptions(command, arguments, builder.resolveConfiguration(), builder.WorkingDirectory)
	if optionsError != nil {
		return optionsError
	}

	logger := resolveLogger(builder.LoggerProvider)
	humanReadableLogging := builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider()

	toolchain, versionControl, clientError := builder.resolveClients(logger, options, humanReadableLogging)
	if clientError != nil {
		return clientError
	}

	output := command.OutOrStdout()
	orchestrator, orchestratorError := NewOrchestrator(
		Settings{
			SolutionRoot:           options.solutionRoot,
			LegacyProjectName:      options.legacyProjectName,
			RootNamespace:          options.rootNamespace,
			ManifestName:           options.manifestName,
			BranchName:             options.branchName,
			BuildToolName:          options.buildToolName,
			VersionControlToolName: options.vcsToolName,
			ReportFileName:         options.reportFileName,
		},
		Dependencies{
			Logger:         logger,
			Toolchain:      toolchain,
			VersionControl: versionControl,
			FileSystem:     builder.resolveFileSystem(),
			Confirmer:      builder.resolveConfirmer(command.InOrStdin(), output, options),
			Clock:          builder.Clock,
			Reporter:       NewConsoleStatusReporter(ui.NewStatusPrinter(output), logger),
			Output:         output,
		},
	)
	if orchestratorError != nil {
		return fmt.Errorf(orchestratorCreationErrorTemplateConstant, orchestratorError)
	}

	logger.Info(
		logMessageMigrationStartingConstant,
		zap.String(logFieldSolutionRootConstant, options.solutionRoot),
		zap.String(logFieldBranchConstant, options.branchName),
	)
	_, runError := orchestrator.Run(command.Context())
	return runError
}

func (builder *CommandBuilder) resolveClients(logger *zap.Logger, options commandOptions, humanReadableLogging bool) (Toolchain, VersionControl, error) {
	if builder.Toolchain != nil {
		return builder.Toolchain, builder.VersionControl, nil
	}

	executor, executorError := builder.resolveExecutor(logger, options.commandTimeout, humanReadableLogging)
	if executorError != nil {
		return nil, nil, executorError
	}

	toolchain, toolchainError := dotnet.NewClient(executor, options.buildToolName, options.solutionRoot)
	if toolchainError != nil {
		return nil, nil, fmt.Errorf(toolchainCreationErrorTemplateConstant, toolchainError)
	}

	if builder.VersionControl != nil {
		return toolchain, builder.VersionControl, nil
	}
	versionControl, versionControlError := vcs.NewClient(executor, options.vcsToolName, options.solutionRoot)
	if versionControlError != nil {
		logger.Warn(logMessageVCSClientUnavailableConstant, zap.String(logFieldVCSUnavailableReasonConstant, versionControlError.Error()))
		return toolchain, nil, nil
	}
	return toolchain, versionControl, nil
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger, commandTimeout time.Duration, humanReadableLogging bool) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}
	shellExecutor, creationError := newShellExecutor(logger, commandTimeout, humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveFileSystem() filesystem.FileSystem {
	if builder.FileSystem != nil {
		return builder.FileSystem
	}
	return filesystem.NewOSFileSystem()
}

func (builder *CommandBuilder) resolveConfirmer(input io.Reader, output io.Writer, options commandOptions) Confirmer {
	confirmer := builder.Confirmer
	if confirmer == nil {
		confirmer = prompt.NewIOConfirmationPrompter(input, output, options.defaultAnswer == DefaultAnswerYes)
	}
	return prompt.NewGate(prompt.ConfirmationPolicyFromBool(options.assumeYes), confirmer)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func newShellExecutor(logger *zap.Logger, commandTimeout time.Duration, humanReadableLogging bool) (*execshell.ShellExecutor, error) {
	executorOptions := execshell.ShellExecutorOptions{
		HumanReadableLogging: humanReadableLogging,
		CommandTimeout:       commandTimeout,
	}
	if humanReadableLogging {
		executorOptions.Observer = ui.NewConsoleCommandEventLogger(logger)
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), executorOptions)
	if creationError != nil {
		return nil, fmt.Errorf(executorCreationErrorTemplateConstant, creationError)
	}
	return shellExecutor, nil
}

func registerMigrationFlags(command *cobra.Command, configuration CommandConfiguration) {
	flagSet := command.Flags()
	flagSet.String(rootFlagNameConstant, configuration.Root, rootFlagUsageConstant)
	flagSet.String(legacyProjectFlagNameConstant, configuration.LegacyProject, legacyProjectFlagUsageConstant)
	flagSet.String(rootNamespaceFlagNameConstant, configuration.RootNamespace, rootNamespaceFlagUsageConstant)
	flagSet.String(manifestFlagNameConstant, configuration.Manifest, manifestFlagUsageConstant)
	flagSet.Duration(commandTimeoutFlagNameConstant, configuration.CommandTimeout, commandTimeoutFlagUsageConstant)
	flagSet.String(reportFileFlagNameConstant, configuration.ReportFile, reportFileFlagUsageConstant)

	var assumeYes bool
	flags.AddToggleFlag(flagSet, &assumeYes, assumeYesFlagNameConstant, assumeYesFlagShorthandConstant, configuration.AssumeYes, assumeYesFlagUsageConstant)
	var defaultAnswer string
	flags.AddChoiceFlag(flagSet, &defaultAnswer, defaultAnswerFlagNameConstant, configuration.DefaultAnswer, []string{DefaultAnswerYes, DefaultAnswerNo}, defaultAnswerFlagUsageConstant)
}

// resolveCommandOptions layers changed flags over configuration and anchors the solution root
// at the working directory.
func resolveCommandOptions(command *cobra.Command, arguments []string, configuration CommandConfiguration, configuredWorkingDirectory string) (commandOptions, error) {
	options := commandOptions{
		solutionRoot:      configuration.Root,
		legacyProjectName: configuration.LegacyProject,
		rootNamespace:     configuration.RootNamespace,
		manifestName:      configuration.Manifest,
		buildToolName:     configuration.BuildTool,
		vcsToolName:       configuration.VCSTool,
		assumeYes:         configuration.AssumeYes,
		defaultAnswer:     configuration.DefaultAnswer,
		commandTimeout:    configuration.CommandTimeout,
		reportFileName:    configuration.ReportFile,
	}
	if len(arguments) > 0 {
		options.branchName = strings.TrimSpace(arguments[0])
	}

	flagSet := command.Flags()
	if flagSet.Changed(rootFlagNameConstant) {
		options.solutionRoot, _ = flagSet.GetString(rootFlagNameConstant)
	}
	if flagSet.Changed(legacyProjectFlagNameConstant) {
		options.legacyProjectName, _ = flagSet.GetString(legacyProjectFlagNameConstant)
	}
	if flagSet.Changed(rootNamespaceFlagNameConstant) {
		options.rootNamespace, _ = flagSet.GetString(rootNamespaceFlagNameConstant)
	}
	if flagSet.Changed(manifestFlagNameConstant) {
		options.manifestName, _ = flagSet.GetString(manifestFlagNameConstant)
	}
	if flagSet.Changed(commandTimeoutFlagNameConstant) {
		options.commandTimeout, _ = flagSet.GetDuration(commandTimeoutFlagNameConstant)
	}
	if flagSet.Changed(reportFileFlagNameConstant) {
		options.reportFileName, _ = flagSet.GetString(reportFileFlagNameConstant)
	}
	if assumeYesFlag := flagSet.Lookup(assumeYesFlagNameConstant); assumeYesFlag != nil && assumeYesFlag.Changed {
		assumeYes, parseError := flags.ParseToggle(assumeYesFlag.Value.String())
		if parseError != nil {
			return commandOptions{}, parseError
		}
		options.assumeYes = assumeYes
	}
	if defaultAnswerFlag := flagSet.Lookup(defaultAnswerFlagNameConstant); defaultAnswerFlag != nil && defaultAnswerFlag.Changed {
		options.defaultAnswer = strings.ToLower(defaultAnswerFlag.Value.String())
	}

	options.legacyProjectName = strings.TrimSpace(options.legacyProjectName)
	options.rootNamespace = strings.TrimSpace(options.rootNamespace)
	options.manifestName = strings.TrimSpace(options.manifestName)
	options.reportFileName = strings.TrimSpace(options.reportFileName)

	workingDirectory, workingDirectoryError := resolveWorkingDirectory(command, configuredWorkingDirectory)
	if workingDirectoryError != nil {
		return commandOptions{}, workingDirectoryError
	}
	solutionRoot, resolveError := pathutils.NewRootResolver().Resolve(options.solutionRoot, workingDirectory)
	if resolveError != nil {
		return commandOptions{}, fmt.Errorf(rootResolutionErrorTemplateConstant, resolveError)
	}
	options.solutionRoot = solutionRoot
	return options, nil
}

func resolveWorkingDirectory(command *cobra.Command, configuredWorkingDirectory string) (string, error) {
	if len(strings.TrimSpace(configuredWorkingDirectory)) > 0 {
		return configuredWorkingDirectory, nil
	}
	if command != nil && command.Context() != nil {
		if workingDirectory, available := utils.NewCommandContextAccessor().WorkingDirectory(command.Context()); available {
			return workingDirectory, nil
		}
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
	}
	return workingDirectory, nil
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	var logger *zap.Logger
	if provider != nil {
		logger = provider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}
