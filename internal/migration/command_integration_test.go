package migration_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/layerize/internal/execshell"
	"github.com/temirov/layerize/internal/migration"
)

const (
	integrationBranchConstant        = "layered"
	integrationToolchainVersion      = "8.0.100\n"
	integrationVersionControlVersion = "git version 2.43.0\n"
	integrationBuildFailureOutput    = "error CS0246: The type or namespace name could not be found"
	integrationCommandSeparator      = " "
	integrationProjectExtension      = ".csproj"
	integrationProjectContent        = "<Project Sdk=\"Microsoft.NET.Sdk\"></Project>\n"
)

// scriptedCommandRunner stands in for the operating system: it answers version probes,
// materializes project files for "new" and performs "mv" on the filesystem.
type scriptedCommandRunner struct {
	versionControlMissing bool
	buildFails            bool
	commandLines          []string
}

func (runner *scriptedCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	arguments := command.Details.Arguments
	runner.commandLines = append(runner.commandLines, string(command.Name)+integrationCommandSeparator+strings.Join(arguments, integrationCommandSeparator))

	switch command.Name {
	case execshell.CommandGit:
		if runner.versionControlMissing {
			return execshell.ExecutionResult{}, exec.ErrNotFound
		}
		switch arguments[0] {
		case "--version":
			return execshell.ExecutionResult{StandardOutput: integrationVersionControlVersion}, nil
		case "mv":
			destinationPath := filepath.Join(command.Details.WorkingDirectory, arguments[2])
			if mkdirError := os.MkdirAll(filepath.Dir(destinationPath), 0o755); mkdirError != nil {
				return execshell.ExecutionResult{}, mkdirError
			}
			if renameError := os.Rename(filepath.Join(command.Details.WorkingDirectory, arguments[1]), destinationPath); renameError != nil {
				return execshell.ExecutionResult{ExitCode: 128, StandardError: renameError.Error()}, nil
			}
		}
		return execshell.ExecutionResult{}, nil
	case execshell.CommandDotnet:
		switch arguments[0] {
		case "--version":
			return execshell.ExecutionResult{StandardOutput: integrationToolchainVersion}, nil
		case "new":
			projectDirectory := filepath.Join(command.Details.WorkingDirectory, arguments[5])
			if mkdirError := os.MkdirAll(projectDirectory, 0o755); mkdirError != nil {
				return execshell.ExecutionResult{}, mkdirError
			}
			projectFile := filepath.Join(projectDirectory, arguments[3]+integrationProjectExtension)
			if writeError := os.WriteFile(projectFile, []byte(integrationProjectContent), 0o644); writeError != nil {
				return execshell.ExecutionResult{}, writeError
			}
		case "build":
			if runner.buildFails {
				return execshell.ExecutionResult{ExitCode: 1, StandardOutput: integrationBuildFailureOutput}, nil
			}
		}
		return execshell.ExecutionResult{}, nil
	}
	return execshell.ExecutionResult{}, exec.ErrNotFound
}

func (runner *scriptedCommandRunner) ran(prefix string) bool {
	for _, commandLine := range runner.commandLines {
		if strings.HasPrefix(commandLine, prefix) {
			return true
		}
	}
	return false
}

func TestMigrateCommandDrivesToolsThroughExecutor(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		runner                *scriptedCommandRunner
		expectTrackedMoves    bool
		expectBranch          bool
		expectTests           bool
		expectedWarningStages []string
	}{
		{
			name:               "tracked_moves_with_git",
			runner:             &scriptedCommandRunner{},
			expectTrackedMoves: true,
			expectBranch:       true,
			expectTests:        true,
		},
		{
			name:                  "copy_mode_without_git",
			runner:                &scriptedCommandRunner{versionControlMissing: true},
			expectTests:           true,
			expectedWarningStages: []string{"Probing", "BackingUp"},
		},
		{
			name:                  "build_failure_skips_tests",
			runner:                &scriptedCommandRunner{buildFails: true},
			expectTrackedMoves:    true,
			expectBranch:          true,
			expectedWarningStages: []string{"Verifying"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			solutionRoot := subTest.TempDir()
			writeFixture(subTest, solutionRoot, legacySolutionFixture)

			observedCore, observedLogs := observer.New(zapcore.DebugLevel)
			logger := zap.New(observedCore)
			shellExecutor, executorError := execshell.NewShellExecutor(logger, testCase.runner, execshell.ShellExecutorOptions{})
			require.NoError(subTest, executorError)

			builder := migration.CommandBuilder{
				LoggerProvider:   func() *zap.Logger { return logger },
				WorkingDirectory: solutionRoot,
				Executor:         shellExecutor,
				Clock:            testclock.NewClock(backupTimestamp),
			}
			command, buildError := builder.Build()
			require.NoError(subTest, buildError)

			output, executionError := executeCommand(subTest, command, "", integrationBranchConstant, assumeYesFlagConstant, disableReportFlagConstant)

			require.NoError(subTest, executionError)
			require.Contains(subTest, output, "Migration Completed")
			require.Equal(subTest, "using Shop.Api.Models;\n\nnamespace Shop.Api;\n\npublic static class Program {}\n",
				readFile(subTest, filepath.Join(solutionRoot, "src", "Shop.Api", "Program.cs")))
			require.FileExists(subTest, filepath.Join(solutionRoot, "tests", "Shop.Tests", "Shop.Tests.csproj"))

			require.True(subTest, testCase.runner.ran("dotnet new webapi -n Shop.Api -o "+filepath.Join("src", "Shop.Api")))
			require.True(subTest, testCase.runner.ran("dotnet add "+filepath.Join("src", "Shop.Api", "Shop.Api.csproj")+" reference"))
			require.True(subTest, testCase.runner.ran("dotnet restore Shop.sln"))
			require.Equal(subTest, testCase.expectTrackedMoves, testCase.runner.ran("git mv"))
			require.Equal(subTest, testCase.expectBranch, testCase.runner.ran("git checkout -b "+integrationBranchConstant))
			require.Equal(subTest, testCase.expectTests, testCase.runner.ran("dotnet test Shop.sln --no-build"))
			require.True(subTest, testCase.runner.ran("dotnet sln Shop.sln remove "+filepath.Join("Shop", "Shop.csproj")))

			warningStages := []string{}
			for _, entry := range observedLogs.FilterLevelExact(zapcore.WarnLevel).AllUntimed() {
				stage, hasStage := entry.ContextMap()["stage"].(string)
				if hasStage && !containsString(warningStages, stage) {
					warningStages = append(warningStages, stage)
				}
			}
			require.ElementsMatch(subTest, testCase.expectedWarningStages, warningStages)
		})
	}
}

func containsString(values []string, candidate string) bool {
	for _, value := range values {
		if value == candidate {
			return true
		}
	}
	return false
}
