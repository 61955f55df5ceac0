package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = "common:\n  log_level: error\n  log_format: console\nmigration:\n  legacy_project: Shop\n  root_namespace: Contoso.Shop\n  command_timeout: 90s\n  assume_yes: true\n"
	testRootNamespaceEnvironmentName  = "LAYERIZE_MIGRATION_ROOT_NAMESPACE"
	testSolutionManifestContent       = "Microsoft Visual Studio Solution File, Format Version 12.00\n"
	testLegacyProjectContent          = "<Project Sdk=\"Microsoft.NET.Sdk.Web\"></Project>\n"
)

func writeTestFile(testInstance *testing.T, path string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(testInstance, os.WriteFile(path, []byte(content), 0o644))
}

func TestApplicationRegistersMigrationCommands(testInstance *testing.T) {
	application := NewApplication()

	commandNames := []string{}
	for _, command := range application.rootCommand.Commands() {
		commandNames = append(commandNames, command.Name())
	}
	require.Contains(testInstance, commandNames, "migrate")
	require.Contains(testInstance, commandNames, "plan")
}

func TestInitializeConfigurationLayersSources(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		environmentNamespace  string
		logLevelFlag          string
		expectedRootNamespace string
		expectedLogLevel      string
	}{
		{
			name:                  "configuration_file",
			expectedRootNamespace: "Contoso.Shop",
			expectedLogLevel:      "error",
		},
		{
			name:                  "environment_overrides_file",
			environmentNamespace:  "Env.Shop",
			expectedRootNamespace: "Env.Shop",
			expectedLogLevel:      "error",
		},
		{
			name:                  "flag_overrides_log_level",
			logLevelFlag:          "debug",
			expectedRootNamespace: "Contoso.Shop",
			expectedLogLevel:      "debug",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			configurationPath := filepath.Join(subTest.TempDir(), testConfigurationFileNameConstant)
			writeTestFile(subTest, configurationPath, testConfigurationContentConstant)
			if len(testCase.environmentNamespace) > 0 {
				subTest.Setenv(testRootNamespaceEnvironmentName, testCase.environmentNamespace)
			}

			application := NewApplication()
			rootCommand := application.rootCommand
			require.NoError(subTest, rootCommand.PersistentFlags().Set(configFileFlagNameConstant, configurationPath))
			if len(testCase.logLevelFlag) > 0 {
				require.NoError(subTest, rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, testCase.logLevelFlag))
			}

			require.NoError(subTest, application.initializeConfiguration(rootCommand))

			migrationConfiguration := application.configuration.Migration
			require.Equal(subTest, "Shop", migrationConfiguration.LegacyProject)
			require.Equal(subTest, testCase.expectedRootNamespace, migrationConfiguration.RootNamespace)
			require.Equal(subTest, 90*time.Second, migrationConfiguration.CommandTimeout)
			require.True(subTest, migrationConfiguration.AssumeYes)
			require.Equal(subTest, "dotnet", migrationConfiguration.BuildTool)
			require.Equal(subTest, "layerize-report.yaml", migrationConfiguration.ReportFile)
			require.Equal(subTest, testCase.expectedLogLevel, application.configuration.Common.LogLevel)
			require.True(subTest, application.humanReadableLoggingEnabled())

			configurationFile, configurationFileAvailable := application.commandContextAccessor.ConfigurationFilePath(rootCommand.Context())
			require.True(subTest, configurationFileAvailable)
			require.Equal(subTest, configurationPath, configurationFile)

			workingDirectory, workingDirectoryAvailable := application.commandContextAccessor.WorkingDirectory(rootCommand.Context())
			require.True(subTest, workingDirectoryAvailable)
			require.NotEmpty(subTest, workingDirectory)
		})
	}
}

func TestInitializeConfigurationRejectsUnknownLogLevel(testInstance *testing.T) {
	application := NewApplication()
	rootCommand := application.rootCommand
	require.NoError(testInstance, rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "verbose"))

	initializationError := application.initializeConfiguration(rootCommand)

	require.Error(testInstance, initializationError)
	require.Contains(testInstance, initializationError.Error(), "unable to create logger")
}

func TestApplicationRunsPlanCommand(testInstance *testing.T) {
	solutionRoot := testInstance.TempDir()
	writeTestFile(testInstance, filepath.Join(solutionRoot, "Shop.sln"), testSolutionManifestContent)
	writeTestFile(testInstance, filepath.Join(solutionRoot, "Shop", "Shop.csproj"), testLegacyProjectContent)

	application := NewApplication()
	var output bytes.Buffer
	application.rootCommand.SetOut(&output)
	application.rootCommand.SetArgs([]string{"plan", "--root", solutionRoot, "--log-level", "error"})

	require.NoError(testInstance, application.rootCommand.Execute())
	require.Contains(testInstance, output.String(), "Shop.sln")
	require.Contains(testInstance, output.String(), "src/Shop.Domain")
	require.NoDirExists(testInstance, filepath.Join(solutionRoot, "src"))
}
