package migration_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/layerize/internal/migration"
)

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    migration.CommandConfiguration
		expected migration.CommandConfiguration
	}{
		{
			name:     "empty_values_restore_defaults",
			input:    migration.CommandConfiguration{},
			expected: migration.CommandConfiguration{Root: ".", BuildTool: "dotnet", VCSTool: "git", DefaultAnswer: migration.DefaultAnswerNo},
		},
		{
			name: "values_are_trimmed",
			input: migration.CommandConfiguration{
				Root:           "  ./solution  ",
				LegacyProject:  " Shop ",
				RootNamespace:  " Contoso.Shop ",
				Manifest:       " Shop.sln ",
				BuildTool:      " /usr/bin/dotnet ",
				VCSTool:        " git ",
				DefaultAnswer:  " YES ",
				CommandTimeout: time.Minute,
				ReportFile:     " report.yaml ",
			},
			expected: migration.CommandConfiguration{
				Root:           "./solution",
				LegacyProject:  "Shop",
				RootNamespace:  "Contoso.Shop",
				Manifest:       "Shop.sln",
				BuildTool:      "/usr/bin/dotnet",
				VCSTool:        "git",
				DefaultAnswer:  migration.DefaultAnswerYes,
				CommandTimeout: time.Minute,
				ReportFile:     "report.yaml",
			},
		},
		{
			name:     "unknown_answer_and_negative_timeout",
			input:    migration.CommandConfiguration{DefaultAnswer: "maybe", CommandTimeout: -time.Second, AssumeYes: true},
			expected: migration.CommandConfiguration{Root: ".", BuildTool: "dotnet", VCSTool: "git", DefaultAnswer: migration.DefaultAnswerNo, AssumeYes: true},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expected, testCase.input.Sanitize())
		})
	}
}

func TestDefaultConfigurationValuesUseRootKey(testInstance *testing.T) {
	values := migration.DefaultConfigurationValues("migration")

	require.Len(testInstance, values, 10)
	require.Equal(testInstance, ".", values["migration.root"])
	require.Equal(testInstance, "layerize-report.yaml", values["migration.report_file"])
	require.Equal(testInstance, false, values["migration.assume_yes"])
	require.Equal(testInstance, migration.DefaultAnswerNo, values["migration.default_answer"])
	require.Equal(testInstance, time.Duration(0), values["migration.command_timeout"])
}
