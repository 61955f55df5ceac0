package migration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/layerize/internal/filesystem"
	"github.com/temirov/layerize/internal/migration"
)

func TestScaffoldCreatesAndRegistersProjects(testInstance *testing.T) {
	solutionRoot := testInstance.TempDir()
	writeFixture(testInstance, solutionRoot, legacySolutionFixture)
	plan := buildTestPlan(testInstance, solutionRoot)
	toolchain := newFakeToolchain(solutionRoot)

	scaffolder := migration.NewScaffolder(toolchain, filesystem.NewOSFileSystem(), nil)
	outcome := scaffolder.Scaffold(context.Background(), plan)

	require.Equal(testInstance, []string{"Shop.Api", "Shop.Application", "Shop.Domain", "Shop.Infrastructure", "Shop.Tests"}, outcome.CreatedProjects)
	require.Empty(testInstance, outcome.FailedProjects)
	require.Equal(testInstance, []string{
		"src/Shop.Api/Shop.Api.csproj",
		"src/Shop.Application/Shop.Application.csproj",
		"src/Shop.Domain/Shop.Domain.csproj",
		"src/Shop.Infrastructure/Shop.Infrastructure.csproj",
		"tests/Shop.Tests/Shop.Tests.csproj",
	}, toolchain.registeredProjects)
	for _, result := range outcome.Results {
		require.Equal(testInstance, migration.OutcomeSuccess, result.Outcome)
	}

	rerun := scaffolder.Scaffold(context.Background(), plan)
	require.Empty(testInstance, rerun.CreatedProjects)
	require.Len(testInstance, rerun.Results, len(plan.Projects))
	for _, result := range rerun.Results {
		require.Equal(testInstance, migration.OutcomeSuccess, result.Outcome)
		require.Contains(testInstance, result.Detail, "already exists")
	}
}

func TestScaffoldContinuesAfterFailures(testInstance *testing.T) {
	solutionRoot := testInstance.TempDir()
	writeFixture(testInstance, solutionRoot, legacySolutionFixture)
	plan := buildTestPlan(testInstance, solutionRoot)
	toolchain := newFakeToolchain(solutionRoot)
	toolchain.failingProjects = map[string]bool{"Shop.Domain": true}
	toolchain.failingManifest = true

	outcome := migration.NewScaffolder(toolchain, filesystem.NewOSFileSystem(), nil).Scaffold(context.Background(), plan)

	require.Equal(testInstance, []string{"Shop.Domain"}, outcome.FailedProjects)
	require.Len(testInstance, outcome.CreatedProjects, 4)
	require.True(testInstance, toolchain.called("new xunit Shop.Tests"))

	warnings := 0
	for _, result := range outcome.Results {
		require.NotEqual(testInstance, migration.OutcomeFatal, result.Outcome)
		if result.Outcome == migration.OutcomeWarning {
			warnings++
		}
	}
	require.Equal(testInstance, 1+4+1, warnings)

	creationFailure := outcome.Results[2]
	require.Equal(testInstance, "Shop.Domain", creationFailure.Operation)
	require.Equal(testInstance, fakeFailureOutputConstant, creationFailure.Output)
}

func TestScaffoldSkipsExistingProjectFile(testInstance *testing.T) {
	solutionRoot := testInstance.TempDir()
	writeFixture(testInstance, solutionRoot, legacySolutionFixture)
	writeFixture(testInstance, solutionRoot, "-- src/Shop.Domain/Shop.Domain.csproj --\n<Project/>\n")
	plan := buildTestPlan(testInstance, solutionRoot)
	toolchain := newFakeToolchain(solutionRoot)

	outcome := migration.NewScaffolder(toolchain, filesystem.NewOSFileSystem(), nil).Scaffold(context.Background(), plan)

	require.NotContains(testInstance, outcome.CreatedProjects, "Shop.Domain")
	require.False(testInstance, toolchain.called("new classlib Shop.Domain"))
	contents, readError := os.ReadFile(filepath.Join(solutionRoot, "src", "Shop.Domain", "Shop.Domain.csproj"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "<Project/>\n", string(contents))
}

func TestWireReferencesInPlanOrder(testInstance *testing.T) {
	plan := buildTestPlan(testInstance, testInstance.TempDir())
	toolchain := newFakeToolchain(plan.SolutionRoot)
	toolchain.failingReferences = map[string]bool{"Shop.Infrastructure -> Shop.Domain": true}
	toolchain.failingPackages = map[string]bool{"Moq": true}

	results := migration.NewReferenceWirer(toolchain, nil).WireReferences(context.Background(), plan)

	require.Equal(testInstance, []string{
		"Shop.Application -> Shop.Domain",
		"Shop.Infrastructure -> Shop.Application",
		"Shop.Api -> Shop.Application",
	}, toolchain.references)
	require.Equal(testInstance, []string{
		"Shop.Infrastructure: Microsoft.EntityFrameworkCore",
		"Shop.Infrastructure: Microsoft.EntityFrameworkCore.Design",
		"Shop.Tests: Microsoft.AspNetCore.Mvc.Testing",
	}, toolchain.packages)

	require.Len(testInstance, results, len(plan.Edges)+len(plan.Packages))
	outcomes := make([]migration.Outcome, 0, len(results))
	for _, result := range results {
		require.Equal(testInstance, migration.StageWiring, result.Stage)
		outcomes = append(outcomes, result.Outcome)
	}
	require.Equal(testInstance, []migration.Outcome{
		migration.OutcomeSuccess, migration.OutcomeWarning, migration.OutcomeSuccess, migration.OutcomeSuccess,
		migration.OutcomeSuccess, migration.OutcomeSuccess, migration.OutcomeSuccess, migration.OutcomeWarning,
	}, outcomes)
	require.Equal(testInstance, "Shop.Infrastructure -> Shop.Domain", results[1].Operation)
}

func TestWireReferencesStopsOnCancellation(testInstance *testing.T) {
	plan := buildTestPlan(testInstance, testInstance.TempDir())
	toolchain := newFakeToolchain(plan.SolutionRoot)
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	results := migration.NewReferenceWirer(toolchain, nil).WireReferences(cancelledContext, plan)

	require.Len(testInstance, results, 1)
	require.Equal(testInstance, migration.OutcomeFatal, results[0].Outcome)
	require.Empty(testInstance, toolchain.calls)
}
