package migration_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/layerize/internal/filesystem"
	"github.com/temirov/layerize/internal/migration"
)

const rewriteFixture = `Relocated API sources.
-- Program.cs --
using Shop.Models;
using static Shop.Helpers;
using ShopKeeper.Core;

namespace Shop;
-- Controllers/OrdersController.cs --
namespace Shop.Controllers
{
    public class OrdersController {}
}
-- Views/Index.cshtml --
@using Shop.Models
-- Pages/Counter.razor --
@using Shop.Models
-- appsettings.json --
{"namespace Shop": true}
-- obj/Generated.cs --
namespace Shop;
`

func TestRewriteNamespaces(testInstance *testing.T) {
	targetDirectory := testInstance.TempDir()
	writeFixture(testInstance, targetDirectory, rewriteFixture)

	rewriter := migration.NewTextRewriter(filesystem.NewOSFileSystem(), nil, nil)
	outcome := rewriter.RewriteNamespaces(context.Background(), targetDirectory, "Shop", "Shop.Api")

	require.ElementsMatch(testInstance, []string{
		filepath.Join(targetDirectory, "Program.cs"),
		filepath.Join(targetDirectory, "Controllers", "OrdersController.cs"),
		filepath.Join(targetDirectory, "Views", "Index.cshtml"),
		filepath.Join(targetDirectory, "Pages", "Counter.razor"),
	}, outcome.ChangedFiles)

	require.Equal(testInstance,
		"using Shop.Api.Models;\nusing static Shop.Api.Helpers;\nusing ShopKeeper.Core;\n\nnamespace Shop.Api;\n",
		readFile(testInstance, filepath.Join(targetDirectory, "Program.cs")))
	require.Contains(testInstance, readFile(testInstance, filepath.Join(targetDirectory, "Controllers", "OrdersController.cs")), "namespace Shop.Api.Controllers\n")
	require.Equal(testInstance, "@using Shop.Api.Models\n", readFile(testInstance, filepath.Join(targetDirectory, "Views", "Index.cshtml")))
	require.Equal(testInstance, "{\"namespace Shop\": true}\n", readFile(testInstance, filepath.Join(targetDirectory, "appsettings.json")))
	require.Equal(testInstance, "namespace Shop;\n", readFile(testInstance, filepath.Join(targetDirectory, "obj", "Generated.cs")))

	for _, result := range outcome.Results {
		require.Equal(testInstance, migration.OutcomeSuccess, result.Outcome)
		require.Equal(testInstance, migration.StageRewriting, result.Stage)
	}
}

func TestRewriteNamespacesIsIdempotent(testInstance *testing.T) {
	targetDirectory := testInstance.TempDir()
	writeFixture(testInstance, targetDirectory, rewriteFixture)
	rewriter := migration.NewTextRewriter(filesystem.NewOSFileSystem(), nil, nil)

	rewriter.RewriteNamespaces(context.Background(), targetDirectory, "Shop", "Shop.Api")
	afterFirstRun := snapshotTree(testInstance, targetDirectory)

	secondOutcome := rewriter.RewriteNamespaces(context.Background(), targetDirectory, "Shop", "Shop.Api")
	require.Empty(testInstance, secondOutcome.ChangedFiles)
	require.Equal(testInstance, afterFirstRun, snapshotTree(testInstance, targetDirectory))
}

func TestRewriteNamespacesMatchesWholeIdentifiers(testInstance *testing.T) {
	targetDirectory := testInstance.TempDir()
	writeFixture(testInstance, targetDirectory, "-- Sample.cs --\nnamespace Foo.BarBaz;\nusing Foo.Bar.Models;\n")

	rewriter := migration.NewTextRewriter(filesystem.NewOSFileSystem(), nil, nil)
	rewriter.RewriteNamespaces(context.Background(), targetDirectory, "Foo.Bar", "Foo.Web")

	require.Equal(testInstance, "namespace Foo.BarBaz;\nusing Foo.Web.Models;\n", readFile(testInstance, filepath.Join(targetDirectory, "Sample.cs")))
}

func TestRewriteNamespacesEdgeCases(testInstance *testing.T) {
	testCases := []struct {
		name            string
		target          func(root string) string
		oldName         string
		newName         string
		expectedOutcome migration.Outcome
	}{
		{
			name:            "same_names",
			target:          func(root string) string { return root },
			oldName:         "Shop",
			newName:         "Shop",
			expectedOutcome: migration.OutcomeSuccess,
		},
		{
			name:            "missing_names",
			target:          func(root string) string { return root },
			oldName:         "Shop",
			expectedOutcome: migration.OutcomeWarning,
		},
		{
			name:            "missing_target",
			target:          func(root string) string { return filepath.Join(root, "absent") },
			oldName:         "Shop",
			newName:         "Shop.Api",
			expectedOutcome: migration.OutcomeWarning,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			root := subTest.TempDir()
			rewriter := migration.NewTextRewriter(filesystem.NewOSFileSystem(), nil, nil)
			outcome := rewriter.RewriteNamespaces(context.Background(), testCase.target(root), testCase.oldName, testCase.newName)
			require.Len(subTest, outcome.Results, 1)
			require.Equal(subTest, testCase.expectedOutcome, outcome.Results[0].Outcome)
			require.Empty(subTest, outcome.ChangedFiles)
		})
	}
}
