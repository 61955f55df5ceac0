package migration_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/temirov/layerize/internal/execshell"
)

const (
	fakeToolVersionConstant           = "8.0.100"
	fakeVersionControlVersionConstant = "git version 2.43.0"
	fakeFailureExitCodeConstant       = 1
	fakeFailureOutputConstant         = "error NU1101: Unable to find package"
	webAPIKindLiteral                 = "webapi"
	templateProjectFileContents       = "<Project Sdk=\"Microsoft.NET.Sdk\"></Project>\n"
	templateProgramContents           = "var builder = WebApplication.CreateBuilder(args);\n"
	templateSettingsContents          = "{\"Template\":true}\n"
	templateControllerContents        = "namespace Template.Controllers;\n"
	templateLaunchSettingsContents    = "{\"profiles\":{}}\n"
	templateWeatherForecastContents   = "namespace Template;\npublic class WeatherForecast {}\n"
	fixtureFilePermissions            = 0o644
	fixtureDirectoryPermissions       = 0o755
)

const legacySolutionFixture = `Single-project Web API solution named Shop.
-- Shop.sln --
Microsoft Visual Studio Solution File, Format Version 12.00
-- Shop/Shop.csproj --
<Project Sdk="Microsoft.NET.Sdk.Web"></Project>
-- Shop/Program.cs --
using Shop.Models;

namespace Shop;

public static class Program {}
-- Shop/appsettings.json --
{"ConnectionStrings":{"Default":"Server=shop"}}
-- Shop/appsettings.Development.json --
{"Logging":{"LogLevel":{"Default":"Debug"}}}
-- Shop/Controllers/OrdersController.cs --
using Shop.Models;
using static Shop.Helpers;

namespace Shop.Controllers;

public class OrdersController {}
-- Shop/Properties/launchSettings.json --
{"profiles":{"Shop":{}}}
-- Shop/Models/Order.cs --
namespace Shop.Models;

public class Order {}
`

// writeFixture materializes a txtar archive beneath root.
func writeFixture(testInstance *testing.T, root string, archiveText string) {
	testInstance.Helper()
	archive := txtar.Parse([]byte(archiveText))
	for _, file := range archive.Files {
		targetPath := filepath.Join(root, filepath.FromSlash(file.Name))
		require.NoError(testInstance, os.MkdirAll(filepath.Dir(targetPath), fixtureDirectoryPermissions))
		require.NoError(testInstance, os.WriteFile(targetPath, file.Data, fixtureFilePermissions))
	}
}

func readFile(testInstance *testing.T, filePath string) string {
	testInstance.Helper()
	contents, readError := os.ReadFile(filePath)
	require.NoError(testInstance, readError)
	return string(contents)
}

func failedExecution() (execshell.ExecutionResult, error) {
	result := execshell.ExecutionResult{StandardError: fakeFailureOutputConstant, ExitCode: fakeFailureExitCodeConstant}
	return result, execshell.CommandFailedError{Command: execshell.ShellCommand{Name: execshell.CommandDotnet}, Result: result}
}

// fakeToolchain records every invocation. With materialize set, CreateProject writes the files
// a real template would produce.
type fakeToolchain struct {
	mutex              sync.Mutex
	root               string
	materialize        bool
	versionError       error
	failingProjects    map[string]bool
	failingReferences  map[string]bool
	failingPackages    map[string]bool
	failingManifest    bool
	restoreFails       bool
	buildFails         bool
	testFails          bool
	removalFails       bool
	calls              []string
	registeredProjects []string
	references         []string
	packages           []string
	removedProjects    []string
}

func newFakeToolchain(root string) *fakeToolchain {
	return &fakeToolchain{root: root, materialize: true}
}

func (toolchain *fakeToolchain) record(call string) {
	toolchain.mutex.Lock()
	defer toolchain.mutex.Unlock()
	toolchain.calls = append(toolchain.calls, call)
}

func (toolchain *fakeToolchain) Version(context.Context) (string, error) {
	toolchain.record("version")
	if toolchain.versionError != nil {
		return "", toolchain.versionError
	}
	return fakeToolVersionConstant, nil
}

func (toolchain *fakeToolchain) CreateProject(_ context.Context, kind string, name string, path string) (execshell.ExecutionResult, error) {
	toolchain.record("new " + kind + " " + name)
	if toolchain.failingProjects[name] {
		return failedExecution()
	}
	if !toolchain.materialize {
		return execshell.ExecutionResult{}, nil
	}

	projectDirectory := filepath.Join(toolchain.root, path)
	files := map[string]string{name + ".csproj": templateProjectFileContents}
	if kind == webAPIKindLiteral {
		files["Program.cs"] = templateProgramContents
		files["appsettings.json"] = templateSettingsContents
		files["appsettings.Development.json"] = templateSettingsContents
		files[filepath.Join("Controllers", "WeatherForecastController.cs")] = templateControllerContents
		files[filepath.Join("Properties", "launchSettings.json")] = templateLaunchSettingsContents
		files["WeatherForecast.cs"] = templateWeatherForecastContents
	}
	for relativePath, contents := range files {
		targetPath := filepath.Join(projectDirectory, relativePath)
		if mkdirError := os.MkdirAll(filepath.Dir(targetPath), fixtureDirectoryPermissions); mkdirError != nil {
			return execshell.ExecutionResult{}, mkdirError
		}
		if writeError := os.WriteFile(targetPath, []byte(contents), fixtureFilePermissions); writeError != nil {
			return execshell.ExecutionResult{}, writeError
		}
	}
	return execshell.ExecutionResult{}, nil
}

func (toolchain *fakeToolchain) AddToManifest(_ context.Context, manifest string, project string) (execshell.ExecutionResult, error) {
	toolchain.record("sln add " + filepath.ToSlash(project))
	if toolchain.failingManifest {
		return failedExecution()
	}
	toolchain.registeredProjects = append(toolchain.registeredProjects, filepath.ToSlash(project))
	return execshell.ExecutionResult{}, nil
}

func (toolchain *fakeToolchain) RemoveFromManifest(_ context.Context, manifest string, project string) (execshell.ExecutionResult, error) {
	toolchain.record("sln remove " + filepath.ToSlash(project))
	if toolchain.removalFails {
		return failedExecution()
	}
	toolchain.removedProjects = append(toolchain.removedProjects, filepath.ToSlash(project))
	return execshell.ExecutionResult{}, nil
}

func (toolchain *fakeToolchain) AddReference(_ context.Context, project string, reference string) (execshell.ExecutionResult, error) {
	edge := projectName(project) + " -> " + projectName(reference)
	toolchain.record("reference " + edge)
	if toolchain.failingReferences[edge] {
		return failedExecution()
	}
	toolchain.references = append(toolchain.references, edge)
	return execshell.ExecutionResult{}, nil
}

func (toolchain *fakeToolchain) AddPackage(_ context.Context, project string, packageIdentifier string) (execshell.ExecutionResult, error) {
	toolchain.record("package " + packageIdentifier)
	if toolchain.failingPackages[packageIdentifier] {
		return failedExecution()
	}
	toolchain.packages = append(toolchain.packages, projectName(project)+": "+packageIdentifier)
	return execshell.ExecutionResult{}, nil
}

func (toolchain *fakeToolchain) Restore(context.Context, string) (execshell.ExecutionResult, error) {
	toolchain.record("restore")
	return toolchain.phase(toolchain.restoreFails)
}

func (toolchain *fakeToolchain) Build(context.Context, string) (execshell.ExecutionResult, error) {
	toolchain.record("build")
	return toolchain.phase(toolchain.buildFails)
}

func (toolchain *fakeToolchain) Test(context.Context, string) (execshell.ExecutionResult, error) {
	toolchain.record("test")
	return toolchain.phase(toolchain.testFails)
}

func (toolchain *fakeToolchain) phase(fails bool) (execshell.ExecutionResult, error) {
	if fails {
		return failedExecution()
	}
	return execshell.ExecutionResult{StandardOutput: "ok"}, nil
}

func (toolchain *fakeToolchain) called(call string) bool {
	toolchain.mutex.Lock()
	defer toolchain.mutex.Unlock()
	for _, recordedCall := range toolchain.calls {
		if recordedCall == call {
			return true
		}
	}
	return false
}

func projectName(projectFile string) string {
	return strings.TrimSuffix(filepath.Base(projectFile), ".csproj")
}

// fakeVersionControl performs moves with os.Rename when performMoves is set.
type fakeVersionControl struct {
	root         string
	performMoves bool
	versionError error
	branchError  error
	moveError    error
	branches     []string
	moves        []string
}

func (versionControl *fakeVersionControl) Version(context.Context) (string, error) {
	if versionControl.versionError != nil {
		return "", versionControl.versionError
	}
	return fakeVersionControlVersionConstant, nil
}

func (versionControl *fakeVersionControl) CreateBranch(_ context.Context, branchName string) error {
	if versionControl.branchError != nil {
		return versionControl.branchError
	}
	versionControl.branches = append(versionControl.branches, branchName)
	return nil
}

func (versionControl *fakeVersionControl) Move(_ context.Context, sourcePath string, destinationPath string) error {
	if versionControl.moveError != nil {
		return versionControl.moveError
	}
	versionControl.moves = append(versionControl.moves, filepath.ToSlash(sourcePath)+" -> "+filepath.ToSlash(destinationPath))
	if !versionControl.performMoves {
		return nil
	}
	return os.Rename(filepath.Join(versionControl.root, sourcePath), filepath.Join(versionControl.root, destinationPath))
}

// scriptedConfirmer answers prompts in order and falls back to defaultAnswer.
type scriptedConfirmer struct {
	answers       []bool
	defaultAnswer bool
	failure       error
	prompts       []string
}

func (confirmer *scriptedConfirmer) Confirm(prompt string) (bool, error) {
	confirmer.prompts = append(confirmer.prompts, prompt)
	if confirmer.failure != nil {
		return false, confirmer.failure
	}
	if len(confirmer.answers) == 0 {
		return confirmer.defaultAnswer, nil
	}
	answer := confirmer.answers[0]
	confirmer.answers = confirmer.answers[1:]
	return answer, nil
}

var errFakeTool = errors.New("executable file not found in $PATH")
