package migration

import (
	"context"

	"github.com/temirov/layerize/internal/execshell"
	"github.com/temirov/layerize/internal/prompt"
)

// Toolchain is the build toolchain surface the stages use. dotnet.Client satisfies it.
type Toolchain interface {
	Version(executionContext context.Context) (string, error)
	CreateProject(executionContext context.Context, kind string, name string, path string) (execshell.ExecutionResult, error)
	AddToManifest(executionContext context.Context, manifest string, project string) (execshell.ExecutionResult, error)
	RemoveFromManifest(executionContext context.Context, manifest string, project string) (execshell.ExecutionResult, error)
	AddReference(executionContext context.Context, project string, reference string) (execshell.ExecutionResult, error)
	AddPackage(executionContext context.Context, project string, packageIdentifier string) (execshell.ExecutionResult, error)
	Restore(executionContext context.Context, manifest string) (execshell.ExecutionResult, error)
	Build(executionContext context.Context, manifest string) (execshell.ExecutionResult, error)
	Test(executionContext context.Context, manifest string) (execshell.ExecutionResult, error)
}

// VersionControl is the optional version-control surface. vcs.Client satisfies it.
type VersionControl interface {
	Version(executionContext context.Context) (string, error)
	CreateBranch(executionContext context.Context, branchName string) error
	Move(executionContext context.Context, sourcePath string, destinationPath string) error
}

// Confirmer answers the confirmation gates.
type Confirmer = prompt.Confirmer

// StatusReporter receives every StageResult as it is recorded.
type StatusReporter interface {
	Report(result StageResult)
}

type noopStatusReporter struct{}

func (noopStatusReporter) Report(StageResult) {}
