package migration

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/execshell"
	"github.com/temirov/layerize/internal/filesystem"
)

const (
	projectExistsTemplateConstant             = "Project %s already exists"
	projectCreatedTemplateConstant            = "Created %s project %s at %s"
	projectCreationFailedTemplateConstant     = "Unable to create %s project %s: %v"
	projectRegisteredTemplateConstant         = "Registered %s with %s"
	projectRegistrationFailedTemplateConstant = "Unable to register %s with %s: %v"
	registrationSkippedTemplateConstant       = "No solution manifest; %s was not registered"
	scaffoldCancelledTemplateConstant         = "Scaffolding cancelled: %v"
	scaffoldSummaryTemplateConstant           = "%d of %d project(s) could not be created: %v"
	scaffoldSummaryOperationConstant          = "summary"
	logMessageScaffoldCompletedConstant       = "Scaffolding completed"
	logFieldCreatedProjectsConstant           = "created_projects"
	logFieldFailedProjectsConstant            = "failed_projects"
)

// ScaffoldOutcome is what the Scaffolder returns.
type ScaffoldOutcome struct {
	Results         []StageResult
	CreatedProjects []string
	FailedProjects  []string
}

// Scaffolder materializes every project of the plan that does not exist yet.
type Scaffolder struct {
	toolchain  Toolchain
	fileSystem filesystem.FileSystem
	logger     *zap.Logger
}

// NewScaffolder constructs a Scaffolder.
func NewScaffolder(toolchain Toolchain, fileSystem filesystem.FileSystem, logger *zap.Logger) *Scaffolder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scaffolder{toolchain: toolchain, fileSystem: fileSystem, logger: logger}
}

// Scaffold creates missing projects, then registers the newly created ones with the manifest.
// A failed project never stops the others.
func (scaffolder *Scaffolder) Scaffold(executionContext context.Context, plan *MigrationPlan) ScaffoldOutcome {
	outcome := ScaffoldOutcome{}

	for _, project := range plan.Projects {
		if contextError := executionContext.Err(); contextError != nil {
			outcome.Results = append(outcome.Results, fatalResult(StageScaffolding, project.Name, fmt.Sprintf(scaffoldCancelledTemplateConstant, contextError)))
			return outcome
		}

		if scaffolder.fileSystem.Exists(plan.Resolve(project.ProjectFile())) {
			outcome.Results = append(outcome.Results, successResult(StageScaffolding, project.Name, fmt.Sprintf(projectExistsTemplateConstant, project.Name)))
			continue
		}

		executionResult, creationError := scaffolder.toolchain.CreateProject(executionContext, project.Kind, project.Name, filepath.FromSlash(project.Path))
		if creationError != nil {
			outcome.FailedProjects = append(outcome.FailedProjects, project.Name)
			outcome.Results = append(outcome.Results, warningResult(StageScaffolding, project.Name, fmt.Sprintf(projectCreationFailedTemplateConstant, project.Kind, project.Name, creationError), failureOutput(executionResult, creationError)))
			continue
		}
		outcome.CreatedProjects = append(outcome.CreatedProjects, project.Name)
		outcome.Results = append(outcome.Results, successResult(StageScaffolding, project.Name, fmt.Sprintf(projectCreatedTemplateConstant, project.Kind, project.Name, project.Path)))
	}

	for _, projectName := range outcome.CreatedProjects {
		project, _ := plan.Project(projectName)
		outcome.Results = append(outcome.Results, scaffolder.register(executionContext, plan, project))
	}

	if len(outcome.FailedProjects) > 0 {
		outcome.Results = append(outcome.Results, warningResult(StageScaffolding, scaffoldSummaryOperationConstant, fmt.Sprintf(scaffoldSummaryTemplateConstant, len(outcome.FailedProjects), len(plan.Projects), outcome.FailedProjects), ""))
	}

	scaffolder.logger.Debug(
		logMessageScaffoldCompletedConstant,
		zap.Strings(logFieldCreatedProjectsConstant, outcome.CreatedProjects),
		zap.Strings(logFieldFailedProjectsConstant, outcome.FailedProjects),
	)
	return outcome
}

func (scaffolder *Scaffolder) register(executionContext context.Context, plan *MigrationPlan, project ProjectSpec) StageResult {
	projectFile := project.ProjectFile()
	if len(plan.ManifestPath) == 0 {
		return warningResult(StageScaffolding, project.Name, fmt.Sprintf(registrationSkippedTemplateConstant, projectFile), "")
	}
	executionResult, registrationError := scaffolder.toolchain.AddToManifest(executionContext, plan.ManifestPath, filepath.FromSlash(projectFile))
	if registrationError != nil {
		return warningResult(StageScaffolding, project.Name, fmt.Sprintf(projectRegistrationFailedTemplateConstant, projectFile, plan.ManifestPath, registrationError), failureOutput(executionResult, registrationError))
	}
	return successResult(StageScaffolding, project.Name, fmt.Sprintf(projectRegisteredTemplateConstant, projectFile, plan.ManifestPath))
}

// failureOutput returns the tool output attached to a failed invocation.
func failureOutput(executionResult execshell.ExecutionResult, failure error) string {
	combinedOutput := executionResult.CombinedOutput()
	if len(combinedOutput) > 0 {
		return combinedOutput
	}
	failureResult, _ := execshell.FailureResult(failure)
	return failureResult.CombinedOutput()
}
