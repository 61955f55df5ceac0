package migration

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	referenceAddedTemplateConstant      = "Added reference %s -> %s"
	referenceFailedTemplateConstant     = "Unable to add reference %s -> %s: %v"
	referenceUndeclaredTemplateConstant = "Edge %s -> %s references an undeclared project"
	packageAddedTemplateConstant        = "Added package %s to %s"
	packageFailedTemplateConstant       = "Unable to add package %s to %s: %v"
	packageUndeclaredTemplateConstant   = "Package %s targets undeclared project %s"
	packageOperationTemplateConstant    = "%s: %s"
	wiringCancelledTemplateConstant     = "Wiring cancelled: %v"
	wiringOperationConstant             = "wiring"
	logMessageWiringCompletedConstant   = "Reference wiring completed"
	logFieldEdgesConstant               = "edges"
	logFieldFailedEdgesConstant         = "failed_edges"
)

// ReferenceWirer adds project references in plan order, then installs the plan's packages.
type ReferenceWirer struct {
	toolchain Toolchain
	logger    *zap.Logger
}

// NewReferenceWirer constructs a ReferenceWirer.
func NewReferenceWirer(toolchain Toolchain, logger *zap.Logger) *ReferenceWirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceWirer{toolchain: toolchain, logger: logger}
}

// WireReferences applies every edge, then every package. Failures are Warnings.
func (wirer *ReferenceWirer) WireReferences(executionContext context.Context, plan *MigrationPlan) []StageResult {
	results := make([]StageResult, 0, len(plan.Edges)+len(plan.Packages))
	failedEdges := 0

	for _, edge := range plan.Edges {
		if contextError := executionContext.Err(); contextError != nil {
			return append(results, fatalResult(StageWiring, wiringOperationConstant, fmt.Sprintf(wiringCancelledTemplateConstant, contextError)))
		}
		result := wirer.addReference(executionContext, plan, edge)
		if result.Outcome != OutcomeSuccess {
			failedEdges++
		}
		results = append(results, result)
	}

	for _, packageSpec := range plan.Packages {
		if contextError := executionContext.Err(); contextError != nil {
			return append(results, fatalResult(StageWiring, wiringOperationConstant, fmt.Sprintf(wiringCancelledTemplateConstant, contextError)))
		}
		results = append(results, wirer.addPackage(executionContext, plan, packageSpec))
	}

	wirer.logger.Debug(logMessageWiringCompletedConstant, zap.Int(logFieldEdgesConstant, len(plan.Edges)), zap.Int(logFieldFailedEdgesConstant, failedEdges))
	return results
}

func (wirer *ReferenceWirer) addReference(executionContext context.Context, plan *MigrationPlan, edge ReferenceEdge) StageResult {
	subject := fmt.Sprintf(operationSubjectTemplateConstant, edge.From, edge.To)
	fromProject, fromDeclared := plan.Project(edge.From)
	toProject, toDeclared := plan.Project(edge.To)
	if !fromDeclared || !toDeclared {
		return warningResult(StageWiring, subject, fmt.Sprintf(referenceUndeclaredTemplateConstant, edge.From, edge.To), "")
	}

	executionResult, referenceError := wirer.toolchain.AddReference(executionContext, filepath.FromSlash(fromProject.ProjectFile()), filepath.FromSlash(toProject.ProjectFile()))
	if referenceError != nil {
		return warningResult(StageWiring, subject, fmt.Sprintf(referenceFailedTemplateConstant, edge.From, edge.To, referenceError), failureOutput(executionResult, referenceError))
	}
	return successResult(StageWiring, subject, fmt.Sprintf(referenceAddedTemplateConstant, edge.From, edge.To))
}

func (wirer *ReferenceWirer) addPackage(executionContext context.Context, plan *MigrationPlan, packageSpec PackageSpec) StageResult {
	subject := fmt.Sprintf(packageOperationTemplateConstant, packageSpec.Project, packageSpec.Identifier)
	project, declared := plan.Project(packageSpec.Project)
	if !declared {
		return warningResult(StageWiring, subject, fmt.Sprintf(packageUndeclaredTemplateConstant, packageSpec.Identifier, packageSpec.Project), "")
	}

	executionResult, packageError := wirer.toolchain.AddPackage(executionContext, filepath.FromSlash(project.ProjectFile()), packageSpec.Identifier)
	if packageError != nil {
		return warningResult(StageWiring, subject, fmt.Sprintf(packageFailedTemplateConstant, packageSpec.Identifier, packageSpec.Project, packageError), failureOutput(executionResult, packageError))
	}
	return successResult(StageWiring, subject, fmt.Sprintf(packageAddedTemplateConstant, packageSpec.Identifier, packageSpec.Project))
}
