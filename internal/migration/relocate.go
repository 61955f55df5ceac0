package migration

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/filesystem"
)

const (
	relocationPromptHeaderConstant           = "The following paths will be relocated:"
	relocationPromptMoveTemplateConstant     = "  %s -> %s"
	relocationPromptStripTemplateConstant    = "  remove %s"
	relocationPromptQuestionConstant         = "Proceed with relocation?"
	relocationPromptSeparatorConstant        = "\n"
	relocationDeclinedMessageConstant        = "Relocation was declined"
	relocationPromptFailedTemplateConstant   = "Unable to confirm relocation: %v"
	relocationOperationConstant              = "relocation"
	relocationCancelledTemplateConstant      = "Relocation cancelled: %v"
	sourceMissingTemplateConstant            = "Source %s does not exist; %s left untouched"
	destinationConflictTemplateConstant      = "Destination %s already exists; %s was not merged"
	placeholderRemovedTemplateConstant       = "Removed template placeholder %s"
	placeholderAbsentTemplateConstant        = "Template placeholder %s not present"
	placeholderRemovalFailedTemplateConstant = "Unable to remove placeholder %s: %v"
	parentCreationFailedTemplateConstant     = "Unable to create parent directory for %s: %v"
	movedTemplateConstant                    = "Moved %s to %s (%s)"
	moveFailedTemplateConstant               = "Unable to move %s to %s: %v"
	operationSubjectTemplateConstant         = "%s -> %s"
	logMessageTrackedMoveFailedConstant      = "Tracked move failed; falling back to file operations"
	logFieldSourceConstant                   = "source"
	logFieldDestinationConstant              = "destination"
	logFieldErrorConstant                    = "error"
	parentDirectoryPermissionsConstant       = 0o755
)

// RelocationOutcome is what the Relocator returns.
type RelocationOutcome struct {
	Results []StageResult
	Moves   []MoveOutcome
}

// Relocator moves the legacy project's critical files into the API project.
type Relocator struct {
	fileSystem     filesystem.FileSystem
	versionControl VersionControl
	confirmer      Confirmer
	logger         *zap.Logger
}

// NewRelocator constructs a Relocator. A nil versionControl selects copy mode.
func NewRelocator(fileSystem filesystem.FileSystem, versionControl VersionControl, confirmer Confirmer, logger *zap.Logger) *Relocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relocator{fileSystem: fileSystem, versionControl: versionControl, confirmer: confirmer, logger: logger}
}

// Relocate asks once for confirmation, then applies every move independently.
func (relocator *Relocator) Relocate(executionContext context.Context, plan *MigrationPlan) RelocationOutcome {
	outcome := RelocationOutcome{}

	confirmed, confirmationError := relocator.confirm(plan)
	if confirmationError != nil {
		outcome.Results = append(outcome.Results, fatalResult(StageRelocating, relocationOperationConstant, fmt.Sprintf(relocationPromptFailedTemplateConstant, confirmationError)))
		return outcome
	}
	if !confirmed {
		outcome.Results = append(outcome.Results, fatalResult(StageRelocating, relocationOperationConstant, relocationDeclinedMessageConstant))
		return outcome
	}

	for _, operation := range plan.Moves {
		if contextError := executionContext.Err(); contextError != nil {
			outcome.Results = append(outcome.Results, fatalResult(StageRelocating, relocationOperationConstant, fmt.Sprintf(relocationCancelledTemplateConstant, contextError)))
			return outcome
		}
		moveOutcome, result := relocator.apply(executionContext, plan, operation)
		outcome.Moves = append(outcome.Moves, moveOutcome)
		outcome.Results = append(outcome.Results, result)
	}
	return outcome
}

func (relocator *Relocator) confirm(plan *MigrationPlan) (bool, error) {
	if relocator.confirmer == nil {
		return false, nil
	}
	promptLines := []string{relocationPromptHeaderConstant}
	for _, operation := range plan.Moves {
		if operation.IsStripOnly() {
			promptLines = append(promptLines, fmt.Sprintf(relocationPromptStripTemplateConstant, operation.Destination))
			continue
		}
		promptLines = append(promptLines, fmt.Sprintf(relocationPromptMoveTemplateConstant, operation.Source, operation.Destination))
	}
	promptLines = append(promptLines, relocationPromptQuestionConstant)
	return relocator.confirmer.Confirm(strings.Join(promptLines, relocationPromptSeparatorConstant))
}

func (relocator *Relocator) apply(executionContext context.Context, plan *MigrationPlan, operation FileMoveOperation) (MoveOutcome, StageResult) {
	destinationPath := plan.Resolve(operation.Destination)

	if operation.IsStripOnly() {
		return relocator.strip(operation, destinationPath)
	}

	subject := fmt.Sprintf(operationSubjectTemplateConstant, operation.Source, operation.Destination)
	sourcePath := plan.Resolve(operation.Source)
	if !relocator.fileSystem.Exists(sourcePath) {
		return MoveOutcome{Operation: operation, Status: MoveStatusSkipped},
			warningResult(StageRelocating, subject, fmt.Sprintf(sourceMissingTemplateConstant, operation.Source, operation.Destination), "")
	}

	if relocator.fileSystem.Exists(destinationPath) {
		if !operation.StripDemoArtifact {
			return MoveOutcome{Operation: operation, Status: MoveStatusSkipped},
				warningResult(StageRelocating, subject, fmt.Sprintf(destinationConflictTemplateConstant, operation.Destination, operation.Source), "")
		}
		if removalError := relocator.fileSystem.RemoveAll(destinationPath); removalError != nil {
			return MoveOutcome{Operation: operation, Status: MoveStatusFailed},
				warningResult(StageRelocating, subject, fmt.Sprintf(placeholderRemovalFailedTemplateConstant, operation.Destination, removalError), "")
		}
	}

	if mkdirError := relocator.fileSystem.MkdirAll(filepath.Dir(destinationPath), parentDirectoryPermissionsConstant); mkdirError != nil {
		return MoveOutcome{Operation: operation, Status: MoveStatusFailed},
			warningResult(StageRelocating, subject, fmt.Sprintf(parentCreationFailedTemplateConstant, operation.Destination, mkdirError), "")
	}

	method, moveError := relocator.move(executionContext, operation, sourcePath, destinationPath)
	if moveError != nil {
		return MoveOutcome{Operation: operation, Status: MoveStatusFailed},
			warningResult(StageRelocating, subject, fmt.Sprintf(moveFailedTemplateConstant, operation.Source, operation.Destination, moveError), "")
	}
	return MoveOutcome{Operation: operation, Status: MoveStatusMoved, Method: method},
		successResult(StageRelocating, subject, fmt.Sprintf(movedTemplateConstant, operation.Source, operation.Destination, method))
}

func (relocator *Relocator) strip(operation FileMoveOperation, destinationPath string) (MoveOutcome, StageResult) {
	if !relocator.fileSystem.Exists(destinationPath) {
		return MoveOutcome{Operation: operation, Status: MoveStatusSkipped},
			successResult(StageRelocating, operation.Destination, fmt.Sprintf(placeholderAbsentTemplateConstant, operation.Destination))
	}
	if removalError := relocator.fileSystem.RemoveAll(destinationPath); removalError != nil {
		return MoveOutcome{Operation: operation, Status: MoveStatusFailed},
			warningResult(StageRelocating, operation.Destination, fmt.Sprintf(placeholderRemovalFailedTemplateConstant, operation.Destination, removalError), "")
	}
	return MoveOutcome{Operation: operation, Status: MoveStatusStripped, Method: MoveMethodDelete},
		successResult(StageRelocating, operation.Destination, fmt.Sprintf(placeholderRemovedTemplateConstant, operation.Destination))
}

func (relocator *Relocator) move(executionContext context.Context, operation FileMoveOperation, sourcePath string, destinationPath string) (MoveMethod, error) {
	if relocator.versionControl != nil {
		moveError := relocator.versionControl.Move(executionContext, filepath.FromSlash(operation.Source), filepath.FromSlash(operation.Destination))
		if moveError == nil {
			return MoveMethodVersionControl, nil
		}
		relocator.logger.Debug(
			logMessageTrackedMoveFailedConstant,
			zap.String(logFieldSourceConstant, operation.Source),
			zap.String(logFieldDestinationConstant, operation.Destination),
			zap.String(logFieldErrorConstant, moveError.Error()),
		)
	}

	if !operation.IsDirectory {
		if copyError := relocator.fileSystem.CopyFile(sourcePath, destinationPath); copyError != nil {
			return MoveMethodNone, copyError
		}
		return MoveMethodCopy, relocator.fileSystem.Remove(sourcePath)
	}

	if renameError := relocator.fileSystem.Rename(sourcePath, destinationPath); renameError == nil {
		return MoveMethodRename, nil
	}
	if copyError := relocator.fileSystem.CopyTree(sourcePath, destinationPath); copyError != nil {
		return MoveMethodNone, copyError
	}
	return MoveMethodCopy, relocator.fileSystem.RemoveAll(sourcePath)
}
