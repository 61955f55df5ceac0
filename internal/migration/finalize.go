package migration

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	legacyRemovalPromptTemplateConstant       = "Remove legacy project %s from %s? The directory and the backup are kept."
	legacyRemovalDeclinedTemplateConstant     = "Legacy project %s stays registered in %s"
	legacyRemovedTemplateConstant             = "Removed legacy project %s from %s"
	legacyRemovalFailedTemplateConstant       = "Unable to remove legacy project %s from %s: %v"
	legacyRemovalPromptFailedTemplateConstant = "Unable to confirm removal of legacy project %s: %v"
	legacyRemovalSkippedMessageConstant       = "No solution manifest; legacy project registration unchanged"
	legacyRemovalOperationConstant            = "legacy project"
	followUpReviewNamespacesConstant          = "Review namespace and using statements in the relocated files."
	followUpVerifyLaunchSettingsConstant      = "Verify launch configuration in the API project's Properties/launchSettings.json."
	followUpMoveBusinessCodeConstant          = "Move domain and business code from the API project into the new layers."
	followUpDeleteBackupConstant              = "Delete the backup directory manually once the migration is verified."
	followUpRestoreBackupTemplateConstant     = "Restore %s from %s before retrying the migration."
	followUpReviewPartialChangesConstant      = "Review and remove any projects or solution entries created before the abort."
)

// FollowUpActions returns the manual steps recommended after every completed migration.
func FollowUpActions() []string {
	return []string{
		followUpReviewNamespacesConstant,
		followUpVerifyLaunchSettingsConstant,
		followUpMoveBusinessCodeConstant,
		followUpDeleteBackupConstant,
	}
}

// AbortFollowUpActions returns the recovery steps for a run that aborted after the backup was taken.
func AbortFollowUpActions(record *BackupRecord) []string {
	if record == nil {
		return nil
	}
	return []string{
		fmt.Sprintf(followUpRestoreBackupTemplateConstant, record.OriginalPath, record.BackupPath),
		followUpReviewPartialChangesConstant,
	}
}

// Finalizer offers to unregister the legacy project and attaches the follow-up actions.
// It never deletes the legacy directory or the backup.
type Finalizer struct {
	toolchain Toolchain
	confirmer Confirmer
	logger    *zap.Logger
}

// NewFinalizer constructs a Finalizer.
func NewFinalizer(toolchain Toolchain, confirmer Confirmer, logger *zap.Logger) *Finalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finalizer{toolchain: toolchain, confirmer: confirmer, logger: logger}
}

// Finalize returns the finalization results and records follow-ups on the report.
func (finalizer *Finalizer) Finalize(executionContext context.Context, plan *MigrationPlan, report *MigrationReport) []StageResult {
	report.FollowUps = FollowUpActions()
	return []StageResult{finalizer.offerLegacyRemoval(executionContext, plan)}
}

func (finalizer *Finalizer) offerLegacyRemoval(executionContext context.Context, plan *MigrationPlan) StageResult {
	legacyProjectFile := plan.LegacyProject.ProjectFile()
	if len(plan.ManifestPath) == 0 {
		return successResult(StageFinalizing, legacyRemovalOperationConstant, legacyRemovalSkippedMessageConstant)
	}

	declined := successResult(StageFinalizing, legacyRemovalOperationConstant, fmt.Sprintf(legacyRemovalDeclinedTemplateConstant, legacyProjectFile, plan.ManifestPath))
	if finalizer.confirmer == nil {
		return declined
	}
	confirmed, confirmationError := finalizer.confirmer.Confirm(fmt.Sprintf(legacyRemovalPromptTemplateConstant, legacyProjectFile, plan.ManifestPath))
	if confirmationError != nil {
		return warningResult(StageFinalizing, legacyRemovalOperationConstant, fmt.Sprintf(legacyRemovalPromptFailedTemplateConstant, legacyProjectFile, confirmationError), "")
	}
	if !confirmed {
		return declined
	}

	executionResult, removalError := finalizer.toolchain.RemoveFromManifest(executionContext, plan.ManifestPath, filepath.FromSlash(legacyProjectFile))
	if removalError != nil {
		return warningResult(StageFinalizing, legacyRemovalOperationConstant, fmt.Sprintf(legacyRemovalFailedTemplateConstant, legacyProjectFile, plan.ManifestPath, removalError), failureOutput(executionResult, removalError))
	}
	return successResult(StageFinalizing, legacyRemovalOperationConstant, fmt.Sprintf(legacyRemovedTemplateConstant, legacyProjectFile, plan.ManifestPath))
}
