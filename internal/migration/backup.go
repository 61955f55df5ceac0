package migration

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/filesystem"
)

const (
	backupSuffixTemplateConstant                = "%s.backup-%s"
	backupTimestampLayoutConstant               = "20060102-150405"
	backupOperationConstant                     = "backup"
	backupCreatedTemplateConstant               = "Backed up %s to %s"
	backupOverwritePromptTemplateConstant       = "Backup target %s already exists. Overwrite it?"
	backupOverwriteDeclinedTemplateConstant     = "Backup target %s already exists and overwrite was declined"
	backupOverwritePromptFailedTemplateConstant = "Unable to confirm overwrite of %s: %v"
	backupStaleRemovalFailedTemplateConstant    = "Unable to remove stale backup %s: %v"
	backupSourceMissingTemplateConstant         = "Backup source %s is not a directory"
	backupCopyFailedTemplateConstant            = "Unable to copy %s to %s: %v"
	backupCancelledTemplateConstant             = "Backup cancelled: %v"
	logMessageBackupCreatedConstant             = "Backup created"
	logFieldBackupPathConstant                  = "backup_path"
	logFieldOriginalPathConstant                = "original_path"
)

// BackupManager copies the legacy project to a timestamped sibling directory.
type BackupManager struct {
	fileSystem filesystem.FileSystem
	clock      clock.Clock
	confirmer  Confirmer
	logger     *zap.Logger
}

// NewBackupManager constructs a BackupManager. A nil clock selects the wall clock.
func NewBackupManager(fileSystem filesystem.FileSystem, backupClock clock.Clock, confirmer Confirmer, logger *zap.Logger) *BackupManager {
	if backupClock == nil {
		backupClock = clock.WallClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupManager{fileSystem: fileSystem, clock: backupClock, confirmer: confirmer, logger: logger}
}

// Backup copies sourceDirectory recursively. Any failure is Fatal and leaves no BackupRecord.
func (manager *BackupManager) Backup(executionContext context.Context, sourceDirectory string) (BackupRecord, StageResult) {
	if contextError := executionContext.Err(); contextError != nil {
		return BackupRecord{}, fatalResult(StageBackingUp, backupOperationConstant, fmt.Sprintf(backupCancelledTemplateConstant, contextError))
	}

	sourceInfo, statError := manager.fileSystem.Stat(sourceDirectory)
	if statError != nil || !sourceInfo.IsDir() {
		return BackupRecord{}, fatalResult(StageBackingUp, backupOperationConstant, fmt.Sprintf(backupSourceMissingTemplateConstant, sourceDirectory))
	}

	createdAt := manager.clock.Now()
	cleanSource := filepath.Clean(sourceDirectory)
	backupPath := filepath.Join(filepath.Dir(cleanSource), fmt.Sprintf(backupSuffixTemplateConstant, filepath.Base(cleanSource), createdAt.Format(backupTimestampLayoutConstant)))

	if manager.fileSystem.Exists(backupPath) {
		if result, proceed := manager.clearStaleBackup(backupPath); !proceed {
			return BackupRecord{}, result
		}
	}

	if copyError := manager.fileSystem.CopyTree(cleanSource, backupPath); copyError != nil {
		return BackupRecord{}, fatalResult(StageBackingUp, backupOperationConstant, fmt.Sprintf(backupCopyFailedTemplateConstant, cleanSource, backupPath, copyError))
	}

	record := BackupRecord{OriginalPath: cleanSource, BackupPath: backupPath, CreatedAt: createdAt}
	manager.logger.Info(logMessageBackupCreatedConstant, zap.String(logFieldOriginalPathConstant, cleanSource), zap.String(logFieldBackupPathConstant, backupPath))
	return record, successResult(StageBackingUp, backupOperationConstant, fmt.Sprintf(backupCreatedTemplateConstant, cleanSource, backupPath))
}

func (manager *BackupManager) clearStaleBackup(backupPath string) (StageResult, bool) {
	if manager.confirmer == nil {
		return fatalResult(StageBackingUp, backupOperationConstant, fmt.Sprintf(backupOverwriteDeclinedTemplateConstant, backupPath)), false
	}
	confirmed, confirmationError := manager.confirmer.Confirm(fmt.Sprintf(backupOverwritePromptTemplateConstant, backupPath))
	if confirmationError != nil {
		return fatalResult(StageBackingUp, backupOperationConstant, fmt.Sprintf(backupOverwritePromptFailedTemplateConstant, backupPath, confirmationError)), false
	}
	if !confirmed {
		return fatalResult(StageBackingUp, backupOperationConstant, fmt.Sprintf(backupOverwriteDeclinedTemplateConstant, backupPath)), false
	}
	if removalError := manager.fileSystem.RemoveAll(backupPath); removalError != nil {
		return fatalResult(StageBackingUp, backupOperationConstant, fmt.Sprintf(backupStaleRemovalFailedTemplateConstant, backupPath, removalError)), false
	}
	return StageResult{}, true
}
