package migration_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"

	"github.com/temirov/layerize/internal/filesystem"
	"github.com/temirov/layerize/internal/migration"
)

var backupTimestamp = time.Date(2024, time.March, 9, 14, 5, 30, 0, time.UTC)

func TestBackupCopiesLegacyProject(testInstance *testing.T) {
	solutionRoot := testInstance.TempDir()
	writeFixture(testInstance, solutionRoot, legacySolutionFixture)
	legacyDirectory := filepath.Join(solutionRoot, "Shop")

	manager := migration.NewBackupManager(filesystem.NewOSFileSystem(), testclock.NewClock(backupTimestamp), nil, nil)
	record, result := manager.Backup(context.Background(), legacyDirectory)

	require.Equal(testInstance, migration.OutcomeSuccess, result.Outcome)
	require.Equal(testInstance, migration.StageBackingUp, result.Stage)
	require.Equal(testInstance, filepath.Join(solutionRoot, "Shop.backup-20240309-140530"), record.BackupPath)
	require.Equal(testInstance, legacyDirectory, record.OriginalPath)
	require.True(testInstance, record.CreatedAt.Equal(backupTimestamp))

	original := snapshotTree(testInstance, legacyDirectory)
	require.Equal(testInstance, original, snapshotTree(testInstance, record.BackupPath))
	require.Contains(testInstance, original, "Controllers/OrdersController.cs")
}

func TestBackupExistingTarget(testInstance *testing.T) {
	testCases := []struct {
		name            string
		confirmer       *scriptedConfirmer
		expectedOutcome migration.Outcome
		expectStale     bool
	}{
		{
			name:            "overwrite_accepted",
			confirmer:       &scriptedConfirmer{answers: []bool{true}},
			expectedOutcome: migration.OutcomeSuccess,
		},
		{
			name:            "overwrite_declined",
			confirmer:       &scriptedConfirmer{answers: []bool{false}},
			expectedOutcome: migration.OutcomeFatal,
			expectStale:     true,
		},
		{
			name:            "prompt_failure",
			confirmer:       &scriptedConfirmer{failure: errors.New("input closed")},
			expectedOutcome: migration.OutcomeFatal,
			expectStale:     true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			solutionRoot := subTest.TempDir()
			writeFixture(subTest, solutionRoot, legacySolutionFixture)
			staleBackup := filepath.Join(solutionRoot, "Shop.backup-20240309-140530")
			writeFixture(subTest, staleBackup, "-- stale.txt --\nleftover\n")

			manager := migration.NewBackupManager(filesystem.NewOSFileSystem(), testclock.NewClock(backupTimestamp), testCase.confirmer, nil)
			record, result := manager.Backup(context.Background(), filepath.Join(solutionRoot, "Shop"))

			require.Equal(subTest, testCase.expectedOutcome, result.Outcome)
			require.Len(subTest, testCase.confirmer.prompts, 1)
			require.Contains(subTest, testCase.confirmer.prompts[0], staleBackup)

			_, staleError := os.Stat(filepath.Join(staleBackup, "stale.txt"))
			require.Equal(subTest, testCase.expectStale, staleError == nil)
			if testCase.expectedOutcome == migration.OutcomeFatal {
				require.Empty(subTest, record.BackupPath)
				return
			}
			require.Equal(subTest, staleBackup, record.BackupPath)
			require.FileExists(subTest, filepath.Join(staleBackup, "Program.cs"))
		})
	}
}

func TestBackupFailuresAreFatal(testInstance *testing.T) {
	solutionRoot := testInstance.TempDir()
	writeFixture(testInstance, solutionRoot, legacySolutionFixture)
	manager := migration.NewBackupManager(filesystem.NewOSFileSystem(), testclock.NewClock(backupTimestamp), nil, nil)

	_, missingResult := manager.Backup(context.Background(), filepath.Join(solutionRoot, "Missing"))
	require.Equal(testInstance, migration.OutcomeFatal, missingResult.Outcome)

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()
	_, cancelledResult := manager.Backup(cancelledContext, filepath.Join(solutionRoot, "Shop"))
	require.Equal(testInstance, migration.OutcomeFatal, cancelledResult.Outcome)
	require.NoDirExists(testInstance, filepath.Join(solutionRoot, "Shop.backup-20240309-140530"))
}
