package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Hossam1104/pos-admin-tool/internal/features/backups"
	"github.com/Hossam1104/pos-admin-tool/internal/features/cleanup"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/features/restores"
	"github.com/Hossam1104/pos-admin-tool/internal/server"
)

func runBackup(cmd *cobra.Command, args []string) error {
	if err := server.SetupDependencies(); err != nil {
		return err
	}

	operationID, err := backups.GetBackupWorkflow().Start(context.Background())
	if err != nil {
		return err
	}

	return waitAndPrint(operationID)
}

func runRestore(cmd *cobra.Command, args []string) error {
	if err := server.SetupDependencies(); err != nil {
		return err
	}

	request := restores.RestoreRequest{
		BackupFilePath:     restoreFile,
		Database:           restoreDatabase,
		MdfDestination:     restoreMdf,
		LdfDestination:     restoreLdf,
		OverwriteConfirmed: restoreOverwrite,
	}

	operationID, err := restores.GetRestoreWorkflow().Start(context.Background(), request)
	if err != nil {
		return err
	}

	return waitAndPrint(operationID)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if err := server.SetupDependencies(); err != nil {
		return err
	}

	token, err := cleanup.GetConfirmationGate().Issue(cleanupPhrase)
	if err != nil {
		return fmt.Errorf("cleanup refused: %w", err)
	}

	operationID, err := cleanup.GetCleanupWorkflow().Start(context.Background(), token)
	if err != nil {
		return err
	}

	return waitAndPrint(operationID)
}

// waitAndPrint polls the history database until the operation result shows
// up, then prints it. Workflows save the result only once they are done, so
// a missing row just means the operation is still running.
func waitAndPrint(operationID uuid.UUID) error {
	fmt.Fprintf(os.Stderr, "operation %s started, waiting...\n", operationID)

	deadline := time.Now().Add(time.Duration(waitTimeoutMinutes) * time.Minute)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		result, err := operations.GetOperationService().GetResult(operationID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if time.Now().After(deadline) {
				return fmt.Errorf("gave up waiting for operation %s after %d minutes", operationID, waitTimeoutMinutes)
			}
			continue
		}
		if err != nil {
			return err
		}

		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))

		switch result.Status {
		case operations.OperationStatusSuccess, operations.OperationStatusPartialSuccess:
			return nil
		default:
			return fmt.Errorf("operation finished with status %s", result.Status)
		}
	}

	return nil
}
