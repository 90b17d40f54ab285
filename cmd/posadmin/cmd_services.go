package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hossam1104/pos-admin-tool/internal/features/services"
	"github.com/Hossam1104/pos-admin-tool/internal/features/settings"
	"github.com/Hossam1104/pos-admin-tool/internal/server"
)

func runServicesStatus(cmd *cobra.Command, args []string) error {
	if err := server.SetupDependencies(); err != nil {
		return err
	}

	snapshot, err := settings.GetSettingsManager().Snapshot()
	if err != nil {
		return err
	}

	names := snapshot.ServiceNames()
	if len(names) == 0 {
		fmt.Println("no services configured")
		return nil
	}

	checker := services.GetServiceStatusChecker()
	for _, name := range names {
		status := checker.Check(context.Background(), name)
		fmt.Printf("%-40s %s\n", status.Name, status.State)
	}

	return nil
}
