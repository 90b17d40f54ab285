package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Hossam1104/pos-admin-tool/internal/server"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

func runServe(cmd *cobra.Command, args []string) error {
	if err := server.SetupDependencies(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.GetLogger().Info("Starting posadmin")

	return server.Run(ctx)
}
