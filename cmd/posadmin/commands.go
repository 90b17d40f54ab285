package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	restoreFile        string
	restoreDatabase    string
	restoreMdf         string
	restoreLdf         string
	restoreOverwrite   bool
	cleanupPhrase      string
	waitTimeoutMinutes int

	rootCmd = &cobra.Command{
		Use:   "posadmin",
		Short: "Administrative toolbox for POS installations",
		Long: `posadmin manages the local POS installation: it backs up and
restores the SQL Server databases, watches the Windows services and,
when explicitly confirmed, removes the installation from the machine.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the background monitors",
		RunE:  runServe, // Defined in cmd_serve.go
	}

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Back up the configured databases and settings files into a zip archive",
		RunE:  runBackup, // Defined in cmd_operations.go
	}

	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restore a database from a .bak file",
		RunE:  runRestore, // Defined in cmd_operations.go
	}

	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "DANGER: remove the POS installation from this machine",
		RunE:  runCleanup, // Defined in cmd_operations.go
	}

	servicesCmd = &cobra.Command{
		Use:   "services",
		Short: "Inspect the configured Windows services",
	}

	servicesStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the current state of every configured service",
		RunE:  runServicesStatus, // Defined in cmd_services.go
	}
)

func init() {
	restoreCmd.Flags().StringVar(&restoreFile, "file", "", "path to the .bak file to restore")
	restoreCmd.Flags().StringVar(&restoreDatabase, "database", "", "name of the database to restore into")
	restoreCmd.Flags().StringVar(&restoreMdf, "mdf", "", "destination path for the data file (optional)")
	restoreCmd.Flags().StringVar(&restoreLdf, "ldf", "", "destination path for the log file (optional)")
	restoreCmd.Flags().BoolVar(&restoreOverwrite, "overwrite", false, "overwrite the database even when sessions are connected")
	_ = restoreCmd.MarkFlagRequired("file")
	_ = restoreCmd.MarkFlagRequired("database")

	cleanupCmd.Flags().StringVar(&cleanupPhrase, "confirm", "", "confirmation phrase; the command refuses to run without the exact phrase")
	_ = cleanupCmd.MarkFlagRequired("confirm")

	for _, cmd := range []*cobra.Command{backupCmd, restoreCmd, cleanupCmd} {
		cmd.Flags().IntVar(&waitTimeoutMinutes, "wait-timeout", 60, "minutes to wait for the operation to finish")
	}

	servicesCmd.AddCommand(servicesStatusCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(servicesCmd)
}
