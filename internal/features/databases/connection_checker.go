package databases

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

const connectTimeout = 15 * time.Second

// ConnectionChecker talks to SQL Server through the driver instead of
// sqlcmd. It serves the read-only checks: connectivity probes, database
// listings and active connection counts before a restore.
type ConnectionChecker struct {
	secrets *logger.SecretRegistry
	logger  *slog.Logger
}

func (c *ConnectionChecker) open(ctx context.Context, credentials SqlCredentials) (*sqlx.DB, error) {
	c.secrets.Register(credentials.Password)

	dsn := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(credentials.User, credentials.Password),
		Host:   credentials.Instance,
		RawQuery: url.Values{
			"database":     {"master"},
			"dial timeout": {"15"},
		}.Encode(),
	}

	openCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(openCtx, "sqlserver", dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", credentials.Instance, err)
	}
	return db, nil
}

// TestConnection verifies the instance is reachable with the given login.
func (c *ConnectionChecker) TestConnection(ctx context.Context, credentials SqlCredentials) error {
	db, err := c.open(ctx, credentials)
	if err != nil {
		return err
	}
	defer db.Close()

	var one int
	if err := db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return fmt.Errorf("connection probe failed: %w", err)
	}

	c.logger.Info("SQL Server connection verified", "instance", credentials.Instance)
	return nil
}

// ListDatabases returns the user databases on the instance.
func (c *ConnectionChecker) ListDatabases(
	ctx context.Context,
	credentials SqlCredentials,
) ([]string, error) {
	db, err := c.open(ctx, credentials)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var names []string
	err = db.SelectContext(
		ctx,
		&names,
		"SELECT name FROM sys.databases WHERE database_id > 4 ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return names, nil
}

// ActiveConnections counts sessions attached to the database, excluding the
// probe's own session.
func (c *ConnectionChecker) ActiveConnections(
	ctx context.Context,
	credentials SqlCredentials,
	database string,
) (int, error) {
	db, err := c.open(ctx, credentials)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	err = db.GetContext(
		ctx,
		&count,
		"SELECT COUNT(*) FROM sys.dm_exec_sessions WHERE database_id = DB_ID(@p1) AND session_id <> @@SPID",
		database,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count active connections for %s: %w", database, err)
	}
	return count, nil
}

// AttachedFiles returns which of the candidate paths are already in use as
// physical files of an attached database other than the given one.
func (c *ConnectionChecker) AttachedFiles(
	ctx context.Context,
	credentials SqlCredentials,
	database string,
	candidates []string,
) ([]string, error) {
	db, err := c.open(ctx, credentials)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var attached []string
	err = db.SelectContext(
		ctx,
		&attached,
		"SELECT physical_name FROM sys.master_files WHERE database_id <> ISNULL(DB_ID(@p1), 0)",
		database,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attached files: %w", err)
	}

	inUse := make(map[string]bool, len(attached))
	for _, path := range attached {
		inUse[strings.ToLower(path)] = true
	}

	var locked []string
	for _, candidate := range candidates {
		if inUse[strings.ToLower(candidate)] {
			locked = append(locked, candidate)
		}
	}
	return locked, nil
}
