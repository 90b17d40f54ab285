package databases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Hossam1104/pos-admin-tool/internal/config"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

const outputSeparator = "|"

// SqlClient runs administrative T-SQL through the sqlcmd command line tool.
// Queries that only need a resultset go through the ConnectionChecker
// instead; sqlcmd is for the statements that must run exactly the way a DBA
// would run them (BACKUP, RESTORE, DBCC, DROP).
type SqlClient struct {
	executor cmd_utils.Executor
	secrets  *logger.SecretRegistry
	logger   *slog.Logger
}

func NewSqlClient(executor cmd_utils.Executor) *SqlClient {
	return &SqlClient{executor, logger.GetSecretRegistry(), logger.GetLogger()}
}

func (c *SqlClient) run(
	ctx context.Context,
	credentials SqlCredentials,
	database string,
	query string,
) cmd_utils.Result {
	c.secrets.Register(credentials.Password)

	args := []string{
		"-S", credentials.Instance,
		"-U", credentials.User,
		"-P", credentials.Password,
	}
	if database != "" {
		args = append(args, "-d", database)
	}
	args = append(args,
		"-Q", query,
		"-s", outputSeparator,
		"-W",
		"-h", "-1",
		"-b",
	)

	return c.executor.Run(ctx, cmd_utils.Spec{
		Path:    "sqlcmd",
		Args:    args,
		Timeout: config.GetEnv().SQLTimeout,
	})
}

func classifySqlResult(description string, result cmd_utils.Result) error {
	switch {
	case result.TimedOut:
		return operations.ErrProcessTimeout
	case result.ExitCode == 0:
		return nil
	default:
		return operations.ProcessFailureError(description, result.ExitCode)
	}
}

// Shrink releases unused space from the database files without moving pages.
func (c *SqlClient) Shrink(
	ctx context.Context,
	credentials SqlCredentials,
	database string,
) (cmd_utils.Result, error) {
	query := fmt.Sprintf("DBCC SHRINKDATABASE (%s, TRUNCATEONLY)", quoteName(database))

	result := c.run(ctx, credentials, database, query)
	return result, classifySqlResult("shrink "+database, result)
}

// Backup writes a compressed full backup to the given path, overwriting any
// existing backup set in the file.
func (c *SqlClient) Backup(
	ctx context.Context,
	credentials SqlCredentials,
	database string,
	backupPath string,
) (cmd_utils.Result, error) {
	query := fmt.Sprintf(
		"BACKUP DATABASE %s TO DISK = N'%s' WITH COMPRESSION, INIT, STATS = 10",
		quoteName(database),
		quoteString(backupPath),
	)

	result := c.run(ctx, credentials, "", query)
	return result, classifySqlResult("backup "+database, result)
}

// ListLogicalFiles reads the logical file layout stored inside a backup
// file. Restore needs it to build the MOVE clauses.
func (c *SqlClient) ListLogicalFiles(
	ctx context.Context,
	credentials SqlCredentials,
	backupPath string,
) ([]LogicalFile, error) {
	query := fmt.Sprintf(
		"RESTORE FILELISTONLY FROM DISK = N'%s'",
		quoteString(backupPath),
	)

	result := c.run(ctx, credentials, "", query)
	if err := classifySqlResult("read backup file list", result); err != nil {
		return nil, err
	}

	files := parseLogicalFiles(result.Stdout)
	if len(files) == 0 {
		return nil, operations.ValidationError(
			"backup file %s contains no recognizable logical files", backupPath,
		)
	}
	return files, nil
}

// DefaultPaths returns the instance default locations for data and log
// files, used when the caller did not override restore destinations.
func (c *SqlClient) DefaultPaths(
	ctx context.Context,
	credentials SqlCredentials,
) (DefaultPaths, error) {
	// Older instances report NULL for the SERVERPROPERTY defaults, so fall
	// back to the directory holding master's own files.
	query := "SET NOCOUNT ON; " +
		"DECLARE @d NVARCHAR(512) = CAST(SERVERPROPERTY('InstanceDefaultDataPath') AS NVARCHAR(512)); " +
		"DECLARE @l NVARCHAR(512) = CAST(SERVERPROPERTY('InstanceDefaultLogPath') AS NVARCHAR(512)); " +
		"IF @d IS NULL " +
		"SELECT TOP(1) @d = LEFT(physical_name, LEN(physical_name) - CHARINDEX('\\', REVERSE(physical_name)) + 1) " +
		"FROM master.sys.master_files WHERE database_id = 1 AND type = 0; " +
		"IF @l IS NULL " +
		"SELECT TOP(1) @l = LEFT(physical_name, LEN(physical_name) - CHARINDEX('\\', REVERSE(physical_name)) + 1) " +
		"FROM master.sys.master_files WHERE database_id = 1 AND type = 1; " +
		"SELECT @d + '|' + @l"

	result := c.run(ctx, credentials, "", query)
	if err := classifySqlResult("read instance default paths", result); err != nil {
		return DefaultPaths{}, err
	}

	for _, line := range strings.Split(result.Stdout, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.Contains(trimmed, outputSeparator) {
			continue
		}

		parts := strings.SplitN(trimmed, outputSeparator, 2)
		paths := DefaultPaths{
			DataPath: strings.TrimSpace(parts[0]),
			LogPath:  strings.TrimSpace(parts[1]),
		}
		if paths.DataPath != "" && paths.LogPath != "" {
			return paths, nil
		}
	}

	return DefaultPaths{}, operations.ValidationError(
		"instance did not report default data and log paths",
	)
}

// Restore replaces the database from a backup file, relocating every
// logical file according to the mappings.
func (c *SqlClient) Restore(
	ctx context.Context,
	credentials SqlCredentials,
	database string,
	backupPath string,
	mappings []LogicalFileMapping,
	replace bool,
) (cmd_utils.Result, error) {
	var builder strings.Builder
	fmt.Fprintf(
		&builder,
		"RESTORE DATABASE %s FROM DISK = N'%s' WITH",
		quoteName(database),
		quoteString(backupPath),
	)

	for _, mapping := range mappings {
		fmt.Fprintf(
			&builder,
			" MOVE N'%s' TO N'%s',",
			quoteString(mapping.LogicalName),
			quoteString(mapping.Destination),
		)
	}
	if replace {
		builder.WriteString(" REPLACE,")
	}
	builder.WriteString(" RECOVERY, STATS = 10")

	result := c.run(ctx, credentials, "", builder.String())
	return result, classifySqlResult("restore "+database, result)
}

// Drop forces the database into single user mode and removes it. A database
// that does not exist counts as already dropped.
func (c *SqlClient) Drop(
	ctx context.Context,
	credentials SqlCredentials,
	database string,
) (cmd_utils.Result, error) {
	name := quoteName(database)
	query := fmt.Sprintf(
		"IF DB_ID(N'%s') IS NOT NULL BEGIN "+
			"ALTER DATABASE %s SET SINGLE_USER WITH ROLLBACK IMMEDIATE; "+
			"DROP DATABASE %s; END",
		quoteString(database), name, name,
	)

	result := c.run(ctx, credentials, "", query)
	return result, classifySqlResult("drop "+database, result)
}

func parseLogicalFiles(output string) []LogicalFile {
	var files []LogicalFile

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(strings.TrimSpace(line), outputSeparator)
		if len(fields) < 3 {
			continue
		}

		fileType := strings.TrimSpace(fields[2])
		if fileType != LogicalFileTypeData && fileType != LogicalFileTypeLog {
			continue
		}

		files = append(files, LogicalFile{
			LogicalName: strings.TrimSpace(fields[0]),
			Type:        fileType,
		})
	}

	return files
}

// quoteName wraps an identifier in brackets, doubling closing brackets.
func quoteName(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

// quoteString doubles single quotes for use inside an N'...' literal.
func quoteString(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
