package databases

import (
	cmd_utils "github.com/Hossam1104/pos-admin-tool/internal/util/cmd"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

var sqlClient = &SqlClient{
	cmd_utils.GetExecutor(),
	logger.GetSecretRegistry(),
	logger.GetLogger(),
}
var connectionChecker = &ConnectionChecker{
	logger.GetSecretRegistry(),
	logger.GetLogger(),
}
var databaseController = &DatabaseController{
	connectionChecker,
}

func GetSqlClient() *SqlClient {
	return sqlClient
}

func GetConnectionChecker() *ConnectionChecker {
	return connectionChecker
}

func GetDatabaseController() *DatabaseController {
	return databaseController
}
