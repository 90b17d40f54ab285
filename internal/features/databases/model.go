package databases

// SqlCredentials identify one SQL Server instance and the login used for
// every administrative command against it.
type SqlCredentials struct {
	Instance string `json:"instance"`
	User     string `json:"user"`
	Password string `json:"-"`
}

type DatabaseRole string

const (
	DatabaseRoleCashier DatabaseRole = "CASHIER"
	DatabaseRoleBranch  DatabaseRole = "BRANCH"
)

type DatabaseTarget struct {
	Name string       `json:"name"`
	Role DatabaseRole `json:"role"`
}

// LogicalFile is one entry from RESTORE FILELISTONLY: the logical file name
// inside a backup and whether it is a data or log file.
type LogicalFile struct {
	LogicalName string `json:"logicalName"`
	Type        string `json:"type"`
}

const (
	LogicalFileTypeData = "D"
	LogicalFileTypeLog  = "L"
)

// LogicalFileMapping assigns a destination path to a logical file during
// restore.
type LogicalFileMapping struct {
	LogicalName string `json:"logicalName"`
	Destination string `json:"destination"`
}

type DefaultPaths struct {
	DataPath string `json:"dataPath"`
	LogPath  string `json:"logPath"`
}
