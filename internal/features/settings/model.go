package settings

import (
	"encoding/json"

	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/util/encryption"
)

// Settings is the persisted configuration of the tool. The SQL password is
// stored only as a sealed blob; plaintext never touches the file after the
// one-time migration of legacy configs.
type Settings struct {
	SqlInstance string           `json:"sqlInstance"`
	SqlUser     string           `json:"sqlUser"`
	SqlPassword *encryption.Blob `json:"sqlPassword,omitempty"`

	Databases []databases.DatabaseTarget `json:"databases"`
	Services  []string                   `json:"services"`

	BackupFolder     string   `json:"backupFolder"`
	FoldersToDelete  []string `json:"foldersToDelete"`
	AppSettingsFiles []string `json:"appSettingsFiles"`

	ClientName string `json:"clientName"`
	BranchCode string `json:"branchCode"`
	PosNumber  string `json:"posNumber"`

	ApiBaseUrl  string `json:"apiBaseUrl"`
	ReleasePath string `json:"releasePath"`

	RegistryPattern string `json:"registryPattern"`
}

// persistedSettings mirrors Settings but keeps the password raw so legacy
// files that stored it as a plaintext string can still be decoded.
type persistedSettings struct {
	SqlInstance string          `json:"sqlInstance"`
	SqlUser     string          `json:"sqlUser"`
	SqlPassword json.RawMessage `json:"sqlPassword,omitempty"`

	Databases []databases.DatabaseTarget `json:"databases"`
	Services  []string                   `json:"services"`

	BackupFolder     string   `json:"backupFolder"`
	FoldersToDelete  []string `json:"foldersToDelete"`
	AppSettingsFiles []string `json:"appSettingsFiles"`

	ClientName string `json:"clientName"`
	BranchCode string `json:"branchCode"`
	PosNumber  string `json:"posNumber"`

	ApiBaseUrl  string `json:"apiBaseUrl"`
	ReleasePath string `json:"releasePath"`

	RegistryPattern string `json:"registryPattern"`
}

func defaultSettings() *Settings {
	return &Settings{
		SqlInstance: `.\SQLEXPRESS`,
		SqlUser:     "sa",
		Databases: []databases.DatabaseTarget{
			{Name: "RmsCashierSrv", Role: databases.DatabaseRoleCashier},
			{Name: "RmsBranchSrv", Role: databases.DatabaseRoleBranch},
		},
		Services: []string{
			"RMS.CashierService",
			"RMS.BranchService",
			"RMSServiceManager",
		},
		BackupFolder:     `C:\RMS_Backups`,
		FoldersToDelete:  []string{},
		AppSettingsFiles: []string{},
		RegistryPattern:  "RMS",
		ReleasePath:      `C:\ProgramData\RMS_Plus\ReleaseNumber.txt`,
	}
}

func (s *Settings) ServiceNames() []string {
	names := make([]string, len(s.Services))
	copy(names, s.Services)
	return names
}

func (s *Settings) DatabaseNames() []string {
	names := make([]string, 0, len(s.Databases))
	for _, target := range s.Databases {
		names = append(names, target.Name)
	}
	return names
}

// clone returns a deep copy so callers can hold an immutable view for the
// duration of an operation.
func (s *Settings) clone() *Settings {
	copied := *s

	if s.SqlPassword != nil {
		blob := *s.SqlPassword
		copied.SqlPassword = &blob
	}
	copied.Databases = append([]databases.DatabaseTarget(nil), s.Databases...)
	copied.Services = append([]string(nil), s.Services...)
	copied.FoldersToDelete = append([]string(nil), s.FoldersToDelete...)
	copied.AppSettingsFiles = append([]string(nil), s.AppSettingsFiles...)

	return &copied
}
