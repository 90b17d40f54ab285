package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/util/encryption"
)

func newTestManager(t *testing.T) *SettingsManager {
	t.Helper()

	vault, err := encryption.NewVault("settings-test-machine")
	require.NoError(t, err)

	return NewSettingsManager(t.TempDir(), vault)
}

func Test_Load_MissingFile_WritesDefaults(t *testing.T) {
	manager := newTestManager(t)

	loaded, err := manager.Load()

	require.NoError(t, err)
	assert.Equal(t, `.\SQLEXPRESS`, loaded.SqlInstance)
	assert.Equal(t, "sa", loaded.SqlUser)
	assert.Len(t, loaded.Databases, 2)
	assert.FileExists(t, manager.filePath())
}

func Test_Load_PlaintextPassword_MigratesToSealedBlob(t *testing.T) {
	manager := newTestManager(t)
	legacy := `{
		"sqlInstance": ".\\RMS",
		"sqlUser": "sa",
		"sqlPassword": "legacy-secret-99",
		"backupFolder": "C:\\Backups",
		"databases": [{"name": "RmsCashierSrv", "role": "CASHIER"}]
	}`
	require.NoError(t, os.WriteFile(manager.filePath(), []byte(legacy), 0o600))

	loaded, err := manager.Load()

	require.NoError(t, err)
	require.NotNil(t, loaded.SqlPassword)
	assert.Equal(t, "AES-GCM", loaded.SqlPassword.Method)

	// The original file was preserved before rewriting.
	assert.FileExists(t, manager.filePath()+".backup")

	// The rewritten file no longer contains the plaintext.
	rewritten, err := os.ReadFile(manager.filePath())
	require.NoError(t, err)
	assert.NotContains(t, string(rewritten), "legacy-secret-99")

	credentials, err := manager.Credentials(loaded)
	require.NoError(t, err)
	assert.Equal(t, "legacy-secret-99", credentials.Password)
}

func Test_Load_SealedPassword_IsNotRewritten(t *testing.T) {
	manager := newTestManager(t)

	_, err := manager.Load()
	require.NoError(t, err)

	updated := defaultSettings()
	_, err = manager.Update(updated, "fresh-password-1")
	require.NoError(t, err)

	loaded, err := manager.Load()
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(manager.directory, settingsFileName+".backup"))

	credentials, err := manager.Credentials(loaded)
	require.NoError(t, err)
	assert.Equal(t, "fresh-password-1", credentials.Password)
}

func Test_Update_EmptyPassword_KeepsExistingBlob(t *testing.T) {
	manager := newTestManager(t)
	_, err := manager.Load()
	require.NoError(t, err)

	_, err = manager.Update(defaultSettings(), "initial-password")
	require.NoError(t, err)

	saved, err := manager.Update(defaultSettings(), "")
	require.NoError(t, err)

	credentials, err := manager.Credentials(saved)
	require.NoError(t, err)
	assert.Equal(t, "initial-password", credentials.Password)
}

func Test_Update_InvalidSettings_ReturnsValidationError(t *testing.T) {
	manager := newTestManager(t)

	invalid := defaultSettings()
	invalid.SqlInstance = ""
	invalid.Databases = nil

	_, err := manager.Update(invalid, "pw")

	assert.Error(t, err)
	assert.ErrorContains(t, err, "sqlInstance is required")
	assert.ErrorContains(t, err, "at least one database is required")
}

func Test_Snapshot_ReturnsIndependentCopy(t *testing.T) {
	manager := newTestManager(t)
	_, err := manager.Load()
	require.NoError(t, err)

	first, err := manager.Snapshot()
	require.NoError(t, err)

	first.Services[0] = "tampered"
	first.Databases[0] = databases.DatabaseTarget{Name: "tampered"}

	second, err := manager.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, "RMS.CashierService", second.Services[0])
	assert.Equal(t, "RmsCashierSrv", second.Databases[0].Name)
}

func Test_SavedFile_IsValidJsonWithoutPlaintext(t *testing.T) {
	manager := newTestManager(t)
	_, err := manager.Load()
	require.NoError(t, err)

	_, err = manager.Update(defaultSettings(), "super-secret-pw")
	require.NoError(t, err)

	raw, err := os.ReadFile(manager.filePath())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, string(raw), "super-secret-pw")
}
