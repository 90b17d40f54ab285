package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/util/encryption"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

const settingsFileName = "config.json"

// SettingsManager owns the config file. Workflows take a Snapshot at start
// and never observe edits made while they run.
type SettingsManager struct {
	vault   *encryption.Vault
	secrets *logger.SecretRegistry
	logger  *slog.Logger

	directory string

	mu      sync.RWMutex
	current *Settings
}

func NewSettingsManager(
	directory string,
	vault *encryption.Vault,
) *SettingsManager {
	return &SettingsManager{
		vault:     vault,
		secrets:   logger.GetSecretRegistry(),
		logger:    logger.GetLogger(),
		directory: directory,
	}
}

func (m *SettingsManager) filePath() string {
	return filepath.Join(m.directory, settingsFileName)
}

// Load reads the config file, creating it with defaults when missing. A
// legacy file holding the SQL password in plaintext is migrated to a sealed
// blob; the original is kept next to it with a .backup suffix.
func (m *SettingsManager) Load() (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.loadLocked()
}

func (m *SettingsManager) loadLocked() (*Settings, error) {
	raw, err := os.ReadFile(m.filePath())
	if errors.Is(err, os.ErrNotExist) {
		m.logger.Info("Settings file missing, writing defaults", "path", m.filePath())

		m.current = defaultSettings()
		if err := m.saveLocked(); err != nil {
			return nil, err
		}
		return m.current.clone(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var persisted persistedSettings
	if err := json.Unmarshal(raw, &persisted); err != nil {
		return nil, fmt.Errorf("settings file is not valid JSON: %w", err)
	}

	loaded := &Settings{
		SqlInstance:      persisted.SqlInstance,
		SqlUser:          persisted.SqlUser,
		Databases:        persisted.Databases,
		Services:         persisted.Services,
		BackupFolder:     persisted.BackupFolder,
		FoldersToDelete:  persisted.FoldersToDelete,
		AppSettingsFiles: persisted.AppSettingsFiles,
		ClientName:       persisted.ClientName,
		BranchCode:       persisted.BranchCode,
		PosNumber:        persisted.PosNumber,
		ApiBaseUrl:       persisted.ApiBaseUrl,
		ReleasePath:      persisted.ReleasePath,
		RegistryPattern:  persisted.RegistryPattern,
	}

	migrated, err := m.decodePassword(loaded, persisted.SqlPassword, raw)
	if err != nil {
		return nil, err
	}

	m.current = loaded
	if migrated {
		if err := m.saveLocked(); err != nil {
			return nil, err
		}
	}

	return m.current.clone(), nil
}

// decodePassword accepts both the sealed blob format and the legacy
// plaintext string. Returns true when the file needs rewriting.
func (m *SettingsManager) decodePassword(
	loaded *Settings,
	raw json.RawMessage,
	originalFile []byte,
) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}

	var blob encryption.Blob
	if err := json.Unmarshal(raw, &blob); err == nil && blob.Data != "" {
		loaded.SqlPassword = &blob
		return false, nil
	}

	var plaintext string
	if err := json.Unmarshal(raw, &plaintext); err != nil {
		return false, fmt.Errorf("settings password field has unrecognized format")
	}

	m.logger.Warn("Settings file holds a plaintext password, migrating to sealed storage")
	m.secrets.Register(plaintext)

	backupPath := m.filePath() + ".backup"
	if err := os.WriteFile(backupPath, originalFile, 0o600); err != nil {
		return false, fmt.Errorf("failed to back up settings before migration: %w", err)
	}

	sealed, err := m.vault.Seal(plaintext)
	if err != nil {
		return false, fmt.Errorf("failed to seal password during migration: %w", err)
	}

	loaded.SqlPassword = sealed
	return true, nil
}

// Snapshot returns an immutable copy of the current settings, loading the
// file on first use.
func (m *SettingsManager) Snapshot() (*Settings, error) {
	m.mu.RLock()
	if m.current != nil {
		defer m.mu.RUnlock()
		return m.current.clone(), nil
	}
	m.mu.RUnlock()

	return m.Load()
}

// Update validates and persists new settings. A non-empty plainPassword
// replaces the stored credential; an empty one keeps the existing blob.
func (m *SettingsManager) Update(updated *Settings, plainPassword string) (*Settings, error) {
	if err := validate(updated); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if plainPassword != "" {
		m.secrets.Register(plainPassword)

		sealed, err := m.vault.Seal(plainPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to seal password: %w", err)
		}
		updated.SqlPassword = sealed
	} else if m.current != nil {
		updated.SqlPassword = m.current.SqlPassword
	}

	m.current = updated.clone()
	if err := m.saveLocked(); err != nil {
		return nil, err
	}

	m.logger.Info("Settings updated")
	return m.current.clone(), nil
}

func (m *SettingsManager) saveLocked() error {
	if err := os.MkdirAll(m.directory, 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	encoded, err := json.MarshalIndent(m.current, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(m.filePath(), encoded, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Credentials opens the sealed password and returns ready-to-use SQL
// credentials. The plaintext is registered for log masking, never stored.
func (m *SettingsManager) Credentials(snapshot *Settings) (databases.SqlCredentials, error) {
	if snapshot.SqlPassword == nil {
		return databases.SqlCredentials{}, operations.ValidationError(
			"no SQL password is configured",
		)
	}

	password, err := m.vault.Open(snapshot.SqlPassword)
	if err != nil {
		return databases.SqlCredentials{}, err
	}

	m.secrets.Register(password)
	return databases.SqlCredentials{
		Instance: snapshot.SqlInstance,
		User:     snapshot.SqlUser,
		Password: password,
	}, nil
}

func validate(s *Settings) error {
	var problems []string

	if strings.TrimSpace(s.SqlInstance) == "" {
		problems = append(problems, "sqlInstance is required")
	}
	if strings.TrimSpace(s.SqlUser) == "" {
		problems = append(problems, "sqlUser is required")
	}
	if strings.TrimSpace(s.BackupFolder) == "" {
		problems = append(problems, "backupFolder is required")
	}
	if len(s.Databases) == 0 {
		problems = append(problems, "at least one database is required")
	}
	for _, target := range s.Databases {
		if strings.TrimSpace(target.Name) == "" {
			problems = append(problems, "database names must not be empty")
			break
		}
	}

	if len(problems) > 0 {
		return operations.ValidationError("%s", strings.Join(problems, "; "))
	}
	return nil
}
