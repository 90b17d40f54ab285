package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/scrypt"
)

const (
	blobVersion  = 1
	methodAesGcm = "AES-GCM"

	// Fixed application salt; the secret part of the key is the per-machine
	// identity material, so sealed blobs only open on the host (and for the
	// user) that produced them.
	keySalt = "pos-admin-tool/v1"
)

// ErrDecryption is returned when a sealed blob cannot be opened in the
// current machine/user context, or when it has been tampered with.
var ErrDecryption = errors.New("credential blob cannot be decrypted in this context")

// Blob is the persisted form of a sealed secret. Only this shape is ever
// written to the configuration file.
type Blob struct {
	Data    string `json:"data"`
	Version int    `json:"version"`
	Method  string `json:"encryptionMethod"`
}

// Vault seals and opens secrets with a key derived from the host identity.
// Plaintext never persists; a blob sealed on one machine fails to open on
// another with ErrDecryption.
type Vault struct {
	key []byte
}

var (
	vaultOnce sync.Once
	vault     *Vault
	vaultErr  error
)

func GetVault() (*Vault, error) {
	vaultOnce.Do(func() {
		identity, err := machineIdentity()
		if err != nil {
			vaultErr = fmt.Errorf("failed to read machine identity: %w", err)
			return
		}

		vault, vaultErr = NewVault(identity)
	})

	return vault, vaultErr
}

// NewVault derives the sealing key from the given identity material.
// Exposed so tests can simulate a foreign host context.
func NewVault(identity string) (*Vault, error) {
	key, err := scrypt.Key([]byte(identity), []byte(keySalt), 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault key: %w", err)
	}

	return &Vault{key: key}, nil
}

func (v *Vault) Seal(plaintext string) (*Blob, error) {
	if plaintext == "" {
		return nil, errors.New("cannot seal empty secret")
	}

	aead, err := v.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return &Blob{
		Data:    base64.StdEncoding.EncodeToString(sealed),
		Version: blobVersion,
		Method:  methodAesGcm,
	}, nil
}

func (v *Vault) Open(blob *Blob) (string, error) {
	if blob == nil || blob.Data == "" {
		return "", errors.New("empty credential blob")
	}

	if blob.Method != methodAesGcm {
		return "", fmt.Errorf("unknown encryption method: %s", blob.Method)
	}

	raw, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		return "", ErrDecryption
	}

	aead, err := v.aead()
	if err != nil {
		return "", err
	}

	if len(raw) < aead.NonceSize() {
		return "", ErrDecryption
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		// Wrong key (different machine/user) and tampering are
		// indistinguishable here; both must never yield partial output.
		return "", ErrDecryption
	}

	return string(plaintext), nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD: %w", err)
	}

	return aead, nil
}

// machineIdentity returns stable per-machine material for key derivation.
// POSADMIN_MACHINE_KEY overrides it for tests and containerized runs.
func machineIdentity() (string, error) {
	if override := os.Getenv("POSADMIN_MACHINE_KEY"); override != "" {
		return override, nil
	}

	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		data, err := os.ReadFile(path)
		if err == nil && len(strings.TrimSpace(string(data))) > 0 {
			return strings.TrimSpace(string(data)), nil
		}
	}

	// Fall back to hostname + user; weaker, but still host-bound.
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}

	return hostname + "/" + os.Getenv("USER") + os.Getenv("USERNAME"), nil
}
