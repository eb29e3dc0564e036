// Package credstore is the encrypted credential store: a master key file
// plus a JSON credential list, each credential's username/secret pair
// sealed with XChaCha20-Poly1305. Grounded on
// original_source/common/src/auth/credentials.rs's CredentialManager.
package credstore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"os"

	"github.com/watson-app/watson/internal/paths"
	"github.com/watson-app/watson/internal/werr"
)

const keyLen = 32

// Manager owns the master key and the in-memory credential list.
type Manager struct {
	key         [keyLen]byte
	Credentials []Credential
}

// Load resolves the key and credentials files (creating both on first
// run) and returns a ready Manager. Grounded on CredentialManager::new.
func Load() (*Manager, error) {
	keyPath, err := paths.KeyFile()
	if err != nil {
		return nil, err
	}
	credPath, err := paths.CredentialsFile()
	if err != nil {
		return nil, err
	}

	key, err := loadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}

	creds, err := loadOrCreateCredentials(credPath)
	if err != nil {
		return nil, err
	}

	return &Manager{key: key, Credentials: creds}, nil
}

func loadOrCreateKey(path string) ([keyLen]byte, error) {
	var key [keyLen]byte

	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.Size() != keyLen {
			return key, werr.New(werr.KindFileRead, "invalid key length")
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return key, werr.Wrap(werr.KindFileRead, err)
		}
		copy(key[:], raw)
		return key, nil

	case errors.Is(err, os.ErrNotExist):
		if _, err := rand.Read(key[:]); err != nil {
			return key, werr.Wrap(werr.KindEncryption, err)
		}
		if err := os.WriteFile(path, key[:], 0o600); err != nil {
			return key, werr.Wrap(werr.KindFileCreate, err)
		}
		return key, nil

	default:
		return key, werr.Wrap(werr.KindFileRead, err)
	}
}

func loadOrCreateCredentials(path string) ([]Credential, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var creds []Credential
		if err := json.Unmarshal(raw, &creds); err != nil {
			return nil, werr.Wrap(werr.KindDeserialize, err)
		}
		return creds, nil

	case errors.Is(err, os.ErrNotExist):
		if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
			return nil, werr.Wrap(werr.KindFileCreate, err)
		}
		return nil, nil

	default:
		return nil, werr.Wrap(werr.KindFileRead, err)
	}
}

// Lock encrypts every credential's username/secret in place.
func (m *Manager) Lock() error {
	for i := range m.Credentials {
		if err := m.Credentials[i].Lock(m.key[:]); err != nil {
			return err
		}
	}
	return nil
}

// Unlock decrypts every locked credential's username/secret in place.
func (m *Manager) Unlock() error {
	for i := range m.Credentials {
		c := &m.Credentials[i]
		if c.Username.IsLocked() || c.Secret.IsLocked() || (c.AccessToken != nil && c.AccessToken.IsLocked()) {
			if err := c.Unlock(m.key[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Save locks every credential, writes the credential list atomically
// (temp file + rename, spec.md §4.4/§9), then unlocks again so the
// in-memory Manager stays usable.
func (m *Manager) Save() error {
	credPath, err := paths.CredentialsFile()
	if err != nil {
		return err
	}

	if err := m.Lock(); err != nil {
		return err
	}

	payload, err := json.Marshal(m.Credentials)
	if err != nil {
		return werr.Wrap(werr.KindSerialize, err)
	}

	tmp := credPath + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return werr.Wrap(werr.KindFileWrite, err)
	}
	if err := os.Rename(tmp, credPath); err != nil {
		return werr.Wrap(werr.KindFileWrite, err)
	}

	return m.Unlock()
}

// Insert appends cred to the in-memory list. Callers must Save to
// persist it.
func (m *Manager) Insert(cred Credential) {
	m.Credentials = append(m.Credentials, cred)
}

// Delete removes the credential with the given id, returning it if
// found.
func (m *Manager) Delete(id string) (Credential, bool) {
	for i, c := range m.Credentials {
		if c.ID == id {
			m.Credentials = append(m.Credentials[:i], m.Credentials[i+1:]...)
			return c, true
		}
	}
	return Credential{}, false
}
