// Package adcstore keeps one stored Application Default Credential blob per
// profile. Blobs are opaque: they are captured after an ADC login and copied
// back verbatim on activation.
package adcstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/tjirsch/gcloud-switch/internal/store"
)

// KeyringService is the keyring service name under which blobs are stored,
// with the profile name as the account.
const KeyringService = "gcloud-switch adc"

// ErrNotFound is returned when no blob is stored for a profile.
var ErrNotFound = errors.New("no stored ADC credentials")

// Store holds ADC blobs keyed by profile name.
type Store interface {
	Save(name string, blob []byte) error
	Load(name string) ([]byte, error)
	Delete(name string) error
	Has(name string) bool
}

// Open returns the store for a backend name: "file" (default) or "keyring".
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(dir), nil
	case "keyring":
		return NewKeyringStore(KeyringService), nil
	}
	return nil, fmt.Errorf("unknown credentials backend %q (want file or keyring)", backend)
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid profile name %q for credential storage", name)
	}
	return nil
}

// FileStore keeps blobs as <dir>/<name>.json with owner-only permissions.
type FileStore struct {
	dir string
}

// NewFileStore returns a file-backed store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

// Save implements Store.
func (f *FileStore) Save(name string, blob []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	return store.WriteFileAtomic(f.path(name), blob, 0o600)
}

// Load implements Store.
func (f *FileStore) Load(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("profile %q: %w", name, ErrNotFound)
	}
	return data, err
}

// Delete implements Store. Deleting a missing blob is not an error.
func (f *FileStore) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := os.Remove(f.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Has implements Store.
func (f *FileStore) Has(name string) bool {
	if checkName(name) != nil {
		return false
	}
	_, err := os.Stat(f.path(name))
	return err == nil
}

// KeyringStore keeps blobs in the OS keyring.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a keyring-backed store under service.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

// Save implements Store.
func (k *KeyringStore) Save(name string, blob []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := gokeyring.Set(k.service, name, string(blob)); err != nil {
		return fmt.Errorf("storing ADC credentials for %q in keyring: %w", name, err)
	}
	return nil
}

// Load implements Store.
func (k *KeyringStore) Load(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	secret, err := gokeyring.Get(k.service, name)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil, fmt.Errorf("profile %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading ADC credentials for %q from keyring: %w", name, err)
	}
	return []byte(secret), nil
}

// Delete implements Store.
func (k *KeyringStore) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := gokeyring.Delete(k.service, name)
	if err == nil || errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("deleting ADC credentials for %q from keyring: %w", name, err)
}

// Has implements Store.
func (k *KeyringStore) Has(name string) bool {
	_, err := k.Load(name)
	return err == nil
}
