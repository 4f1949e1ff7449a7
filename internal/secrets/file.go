// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secrets

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	// FileBackendPriority puts the encrypted file below the keychain. It
	// is meant for hosts without a keyring service, such as the machine
	// running Rhino.Compute.
	FileBackendPriority = 25

	// MasterKeyEnv holds the passphrase for the secrets file.
	MasterKeyEnv = "RHMCP_MASTER_KEY"

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	keyLength     = 32
	saltLength    = 16
)

// FileBackend keeps secrets in a JSON map sealed with AES-256-GCM under a
// key derived from the master passphrase with Argon2id. Every write uses a
// fresh salt and nonce.
type FileBackend struct {
	path      string
	masterKey []byte

	mu sync.RWMutex
}

type sealedFile struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// NewFileBackend opens the secrets file at path. An empty masterKey makes
// the backend unavailable.
func NewFileBackend(path, masterKey string) *FileBackend {
	return &FileBackend{path: path, masterKey: []byte(masterKey)}
}

// DefaultFileBackend uses <config dir>/secrets.enc with the passphrase
// from RHMCP_MASTER_KEY or <config dir>/master.key.
func DefaultFileBackend() *FileBackend {
	dir := configDir()
	if dir == "" {
		return NewFileBackend("", "")
	}
	return NewFileBackend(filepath.Join(dir, "secrets.enc"), masterKey(dir))
}

func (f *FileBackend) Name() string { return "file" }

func (f *FileBackend) Available() bool { return f.path != "" && len(f.masterKey) > 0 }

func (f *FileBackend) Priority() int { return FileBackendPriority }

func (f *FileBackend) Get(ctx context.Context, key string) (string, error) {
	if !f.Available() {
		return "", fmt.Errorf("%w: no master key", ErrBackendUnavailable)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	all, err := f.load()
	if err != nil {
		return "", err
	}
	value, ok := all[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	return value, nil
}

func (f *FileBackend) Set(ctx context.Context, key, value string) error {
	if !f.Available() {
		return fmt.Errorf("%w: no master key", ErrBackendUnavailable)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.load()
	if err != nil {
		return err
	}
	all[key] = value
	return f.save(all)
}

func (f *FileBackend) Delete(ctx context.Context, key string) error {
	if !f.Available() {
		return fmt.Errorf("%w: no master key", ErrBackendUnavailable)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := all[key]; !ok {
		return fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}
	delete(all, key)
	return f.save(all)
}

// Keys returns the stored key names, sorted.
func (f *FileBackend) Keys(ctx context.Context) ([]string, error) {
	if !f.Available() {
		return nil, fmt.Errorf("%w: no master key", ErrBackendUnavailable)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	all, err := f.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// load returns an empty map when the file does not exist yet.
func (f *FileBackend) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	var sealed sealedFile
	if err := json.Unmarshal(raw, &sealed); err != nil {
		return nil, fmt.Errorf("invalid secrets file %s: %w", f.path, err)
	}
	gcm, err := f.aead(sealed.Salt)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, sealed.Nonce, sealed.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s (wrong master key?): %w", f.path, err)
	}
	defer clear(plain)

	all := map[string]string{}
	if err := json.Unmarshal(plain, &all); err != nil {
		return nil, fmt.Errorf("invalid secrets payload: %w", err)
	}
	return all, nil
}

// save seals all and replaces the file atomically.
func (f *FileBackend) save(all map[string]string) error {
	plain, err := json.Marshal(all)
	if err != nil {
		return err
	}
	defer clear(plain)

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	gcm, err := f.aead(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	out, err := json.Marshal(sealedFile{Salt: salt, Nonce: nonce, Data: gcm.Seal(nil, nonce, plain, nil)})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create secrets dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace secrets file: %w", err)
	}
	return nil
}

func (f *FileBackend) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(f.masterKey, salt, argon2Time, argon2Memory, argon2Threads, keyLength)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// configDir mirrors config.ConfigDir without creating the directory.
func configDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "rhmcp")
}

// masterKey reads the passphrase from the environment, then from a
// master.key file that only the owner can read.
func masterKey(dir string) string {
	if k := os.Getenv(MasterKeyEnv); k != "" {
		return k
	}
	path := filepath.Join(dir, "master.key")
	info, err := os.Stat(path)
	if err != nil || info.Mode().Perm()&0o077 != 0 {
		return ""
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(trimNewline(raw))
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
