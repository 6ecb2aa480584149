// Package secrets implements the credential-store collaborator the spec
// treats as external: "the core asks get_secret(name) -> string?". Two
// backends are tried in order: the OS keychain (github.com/zalando/go-keyring),
// then an obfuscated, host-and-user-derived secrets.json fallback for
// environments without a usable keychain (headless Linux, containers).
package secrets

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/zalando/go-keyring"
)

// service is the keychain service name under which every account is stored.
const service = "deco"

// Store is the secrets collaborator. It is safe for concurrent use: the
// keychain backend is inherently so, and the file backend re-reads the file
// on every call (same no-cache policy as appconfig).
type Store struct {
	path        string
	useKeychain bool
}

// Open resolves the fallback file path (~/.deco/secrets.json) and returns a
// Store that prefers the OS keychain when available.
func Open() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Store{
		path:        filepath.Join(home, ".deco", "secrets.json"),
		useKeychain: true,
	}, nil
}

// Get returns the secret for name, or ("", false, nil) if not set.
func (s *Store) Get(name string) (string, bool, error) {
	if s.useKeychain {
		value, err := keyring.Get(service, name)
		if err == nil {
			return value, true, nil
		}
		if err != keyring.ErrNotFound {
			// Keychain unusable in this environment (e.g. no D-Bus secret
			// service) — fall back to the file store for the rest of the process.
			s.useKeychain = false
		}
	}

	secretsFile, err := s.readFile()
	if err != nil {
		return "", false, err
	}

	obfuscated, ok := secretsFile[name]
	if !ok {
		return "", false, nil
	}

	value, err := deobfuscate(name, obfuscated)
	if err != nil {
		return "", false, fmt.Errorf("decode secret %q: %w", name, err)
	}
	return value, true, nil
}

// Set stores value for name, preferring the keychain.
func (s *Store) Set(name, value string) error {
	if s.useKeychain {
		if err := keyring.Set(service, name, value); err == nil {
			return nil
		}
		s.useKeychain = false
	}

	secretsFile, err := s.readFile()
	if err != nil {
		return err
	}

	secretsFile[name] = obfuscate(name, value)
	return s.writeFile(secretsFile)
}

// Delete removes the secret for name from whichever backend holds it.
func (s *Store) Delete(name string) error {
	if s.useKeychain {
		_ = keyring.Delete(service, name)
	}

	secretsFile, err := s.readFile()
	if err != nil {
		return err
	}
	if _, ok := secretsFile[name]; !ok {
		return nil
	}
	delete(secretsFile, name)
	return s.writeFile(secretsFile)
}

func (s *Store) readFile() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read secrets file: %w", err)
	}

	out := map[string]string{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse secrets file: %w", err)
	}
	return out, nil
}

func (s *Store) writeFile(secretsFile map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create secrets directory: %w", err)
	}

	data, err := json.MarshalIndent(secretsFile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal secrets file: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(s.path, 0o600)
}

// obfuscationKey derives a deterministic, per-host, per-user XOR keystream
// seed from the account name: H(hostname|user|name). It is not cryptographic
// protection, only a deterrent against casually reading secrets.json — the
// spec calls this "obfuscated", not "encrypted".
func obfuscationKey(name string, length int) []byte {
	host, _ := os.Hostname()
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}

	seed := sha256.Sum256([]byte(host + "|" + user + "|" + name))
	key := make([]byte, length)
	for i := range key {
		key[i] = seed[i%len(seed)]
	}
	return key
}

func obfuscate(name, value string) string {
	plain := []byte(value)
	key := obfuscationKey(name, len(plain))
	out := make([]byte, len(plain))
	for i := range plain {
		out[i] = plain[i] ^ key[i]
	}
	return base64.StdEncoding.EncodeToString(out)
}

func deobfuscate(name, encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	key := obfuscationKey(name, len(raw))
	out := make([]byte, len(raw))
	for i := range raw {
		out[i] = raw[i] ^ key[i]
	}
	return string(out), nil
}
