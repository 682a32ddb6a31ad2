package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore is a simple local-first key management system for feed signing.
//
// Layout, under Directory:
//
//	<name>/root.pem            PKCS#8 PEM private key (0600)
//	<name>/root.pub.pem        SPKI PEM public key
//	<name>/root.pub            raw public key base64 sidecar
//	<name>/scopes/<scope>.pem  scope-derived private keys (and .pub/.pub.pem)
//
// Scope keys are derived deterministically from the root seed (DeriveScopeSeed),
// so a store can be rebuilt from root keys alone.
type KeyStore struct {
	Directory string
}

// KeyEntry describes one named key and its derived scopes.
type KeyEntry struct {
	Name   string
	Scopes []string
}

// GetDefaultDirectory returns the default keystore location.
func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".xdao", "feedkeys"), nil
}

// CreateKeyStore opens a keystore rooted at directory, defaulting to
// GetDefaultDirectory when directory is empty.
func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

// CheckKeyName validates a key identifier: [A-Za-z0-9_-]+ only.
func CheckKeyName(name string) error {
	if name == "" {
		return errors.New("key name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in key name", char)
	}
	return nil
}

// CheckScope validates a scope identifier: [A-Za-z0-9_-]+ only.
func CheckScope(scope string) error {
	if scope == "" {
		return errors.New("scope cannot be empty")
	}
	for _, char := range scope {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in scope", char)
	}
	return nil
}

// ParseSeedHex parses a 64-hex-char Ed25519 seed, tolerating a 0x prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) rootKeyPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.pem")
}

func (ks *KeyStore) scopeKeyPath(name, scope string) string {
	return filepath.Join(ks.Directory, name, "scopes", scope+".pem")
}

// writeKeyFiles writes the private PEM (0600) plus public PEM and base64
// sidecar files next to it.
func (ks *KeyStore) writeKeyFiles(privPath string, kp *KeyPair, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(privPath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(privPath, flags, 0o600)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(kp.PrivateKeyPEM); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	base := strings.TrimSuffix(privPath, ".pem")
	if err := os.WriteFile(base+".pub.pem", []byte(kp.PublicKeyPEM), 0o644); err != nil {
		return err
	}
	return os.WriteFile(base+".pub", []byte(kp.PublicKeyBase64+"\n"), 0o644)
}

// InitializeRootKey creates the named root key from seed and writes its files.
// It returns the materialized key pair and the private key path.
func (ks *KeyStore) InitializeRootKey(name string, seed []byte, overwrite bool) (*KeyPair, string, error) {
	if err := CheckKeyName(name); err != nil {
		return nil, "", err
	}
	kp, err := KeyPairFromSeed(seed)
	if err != nil {
		return nil, "", err
	}
	path := ks.rootKeyPath(name)
	if err := ks.writeKeyFiles(path, kp, overwrite); err != nil {
		return nil, "", err
	}
	return kp, path, nil
}

// DeriveScopeKey derives a scope key from the named root key and writes its
// files. It returns the materialized key pair and the private key path.
func (ks *KeyStore) DeriveScopeKey(from, scope string, overwrite bool) (*KeyPair, string, error) {
	if err := CheckKeyName(from); err != nil {
		return nil, "", err
	}
	if err := CheckScope(scope); err != nil {
		return nil, "", err
	}
	rootPriv, err := ks.loadPrivateKey(ks.rootKeyPath(from))
	if err != nil {
		return nil, "", err
	}
	seed, err := DeriveScopeSeed(rootPriv.Seed(), scope)
	if err != nil {
		return nil, "", err
	}
	kp, err := KeyPairFromSeed(seed)
	if err != nil {
		return nil, "", err
	}
	path := ks.scopeKeyPath(from, scope)
	if err := ks.writeKeyFiles(path, kp, overwrite); err != nil {
		return nil, "", err
	}
	return kp, path, nil
}

func (ks *KeyStore) loadPrivateKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKey(string(data))
}

// LoadKeyPair loads the named key (root when scope is empty) in all encodings.
func (ks *KeyStore) LoadKeyPair(name, scope string) (*KeyPair, error) {
	if err := CheckKeyName(name); err != nil {
		return nil, err
	}
	path := ks.rootKeyPath(name)
	if scope != "" {
		if err := CheckScope(scope); err != nil {
			return nil, err
		}
		path = ks.scopeKeyPath(name, scope)
	}
	priv, err := ks.loadPrivateKey(path)
	if err != nil {
		return nil, err
	}
	return KeyPairFromSeed(priv.Seed())
}

// List enumerates stored keys and their derived scopes, sorted by name.
func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []KeyEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if _, err := os.Stat(ks.rootKeyPath(name)); err != nil {
			continue
		}
		entry := KeyEntry{Name: name}
		scopeDir := filepath.Join(ks.Directory, name, "scopes")
		if scopes, err := os.ReadDir(scopeDir); err == nil {
			for _, s := range scopes {
				if s.IsDir() || !strings.HasSuffix(s.Name(), ".pem") || strings.HasSuffix(s.Name(), ".pub.pem") {
					continue
				}
				entry.Scopes = append(entry.Scopes, strings.TrimSuffix(s.Name(), ".pem"))
			}
			sort.Strings(entry.Scopes)
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
