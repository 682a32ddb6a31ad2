package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
)

// DeriveScopeSeed deterministically derives a scope-specific Ed25519 seed from
// a root seed, so one root key can sign per-scope (the trust block's scope
// field) without sharing material between scopes.
func DeriveScopeSeed(rootSeed []byte, scope string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckScope(scope); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("xdao-feedsign-kms-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("scope:"))
	_, _ = h.Write([]byte(scope))
	sum := h.Sum(nil)
	if len(sum) < ed25519.SeedSize {
		return nil, errors.New("kdf output too short")
	}
	out := make([]byte, ed25519.SeedSize)
	copy(out, sum[:ed25519.SeedSize])
	return out, nil
}

// PublicKeyBase64FromSeed returns the raw public key base64 for a seed.
func PublicKeyBase64FromSeed(seed []byte) (string, error) {
	if len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("seed must be %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return BytesToBase64(priv.Public().(ed25519.PublicKey)), nil
}
