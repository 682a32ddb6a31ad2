package keys

import (
	"crypto/ed25519"
	"fmt"
	"strings"
)

// ParsePrivateKey resolves a private key supplied in any accepted encoding
// into an ed25519.PrivateKey. Accepted forms:
//
//   - PEM ("PRIVATE KEY" armor around a base64 PKCS#8 body)
//   - base64 PKCS#8 DER (48 bytes decoded)
//   - base64 raw seed (32 bytes decoded)
//
// The encoding is detected once here; all callers downstream operate on the
// resolved key, so the same document signs identically regardless of which
// form was supplied.
func ParsePrivateKey(key string) (ed25519.PrivateKey, error) {
	b64 := strings.TrimSpace(key)
	if IsPEM(b64) {
		body, err := ParsePEM(b64)
		if err != nil {
			return nil, err
		}
		b64 = body
	}
	der, err := Base64ToBytes(b64)
	if err != nil {
		return nil, fmt.Errorf("keys: invalid private key base64: %w", err)
	}

	var seed []byte
	switch len(der) {
	case ed25519.SeedSize:
		seed = der
	case pkcs8Size:
		seed, err = SeedFromPKCS8(der)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("keys: private key must decode to %d (seed) or %d (PKCS#8) bytes, got %d",
			ed25519.SeedSize, pkcs8Size, len(der))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// ParsePublicKey resolves a public key supplied in any accepted encoding
// into an ed25519.PublicKey. Accepted forms:
//
//   - PEM ("PUBLIC KEY" armor around a base64 SPKI body)
//   - base64 SPKI DER (44 bytes decoded)
//   - base64 raw key (32 bytes decoded)
func ParsePublicKey(key string) (ed25519.PublicKey, error) {
	b64 := strings.TrimSpace(key)
	if IsPEM(b64) {
		body, err := ParsePEM(b64)
		if err != nil {
			return nil, err
		}
		b64 = body
	}
	der, err := Base64ToBytes(b64)
	if err != nil {
		return nil, fmt.Errorf("keys: invalid public key base64: %w", err)
	}
	raw, err := ExtractRawPublicKey(der)
	if err != nil {
		return nil, err
	}
	return ed25519.PublicKey(raw), nil
}
