package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"
)

// ISOTimestampFormat is the millisecond-precision UTC timestamp layout used in
// key metadata and signature blocks.
const ISOTimestampFormat = "2006-01-02T15:04:05.000Z"

// KeyPair holds a fresh Ed25519 key pair in every encoding the signing
// protocol accepts.
//
// The private key is caller-held secret material; this library never persists
// it except through an explicit KeyStore call.
type KeyPair struct {
	// PrivateKeyBase64 is the PKCS#8 DER, base64-encoded (48 bytes decoded).
	PrivateKeyBase64 string
	// PrivateKeyPEM is the PKCS#8 DER under "PRIVATE KEY" armor.
	PrivateKeyPEM string
	// PublicKeyBase64 is the raw 32-byte public key, base64-encoded.
	PublicKeyBase64 string
	// PublicKeyPEM is the SPKI DER under "PUBLIC KEY" armor.
	PublicKeyPEM string
	// CreatedAt is the ISO-8601 generation timestamp.
	CreatedAt string
}

// GenerateKeyPair generates a fresh Ed25519 key pair from the platform CSPRNG
// and exports it in all accepted encodings.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keys: ed25519 key generation failed: %w", err)
	}
	return keyPairFromPrivate(pub, priv)
}

func keyPairFromPrivate(pub ed25519.PublicKey, priv ed25519.PrivateKey) (*KeyPair, error) {
	pkcs8, err := WrapSeedPKCS8(priv.Seed())
	if err != nil {
		return nil, err
	}
	privB64 := BytesToBase64(pkcs8)

	spki, err := WrapPublicKeySPKI(pub)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		PrivateKeyBase64: privB64,
		PrivateKeyPEM:    FormatPEM(privB64, PrivateKeyPEMLabel),
		PublicKeyBase64:  BytesToBase64(pub),
		PublicKeyPEM:     FormatPEM(BytesToBase64(spki), PublicKeyPEMLabel),
		CreatedAt:        time.Now().UTC().Format(ISOTimestampFormat),
	}, nil
}

// KeyPairFromSeed derives the full KeyPair encoding set from a raw 32-byte
// seed. Used by the keystore when materializing scope-derived keys.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return keyPairFromPrivate(priv.Public().(ed25519.PublicKey), priv)
}
