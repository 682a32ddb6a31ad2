package keys

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"
)

// Fixed ASN.1 container prefixes for Ed25519 keys. These are external protocol
// constants: they must match the DER emitted by every conforming implementation
// byte-for-byte or key material silently stops interoperating.
var (
	// PKCS#8 PrivateKeyInfo header for an Ed25519 seed (RFC 8410).
	// Followed by the 32-byte seed, total 48 bytes.
	pkcs8Prefix = []byte{
		0x30, 0x2e, 0x02, 0x01, 0x00, 0x30, 0x05, 0x06,
		0x03, 0x2b, 0x65, 0x70, 0x04, 0x22, 0x04, 0x20,
	}
	// SubjectPublicKeyInfo header for an Ed25519 public key (RFC 8410).
	// Followed by the 32-byte key, total 44 bytes.
	spkiPrefix = []byte{
		0x30, 0x2a, 0x30, 0x05, 0x06, 0x03, 0x2b, 0x65,
		0x70, 0x03, 0x21, 0x00,
	}
)

const (
	pkcs8Size = 48
	spkiSize  = 44

	// PEM labels for the two key file formats this library reads and writes.
	PrivateKeyPEMLabel = "PRIVATE KEY"
	PublicKeyPEMLabel  = "PUBLIC KEY"
)

// BytesToBase64 encodes bytes as standard padded base64.
func BytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64ToBytes decodes standard base64. Unpadded input is tolerated.
func Base64ToBytes(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// FormatPEM wraps a base64 body in BEGIN/END armor lines for the given label,
// splitting the body into 64-character lines.
func FormatPEM(b64, label string) string {
	var sb strings.Builder
	sb.WriteString("-----BEGIN ")
	sb.WriteString(label)
	sb.WriteString("-----\n")
	for len(b64) > 64 {
		sb.WriteString(b64[:64])
		sb.WriteByte('\n')
		b64 = b64[64:]
	}
	if len(b64) > 0 {
		sb.WriteString(b64)
		sb.WriteByte('\n')
	}
	sb.WriteString("-----END ")
	sb.WriteString(label)
	sb.WriteString("-----\n")
	return sb.String()
}

// ParsePEM strips PEM armor and all whitespace from the body, returning the
// base64 payload. Arbitrary line breaks and indentation are tolerated; the
// label is not checked (callers decide by decoded byte length).
func ParsePEM(pem string) (string, error) {
	var body strings.Builder
	sawArmor := false
	for _, line := range strings.Split(pem, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "-----") {
			sawArmor = true
			continue
		}
		body.WriteString(strings.Join(strings.Fields(trimmed), ""))
	}
	if !sawArmor {
		return "", fmt.Errorf("keys: input is not PEM (missing armor lines)")
	}
	if body.Len() == 0 {
		return "", fmt.Errorf("keys: PEM body is empty")
	}
	return body.String(), nil
}

// IsPEM reports whether s looks like PEM-armored text.
func IsPEM(s string) bool {
	return strings.Contains(s, "-----BEGIN")
}

// WrapSeedPKCS8 wraps a raw 32-byte Ed25519 seed in a PKCS#8 PrivateKeyInfo
// container (48 bytes DER).
func WrapSeedPKCS8(seed []byte) ([]byte, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	out := make([]byte, 0, pkcs8Size)
	out = append(out, pkcs8Prefix...)
	out = append(out, seed...)
	return out, nil
}

// SeedFromPKCS8 extracts the raw 32-byte seed from a 48-byte Ed25519 PKCS#8
// container, validating the fixed header.
func SeedFromPKCS8(der []byte) ([]byte, error) {
	if len(der) != pkcs8Size {
		return nil, fmt.Errorf("keys: ed25519 PKCS#8 key must be %d bytes, got %d", pkcs8Size, len(der))
	}
	if !bytes.Equal(der[:len(pkcs8Prefix)], pkcs8Prefix) {
		return nil, fmt.Errorf("keys: not an ed25519 PKCS#8 key (header mismatch)")
	}
	return append([]byte(nil), der[len(pkcs8Prefix):]...), nil
}

// WrapPublicKeySPKI wraps a raw 32-byte Ed25519 public key in a
// SubjectPublicKeyInfo container (44 bytes DER).
func WrapPublicKeySPKI(raw []byte) ([]byte, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("keys: ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	out := make([]byte, 0, spkiSize)
	out = append(out, spkiPrefix...)
	out = append(out, raw...)
	return out, nil
}

// ExtractRawPublicKey returns the raw 32-byte Ed25519 public key from either
// a 44-byte SPKI container or an already-raw 32-byte key. Any other length is
// rejected.
func ExtractRawPublicKey(key []byte) ([]byte, error) {
	switch len(key) {
	case ed25519.PublicKeySize:
		return append([]byte(nil), key...), nil
	case spkiSize:
		if !bytes.Equal(key[:len(spkiPrefix)], spkiPrefix) {
			return nil, fmt.Errorf("keys: not an ed25519 SPKI key (header mismatch)")
		}
		return append([]byte(nil), key[len(spkiPrefix):]...), nil
	default:
		return nil, fmt.Errorf("keys: public key must be %d (raw) or %d (SPKI) bytes, got %d",
			ed25519.PublicKeySize, spkiSize, len(key))
	}
}
